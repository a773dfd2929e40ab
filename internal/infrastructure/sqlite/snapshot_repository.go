package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jhoicas/pos-sync/internal/application/offline"
)

const (
	keyStore   = "store"
	keySession = "session"
)

type kvRow struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (kvRow) TableName() string { return "kv" }

// Session credenciales del usuario que inició sesión en el terminal.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) CurrentUserID() string {
	if s == nil {
		return ""
	}
	return s.UserID
}

func (s *Session) CurrentRole() string {
	if s == nil {
		return ""
	}
	return s.Role
}

// SnapshotRepository implementa offline.SnapshotPersister y guarda la sesión.
type SnapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// LoadSnapshot devuelve (nil, nil) si el terminal nunca guardó estado.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context) (*offline.Snapshot, error) {
	var snap offline.Snapshot
	ok, err := r.get(ctx, keyStore, &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snap offline.Snapshot) error {
	return r.put(ctx, keyStore, snap)
}

// LoadSession devuelve (nil, nil) si no hay sesión.
func (r *SnapshotRepository) LoadSession(ctx context.Context) (*Session, error) {
	var s Session
	ok, err := r.get(ctx, keySession, &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

func (r *SnapshotRepository) SaveSession(ctx context.Context, s Session) error {
	return r.put(ctx, keySession, s)
}

func (r *SnapshotRepository) ClearSession(ctx context.Context) error {
	return r.db.conn.WithContext(ctx).Delete(&kvRow{Key: keySession}).Error
}

func (r *SnapshotRepository) get(ctx context.Context, key string, dst any) (bool, error) {
	var row kvRow
	err := r.db.conn.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("leer %s: %w", key, err)
	}
	if err := json.Unmarshal(row.Value, dst); err != nil {
		return false, fmt.Errorf("decodificar %s: %w", key, err)
	}
	return true, nil
}

func (r *SnapshotRepository) put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("codificar %s: %w", key, err)
	}
	err = r.db.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&kvRow{Key: key, Value: b, UpdatedAt: time.Now()}).Error
	if err != nil {
		return fmt.Errorf("guardar %s: %w", key, err)
	}
	return nil
}
