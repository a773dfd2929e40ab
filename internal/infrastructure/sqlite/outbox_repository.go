package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jhoicas/pos-sync/internal/application/offline"
)

type outboxRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	Seq         uint64 `gorm:"not null;index"`
	Kind        string `gorm:"size:32;not null"`
	Payload     []byte `gorm:"not null"`
	Retries     int    `gorm:"not null;default:0"`
	LastAttempt *time.Time
	LastError   string `gorm:"size:500"`
	State       string `gorm:"size:16;not null"`
	CreatedAt   time.Time
}

func (outboxRow) TableName() string { return "outbox" }

// OutboxRepository implementa offline.OutboxPersister sobre SQLite.
type OutboxRepository struct {
	db *DB
}

func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Load devuelve los ítems en orden de encolado.
func (r *OutboxRepository) Load(ctx context.Context) ([]offline.Item, error) {
	var rows []outboxRow
	if err := r.db.conn.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("leer outbox: %w", err)
	}
	items := make([]offline.Item, 0, len(rows))
	for _, row := range rows {
		m, err := offline.DecodeMutation(offline.Kind(row.Kind), row.Payload)
		if err != nil {
			return nil, fmt.Errorf("outbox %s: %w", row.ID, err)
		}
		it := offline.Item{
			ID:        row.ID,
			Seq:       row.Seq,
			Kind:      offline.Kind(row.Kind),
			Mutation:  m,
			Retries:   row.Retries,
			LastError: row.LastError,
			State:     offline.State(row.State),
			CreatedAt: row.CreatedAt,
		}
		if row.LastAttempt != nil {
			it.LastAttempt = *row.LastAttempt
		}
		items = append(items, it)
	}
	return items, nil
}

// Save reemplaza el contenido completo en una sola transacción.
func (r *OutboxRepository) Save(ctx context.Context, items []offline.Item) error {
	rows := make([]outboxRow, 0, len(items))
	for _, it := range items {
		payload, err := offline.EncodeMutation(it.Mutation)
		if err != nil {
			return err
		}
		row := outboxRow{
			ID:        it.ID,
			Seq:       it.Seq,
			Kind:      string(it.Kind),
			Payload:   payload,
			Retries:   it.Retries,
			LastError: it.LastError,
			State:     string(it.State),
			CreatedAt: it.CreatedAt,
		}
		if !it.LastAttempt.IsZero() {
			t := it.LastAttempt
			row.LastAttempt = &t
		}
		rows = append(rows, row)
	}
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&outboxRow{}).Error; err != nil {
			return fmt.Errorf("limpiar outbox: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("guardar outbox: %w", err)
		}
		return nil
	})
}
