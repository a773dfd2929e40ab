package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ repository.PartyRepository = (*PartyRepo)(nil)

const partyColumns = `id, name, phone, email, address, notes, balance, total_purchases, created_at, updated_at`

// PartyRepo implementación de PartyRepository sobre customers o suppliers (misma forma).
type PartyRepo struct {
	q     Querier
	table string
}

// NewCustomerRepository adaptador sobre la tabla customers.
func NewCustomerRepository(q Querier) *PartyRepo {
	return &PartyRepo{q: q, table: "customers"}
}

// NewSupplierRepository adaptador sobre la tabla suppliers.
func NewSupplierRepository(q Querier) *PartyRepo {
	return &PartyRepo{q: q, table: "suppliers"}
}

func (r *PartyRepo) Create(ctx context.Context, p *entity.Party) error {
	_, err := r.q.Exec(ctx, `INSERT INTO `+r.table+` (`+partyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Name, p.Phone, p.Email, p.Address, p.Notes, p.Balance, p.TotalPurchases, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

func (r *PartyRepo) GetByID(ctx context.Context, id string) (*entity.Party, error) {
	if !isUUID(id) {
		return nil, nil
	}
	p, err := scanParty(r.q.QueryRow(ctx, `SELECT `+partyColumns+` FROM `+r.table+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", r.table, err)
	}
	return p, nil
}

func (r *PartyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Party, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+partyColumns+` FROM `+r.table+` ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	defer rows.Close()
	var list []*entity.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ApplyBalance suma los deltas en la misma sentencia; la fila queda bloqueada hasta el commit.
func (r *PartyRepo) ApplyBalance(ctx context.Context, id string, balanceDelta, purchasesDelta decimal.Decimal) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `UPDATE `+r.table+`
		SET balance = balance + $2, total_purchases = total_purchases + $3, updated_at = now()
		WHERE id = $1`, id, balanceDelta, purchasesDelta)
	if err != nil {
		return fmt.Errorf("apply balance %s: %w", r.table, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanParty(row pgx.Row) (*entity.Party, error) {
	var p entity.Party
	if err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.Address, &p.Notes, &p.Balance,
		&p.TotalPurchases, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
