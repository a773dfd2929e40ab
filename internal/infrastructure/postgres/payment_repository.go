package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

const paymentColumns = `id, number, customer_id, supplier_id, amount, method, note, created_by, idempotency_key, created_at`

// PaymentRepo implementación de PaymentRepository (usable con pool o tx).
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	if !allUUID(p.CustomerID, p.SupplierID) {
		return domain.ErrNotFound
	}
	_, err := r.q.Exec(ctx, `INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Number, nullIfEmpty(p.CustomerID), nullIfEmpty(p.SupplierID), p.Amount, p.Method, p.Note,
		p.CreatedBy, nullIfEmpty(p.IdempotencyKey), p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) || isInvalidText(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

func (r *PaymentRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error) {
	if key == "" {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, key)
}

func (r *PaymentRepo) getOne(ctx context.Context, query, arg string) (*entity.Payment, error) {
	p, err := scanPayment(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// NextSequence mismo esquema que facturas: advisory lock de la tx y conteo+1.
func (r *PaymentRepo) NextSequence(ctx context.Context) (int64, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('payment'))`); err != nil {
		return 0, fmt.Errorf("lock payment sequence: %w", err)
	}
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM payments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return n + 1, nil
}

func (r *PaymentRepo) List(ctx context.Context, limit, offset int) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments
		ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PaymentRepo) ListByParty(ctx context.Context, partyKind, partyID string) ([]*entity.Payment, error) {
	if !isUUID(partyID) {
		return nil, nil
	}
	column := "customer_id"
	if partyKind == entity.PartySupplier {
		column = "supplier_id"
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE `+column+` = $1 ORDER BY created_at, id`, partyID)
	if err != nil {
		return nil, fmt.Errorf("list payments by party: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	var customer, supplier, key *string
	if err := row.Scan(&p.ID, &p.Number, &customer, &supplier, &p.Amount, &p.Method, &p.Note,
		&p.CreatedBy, &key, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.CustomerID, p.SupplierID, p.IdempotencyKey = fromNull(customer), fromNull(supplier), fromNull(key)
	return &p, nil
}
