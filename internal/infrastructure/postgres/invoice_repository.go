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

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, number, type, customer_id, supplier_id, original_invoice_id, subtotal, discount, tax,
	total, paid, remaining, status, payment_method, created_by, idempotency_key, created_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera y sus ítems. Debe correr dentro de una tx para que ambos queden juntos.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if !allUUID(inv.CustomerID, inv.SupplierID, inv.OriginalInvoiceID) {
		return domain.ErrNotFound
	}
	for _, it := range inv.Items {
		if !isUUID(it.ProductID) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownProduct, it.ProductID)
		}
	}
	_, err := r.q.Exec(ctx, `INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		inv.ID, inv.Number, inv.Type, nullIfEmpty(inv.CustomerID), nullIfEmpty(inv.SupplierID),
		nullIfEmpty(inv.OriginalInvoiceID), inv.Subtotal, inv.Discount, inv.Tax, inv.Total, inv.Paid,
		inv.Remaining, inv.Status, inv.PaymentMethod, inv.CreatedBy, nullIfEmpty(inv.IdempotencyKey), inv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) || isInvalidText(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	for pos, it := range inv.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, position, product_id, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, inv.ID, pos, it.ProductID, it.Quantity, it.UnitPrice, it.LineTotal,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrUnknownProduct
			}
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la factura con sus ítems.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

func (r *InvoiceRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Invoice, error) {
	if key == "" {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE idempotency_key = $1`, key)
}

func (r *InvoiceRepo) getOne(ctx context.Context, query string, arg string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, product_id, quantity, unit_price, line_total
		FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		inv.Items = append(inv.Items, it)
	}
	return inv, rows.Err()
}

// NextSequence toma un advisory lock por tipo hasta el fin de la tx; dos conciliaciones
// concurrentes del mismo tipo quedan en fila y no repiten número.
func (r *InvoiceRepo) NextSequence(ctx context.Context, invoiceType string) (int64, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('invoice:' || $1))`, invoiceType); err != nil {
		return 0, fmt.Errorf("lock invoice sequence: %w", err)
	}
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM invoices WHERE type = $1`, invoiceType).Scan(&n); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n + 1, nil
}

// List cabeceras (sin ítems) de la más reciente a la más antigua.
func (r *InvoiceRepo) List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices
		ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// ListByParty cabeceras (sin ítems) de la contraparte ordenadas por fecha.
func (r *InvoiceRepo) ListByParty(ctx context.Context, partyKind, partyID string) ([]*entity.Invoice, error) {
	if !isUUID(partyID) {
		return nil, nil
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE customer_id = $1 AND type <> 'purchase' ORDER BY created_at, id`
	if partyKind == entity.PartySupplier {
		query = `SELECT ` + invoiceColumns + ` FROM invoices WHERE supplier_id = $1 AND type = 'purchase' ORDER BY created_at, id`
	}
	rows, err := r.q.Query(ctx, query, partyID)
	if err != nil {
		return nil, fmt.Errorf("list invoices by party: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// ReturnedQuantities suma por producto lo devuelto contra la factura original (sin anuladas).
func (r *InvoiceRepo) ReturnedQuantities(ctx context.Context, originalInvoiceID string) (map[string]decimal.Decimal, error) {
	if !isUUID(originalInvoiceID) {
		return map[string]decimal.Decimal{}, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT ii.product_id, SUM(ii.quantity)
		FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		WHERE i.original_invoice_id = $1 AND i.type = 'return' AND i.status <> 'cancelled'
		GROUP BY ii.product_id`, originalInvoiceID)
	if err != nil {
		return nil, fmt.Errorf("returned quantities: %w", err)
	}
	defer rows.Close()
	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var productID string
		var qty decimal.Decimal
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, fmt.Errorf("scan returned quantity: %w", err)
		}
		out[productID] = qty
	}
	return out, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var customer, supplier, original, key *string
	if err := row.Scan(&inv.ID, &inv.Number, &inv.Type, &customer, &supplier, &original, &inv.Subtotal,
		&inv.Discount, &inv.Tax, &inv.Total, &inv.Paid, &inv.Remaining, &inv.Status, &inv.PaymentMethod,
		&inv.CreatedBy, &key, &inv.CreatedAt); err != nil {
		return nil, err
	}
	inv.CustomerID, inv.SupplierID = fromNull(customer), fromNull(supplier)
	inv.OriginalInvoiceID, inv.IdempotencyKey = fromNull(original), fromNull(key)
	return &inv, nil
}
