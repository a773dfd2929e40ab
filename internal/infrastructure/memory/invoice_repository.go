package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)
var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// InvoiceRepo facturas en memoria.
type InvoiceRepo struct {
	src source
}

// Create respeta la unicidad de número (por tipo) y de clave de idempotencia.
func (r *InvoiceRepo) Create(_ context.Context, invoice *entity.Invoice) error {
	return r.src.write(func(s *state) error {
		if _, ok := s.invoices[invoice.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, inv := range s.invoices {
			if inv.Type == invoice.Type && inv.Number == invoice.Number {
				return domain.ErrDuplicate
			}
			if invoice.IdempotencyKey != "" && inv.IdempotencyKey == invoice.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
		c := *invoice
		c.Items = append([]entity.InvoiceItem(nil), invoice.Items...)
		s.invoices[c.ID] = c
		s.invoiceOrder = append(s.invoiceOrder, c.ID)
		return nil
	})
}

func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.src.read(func(s *state) error {
		if inv, ok := s.invoices[id]; ok {
			out = copyInvoice(inv)
		}
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.src.read(func(s *state) error {
		if key == "" {
			return nil
		}
		for _, inv := range s.invoices {
			if inv.IdempotencyKey == key {
				out = copyInvoice(inv)
				return nil
			}
		}
		return nil
	})
	return out, err
}

// NextSequence en memoria la serialización la da el TxRunner.
func (r *InvoiceRepo) NextSequence(_ context.Context, invoiceType string) (int64, error) {
	var n int64
	err := r.src.read(func(s *state) error {
		for _, inv := range s.invoices {
			if inv.Type == invoiceType {
				n++
			}
		}
		return nil
	})
	return n + 1, err
}

func (r *InvoiceRepo) List(_ context.Context, limit, offset int) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	err := r.src.read(func(s *state) error {
		for _, id := range newestFirst(s.invoiceOrder, limit, offset) {
			inv := copyInvoice(s.invoices[id])
			inv.Items = nil
			out = append(out, inv)
		}
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) ListByParty(_ context.Context, partyKind, partyID string) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	err := r.src.read(func(s *state) error {
		for _, id := range s.invoiceOrder {
			inv := s.invoices[id]
			if kind, pid := inv.Party(); kind == partyKind && pid == partyID {
				out = append(out, copyInvoice(inv))
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *InvoiceRepo) ReturnedQuantities(_ context.Context, originalInvoiceID string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	err := r.src.read(func(s *state) error {
		for _, inv := range s.invoices {
			if inv.Type != entity.InvoiceTypeReturn || inv.OriginalInvoiceID != originalInvoiceID {
				continue
			}
			if inv.Status == entity.InvoiceStatusCancelled {
				continue
			}
			for _, it := range inv.Items {
				out[it.ProductID] = out[it.ProductID].Add(it.Quantity)
			}
		}
		return nil
	})
	return out, err
}

func copyInvoice(inv entity.Invoice) *entity.Invoice {
	inv.Items = append([]entity.InvoiceItem(nil), inv.Items...)
	return &inv
}

// PaymentRepo pagos en memoria.
type PaymentRepo struct {
	src source
}

func (r *PaymentRepo) Create(_ context.Context, payment *entity.Payment) error {
	return r.src.write(func(s *state) error {
		if _, ok := s.payments[payment.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, p := range s.payments {
			if p.Number == payment.Number {
				return domain.ErrDuplicate
			}
			if payment.IdempotencyKey != "" && p.IdempotencyKey == payment.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
		s.payments[payment.ID] = *payment
		s.paymentOrder = append(s.paymentOrder, payment.ID)
		return nil
	})
}

func (r *PaymentRepo) GetByID(_ context.Context, id string) (*entity.Payment, error) {
	var out *entity.Payment
	err := r.src.read(func(s *state) error {
		if p, ok := s.payments[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *PaymentRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.Payment, error) {
	var out *entity.Payment
	err := r.src.read(func(s *state) error {
		for _, p := range s.payments {
			if key != "" && p.IdempotencyKey == key {
				p := p
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *PaymentRepo) NextSequence(_ context.Context) (int64, error) {
	var n int64
	err := r.src.read(func(s *state) error {
		n = int64(len(s.payments))
		return nil
	})
	return n + 1, err
}

func (r *PaymentRepo) List(_ context.Context, limit, offset int) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.src.read(func(s *state) error {
		for _, id := range newestFirst(s.paymentOrder, limit, offset) {
			p := s.payments[id]
			out = append(out, &p)
		}
		return nil
	})
	return out, err
}

func (r *PaymentRepo) ListByParty(_ context.Context, partyKind, partyID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.src.read(func(s *state) error {
		for _, id := range s.paymentOrder {
			p := s.payments[id]
			if kind, pid := p.Party(); kind == partyKind && pid == partyID {
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

// newestFirst recorre el orden de inserción al revés y aplica la ventana limit/offset.
func newestFirst(order []string, limit, offset int) []string {
	var out []string
	for i := len(order) - 1 - offset; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, order[i])
	}
	return out
}
