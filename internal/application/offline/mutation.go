package offline

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-sync/internal/application/dto"
)

// Kind tipo de mutación encolada.
type Kind string

const (
	KindProduct Kind = "create-product"
	KindInvoice Kind = "create-invoice"
	KindPayment Kind = "create-payment"
)

// drainOrder orden en que el Engine recorre los tipos: los productos primero para que las
// facturas que los referencian ya tengan ID remoto.
var drainOrder = []Kind{KindProduct, KindInvoice, KindPayment}

// Mutation unión cerrada de las mutaciones que el terminal puede encolar.
// Solo la implementan CreateProduct, CreateInvoice y CreatePayment.
type Mutation interface {
	Kind() Kind
	// Placeholder ID local del registro optimista que la mutación confirma.
	Placeholder() ID
	mutation()
}

// CreateProduct alta de producto hecha sin conexión.
type CreateProduct struct {
	Local   ID                       `json:"local_id"`
	Request dto.CreateProductRequest `json:"request"`
}

// CreateInvoice factura (venta, compra o devolución) pendiente de conciliación.
type CreateInvoice struct {
	Local   ID             `json:"local_id"`
	Payload InvoicePayload `json:"payload"`
}

// CreatePayment abono o pago pendiente.
type CreatePayment struct {
	Local   ID                       `json:"local_id"`
	Request dto.CreatePaymentRequest `json:"request"`
}

func (CreateProduct) Kind() Kind { return KindProduct }
func (CreateInvoice) Kind() Kind { return KindInvoice }
func (CreatePayment) Kind() Kind { return KindPayment }

func (m CreateProduct) Placeholder() ID { return m.Local }
func (m CreateInvoice) Placeholder() ID { return m.Local }
func (m CreatePayment) Placeholder() ID { return m.Local }

func (CreateProduct) mutation() {}
func (CreateInvoice) mutation() {}
func (CreatePayment) mutation() {}

// InvoiceLine línea de factura en el terminal. ProductID puede ser local hasta que el
// producto se confirme.
type InvoiceLine struct {
	ProductID ID              `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// InvoicePayload copia de la factura al momento de encolarla.
type InvoicePayload struct {
	Type              string          `json:"type"`
	CustomerID        string          `json:"customer_id,omitempty"`
	SupplierID        string          `json:"supplier_id,omitempty"`
	OriginalInvoiceID string          `json:"original_invoice_id,omitempty"`
	Lines             []InvoiceLine   `json:"lines"`
	Discount          decimal.Decimal `json:"discount"`
	Tax               decimal.Decimal `json:"tax"`
	Total             decimal.Decimal `json:"total"`
	Paid              decimal.Decimal `json:"paid"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	CreatedBy         string          `json:"created_by,omitempty"`
}

// Request arma el body del procedimiento de conciliación.
// ErrUnresolvedReference si alguna línea aún apunta a un producto local.
func (p InvoicePayload) Request() (dto.CreateInvoiceRequest, error) {
	items := make([]dto.InvoiceItemRequest, 0, len(p.Lines))
	for _, l := range p.Lines {
		if l.ProductID.IsLocal() {
			return dto.CreateInvoiceRequest{}, fmt.Errorf("%w: %s", ErrUnresolvedReference, l.ProductID)
		}
		items = append(items, dto.InvoiceItemRequest{
			ProductID: l.ProductID.Remote(),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	total := p.Total
	return dto.CreateInvoiceRequest{
		Type:              p.Type,
		CustomerID:        p.CustomerID,
		SupplierID:        p.SupplierID,
		OriginalInvoiceID: p.OriginalInvoiceID,
		Items:             items,
		Discount:          p.Discount,
		Tax:               p.Tax,
		Total:             &total,
		Paid:              p.Paid,
		PaymentMethod:     p.PaymentMethod,
		CreatedBy:         p.CreatedBy,
	}, nil
}

// references indica si la mutación apunta al producto id.
func references(m Mutation, id ID) bool {
	inv, ok := m.(CreateInvoice)
	if !ok {
		return false
	}
	for _, l := range inv.Payload.Lines {
		if l.ProductID == id {
			return true
		}
	}
	return false
}

// rewriteMutation reemplaza from por to en las referencias de la mutación.
// Devuelve una copia; el original no se modifica.
func rewriteMutation(m Mutation, from, to ID) (Mutation, bool) {
	inv, ok := m.(CreateInvoice)
	if !ok || !references(m, from) {
		return m, false
	}
	lines := make([]InvoiceLine, len(inv.Payload.Lines))
	copy(lines, inv.Payload.Lines)
	for i := range lines {
		if lines[i].ProductID == from {
			lines[i].ProductID = to
		}
	}
	inv.Payload.Lines = lines
	return inv, true
}

// EncodeMutation serializa la mutación para persistirla junto a su Kind.
func EncodeMutation(m Mutation) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	return b, nil
}

// DecodeMutation reconstruye la variante concreta a partir del Kind persistido.
func DecodeMutation(kind Kind, payload []byte) (Mutation, error) {
	switch kind {
	case KindProduct:
		var m CreateProduct
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return m, nil
	case KindInvoice:
		var m CreateInvoice
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return m, nil
	case KindPayment:
		var m CreatePayment
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMutation, kind)
}
