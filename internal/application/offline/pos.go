package offline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// POS acciones de la UI del terminal. Cada una actualiza el Store de forma optimista y
// encola la mutación; nunca llama al servidor. Si el outbox no se pudo persistir el
// registro queda igual y se devuelve el error envuelto en ErrOutboxUnavailable.
type POS struct {
	store   *Store
	outbox  *Outbox
	session Session
	now     func() time.Time
}

// NewPOS construye las acciones sobre el Store y el Outbox. session puede ser nil.
func NewPOS(store *Store, outbox *Outbox, session Session) *POS {
	return &POS{store: store, outbox: outbox, session: session, now: time.Now}
}

// CheckoutOptions datos de cobro de la venta. Paid nil = pago total.
type CheckoutOptions struct {
	CustomerID    string
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Paid          *decimal.Decimal
	PaymentMethod string
}

// PurchaseInput compra a proveedor.
type PurchaseInput struct {
	SupplierID    string
	Lines         []InvoiceLine
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Paid          *decimal.Decimal
	PaymentMethod string
}

// ReturnInput devolución contra una venta. UnitPrice en cero toma el precio de la venta original.
type ReturnInput struct {
	OriginalInvoice ID
	Lines           []InvoiceLine
	Paid            *decimal.Decimal
	PaymentMethod   string
}

// CreateProduct alta optimista de producto; Quantity es el inventario inicial.
func (p *POS) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (ID, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return ID{}, fmt.Errorf("%w: nombre requerido", ErrInvalidInput)
	}
	for _, v := range []decimal.Decimal{req.Price, req.Cost, req.Quantity, req.MinQuantity} {
		if v.IsNegative() {
			return ID{}, fmt.Errorf("%w: valores negativos", ErrInvalidInput)
		}
	}
	id := p.store.AddProduct(Product{
		Name:        req.Name,
		Barcode:     req.Barcode,
		CategoryID:  req.CategoryID,
		Price:       req.Price,
		Cost:        req.Cost,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
	})
	_, err := p.outbox.Enqueue(ctx, CreateProduct{Local: id, Request: req})
	return id, err
}

// AddToCart agrega el producto al carrito con su precio de venta.
func (p *POS) AddToCart(productID ID, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: cantidad debe ser mayor a cero", ErrInvalidInput)
	}
	prod, ok := p.store.Product(productID)
	if !ok {
		return ErrUnknownProduct
	}
	p.store.AddToCart(CartLine{ProductID: productID, Quantity: qty, UnitPrice: prod.Price})
	return nil
}

// Checkout convierte el carrito en una venta pendiente de conciliación y lo vacía.
// Las existencias locales no se tocan: llegan del servidor tras la conciliación.
func (p *POS) Checkout(ctx context.Context, opts CheckoutOptions) (ID, error) {
	cart := p.store.Cart()
	if len(cart) == 0 {
		return ID{}, ErrEmptyCart
	}
	lines := make([]InvoiceLine, 0, len(cart))
	for _, l := range cart {
		lines = append(lines, InvoiceLine(l))
	}
	id, err := p.record(ctx, InvoicePayload{
		Type:          entity.InvoiceTypeSale,
		CustomerID:    opts.CustomerID,
		Lines:         lines,
		Discount:      opts.Discount,
		Tax:           opts.Tax,
		PaymentMethod: opts.PaymentMethod,
	}, opts.Paid)
	if !id.IsZero() {
		p.store.ClearCart()
	}
	return id, err
}

// RecordPurchase registra una compra; al conciliarse suma existencias y recalcula costo.
func (p *POS) RecordPurchase(ctx context.Context, in PurchaseInput) (ID, error) {
	if len(in.Lines) == 0 {
		return ID{}, fmt.Errorf("%w: la compra no tiene líneas", ErrInvalidInput)
	}
	return p.record(ctx, InvoicePayload{
		Type:          entity.InvoiceTypePurchase,
		SupplierID:    in.SupplierID,
		Lines:         in.Lines,
		Discount:      in.Discount,
		Tax:           in.Tax,
		PaymentMethod: in.PaymentMethod,
	}, in.Paid)
}

// RecordReturn registra una devolución contra una venta ya confirmada. Si la venta está en el
// terminal, la cantidad se acota localmente contra sus líneas y las devoluciones previas.
func (p *POS) RecordReturn(ctx context.Context, in ReturnInput) (ID, error) {
	if len(in.Lines) == 0 {
		return ID{}, fmt.Errorf("%w: la devolución no tiene líneas", ErrInvalidInput)
	}
	payload := InvoicePayload{Type: entity.InvoiceTypeReturn, PaymentMethod: in.PaymentMethod}

	orig, found := p.store.Invoice(in.OriginalInvoice)
	switch {
	case found:
		if !orig.Confirmed() {
			return ID{}, ErrNotConfirmed
		}
		if orig.Type != entity.InvoiceTypeSale {
			return ID{}, fmt.Errorf("%w: solo se devuelven ventas", ErrInvalidInput)
		}
		lines, err := p.boundReturn(orig, in.Lines)
		if err != nil {
			return ID{}, err
		}
		payload.Lines = lines
		payload.OriginalInvoiceID = orig.RemoteID
		payload.CustomerID = orig.CustomerID
	case in.OriginalInvoice.IsLocal() || in.OriginalInvoice.IsZero():
		return ID{}, fmt.Errorf("%w: factura original desconocida", ErrInvalidInput)
	default:
		// venta de otro terminal: el servidor valida el tope
		payload.Lines = in.Lines
		payload.OriginalInvoiceID = in.OriginalInvoice.Remote()
	}
	return p.record(ctx, payload, in.Paid)
}

// boundReturn completa precios y verifica cantidad y precio contra la venta original.
func (p *POS) boundReturn(orig Invoice, lines []InvoiceLine) ([]InvoiceLine, error) {
	sold := make(map[ID]decimal.Decimal)
	price := make(map[ID]decimal.Decimal)
	for _, l := range orig.Lines {
		sold[l.ProductID] = sold[l.ProductID].Add(l.Quantity)
		if l.UnitPrice.GreaterThan(price[l.ProductID]) {
			price[l.ProductID] = l.UnitPrice
		}
	}
	returned := make(map[ID]decimal.Decimal)
	for _, inv := range p.store.Invoices() {
		if inv.Type != entity.InvoiceTypeReturn || inv.OriginalInvoiceID != orig.RemoteID {
			continue
		}
		for _, l := range inv.Lines {
			returned[l.ProductID] = returned[l.ProductID].Add(l.Quantity)
		}
	}

	out := make([]InvoiceLine, 0, len(lines))
	for _, l := range lines {
		limit, ok := sold[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s no está en la venta original", ErrReturnExceeds, l.ProductID)
		}
		returned[l.ProductID] = returned[l.ProductID].Add(l.Quantity)
		if returned[l.ProductID].GreaterThan(limit) {
			return nil, fmt.Errorf("%w: %s", ErrReturnExceeds, l.ProductID)
		}
		if l.UnitPrice.IsZero() {
			l.UnitPrice = price[l.ProductID]
		}
		if l.UnitPrice.GreaterThan(price[l.ProductID]) {
			return nil, fmt.Errorf("%w: precio de %s", ErrReturnExceeds, l.ProductID)
		}
		out = append(out, l)
	}
	return out, nil
}

// RecordPayment abono de cliente o pago a proveedor (exactamente uno de los dos).
func (p *POS) RecordPayment(ctx context.Context, req dto.CreatePaymentRequest) (ID, error) {
	if (req.CustomerID == "") == (req.SupplierID == "") {
		return ID{}, fmt.Errorf("%w: indicar cliente o proveedor", ErrInvalidInput)
	}
	if !req.Amount.IsPositive() {
		return ID{}, fmt.Errorf("%w: monto debe ser mayor a cero", ErrInvalidInput)
	}
	req.CreatedBy = p.userID()
	id := p.store.AddPayment(Payment{
		CustomerID: req.CustomerID,
		SupplierID: req.SupplierID,
		Amount:     req.Amount,
		Method:     req.Method,
		Note:       req.Note,
		CreatedBy:  req.CreatedBy,
		CreatedAt:  p.now(),
	})
	_, err := p.outbox.Enqueue(ctx, CreatePayment{Local: id, Request: req})
	return id, err
}

// DeleteLocalProduct borra un producto que nunca se sincronizó y cancela su alta pendiente.
func (p *POS) DeleteLocalProduct(ctx context.Context, id ID) error {
	if !id.IsLocal() {
		return fmt.Errorf("%w: solo se borran productos sin confirmar", ErrInvalidInput)
	}
	if p.outbox.ReferencesProduct(id) {
		return ErrInUse
	}
	var err error
	if item, ok := p.outbox.FindByPlaceholder(id); ok {
		if _, err = p.outbox.Cancel(ctx, item.ID); err != nil && !errors.Is(err, ErrOutboxUnavailable) {
			return err
		}
	}
	p.store.RemoveProduct(id)
	return err
}

// Cancel quita del outbox una mutación sin confirmar y su registro optimista.
func (p *POS) Cancel(ctx context.Context, outboxID string) error {
	item, ok := p.outbox.Get(outboxID)
	if !ok {
		return ErrNotPending
	}
	if item.Kind == KindProduct && p.outbox.ReferencesProduct(item.Mutation.Placeholder()) {
		return ErrInUse
	}
	removed, err := p.outbox.Cancel(ctx, outboxID)
	if err != nil && !errors.Is(err, ErrOutboxUnavailable) {
		return err
	}
	switch m := removed.Mutation.(type) {
	case CreateProduct:
		p.store.RemoveProduct(m.Local)
	case CreateInvoice:
		p.store.RemoveInvoice(m.Local)
	case CreatePayment:
		p.store.RemovePayment(m.Local)
	}
	return err
}

// record valida, calcula totales, guarda la factura en el Store y la encola.
func (p *POS) record(ctx context.Context, payload InvoicePayload, paid *decimal.Decimal) (ID, error) {
	if role := p.role(); role != "" && !entity.CanCreateInvoice(role, payload.Type) {
		return ID{}, ErrForbidden
	}
	if payload.Discount.IsNegative() || payload.Tax.IsNegative() {
		return ID{}, fmt.Errorf("%w: descuento e impuesto no pueden ser negativos", ErrInvalidInput)
	}
	inv := entity.Invoice{Type: payload.Type, Discount: payload.Discount, Tax: payload.Tax}
	for _, l := range payload.Lines {
		if !l.Quantity.IsPositive() || l.UnitPrice.IsNegative() {
			return ID{}, fmt.Errorf("%w: cantidad o precio inválido", ErrInvalidInput)
		}
		if _, ok := p.store.Product(l.ProductID); !ok {
			return ID{}, fmt.Errorf("%w: %s", ErrUnknownProduct, l.ProductID)
		}
		inv.Items = append(inv.Items, entity.InvoiceItem{Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	inv.ComputeTotals()
	if paid != nil {
		inv.Paid = *paid
	} else {
		inv.Paid = inv.Total
	}
	inv.ComputeTotals()
	if inv.Total.IsNegative() || inv.Paid.IsNegative() || inv.Paid.GreaterThan(inv.Total) {
		return ID{}, fmt.Errorf("%w: pagado fuera de rango", ErrInvalidInput)
	}

	payload.Lines = cloneLines(payload.Lines)
	payload.Total = inv.Total
	payload.Paid = inv.Paid
	payload.CreatedBy = p.userID()

	id := p.store.AddInvoice(Invoice{
		InvoicePayload: payload,
		Subtotal:       inv.Subtotal,
		Remaining:      inv.Remaining,
		CreatedAt:      p.now(),
	})
	_, err := p.outbox.Enqueue(ctx, CreateInvoice{Local: id, Payload: payload})
	return id, err
}

func (p *POS) userID() string {
	if p.session == nil {
		return ""
	}
	return p.session.CurrentUserID()
}

func (p *POS) role() string {
	if p.session == nil {
		return ""
	}
	return p.session.CurrentRole()
}
