package offline

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// Product producto tal como lo ve el terminal. Con ID local mientras su alta no se confirme.
type Product struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Barcode     string          `json:"barcode,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
}

// Party cliente o proveedor descargado del servidor (el terminal no los crea offline).
// Balance es informativo: solo la conciliación del servidor lo modifica.
type Party struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Name    string          `json:"name"`
	Phone   string          `json:"phone,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

// Invoice factura registrada en el terminal. ID es el placeholder local y no cambia al
// confirmarse; RemoteID y Number llegan con la conciliación.
type Invoice struct {
	ID       ID     `json:"id"`
	RemoteID string `json:"remote_id,omitempty"`
	Number   string `json:"number,omitempty"`
	InvoicePayload
	Subtotal  decimal.Decimal `json:"subtotal"`
	Remaining decimal.Decimal `json:"remaining"`
	CreatedAt time.Time       `json:"created_at"`
}

// Confirmed indica si el servidor ya concilió la factura.
func (i Invoice) Confirmed() bool { return i.RemoteID != "" }

// Payment pago registrado en el terminal; mismo esquema de confirmación que Invoice.
type Payment struct {
	ID         ID              `json:"id"`
	RemoteID   string          `json:"remote_id,omitempty"`
	Number     string          `json:"number,omitempty"`
	CustomerID string          `json:"customer_id,omitempty"`
	SupplierID string          `json:"supplier_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method,omitempty"`
	Note       string          `json:"note,omitempty"`
	CreatedBy  string          `json:"created_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (p Payment) Confirmed() bool { return p.RemoteID != "" }

// CartLine línea del carrito activo.
type CartLine struct {
	ProductID ID              `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Record registros que admiten alta optimista: Product, Invoice y Payment.
type Record interface {
	record()
}

func (Product) record() {}
func (Invoice) record() {}
func (Payment) record() {}

// EventType tipo de cambio notificado a los observadores.
type EventType string

const (
	EventCreated   EventType = "created"
	EventRewritten EventType = "rewritten"
	EventConfirmed EventType = "confirmed"
	EventRemoved   EventType = "removed"
	EventUpdated   EventType = "updated"
	EventCart      EventType = "cart"
	EventCatalog   EventType = "catalog"
	EventRestored  EventType = "restored"
)

// Event cambio en el Store. To solo aplica a EventRewritten.
type Event struct {
	Type EventType
	ID   ID
	To   ID
}

// Snapshot estado serializable del Store.
type Snapshot struct {
	NextLocal uint64     `json:"next_local"`
	Products  []Product  `json:"products"`
	Customers []Party    `json:"customers"`
	Suppliers []Party    `json:"suppliers"`
	Invoices  []Invoice  `json:"invoices"`
	Payments  []Payment  `json:"payments"`
	Cart      []CartLine `json:"cart"`
}

// Store vista local de todas las colecciones; la UI renderiza desde aquí.
// No hace llamadas de red: solo la alimentan las acciones del POS y el Engine.
type Store struct {
	mu        sync.RWMutex
	next      uint64
	products  []Product
	customers []Party
	suppliers []Party
	invoices  []Invoice
	payments  []Payment
	cart      []CartLine

	subMu  sync.Mutex
	subSeq int
	subs   map[int]func(Event)
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(Event))}
}

// Subscribe registra un observador. Devuelve la función para darlo de baja.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subSeq++
	id := s.subSeq
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(e Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// ApplyOptimisticCreate asigna un ID local al registro, lo inserta y lo devuelve.
func (s *Store) ApplyOptimisticCreate(rec Record) ID {
	s.mu.Lock()
	s.next++
	id := LocalID(s.next)
	switch r := rec.(type) {
	case Product:
		r.ID = id
		s.products = append(s.products, r)
	case Invoice:
		r.ID = id
		r.Lines = cloneLines(r.Lines)
		s.invoices = append(s.invoices, r)
	case Payment:
		r.ID = id
		s.payments = append(s.payments, r)
	}
	s.mu.Unlock()
	s.notify(Event{Type: EventCreated, ID: id})
	return id
}

func (s *Store) AddProduct(p Product) ID { return s.ApplyOptimisticCreate(p) }
func (s *Store) AddInvoice(i Invoice) ID { return s.ApplyOptimisticCreate(i) }
func (s *Store) AddPayment(p Payment) ID { return s.ApplyOptimisticCreate(p) }

// RewriteID reemplaza from por to en productos, facturas, pagos, líneas de factura y carrito.
// Idempotente: si from ya no aparece no hace nada y devuelve false.
func (s *Store) RewriteID(from, to ID) bool {
	if from == to || from.IsZero() || to.IsZero() {
		return false
	}
	s.mu.Lock()
	changed := false

	if i := s.productIndex(from); i >= 0 {
		if s.productIndex(to) >= 0 {
			// el catálogo ya trajo el producto confirmado; el placeholder sobra
			s.products = append(s.products[:i], s.products[i+1:]...)
		} else {
			s.products[i].ID = to
		}
		changed = true
	}
	for k := range s.invoices {
		inv := &s.invoices[k]
		if inv.ID == from {
			inv.ID = to
			changed = true
		}
		if linesReference(inv.Lines, from) {
			inv.Lines = rewriteLines(inv.Lines, from, to)
			changed = true
		}
	}
	for k := range s.payments {
		if s.payments[k].ID == from {
			s.payments[k].ID = to
			changed = true
		}
	}
	for k := range s.cart {
		if s.cart[k].ProductID == from {
			s.cart[k].ProductID = to
			changed = true
		}
	}
	if changed {
		s.cart = mergeCart(s.cart)
	}
	s.mu.Unlock()

	if changed {
		s.notify(Event{Type: EventRewritten, ID: from, To: to})
	}
	return changed
}

// PutProduct reemplaza (o inserta) el producto con el mismo ID, p.ej. con los datos que devolvió el servidor.
func (s *Store) PutProduct(p Product) {
	s.mu.Lock()
	if i := s.productIndex(p.ID); i >= 0 {
		s.products[i] = p
	} else {
		s.products = append(s.products, p)
	}
	s.mu.Unlock()
	s.notify(Event{Type: EventUpdated, ID: p.ID})
}

// ConfirmInvoice registra el ID y número asignados por la conciliación sin tocar el placeholder.
func (s *Store) ConfirmInvoice(placeholder ID, remoteID, number string) bool {
	s.mu.Lock()
	found := false
	for k := range s.invoices {
		if s.invoices[k].ID == placeholder {
			s.invoices[k].RemoteID = remoteID
			s.invoices[k].Number = number
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notify(Event{Type: EventConfirmed, ID: placeholder})
	}
	return found
}

// ConfirmPayment igual que ConfirmInvoice para pagos.
func (s *Store) ConfirmPayment(placeholder ID, remoteID, number string) bool {
	s.mu.Lock()
	found := false
	for k := range s.payments {
		if s.payments[k].ID == placeholder {
			s.payments[k].RemoteID = remoteID
			s.payments[k].Number = number
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notify(Event{Type: EventConfirmed, ID: placeholder})
	}
	return found
}

// RemoveProduct quita el producto y sus líneas del carrito.
func (s *Store) RemoveProduct(id ID) bool {
	s.mu.Lock()
	i := s.productIndex(id)
	if i >= 0 {
		s.products = append(s.products[:i], s.products[i+1:]...)
		cart := s.cart[:0]
		for _, l := range s.cart {
			if l.ProductID != id {
				cart = append(cart, l)
			}
		}
		s.cart = cart
	}
	s.mu.Unlock()
	if i >= 0 {
		s.notify(Event{Type: EventRemoved, ID: id})
	}
	return i >= 0
}

// RemoveInvoice quita una factura que nunca se confirmó (cancelación del outbox).
func (s *Store) RemoveInvoice(id ID) bool {
	s.mu.Lock()
	removed := false
	for k := range s.invoices {
		if s.invoices[k].ID == id {
			s.invoices = append(s.invoices[:k], s.invoices[k+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify(Event{Type: EventRemoved, ID: id})
	}
	return removed
}

// RemovePayment quita un pago que nunca se confirmó.
func (s *Store) RemovePayment(id ID) bool {
	s.mu.Lock()
	removed := false
	for k := range s.payments {
		if s.payments[k].ID == id {
			s.payments = append(s.payments[:k], s.payments[k+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify(Event{Type: EventRemoved, ID: id})
	}
	return removed
}

// AddToCart suma la línea al carrito; si el producto ya está, acumula la cantidad y toma el último precio.
func (s *Store) AddToCart(line CartLine) {
	s.mu.Lock()
	s.cart = mergeCart(append(s.cart, line))
	s.mu.Unlock()
	s.notify(Event{Type: EventCart, ID: line.ProductID})
}

func (s *Store) Cart() []CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]CartLine(nil), s.cart...)
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	s.cart = nil
	s.mu.Unlock()
	s.notify(Event{Type: EventCart})
}

// ReplaceCatalog reemplaza los productos confirmados por los del servidor.
// Los productos con ID local (alta aún pendiente) se conservan.
func (s *Store) ReplaceCatalog(products []Product) {
	s.mu.Lock()
	out := make([]Product, 0, len(products)+len(s.products))
	out = append(out, products...)
	for _, p := range s.products {
		if p.ID.IsLocal() {
			out = append(out, p)
		}
	}
	s.products = out
	s.mu.Unlock()
	s.notify(Event{Type: EventCatalog})
}

// ReplaceParties reemplaza los clientes o proveedores descargados.
func (s *Store) ReplaceParties(kind string, parties []Party) {
	s.mu.Lock()
	cp := append([]Party(nil), parties...)
	if kind == entity.PartySupplier {
		s.suppliers = cp
	} else {
		s.customers = cp
	}
	s.mu.Unlock()
	s.notify(Event{Type: EventCatalog})
}

func (s *Store) Product(id ID) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.productIndex(id); i >= 0 {
		return s.products[i], true
	}
	return Product{}, false
}

func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...)
}

// Invoice busca por placeholder o por ID remoto.
func (s *Store) Invoice(id ID) (Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invoices {
		if inv.ID == id || (!id.IsLocal() && inv.RemoteID == id.Remote()) {
			inv.Lines = cloneLines(inv.Lines)
			return inv, true
		}
	}
	return Invoice{}, false
}

func (s *Store) Invoices() []Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Invoice, len(s.invoices))
	for k, inv := range s.invoices {
		inv.Lines = cloneLines(inv.Lines)
		out[k] = inv
	}
	return out
}

func (s *Store) Payments() []Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Payment(nil), s.payments...)
}

// Parties clientes o proveedores según kind.
func (s *Store) Parties(kind string) []Party {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if kind == entity.PartySupplier {
		return append([]Party(nil), s.suppliers...)
	}
	return append([]Party(nil), s.customers...)
}

// Snapshot copia profunda del estado para persistirlo.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		NextLocal: s.next,
		Products:  append([]Product(nil), s.products...),
		Customers: append([]Party(nil), s.customers...),
		Suppliers: append([]Party(nil), s.suppliers...),
		Invoices:  make([]Invoice, len(s.invoices)),
		Payments:  append([]Payment(nil), s.payments...),
		Cart:      append([]CartLine(nil), s.cart...),
	}
	for k, inv := range s.invoices {
		inv.Lines = cloneLines(inv.Lines)
		snap.Invoices[k] = inv
	}
	return snap
}

// Restore reemplaza el estado completo (arranque del terminal).
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	s.next = snap.NextLocal
	s.products = append([]Product(nil), snap.Products...)
	s.customers = append([]Party(nil), snap.Customers...)
	s.suppliers = append([]Party(nil), snap.Suppliers...)
	s.invoices = make([]Invoice, len(snap.Invoices))
	for k, inv := range snap.Invoices {
		inv.Lines = cloneLines(inv.Lines)
		s.invoices[k] = inv
	}
	s.payments = append([]Payment(nil), snap.Payments...)
	s.cart = append([]CartLine(nil), snap.Cart...)
	s.mu.Unlock()
	s.notify(Event{Type: EventRestored})
}

// productIndex requiere s.mu tomado.
func (s *Store) productIndex(id ID) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneLines(lines []InvoiceLine) []InvoiceLine {
	if lines == nil {
		return nil
	}
	return append([]InvoiceLine(nil), lines...)
}

func linesReference(lines []InvoiceLine, id ID) bool {
	for _, l := range lines {
		if l.ProductID == id {
			return true
		}
	}
	return false
}

func rewriteLines(lines []InvoiceLine, from, to ID) []InvoiceLine {
	out := cloneLines(lines)
	for i := range out {
		if out[i].ProductID == from {
			out[i].ProductID = to
		}
	}
	return out
}

// mergeCart junta líneas del mismo producto conservando el orden de primera aparición.
func mergeCart(lines []CartLine) []CartLine {
	out := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		merged := false
		for k := range out {
			if out[k].ProductID == l.ProductID {
				out[k].Quantity = out[k].Quantity.Add(l.Quantity)
				out[k].UnitPrice = l.UnitPrice
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, l)
		}
	}
	return out
}
