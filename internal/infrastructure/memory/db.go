// Package memory implementa los puertos de persistencia sobre mapas en memoria, con la misma
// semántica transaccional que postgres: las transacciones se serializan y aplican todo o nada.
package memory

import (
	"sync"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// state contenido de la base. Se guardan valores (no punteros) para que clone sea barato y seguro.
type state struct {
	products     map[string]entity.Product
	parties      map[string]map[string]entity.Party // tipo -> id -> contraparte
	invoices     map[string]entity.Invoice
	invoiceOrder []string
	payments     map[string]entity.Payment
	paymentOrder []string
	movements    []entity.StockMovement
	users        map[string]entity.User
}

func newState() *state {
	return &state{
		products: make(map[string]entity.Product),
		parties: map[string]map[string]entity.Party{
			entity.PartyCustomer: make(map[string]entity.Party),
			entity.PartySupplier: make(map[string]entity.Party),
		},
		invoices: make(map[string]entity.Invoice),
		payments: make(map[string]entity.Payment),
		users:    make(map[string]entity.User),
	}
}

// clone copia el estado. Los ítems de factura nunca se modifican en sitio, así que se comparten.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for kind, m := range s.parties {
		for k, v := range m {
			c.parties[kind][k] = v
		}
	}
	for k, v := range s.invoices {
		c.invoices[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	c.invoiceOrder = append([]string(nil), s.invoiceOrder...)
	c.paymentOrder = append([]string(nil), s.paymentOrder...)
	c.movements = append([]entity.StockMovement(nil), s.movements...)
	return c
}

// source da acceso al estado: la base compartida (con lock) o el estado privado de una tx.
type source interface {
	read(fn func(s *state) error) error
	write(fn func(s *state) error) error
}

// DB base en memoria. Seleccionada con DB_DRIVER=memory y usada por los tests.
type DB struct {
	mu sync.RWMutex
	st *state
}

// New crea una base vacía.
func New() *DB {
	return &DB{st: newState()}
}

func (db *DB) read(fn func(s *state) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(db.st)
}

func (db *DB) write(fn func(s *state) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.st)
}

// txSource estado privado de una transacción en curso (el lock lo tiene el TxRunner).
type txSource struct {
	st *state
}

func (t *txSource) read(fn func(s *state) error) error { return fn(t.st) }
func (t *txSource) write(fn func(s *state) error) error { return fn(t.st) }

// Repositorios sobre la base compartida (fuera de transacción).
func (db *DB) Products() *ProductRepo { return &ProductRepo{src: db} }
func (db *DB) Stock() *StockRepo { return &StockRepo{src: db} }
func (db *DB) Movements() *MovementRepo { return &MovementRepo{src: db} }
func (db *DB) Customers() *PartyRepo { return &PartyRepo{src: db, kind: entity.PartyCustomer} }
func (db *DB) Suppliers() *PartyRepo { return &PartyRepo{src: db, kind: entity.PartySupplier} }
func (db *DB) Invoices() *InvoiceRepo { return &InvoiceRepo{src: db} }
func (db *DB) Payments() *PaymentRepo { return &PaymentRepo{src: db} }
func (db *DB) Users() *UserRepo { return &UserRepo{src: db} }
