package offline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State estado de un ítem del outbox.
type State string

const (
	StatePending State = "pending"
	// StateDead rechazo permanente del servidor: no se reintenta hasta Requeue.
	StateDead State = "dead"
)

const maxErrorLen = 500

// Item mutación encolada. ID es además la clave de idempotencia enviada al servidor.
type Item struct {
	ID          string
	Seq         uint64
	Kind        Kind
	Mutation    Mutation
	Retries     int
	LastAttempt time.Time
	LastError   string
	State       State
	CreatedAt   time.Time
}

// OutboxPersister almacenamiento durable del outbox (SQLite en el terminal).
// Save recibe siempre la lista completa en orden.
type OutboxPersister interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// Outbox cola ordenada y persistida de mutaciones sin confirmar.
// Cada cambio se persiste antes de volver; si la persistencia falla el cambio queda
// en memoria, Err() lo reporta y el Engine deja de drenar hasta que Flush funcione.
// Si Load falla no se vuelve a escribir en el almacenamiento hasta que un Load funcione:
// las filas que no se pudieron leer siguen en disco.
type Outbox struct {
	mu        sync.Mutex
	items     []Item
	seq       uint64
	inFlight  map[string]bool
	persister OutboxPersister
	err       error
	loadErr   error
	now       func() time.Time

	subMu  sync.Mutex
	subSeq int
	subs   map[int]func(pending int)
}

// OutboxOption configura el Outbox.
type OutboxOption func(*Outbox)

// WithOutboxClock reemplaza el reloj (tests).
func WithOutboxClock(now func() time.Time) OutboxOption {
	return func(o *Outbox) { o.now = now }
}

// NewOutbox crea un outbox vacío. Llamar Load para restaurar lo persistido.
func NewOutbox(p OutboxPersister, opts ...OutboxOption) *Outbox {
	o := &Outbox{
		persister: p,
		inFlight:  make(map[string]bool),
		now:       time.Now,
		subs:      make(map[int]func(int)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load restaura los ítems persistidos en su orden de encolado.
func (o *Outbox) Load(ctx context.Context) error {
	if o.persister == nil {
		return nil
	}
	items, err := o.persister.Load(ctx)
	o.mu.Lock()
	if err != nil {
		o.err = err
		o.loadErr = err
		o.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrOutboxUnavailable, err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })
	o.items = items
	o.seq = 0
	for _, it := range items {
		if it.Seq > o.seq {
			o.seq = it.Seq
		}
	}
	o.err = nil
	o.loadErr = nil
	pending := o.lenLocked()
	o.mu.Unlock()
	o.notify(pending)
	return nil
}

// Flush vuelve a persistir la lista actual si la última escritura falló. Sin error
// pendiente no escribe nada. Tras un Load fallido devuelve ErrOutboxUnavailable sin tocar el disco.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err == nil {
		return nil
	}
	return o.persistLocked(ctx)
}

// Enqueue agrega la mutación al final con Retries=0 y la persiste. Devuelve el ID del ítem.
// Si la persistencia falla el ítem queda en memoria y se devuelve ErrOutboxUnavailable.
func (o *Outbox) Enqueue(ctx context.Context, m Mutation) (string, error) {
	if m == nil {
		return "", ErrInvalidInput
	}
	id := uuid.NewString()
	err := o.update(ctx, func() error {
		o.seq++
		o.items = append(o.items, Item{
			ID:        id,
			Seq:       o.seq,
			Kind:      m.Kind(),
			Mutation:  m,
			State:     StatePending,
			CreatedAt: o.now(),
		})
		return nil
	})
	return id, err
}

// DequeueOnSuccess elimina el ítem tras la confirmación del servidor.
func (o *Outbox) DequeueOnSuccess(ctx context.Context, id string) error {
	return o.update(ctx, func() error {
		i := o.indexLocked(id)
		if i < 0 {
			return ErrItemNotFound
		}
		o.items = append(o.items[:i], o.items[i+1:]...)
		return nil
	})
}

// MarkFailed suma un reintento y registra la hora y la causa. El ítem sigue en cola.
func (o *Outbox) MarkFailed(ctx context.Context, id string, cause error) error {
	return o.update(ctx, func() error {
		i := o.indexLocked(id)
		if i < 0 {
			return ErrItemNotFound
		}
		o.items[i].Retries++
		o.items[i].LastAttempt = o.now()
		o.items[i].LastError = errorText(cause)
		return nil
	})
}

// MarkDead saca el ítem de la rotación de reintentos; sigue visible y cuenta en Items().
func (o *Outbox) MarkDead(ctx context.Context, id string, cause error) error {
	return o.update(ctx, func() error {
		i := o.indexLocked(id)
		if i < 0 {
			return ErrItemNotFound
		}
		o.items[i].Retries++
		o.items[i].LastAttempt = o.now()
		o.items[i].LastError = errorText(cause)
		o.items[i].State = StateDead
		return nil
	})
}

// Requeue devuelve el ítem a pendiente con el contador en cero (reintento manual).
func (o *Outbox) Requeue(ctx context.Context, id string) error {
	return o.update(ctx, func() error {
		i := o.indexLocked(id)
		if i < 0 {
			return ErrItemNotFound
		}
		o.items[i].State = StatePending
		o.items[i].Retries = 0
		o.items[i].LastAttempt = time.Time{}
		o.items[i].LastError = ""
		return nil
	})
}

// Cancel elimina un ítem que nunca se confirmó. ErrNotPending si ya no está en la cola
// o si el Engine lo está enviando en este momento.
func (o *Outbox) Cancel(ctx context.Context, id string) (Item, error) {
	var removed Item
	err := o.update(ctx, func() error {
		i := o.indexLocked(id)
		if i < 0 || o.inFlight[id] {
			return ErrNotPending
		}
		removed = o.items[i]
		o.items = append(o.items[:i], o.items[i+1:]...)
		return nil
	})
	return removed, err
}

// RewriteID actualiza las referencias from→to en los payloads encolados.
// Devuelve cuántos ítems cambiaron; solo persiste si hubo cambios.
func (o *Outbox) RewriteID(ctx context.Context, from, to ID) (int, error) {
	o.mu.Lock()
	n := 0
	for i := range o.items {
		if m, ok := rewriteMutation(o.items[i].Mutation, from, to); ok {
			o.items[i].Mutation = m
			n++
		}
	}
	if n == 0 {
		o.mu.Unlock()
		return 0, nil
	}
	err := o.persistLocked(ctx)
	o.mu.Unlock()
	return n, err
}

// Pending ítems vivos del tipo en orden de encolado.
func (o *Outbox) Pending(kind Kind) []Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Item
	for _, it := range o.items {
		if it.Kind == kind && it.State == StatePending {
			out = append(out, it)
		}
	}
	return out
}

// Items todos los ítems (vivos y muertos) en orden.
func (o *Outbox) Items() []Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Item(nil), o.items...)
}

func (o *Outbox) Get(id string) (Item, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i := o.indexLocked(id); i >= 0 {
		return o.items[i], true
	}
	return Item{}, false
}

// FindByPlaceholder ítem cuya mutación confirma el registro local id.
func (o *Outbox) FindByPlaceholder(id ID) (Item, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, it := range o.items {
		if it.Mutation.Placeholder() == id {
			return it, true
		}
	}
	return Item{}, false
}

// ReferencesProduct indica si alguna factura encolada usa el producto.
func (o *Outbox) ReferencesProduct(id ID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, it := range o.items {
		if references(it.Mutation, id) {
			return true
		}
	}
	return false
}

// Len cantidad de ítems vivos (pendingCount). Los muertos no cuentan.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lenLocked()
}

// Err último error de persistencia; nil si la última escritura funcionó.
func (o *Outbox) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Subscribe recibe el pendingCount después de cada cambio.
func (o *Outbox) Subscribe(fn func(pending int)) func() {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	o.subSeq++
	id := o.subSeq
	o.subs[id] = fn
	return func() {
		o.subMu.Lock()
		delete(o.subs, id)
		o.subMu.Unlock()
	}
}

// claim marca el ítem como en envío para que Cancel no lo quite a mitad de camino.
func (o *Outbox) claim(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.indexLocked(id) < 0 || o.inFlight[id] {
		return false
	}
	o.inFlight[id] = true
	return true
}

func (o *Outbox) release(id string) {
	o.mu.Lock()
	delete(o.inFlight, id)
	o.mu.Unlock()
}

func (o *Outbox) update(ctx context.Context, fn func() error) error {
	o.mu.Lock()
	if err := fn(); err != nil {
		o.mu.Unlock()
		return err
	}
	err := o.persistLocked(ctx)
	pending := o.lenLocked()
	o.mu.Unlock()
	o.notify(pending)
	return err
}

func (o *Outbox) persistLocked(ctx context.Context) error {
	if o.persister == nil {
		return nil
	}
	if o.loadErr != nil {
		return fmt.Errorf("%w: outbox sin cargar: %v", ErrOutboxUnavailable, o.loadErr)
	}
	if err := o.persister.Save(ctx, append([]Item(nil), o.items...)); err != nil {
		o.err = err
		return fmt.Errorf("%w: %v", ErrOutboxUnavailable, err)
	}
	o.err = nil
	return nil
}

func (o *Outbox) notify(pending int) {
	o.subMu.Lock()
	fns := make([]func(int), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.subMu.Unlock()
	for _, fn := range fns {
		fn(pending)
	}
}

func (o *Outbox) indexLocked(id string) int {
	for i := range o.items {
		if o.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (o *Outbox) lenLocked() int {
	n := 0
	for _, it := range o.items {
		if it.State == StatePending {
			n++
		}
	}
	return n
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorLen {
		return msg[:maxErrorLen]
	}
	return msg
}
