package offline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var errNetwork = errors.New("dial tcp: connection refused")

type rejected struct{ msg string }

func (e rejected) Error() string   { return e.msg }
func (e rejected) Permanent() bool { return true }

// memPersister outbox durable en memoria; fail simula un disco lleno y loadFail una fila ilegible.
type memPersister struct {
	mu       sync.Mutex
	items    []Item
	saves    int
	fail     error
	loadFail error
}

func (p *memPersister) Load(context.Context) ([]Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadFail != nil {
		return nil, p.loadFail
	}
	return append([]Item(nil), p.items...), nil
}

func (p *memPersister) Save(_ context.Context, items []Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.items = append([]Item(nil), items...)
	p.saves++
	return nil
}

// fakeRemote servidor con idempotencia por clave. failNext[kind] consume un error por llamada.
type fakeRemote struct {
	mu       sync.Mutex
	seq      int
	products map[string]dto.ProductResponse
	byKey    map[string]any
	failNext map[Kind][]error
	// loseResponse registra el efecto pero responde error de red (respuesta perdida)
	loseResponse map[Kind]bool
	calls        map[Kind]int
	invoiceReqs  []dto.CreateInvoiceRequest
	parties      map[string][]dto.PartyResponse
	listErr      error
	block        chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		products:     make(map[string]dto.ProductResponse),
		byKey:        make(map[string]any),
		failNext:     make(map[Kind][]error),
		loseResponse: make(map[Kind]bool),
		calls:        make(map[Kind]int),
		parties:      make(map[string][]dto.PartyResponse),
	}
}

func (r *fakeRemote) failWith(kind Kind, errs ...error) {
	r.mu.Lock()
	r.failNext[kind] = append(r.failNext[kind], errs...)
	r.mu.Unlock()
}

func (r *fakeRemote) calledTimes(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[kind]
}

func (r *fakeRemote) begin(ctx context.Context, kind Kind) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[kind]++
	if q := r.failNext[kind]; len(q) > 0 {
		r.failNext[kind] = q[1:]
		return q[0]
	}
	return nil
}

func (r *fakeRemote) finish(kind Kind, key string, create func() any) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byKey[key]; ok {
		return prev, nil
	}
	res := create()
	r.byKey[key] = res
	if r.loseResponse[kind] {
		r.loseResponse[kind] = false
		return nil, errNetwork
	}
	return res, nil
}

func (r *fakeRemote) CreateProduct(ctx context.Context, key string, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := r.begin(ctx, KindProduct); err != nil {
		return nil, err
	}
	res, err := r.finish(KindProduct, key, func() any {
		r.seq++
		p := dto.ProductResponse{
			ID:       fmt.Sprintf("prod-%d", r.seq),
			Name:     req.Name,
			Price:    req.Price,
			Cost:     req.Cost,
			Quantity: req.Quantity,
		}
		r.products[p.ID] = p
		return p
	})
	if err != nil {
		return nil, err
	}
	p := res.(dto.ProductResponse)
	return &p, nil
}

func (r *fakeRemote) CreateInvoice(ctx context.Context, key string, req dto.CreateInvoiceRequest) (*dto.CreateInvoiceResponse, error) {
	if err := r.begin(ctx, KindInvoice); err != nil {
		return nil, err
	}
	res, err := r.finish(KindInvoice, key, func() any {
		r.seq++
		r.invoiceReqs = append(r.invoiceReqs, req)
		return dto.CreateInvoiceResponse{
			ID:            fmt.Sprintf("inv-%d", r.seq),
			InvoiceNumber: entity.FormatNumber(entity.NumberPrefix(req.Type), int64(len(r.invoiceReqs))),
		}
	})
	if err != nil {
		return nil, err
	}
	resp := res.(dto.CreateInvoiceResponse)
	return &resp, nil
}

func (r *fakeRemote) CreatePayment(ctx context.Context, key string, req dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
	if err := r.begin(ctx, KindPayment); err != nil {
		return nil, err
	}
	res, err := r.finish(KindPayment, key, func() any {
		r.seq++
		return dto.CreatePaymentResponse{ID: fmt.Sprintf("pay-%d", r.seq), Number: "PAY000001"}
	})
	if err != nil {
		return nil, err
	}
	resp := res.(dto.CreatePaymentResponse)
	return &resp, nil
}

func (r *fakeRemote) ListProducts(context.Context) ([]dto.ProductResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dto.ProductResponse, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRemote) ListParties(_ context.Context, kind string) ([]dto.PartyResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]dto.PartyResponse(nil), r.parties[kind]...), nil
}

type fakeSession struct{ user, role string }

func (s fakeSession) CurrentUserID() string { return s.user }
func (s fakeSession) CurrentRole() string   { return s.role }

// clock reloj manual para backoff.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type terminal struct {
	store     *Store
	outbox    *Outbox
	persister *memPersister
	remote    *fakeRemote
	engine    *Engine
	pos       *POS
	clock     *clock
}

func newTerminal(t *testing.T, role string) *terminal {
	t.Helper()
	tm := &terminal{
		store:     NewStore(),
		persister: &memPersister{},
		remote:    newFakeRemote(),
		clock:     newClock(),
	}
	tm.outbox = NewOutbox(tm.persister, WithOutboxClock(tm.clock.Now))
	require.NoError(t, tm.outbox.Load(context.Background()))
	tm.engine = NewEngine(tm.store, tm.outbox, tm.remote, EngineConfig{}, WithEngineClock(tm.clock.Now))
	tm.pos = NewPOS(tm.store, tm.outbox, fakeSession{user: "u-1", role: role})
	tm.pos.now = tm.clock.Now
	return tm
}

// catalog agrega un producto ya confirmado por el servidor.
func (tm *terminal) catalog(id, price string) ID {
	tm.remote.mu.Lock()
	tm.remote.products[id] = dto.ProductResponse{ID: id, Name: id, Price: dec(price), Quantity: dec("100")}
	tm.remote.mu.Unlock()
	pid := RemoteID(id)
	tm.store.PutProduct(Product{ID: pid, Name: id, Price: dec(price), Quantity: dec("100")})
	return pid
}
