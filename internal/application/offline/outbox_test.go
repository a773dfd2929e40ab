package offline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/application/dto"
)

func TestOutbox_SobreviveReinicio(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	ob := NewOutbox(p)
	id1, err := ob.Enqueue(ctx, CreateProduct{Local: LocalID(1), Request: dto.CreateProductRequest{Name: "A"}})
	require.NoError(t, err)
	id2, err := ob.Enqueue(ctx, CreatePayment{Local: LocalID(2), Request: dto.CreatePaymentRequest{CustomerID: "c", Amount: dec("5")}})
	require.NoError(t, err)
	require.NoError(t, ob.MarkFailed(ctx, id1, errNetwork))

	reloaded := NewOutbox(p)
	require.NoError(t, reloaded.Load(ctx))

	items := reloaded.Items()
	require.Len(t, items, 2)
	assert.Equal(t, id1, items[0].ID)
	assert.Equal(t, id2, items[1].ID)
	assert.Equal(t, 1, items[0].Retries)
	assert.Equal(t, errNetwork.Error(), items[0].LastError)

	id3, err := reloaded.Enqueue(ctx, CreateProduct{Local: LocalID(3)})
	require.NoError(t, err)
	it, ok := reloaded.Get(id3)
	require.True(t, ok)
	assert.Greater(t, it.Seq, items[1].Seq, "la secuencia continúa después de recargar")
}

func TestOutbox_FalloDePersistencia(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{fail: errors.New("disk full")}
	ob := NewOutbox(p)

	_, err := ob.Enqueue(ctx, CreateProduct{Local: LocalID(1)})
	assert.ErrorIs(t, err, ErrOutboxUnavailable)
	assert.Error(t, ob.Err())
	assert.Equal(t, 1, ob.Len(), "el ítem queda en memoria")

	p.fail = nil
	_, err = ob.Enqueue(ctx, CreateProduct{Local: LocalID(2)})
	require.NoError(t, err)
	assert.NoError(t, ob.Err())
	assert.Len(t, p.items, 2, "la siguiente escritura persiste la lista completa")
}

func TestOutbox_LoadFallidoNoSobrescribeElDisco(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	first := NewOutbox(p)
	for i := uint64(1); i <= 3; i++ {
		_, err := first.Enqueue(ctx, CreateProduct{Local: LocalID(i)})
		require.NoError(t, err)
	}
	p.loadFail = errors.New("tipo de mutación desconocido")

	ob := NewOutbox(p)
	require.ErrorIs(t, ob.Load(ctx), ErrOutboxUnavailable)
	saves := p.saves

	_, err := ob.Enqueue(ctx, CreateProduct{Local: LocalID(9)})
	assert.ErrorIs(t, err, ErrOutboxUnavailable)
	assert.ErrorIs(t, ob.Flush(ctx), ErrOutboxUnavailable)
	assert.Error(t, ob.Err(), "el error de carga no se borra con una escritura")
	assert.Equal(t, saves, p.saves)
	assert.Len(t, p.items, 3)

	p.loadFail = nil
	require.NoError(t, ob.Load(ctx))
	assert.NoError(t, ob.Err())
	assert.Equal(t, 3, ob.Len())
}

func TestOutbox_FlushReintentaElGuardado(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	ob := NewOutbox(p)
	require.NoError(t, ob.Flush(ctx))
	assert.Zero(t, p.saves, "sin error pendiente no escribe")

	p.fail = errors.New("disk full")
	_, err := ob.Enqueue(ctx, CreateProduct{Local: LocalID(1)})
	require.ErrorIs(t, err, ErrOutboxUnavailable)
	require.ErrorIs(t, ob.Flush(ctx), ErrOutboxUnavailable)

	p.fail = nil
	require.NoError(t, ob.Flush(ctx))
	assert.NoError(t, ob.Err())
	assert.Len(t, p.items, 1)
}

func TestOutbox_MuertosNoCuentanNiSeListan(t *testing.T) {
	ctx := context.Background()
	ob := NewOutbox(nil)
	id, err := ob.Enqueue(ctx, CreateInvoice{Local: LocalID(1)})
	require.NoError(t, err)

	require.NoError(t, ob.MarkDead(ctx, id, rejected{"stock insuficiente"}))
	assert.Equal(t, 0, ob.Len())
	assert.Empty(t, ob.Pending(KindInvoice))
	assert.Len(t, ob.Items(), 1)

	require.NoError(t, ob.Requeue(ctx, id))
	it, _ := ob.Get(id)
	assert.Equal(t, StatePending, it.State)
	assert.Equal(t, 0, it.Retries)
	assert.Empty(t, it.LastError)
	assert.Equal(t, 1, ob.Len())
}

func TestOutbox_CancelEnVuelo(t *testing.T) {
	ctx := context.Background()
	ob := NewOutbox(nil)
	id, err := ob.Enqueue(ctx, CreateProduct{Local: LocalID(1)})
	require.NoError(t, err)

	require.True(t, ob.claim(id))
	_, err = ob.Cancel(ctx, id)
	assert.ErrorIs(t, err, ErrNotPending)

	ob.release(id)
	removed, err := ob.Cancel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, LocalID(1), removed.Mutation.Placeholder())

	_, err = ob.Cancel(ctx, id)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestOutbox_RewriteIDPersisteSoloConCambios(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	ob := NewOutbox(p)
	_, err := ob.Enqueue(ctx, CreateInvoice{Local: LocalID(2), Payload: InvoicePayload{
		Lines: []InvoiceLine{{ProductID: LocalID(1)}, {ProductID: RemoteID("p-0")}},
	}})
	require.NoError(t, err)
	saves := p.saves

	n, err := ob.RewriteID(ctx, LocalID(1), RemoteID("p-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, saves+1, p.saves)
	assert.False(t, ob.ReferencesProduct(LocalID(1)))
	assert.True(t, ob.ReferencesProduct(RemoteID("p-1")))

	n, err = ob.RewriteID(ctx, LocalID(1), RemoteID("p-1"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, saves+1, p.saves)
}

func TestOutbox_ErrorTruncado(t *testing.T) {
	ctx := context.Background()
	ob := NewOutbox(nil)
	id, _ := ob.Enqueue(ctx, CreateProduct{Local: LocalID(1)})

	require.NoError(t, ob.MarkFailed(ctx, id, errors.New(strings.Repeat("x", 2000))))
	it, _ := ob.Get(id)
	assert.Len(t, it.LastError, maxErrorLen)
}

func TestOutbox_SubscribeRecibePendientes(t *testing.T) {
	ctx := context.Background()
	ob := NewOutbox(nil)
	var seen []int
	unsubscribe := ob.Subscribe(func(n int) { seen = append(seen, n) })

	id, _ := ob.Enqueue(ctx, CreateProduct{Local: LocalID(1)})
	_, _ = ob.Enqueue(ctx, CreateProduct{Local: LocalID(2)})
	require.NoError(t, ob.DequeueOnSuccess(ctx, id))
	unsubscribe()
	_, _ = ob.Enqueue(ctx, CreateProduct{Local: LocalID(3)})

	assert.Equal(t, []int{1, 2, 1}, seen)
}
