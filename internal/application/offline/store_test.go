package offline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

func TestStore_RewriteIDIdempotente(t *testing.T) {
	s := NewStore()
	local := s.AddProduct(Product{Name: "Café", Price: dec("10")})
	require.True(t, local.IsLocal())
	s.AddToCart(CartLine{ProductID: local, Quantity: dec("1"), UnitPrice: dec("10")})
	inv := s.AddInvoice(Invoice{InvoicePayload: InvoicePayload{
		Type:  entity.InvoiceTypeSale,
		Lines: []InvoiceLine{{ProductID: local, Quantity: dec("2"), UnitPrice: dec("10")}},
	}})

	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	remote := RemoteID("p-1")
	assert.True(t, s.RewriteID(local, remote))
	assert.False(t, s.RewriteID(local, remote), "la segunda aplicación no cambia nada")

	_, ok := s.Product(local)
	assert.False(t, ok)
	p, ok := s.Product(remote)
	require.True(t, ok)
	assert.Equal(t, "Café", p.Name)

	got, ok := s.Invoice(inv)
	require.True(t, ok)
	assert.Equal(t, remote, got.Lines[0].ProductID)
	assert.Equal(t, inv, got.ID, "el placeholder de la factura no cambia")
	assert.Equal(t, remote, s.Cart()[0].ProductID)

	require.Len(t, events, 1)
	assert.Equal(t, EventRewritten, events[0].Type)
	assert.Equal(t, remote, events[0].To)
}

func TestStore_RewriteIDConProductoYaDescargado(t *testing.T) {
	s := NewStore()
	local := s.AddProduct(Product{Name: "Pan"})
	remote := RemoteID("p-9")
	s.PutProduct(Product{ID: remote, Name: "Pan"})
	s.AddToCart(CartLine{ProductID: local, Quantity: dec("1")})
	s.AddToCart(CartLine{ProductID: remote, Quantity: dec("2")})

	s.RewriteID(local, remote)

	assert.Len(t, s.Products(), 1, "no quedan duplicados")
	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.True(t, dec("3").Equal(cart[0].Quantity))
}

func TestStore_ConfirmInvoiceBuscaPorRemoto(t *testing.T) {
	s := NewStore()
	id := s.AddInvoice(Invoice{InvoicePayload: InvoicePayload{Type: entity.InvoiceTypeSale}})

	require.True(t, s.ConfirmInvoice(id, "inv-7", "INV000007"))

	got, ok := s.Invoice(RemoteID("inv-7"))
	require.True(t, ok)
	assert.Equal(t, id, got.ID)
	assert.True(t, got.Confirmed())
	assert.Equal(t, "INV000007", got.Number)
}

func TestStore_ReplaceCatalogConservaLocales(t *testing.T) {
	s := NewStore()
	local := s.AddProduct(Product{Name: "Nuevo"})
	s.PutProduct(Product{ID: RemoteID("viejo")})

	s.ReplaceCatalog([]Product{{ID: RemoteID("a")}, {ID: RemoteID("b")}})

	ids := make([]ID, 0)
	for _, p := range s.Products() {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []ID{RemoteID("a"), RemoteID("b"), local}, ids)
}

func TestStore_SnapshotRestore(t *testing.T) {
	s := NewStore()
	p := s.AddProduct(Product{Name: "Leche", Price: dec("3.5")})
	s.AddInvoice(Invoice{InvoicePayload: InvoicePayload{
		Type:  entity.InvoiceTypeSale,
		Lines: []InvoiceLine{{ProductID: p, Quantity: dec("1"), UnitPrice: dec("3.5")}},
	}})
	s.ReplaceParties(entity.PartyCustomer, []Party{{ID: "c-1", Name: "Ana"}})

	restored := NewStore()
	restored.Restore(s.Snapshot())

	assert.Equal(t, s.Snapshot(), restored.Snapshot())
	next := restored.AddProduct(Product{Name: "Otro"})
	assert.Equal(t, "local-3", next.String(), "los placeholders siguen la secuencia restaurada")
	assert.Len(t, restored.Parties(entity.PartyCustomer), 1)
	assert.Empty(t, restored.Parties(entity.PartySupplier))
}

func TestStore_RemoveProductLimpiaCarrito(t *testing.T) {
	s := NewStore()
	p := s.AddProduct(Product{Name: "X"})
	s.AddToCart(CartLine{ProductID: p, Quantity: dec("1")})

	assert.True(t, s.RemoveProduct(p))
	assert.Empty(t, s.Cart())
	assert.False(t, s.RemoveProduct(p))
}
