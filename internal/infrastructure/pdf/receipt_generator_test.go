package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$25.000,50", money(decimal.RequireFromString("25000.5")))
	assert.Equal(t, "$0,00", money(decimal.Zero))
	assert.Equal(t, "-$1.000.000,00", money(decimal.NewFromInt(-1000000)))
}

func TestGenerate_ProducePDF(t *testing.T) {
	inv := &entity.Invoice{
		ID: "inv-1", Number: "INV000001", Type: entity.InvoiceTypeSale, Status: entity.InvoiceStatusCompleted,
		CreatedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		Items: []entity.InvoiceItem{
			{ProductID: "p1", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(1500)},
		},
	}
	inv.ComputeTotals()

	out, err := NewReceiptGenerator("Tienda").Generate(appbilling.ReceiptData{
		Invoice: inv, PartyName: "Ana", ProductNames: map[string]string{"p1": "Café"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerate_SinFactura(t *testing.T) {
	_, err := NewReceiptGenerator("").Generate(appbilling.ReceiptData{})
	assert.Error(t, err)
}
