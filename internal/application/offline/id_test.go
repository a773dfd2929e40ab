package offline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	assert.Equal(t, LocalID(12), ParseID("local-12"))
	assert.Equal(t, RemoteID("local-x"), ParseID("local-x"))
	assert.Equal(t, RemoteID("local-0"), ParseID("local-0"), "el cero no es un placeholder")
	assert.Equal(t, RemoteID("6f1c"), ParseID("6f1c"))
	assert.True(t, ID{}.IsZero())
}

func TestID_JSON(t *testing.T) {
	b, err := json.Marshal(struct{ A, B ID }{LocalID(3), RemoteID("abc")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"A":"local-3","B":"abc"}`, string(b))

	var out struct{ A, B ID }
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, out.A.IsLocal())
	assert.Equal(t, "abc", out.B.Remote())
}

func TestDecodeMutation_ConservaVariante(t *testing.T) {
	m := CreateInvoice{Local: LocalID(2), Payload: InvoicePayload{
		Type:  "sale",
		Lines: []InvoiceLine{{ProductID: LocalID(1), Quantity: dec("2"), UnitPrice: dec("5")}},
	}}
	b, err := EncodeMutation(m)
	require.NoError(t, err)

	got, err := DecodeMutation(KindInvoice, b)
	require.NoError(t, err)
	inv, ok := got.(CreateInvoice)
	require.True(t, ok)
	assert.Equal(t, LocalID(2), inv.Placeholder())
	assert.Equal(t, LocalID(1), inv.Payload.Lines[0].ProductID)

	_, err = DecodeMutation("delete-everything", b)
	assert.ErrorIs(t, err, ErrUnknownMutation)
}

func TestInvoicePayload_RequestConProductoLocal(t *testing.T) {
	p := InvoicePayload{Type: "sale", Lines: []InvoiceLine{{ProductID: LocalID(1), Quantity: dec("1")}}}
	_, err := p.Request()
	assert.ErrorIs(t, err, ErrUnresolvedReference)

	p.Lines[0].ProductID = RemoteID("p-1")
	p.Total = dec("9")
	req, err := p.Request()
	require.NoError(t, err)
	assert.Equal(t, "p-1", req.Items[0].ProductID)
	require.NotNil(t, req.Total)
	assert.True(t, dec("9").Equal(*req.Total))
}

func TestRewriteMutation_NoModificaOriginal(t *testing.T) {
	lines := []InvoiceLine{{ProductID: LocalID(1)}}
	m := CreateInvoice{Local: LocalID(2), Payload: InvoicePayload{Lines: lines}}

	out, ok := rewriteMutation(m, LocalID(1), RemoteID("p-1"))
	require.True(t, ok)
	assert.Equal(t, RemoteID("p-1"), out.(CreateInvoice).Payload.Lines[0].ProductID)
	assert.Equal(t, LocalID(1), lines[0].ProductID)

	_, ok = rewriteMutation(CreatePayment{Local: LocalID(3)}, LocalID(1), RemoteID("p-1"))
	assert.False(t, ok)
}
