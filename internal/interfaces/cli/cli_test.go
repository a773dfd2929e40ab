package cli_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pos-sync/internal/application/auth"
	"github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/inventory"
	"github.com/jhoicas/pos-sync/internal/application/usecase"
	"github.com/jhoicas/pos-sync/internal/infrastructure/memory"
	"github.com/jhoicas/pos-sync/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/pos-sync/internal/interfaces/http"
	"github.com/jhoicas/pos-sync/internal/interfaces/cli"
	"github.com/jhoicas/pos-sync/pkg/config"
)

const secret = "cli-test-secret"

type harness struct {
	srv *httptest.Server
	db  *memory.DB
	cfg config.ClientConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := memory.New()
	tx := memory.NewTxRunner(db)
	stock := inventory.NewStockUseCase(tx)
	authUC := auth.NewAuthUseCase(db.Users(), auth.JWTConfig{Secret: secret, Expiration: time.Hour, Issuer: "test"}).
		WithHashCost(bcrypt.MinCost)

	app := apphttp.NewApp("test", nil)
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC:     usecase.NewProductUseCase(db.Products()),
		Replenishment: inventory.NewReplenishmentUseCase(db.Products()),
		Stock:         stock,
		Parties:       billing.NewPartyUseCase(db.Customers(), db.Suppliers(), db.Invoices(), db.Payments()),
		CreateInvoice: billing.NewCreateInvoiceUseCase(tx, stock, db.Invoices(), nil, nil, nil),
		Payments:      billing.NewPaymentUseCase(tx, db.Payments(), nil, nil, nil),
		Receipts:      billing.NewReceiptUseCase(db.Invoices(), db.Customers(), db.Suppliers(), db.Products(), pdf.NewReceiptGenerator("Test")),
		AuthUC:        authUC,
		JWTSecret:     secret,
	})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	_, err := authUC.RegisterUser(context.Background(), dto.RegisterRequest{
		Email: "caja@tienda.co", Password: "secreto123", Name: "Caja", Role: "vendedor",
	})
	require.NoError(t, err)

	return &harness{
		srv: srv,
		db:  db,
		cfg: config.ClientConfig{
			ServerURL:      srv.URL,
			DataPath:       filepath.Join(t.TempDir(), "pos.db"),
			BaseDelay:      time.Millisecond,
			MaxDelay:       time.Millisecond,
			RequestTimeout: 5 * time.Second,
		},
	}
}

// run ejecuta posclient con los argumentos dados y devuelve la salida.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd(h.cfg, nil)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) must(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestPOS_VentaOfflineLuegoSync(t *testing.T) {
	h := newHarness(t)
	h.must(t, "login", "--email", "caja@tienda.co", "--password", "secreto123")

	// Sin servidor: el terminal sigue registrando.
	h.cfg.ServerURL = "http://127.0.0.1:1"
	out := h.must(t, "product", "add", "--name", "Arroz", "--price", "100", "--cost", "60", "--qty", "10")
	assert.Contains(t, out, "local-1")
	h.must(t, "cart", "add", "local-1", "3")
	out = h.must(t, "sell")
	assert.Contains(t, out, "total 300")

	out = h.must(t, "status")
	assert.Contains(t, out, "sin conexión")
	assert.Contains(t, out, "pendientes: 2")

	_, err := h.run(t, "sync")
	assert.Error(t, err, "sin servidor la cola se conserva")

	// Vuelve la conexión.
	h.cfg.ServerURL = h.srv.URL
	out = h.must(t, "sync")
	assert.Contains(t, out, "2 confirmados")
	assert.Contains(t, out, "pendientes 0")

	products, err := h.db.Products().List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "7", products[0].Quantity.String())

	out = h.must(t, "product", "list")
	assert.Contains(t, out, products[0].ID)
	assert.NotContains(t, out, "local-1")
}

func TestPOS_CancelYRetry(t *testing.T) {
	h := newHarness(t)
	h.must(t, "login", "--email", "caja@tienda.co", "--password", "secreto123")
	h.must(t, "product", "add", "--name", "Azúcar", "--price", "50")

	_, err := h.run(t, "product", "rm", "no-es-local")
	assert.Error(t, err)

	h.must(t, "product", "rm", "local-1")
	out := h.must(t, "status")
	assert.Contains(t, out, "pendientes: 0")

	_, err = h.run(t, "retry", "no-existe")
	assert.Error(t, err)
	_, err = h.run(t, "cancel", "no-existe")
	assert.Error(t, err)
}

func TestPOS_LoginInvalido(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "login", "--email", "caja@tienda.co", "--password", "incorrecta")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login")

	out := h.must(t, "status")
	assert.Contains(t, out, "sesión: ninguna")
}
