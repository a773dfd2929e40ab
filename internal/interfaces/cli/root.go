// Package cli comandos cobra del terminal POS (posclient).
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/jhoicas/pos-sync/internal/application/offline"
	"github.com/jhoicas/pos-sync/pkg/config"
	"github.com/jhoicas/pos-sync/pkg/logger"
)

var version = "0.1.0"

// runFunc cuerpo de un comando con el App abierto.
type runFunc func(ctx context.Context, app *App, cmd *cobra.Command, args []string) error

type root struct {
	cfg config.ClientConfig
	log *logger.Logger
}

// NewRootCmd arma el árbol de comandos de posclient.
func NewRootCmd(cfg config.ClientConfig, log *logger.Logger) *cobra.Command {
	if log == nil {
		log = logger.Nop()
	}
	r := &root{cfg: cfg, log: log}

	cmd := &cobra.Command{
		Use:   "posclient",
		Short: "Terminal de punto de venta que funciona sin conexión",
		Long: `posclient registra ventas, compras, devoluciones y pagos en el terminal aunque no
haya conexión. Cada operación queda en una cola local (outbox) y se concilia con el
servidor cuando vuelve la conexión, sin duplicar efectos en reintentos.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&r.cfg.DataPath, "data", cfg.DataPath, "archivo SQLite del terminal")
	cmd.PersistentFlags().StringVar(&r.cfg.ServerURL, "server", cfg.ServerURL, "URL del servidor de conciliación")

	cmd.AddCommand(
		r.loginCmd(),
		r.logoutCmd(),
		r.productCmd(),
		r.cartCmd(),
		r.sellCmd(),
		r.purchaseCmd(),
		r.returnCmd(),
		r.payCmd(),
		r.statusCmd(),
		r.retryCmd(),
		r.cancelCmd(),
		r.syncCmd(),
		r.pullCmd(),
		r.receiptCmd(),
		r.statementCmd(),
		r.runCmd(),
	)
	return cmd
}

// with abre el App, ejecuta fn y lo cierra combinando ambos errores.
func (r *root) with(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		app, err := Open(ctx, r.cfg, r.log)
		if err != nil {
			return fmt.Errorf("abrir terminal: %w", err)
		}
		defer func() { err = multierr.Append(err, app.Close()) }()
		return describeErr(fn(ctx, app, cmd, args))
	}
}

// parseLines lee líneas "producto:cantidad[:precio]".
func parseLines(args []string) ([]offline.InvoiceLine, error) {
	lines := make([]offline.InvoiceLine, 0, len(args))
	for _, a := range args {
		parts := strings.Split(a, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
			return nil, fmt.Errorf("línea %q: formato producto:cantidad[:precio]", a)
		}
		qty, err := decimal.NewFromString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("línea %q: cantidad: %w", a, err)
		}
		line := offline.InvoiceLine{ProductID: offline.ParseID(parts[0]), Quantity: qty}
		if len(parts) == 3 {
			if line.UnitPrice, err = decimal.NewFromString(parts[2]); err != nil {
				return nil, fmt.Errorf("línea %q: precio: %w", a, err)
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// decimalFlag lee un flag decimal; vacío = cero.
func decimalFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

// optionalDecimal nil si el flag no se pasó.
func optionalDecimal(cmd *cobra.Command, name string) (*decimal.Decimal, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	d, err := decimalFlag(cmd, name)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
