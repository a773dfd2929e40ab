package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/offline"
)

func (r *root) sellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell",
		Short: "Cobra el carrito y registra la venta",
		Example: `  posclient sell
  posclient sell --customer 7d0c... --paid 5000 --method efectivo`,
		Args: cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, _ []string) error {
			opts := offline.CheckoutOptions{}
			opts.CustomerID, _ = cmd.Flags().GetString("customer")
			opts.PaymentMethod, _ = cmd.Flags().GetString("method")
			var err error
			if opts.Discount, err = decimalFlag(cmd, "discount"); err != nil {
				return err
			}
			if opts.Tax, err = decimalFlag(cmd, "tax"); err != nil {
				return err
			}
			if opts.Paid, err = optionalDecimal(cmd, "paid"); err != nil {
				return err
			}
			id, err := app.POS.Checkout(ctx, opts)
			if err != nil {
				return err
			}
			return printInvoice(cmd, app, id)
		}),
	}
	cmd.Flags().String("customer", "", "ID del cliente (venta a crédito)")
	documentFlags(cmd)
	return cmd
}

func (r *root) purchaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "purchase <producto:cantidad:costo>...",
		Short:   "Registra una compra a proveedor (suma existencias)",
		Example: `  posclient purchase --supplier 4b1e... local-3:24:2500 9f2a...:10:1800`,
		Args:    cobra.MinimumNArgs(1),
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, args []string) error {
			in := offline.PurchaseInput{}
			in.SupplierID, _ = cmd.Flags().GetString("supplier")
			in.PaymentMethod, _ = cmd.Flags().GetString("method")
			var err error
			if in.Lines, err = parseLines(args); err != nil {
				return err
			}
			if in.Discount, err = decimalFlag(cmd, "discount"); err != nil {
				return err
			}
			if in.Tax, err = decimalFlag(cmd, "tax"); err != nil {
				return err
			}
			if in.Paid, err = optionalDecimal(cmd, "paid"); err != nil {
				return err
			}
			id, err := app.POS.RecordPurchase(ctx, in)
			if err != nil {
				return err
			}
			return printInvoice(cmd, app, id)
		}),
	}
	cmd.Flags().String("supplier", "", "ID del proveedor")
	documentFlags(cmd)
	return cmd
}

func (r *root) returnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "return <factura> <producto:cantidad[:precio]>...",
		Short: "Registra una devolución contra una venta ya sincronizada",
		Long: `La factura original debe estar confirmada por el servidor. Sin precio, cada línea
toma el precio de la venta original.`,
		Args: cobra.MinimumNArgs(2),
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, args []string) error {
			in := offline.ReturnInput{OriginalInvoice: offline.ParseID(args[0])}
			in.PaymentMethod, _ = cmd.Flags().GetString("method")
			var err error
			if in.Lines, err = parseLines(args[1:]); err != nil {
				return err
			}
			if in.Paid, err = optionalDecimal(cmd, "paid"); err != nil {
				return err
			}
			id, err := app.POS.RecordReturn(ctx, in)
			if err != nil {
				return err
			}
			return printInvoice(cmd, app, id)
		}),
	}
	cmd.Flags().String("paid", "", "monto reembolsado (por defecto el total)")
	cmd.Flags().String("method", "", "medio de pago")
	return cmd
}

func (r *root) payCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Registra un abono de cliente o un pago a proveedor",
		Example: `  posclient pay --customer 7d0c... --amount 20000
  posclient pay --supplier 4b1e... --amount 150000 --method transferencia`,
		Args: cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, _ []string) error {
			req := dto.CreatePaymentRequest{}
			req.CustomerID, _ = cmd.Flags().GetString("customer")
			req.SupplierID, _ = cmd.Flags().GetString("supplier")
			req.Method, _ = cmd.Flags().GetString("method")
			req.Note, _ = cmd.Flags().GetString("note")
			var err error
			if req.Amount, err = decimalFlag(cmd, "amount"); err != nil {
				return err
			}
			id, err := app.POS.RecordPayment(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pago %s registrado por %s (pendiente de sincronizar)\n", id, req.Amount)
			return nil
		}),
	}
	cmd.Flags().String("customer", "", "ID del cliente")
	cmd.Flags().String("supplier", "", "ID del proveedor")
	cmd.Flags().String("amount", "", "monto")
	cmd.Flags().String("method", "", "medio de pago")
	cmd.Flags().String("note", "", "nota")
	return cmd
}

func documentFlags(cmd *cobra.Command) {
	cmd.Flags().String("discount", "", "descuento")
	cmd.Flags().String("tax", "", "impuesto")
	cmd.Flags().String("paid", "", "monto pagado (por defecto el total)")
	cmd.Flags().String("method", "", "medio de pago")
}

func printInvoice(cmd *cobra.Command, app *App, id offline.ID) error {
	inv, ok := app.Store.Invoice(id)
	if !ok {
		return errors.New("la factura no quedó en el terminal")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: total %s, pagado %s, saldo %s (pendiente de sincronizar)\n",
		inv.Type, inv.ID, inv.Total, inv.Paid, inv.Remaining)
	return nil
}
