package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/offline"
)

func (r *root) productCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Catálogo local de productos",
	}

	add := &cobra.Command{
		Use:     "add",
		Short:   "Crea un producto (queda con ID local hasta sincronizar)",
		Example: `  posclient product add --name "Arroz 500g" --price 3200 --cost 2500 --qty 40 --min 10`,
		Args:    cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, _ []string) error {
			req := dto.CreateProductRequest{}
			req.Name, _ = cmd.Flags().GetString("name")
			req.Barcode, _ = cmd.Flags().GetString("barcode")
			var err error
			if req.Price, err = decimalFlag(cmd, "price"); err != nil {
				return err
			}
			if req.Cost, err = decimalFlag(cmd, "cost"); err != nil {
				return err
			}
			if req.Quantity, err = decimalFlag(cmd, "qty"); err != nil {
				return err
			}
			if req.MinQuantity, err = decimalFlag(cmd, "min"); err != nil {
				return err
			}
			id, err := app.POS.CreateProduct(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "producto %s creado\n", id)
			return nil
		}),
	}
	add.Flags().String("name", "", "nombre")
	add.Flags().String("barcode", "", "código de barras")
	add.Flags().String("price", "", "precio de venta")
	add.Flags().String("cost", "", "costo")
	add.Flags().String("qty", "", "existencias iniciales")
	add.Flags().String("min", "", "existencias mínimas")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Elimina un producto local que aún no se sincronizó",
		Args:  cobra.ExactArgs(1),
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, args []string) error {
			if err := app.POS.DeleteLocalProduct(ctx, offline.ParseID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "producto %s eliminado\n", args[0])
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Lista el catálogo local",
		Args:  cobra.NoArgs,
		RunE: r.with(func(_ context.Context, app *App, cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNOMBRE\tPRECIO\tEXISTENCIAS\tESTADO")
			for _, p := range app.Store.Products() {
				state := "sincronizado"
				if p.ID.IsLocal() {
					state = "local"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Price, p.Quantity, state)
			}
			return w.Flush()
		}),
	}

	cmd.AddCommand(add, rm, list)
	return cmd
}

func (r *root) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Carrito de la venta en curso",
	}

	add := &cobra.Command{
		Use:   "add <producto> <cantidad>",
		Short: "Agrega un producto al carrito al precio de catálogo",
		Args:  cobra.ExactArgs(2),
		RunE: r.with(func(_ context.Context, app *App, cmd *cobra.Command, args []string) error {
			lines, err := parseLines([]string{args[0] + ":" + args[1]})
			if err != nil {
				return err
			}
			return app.POS.AddToCart(lines[0].ProductID, lines[0].Quantity)
		}),
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Muestra el carrito",
		Args:  cobra.NoArgs,
		RunE: r.with(func(_ context.Context, app *App, cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRODUCTO\tCANTIDAD\tPRECIO\tTOTAL")
			for _, l := range app.Store.Cart() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.ProductID, l.Quantity, l.UnitPrice, l.Quantity.Mul(l.UnitPrice))
			}
			return w.Flush()
		}),
	}

	clearCart := &cobra.Command{
		Use:   "clear",
		Short: "Vacía el carrito",
		Args:  cobra.NoArgs,
		RunE: r.with(func(_ context.Context, app *App, _ *cobra.Command, _ []string) error {
			app.Store.ClearCart()
			return nil
		}),
	}

	cmd.AddCommand(add, show, clearCart)
	return cmd
}
