package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pos-sync/internal/application/offline"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

func (r *root) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Muestra la sesión, la conexión y la cola pendiente",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			switch s := app.Session(); {
			case s == nil:
				fmt.Fprintln(out, "sesión: ninguna (ejecute posclient login)")
			case app.expired():
				fmt.Fprintf(out, "sesión: %s (%s) expirada\n", s.Email, s.Role)
			default:
				fmt.Fprintf(out, "sesión: %s (%s)\n", s.Email, s.Role)
			}

			online := "sin conexión"
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			if err := app.Remote.Ping(pingCtx); err == nil {
				online = "en línea"
			}
			cancel()
			fmt.Fprintf(out, "servidor: %s (%s)\n", r.cfg.ServerURL, online)
			fmt.Fprintf(out, "pendientes: %d\n", app.Outbox.Len())
			if err := app.Outbox.Err(); err != nil {
				fmt.Fprintf(out, "outbox: sin persistir, la sincronización está detenida (%v)\n", err)
			}

			items := app.Outbox.Items()
			if len(items) == 0 {
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIPO\tESTADO\tREINTENTOS\tPRÓXIMO\tÚLTIMO ERROR")
			for _, it := range items {
				next := "-"
				if it.State == offline.StatePending && it.Retries > 0 {
					next = it.LastAttempt.Add(app.Engine.Backoff(it.Retries)).Format(time.TimeOnly)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", it.ID, it.Kind, it.State, it.Retries, next, it.LastError)
			}
			return w.Flush()
		}),
	}
	return cmd
}

func (r *root) retryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <outbox-id>",
		Short: "Vuelve a encolar un ítem rechazado (dead) o reinicia su espera",
		Args:  cobra.ExactArgs(1),
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, args []string) error {
			if err := app.Outbox.Requeue(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ítem %s pendiente de nuevo\n", args[0])
			return nil
		}),
	}
}

func (r *root) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <outbox-id>",
		Short: "Descarta un ítem no sincronizado y revierte su registro local",
		Args:  cobra.ExactArgs(1),
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, args []string) error {
			if err := app.POS.Cancel(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ítem %s cancelado\n", args[0])
			return nil
		}),
	}
}

func (r *root) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sincroniza la cola pendiente ahora",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, _ []string) error {
			if err := app.Remote.Ping(ctx); err != nil {
				return fmt.Errorf("servidor no disponible, la cola se conserva: %w", err)
			}
			report, err := app.Engine.Drain(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"enviados %d: %d confirmados, %d fallidos, %d rechazados, %d diferidos, %d en espera; pendientes %d\n",
				report.Attempted, report.Succeeded, report.Failed, report.Dead, report.Deferred, report.Skipped,
				app.Outbox.Len())
			return nil
		}),
	}
}

func (r *root) pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Descarga catálogo, clientes y proveedores del servidor",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, _ []string) error {
			if err := app.Engine.RefreshCatalog(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d productos, %d clientes, %d proveedores\n",
				len(app.Store.Products()),
				len(app.Store.Parties(entity.PartyCustomer)),
				len(app.Store.Parties(entity.PartySupplier)))
			return nil
		}),
	}
}

func (r *root) receiptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt <factura>",
		Short: "Descarga el comprobante PDF de una factura sincronizada",
		Args:  cobra.ExactArgs(1),
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, args []string) error {
			id := offline.ParseID(args[0])
			remoteID := id.Remote()
			if inv, ok := app.Store.Invoice(id); ok {
				if !inv.Confirmed() {
					return offline.ErrNotConfirmed
				}
				remoteID = inv.RemoteID
			}
			if remoteID == "" {
				return offline.ErrNotConfirmed
			}
			pdf, err := app.Remote.Receipt(ctx, remoteID)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("out")
			if path == "" {
				path = remoteID + ".pdf"
			}
			if err := os.WriteFile(path, pdf, 0o644); err != nil {
				return fmt.Errorf("guardar comprobante: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "comprobante guardado en %s\n", path)
			return nil
		}),
	}
	cmd.Flags().StringP("out", "o", "", "archivo destino")
	return cmd
}

func (r *root) statementCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "statement <customer|supplier> <id>",
		Short:     "Consulta en línea el estado de cuenta de un cliente o proveedor",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{entity.PartyCustomer, entity.PartySupplier},
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, args []string) error {
			if args[0] != entity.PartyCustomer && args[0] != entity.PartySupplier {
				return fmt.Errorf("tipo %q: use customer o supplier", args[0])
			}
			st, err := app.Remote.GetStatement(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tsaldo %s\n", st.Name, st.Balance)
			fmt.Fprintln(w, "FECHA\tREFERENCIA\tDÉBITO\tCRÉDITO\tSALDO")
			for _, l := range st.Lines {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.Date.Format(time.DateOnly), l.Reference, l.Debit, l.Credit, l.RunningBalance)
			}
			return w.Flush()
		}),
	}
}

func (r *root) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Mantiene el terminal sincronizando en segundo plano hasta Ctrl+C",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, app *App, _ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := r.log.Component("posclient")
			unsubscribe := app.Monitor.Subscribe(func(s offline.Status) {
				log.Info().
					Bool("online", s.IsOnline).
					Bool("syncing", s.IsSyncing).
					Int("pending", s.PendingCount).
					Msg("estado del terminal")
			})
			defer unsubscribe()

			if r.cfg.MetricsAddr != "" {
				defer startMetricsServer(r.cfg.MetricsAddr, app.Registry, log)()
			}

			log.Info().Str("server", r.cfg.ServerURL).Int("pending", app.Outbox.Len()).Msg("terminal en marcha")
			app.Monitor.SyncNow()
			if err := app.Monitor.Run(ctx); err != nil {
				return err
			}
			log.Info().Msg("terminal detenido")
			return nil
		}),
	}
}
