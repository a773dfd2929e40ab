package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (r *root) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión contra el servidor y guarda el token en el terminal",
		Example: `  posclient login --email caja1@tienda.co --password secreto123
  POS_PASSWORD=secreto123 posclient login --email caja1@tienda.co`,
		Args: cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("POS_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email y --password (o POS_PASSWORD) son obligatorios")
			}
			s, err := app.Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sesión iniciada: %s (%s)\n", s.Email, s.Role)
			if err := app.Engine.RefreshCatalog(ctx); err != nil {
				app.log.Warn().Err(err).Msg("no se pudo descargar el catálogo")
			}
			return nil
		}),
	}
	cmd.Flags().String("email", "", "email del usuario")
	cmd.Flags().String("password", "", "password (alternativa: POS_PASSWORD)")
	return cmd
}

func (r *root) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cierra la sesión guardada (la cola pendiente se conserva)",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, app *App, cmd *cobra.Command, _ []string) error {
			if err := app.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sesión cerrada")
			return nil
		}),
	}
}
