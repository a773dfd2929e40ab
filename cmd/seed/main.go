// seed crea el usuario administrador inicial y carga el catálogo de productos desde CSV.
//
// Uso: go run ./cmd/seed --admin-email admin@tienda.co --admin-password ... --csv productos.csv --encoding latin1
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jhoicas/pos-sync/internal/application/auth"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/usecase"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-sync/pkg/config"
	"github.com/jhoicas/pos-sync/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	if err := newSeedCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	var (
		adminEmail, adminPassword string
		csvPath, encoding         string
	)
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Crea el administrador inicial y carga el catálogo",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if adminEmail == "" && csvPath == "" {
				return errors.New("nada que hacer: use --admin-email y/o --csv")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DB.Driver != config.DriverPostgres {
				return errors.New("seed requiere DB_DRIVER=postgres")
			}
			log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("seed")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}

			if adminEmail != "" {
				authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{})
				_, err := authUC.RegisterUser(ctx, dto.RegisterRequest{
					Email: adminEmail, Password: adminPassword, Name: "Administrador", Role: entity.RoleAdmin,
				})
				switch {
				case errors.Is(err, domain.ErrEmailAlreadyExists):
					log.Info().Str("email", adminEmail).Msg("el administrador ya existe")
				case err != nil:
					return fmt.Errorf("crear administrador: %w", err)
				default:
					log.Info().Str("email", adminEmail).Msg("administrador creado")
				}
			}

			if csvPath != "" {
				f, err := os.Open(csvPath)
				if err != nil {
					return fmt.Errorf("abrir CSV: %w", err)
				}
				defer f.Close()
				products, err := readCatalog(f, encoding)
				if err != nil {
					return err
				}
				productUC := usecase.NewProductUseCase(postgres.NewProductRepository(pool))
				created := 0
				for _, p := range products {
					res, err := productUC.Create(ctx, seedKey(p), p)
					if err != nil {
						return fmt.Errorf("producto %q: %w", p.Name, err)
					}
					if !res.Replayed {
						created++
					}
				}
				log.Info().Int("leidos", len(products)).Int("creados", created).Msg("catálogo cargado")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "email del administrador")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "password del administrador (mínimo 8)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV con columnas "+fmt.Sprint(catalogColumns))
	cmd.Flags().StringVar(&encoding, "encoding", "utf8", "utf8 | latin1 | windows-1252")
	return cmd
}
