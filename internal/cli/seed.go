// Package cli holds the cobra command tree of the user-seed binary.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrestovio/module10-is601/internal/config"
	"github.com/andrestovio/module10-is601/internal/logger"
	"github.com/andrestovio/module10-is601/internal/security"
	"github.com/andrestovio/module10-is601/internal/seed"
	"github.com/andrestovio/module10-is601/internal/storage/backend"
)

const defaultCount = 10

// NewSeedCmd returns the root command of user-seed.
func NewSeedCmd() *cobra.Command {
	var (
		configPath string
		count      int
		fakerSeed  uint64
	)

	cmd := &cobra.Command{
		Use:          "user-seed",
		Short:        "Seed the users table with fake data",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("--number must be at least 1, got %d", count)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := logger.NewWithWriter(cfg.Env, cmd.ErrOrStderr())
			log.Info("loaded settings",
				slog.String("db_driver", cfg.Database.Driver),
				slog.String("db_host", cfg.Database.Host),
				slog.String("db_user", cfg.Database.User),
				slog.String("salt", config.MaskSecret(cfg.Salt)),
			)

			ctx := cmd.Context()
			store, err := backend.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
				log.Info("storage closed")
			}()

			hasher, err := security.NewHasher(cfg.Salt)
			if err != nil {
				return err
			}

			created, err := seed.New(store, hasher, seed.NewGenerator(fakerSeed), log).Seed(ctx, count)
			if err != nil {
				log.Error("seeding failed, nothing was written", logger.Err(err))
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Successfully added %d users to the database.\n", len(created))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to the configuration YAML file (or CONFIG_PATH)")
	cmd.Flags().IntVarP(&count, "number", "n", defaultCount, "number of fake users to generate")
	cmd.Flags().Uint64Var(&fakerSeed, "seed", 0, "faker seed for reproducible data (0 = random)")
	return cmd
}
