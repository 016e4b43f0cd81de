package migrate

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/moltbook/memory-bridge/internal/config"
	registrystore "github.com/moltbook/memory-bridge/internal/registry/store"

	// Import store plugins to trigger init() registration.
	_ "github.com/moltbook/memory-bridge/internal/plugin/store/gormstore"
	_ "github.com/moltbook/memory-bridge/internal/plugin/store/memstore"
)

// Command returns the migrate sub-command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db-url",
				Sources:  cli.EnvVars("MEMORY_BRIDGE_DB_URL"),
				Usage:    "Database connection URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "db-kind",
				Sources: cli.EnvVars("MEMORY_BRIDGE_DB_KIND"),
				Usage:   "Store backend (postgres|sqlite)",
				Value:   "postgres",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.DefaultConfig()
			cfg.DBURL = cmd.String("db-url")
			cfg.DatastoreType = cmd.String("db-kind")
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			ctx = config.WithContext(ctx, &cfg)

			loader, err := registrystore.Select(cfg.DatastoreType)
			if err != nil {
				return err
			}
			store, err := loader(ctx)
			if err != nil {
				return err
			}

			log.Info("Running migrations...")
			if err := store.Migrate(ctx); err != nil {
				return err
			}
			log.Info("All migrations completed successfully")
			return nil
		},
	}
}
