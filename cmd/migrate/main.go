package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	catalogapp "github.com/aquapet/backend/internal/application/catalog"
	"github.com/aquapet/backend/internal/infrastructure/config"
	"github.com/aquapet/backend/internal/infrastructure/logger"
	"github.com/aquapet/backend/internal/infrastructure/migration"
	"github.com/aquapet/backend/internal/infrastructure/persistence"
	"github.com/aquapet/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

// cli carries the state shared by every subcommand
type cli struct {
	migrationsPath string
	logLevel       string

	cfg *config.Config
	log *zap.Logger
}

func main() {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "AquaPet database migration tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.migrationsPath, "path", "",
		"read migrations from this directory instead of the embedded set")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		c.upCmd(),
		c.downCmd(),
		c.stepsCmd(),
		c.versionCmd(),
		c.forceCmd(),
		c.createCmd(),
		c.listCmd(),
		c.seedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (c *cli) init() error {
	log, err := logger.New(logger.Config{Level: c.logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.log = log

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg
	return nil
}

// withMigrator opens the schema migrator and closes it after fn
func (c *cli) withMigrator(fn func(m *migration.Migrator) error) error {
	if c.cfg.Database.Driver != "postgres" {
		return fmt.Errorf("SQL migrations target postgres; %s databases use database.auto_migrate", c.cfg.Database.Driver)
	}

	var (
		m   *migration.Migrator
		err error
	)
	if c.migrationsPath != "" {
		path, absErr := filepath.Abs(c.migrationsPath)
		if absErr != nil {
			return fmt.Errorf("failed to resolve migrations path: %w", absErr)
		}
		c.log.Info("Using migrations directory", zap.String("path", path))
		m, err = migration.NewFromPath(c.cfg.Database.DSN(), path, c.log)
	} else {
		db, openErr := sql.Open("postgres", c.cfg.Database.DSN())
		if openErr != nil {
			return fmt.Errorf("failed to open database: %w", openErr)
		}
		defer db.Close()
		if pingErr := db.Ping(); pingErr != nil {
			return fmt.Errorf("failed to ping database: %w", pingErr)
		}
		m, err = migration.New(db, migrations.FS, c.log)
	}
	if err != nil {
		return err
	}

	return errors.Join(fn(m), m.Close())
}

func (c *cli) upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Database.Driver == "sqlite" {
				return c.withDatabase(func(db *persistence.Database) error {
					c.log.Info("Auto-migrating sqlite schema", zap.String("path", c.cfg.Database.Path))
					return db.AutoMigrate()
				})
			}
			return c.withMigrator((*migration.Migrator).Up)
		},
	}
}

func (c *cli) downCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("down drops every table; rerun with --confirm")
			}
			return c.withMigrator((*migration.Migrator).Down)
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm the rollback")
	return cmd
}

func (c *cli) stepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps <n>",
		Short: "Apply n migrations (negative n rolls back)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return c.withMigrator(func(m *migration.Migrator) error {
				return m.Steps(n)
			})
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withMigrator(func(m *migration.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if v == 0 {
					c.log.Info("No migrations applied")
					return nil
				}
				c.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
				return nil
			})
		},
	}
}

func (c *cli) forceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Mark a version as applied without running it",
		Long:  "Records <version> as the current schema version and clears the dirty flag. Use it only to recover from a failed migration.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return c.withMigrator(func(m *migration.Migrator) error {
				return m.Force(v)
			})
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(c.sourceDir(), args[0])
			if err != nil {
				return err
			}
			c.log.Info("Migration created",
				zap.Int("sequence", mf.Sequence),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath))
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the migration files on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := migration.ListMigrations(c.sourceDir())
			if err != nil {
				return err
			}
			if len(files) == 0 {
				c.log.Info("No migrations found")
				return nil
			}
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "%06d  %s\n", f.Sequence, f.Name)
			}
			return nil
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create or refresh the demo product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDatabase(func(db *persistence.Database) error {
				svc := catalogapp.NewService(
					persistence.NewGormProductRepository(db.DB),
					persistence.NewGormTaxonomyRepository(db.DB),
					c.log,
				)
				product, err := svc.SeedDemo(context.Background())
				if err != nil {
					return err
				}
				c.log.Info("Demo product ready",
					zap.String("id", product.ID.String()),
					zap.Stringp("barcode", product.Barcode))
				return nil
			})
		},
	}
}

func (c *cli) withDatabase(fn func(db *persistence.Database) error) error {
	db, err := persistence.NewDatabase(&c.cfg.Database)
	if err != nil {
		return err
	}
	return errors.Join(fn(db), db.Close())
}

// sourceDir is where create and list operate: --path, or ./migrations
func (c *cli) sourceDir() string {
	if c.migrationsPath != "" {
		return c.migrationsPath
	}
	return "migrations"
}
