package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/nerrad567/gray-logic-feeder/internal/api"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-feeder/migrations"
)

// errNoSecret is returned by the token command when auth is not configured.
var errNoSecret = errors.New("security.jwt.secret is not set")

// migrateCommand applies, reverts or lists database migrations and exits.
func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "down", Usage: "revert the most recent migration"},
			&cli.BoolFlag{Name: "status", Usage: "list applied and pending migrations"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c.String("config"), c.Bool("debug"))
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close() //nolint:errcheck // Exit path

			return migrate(ctx, db, c.Bool("down"), c.Bool("status"), c.Root().Writer)
		},
	}
}

// migrate runs one migration action against db, reporting to w.
func migrate(ctx context.Context, db *database.DB, down, status bool, w io.Writer) error {
	src := migrations.Source()
	switch {
	case status:
		applied, pending, err := db.MigrationStatus(ctx, src)
		if err != nil {
			return err
		}
		for _, r := range applied {
			fmt.Fprintf(w, "applied  %s  %s\n", r.Version, r.AppliedAt.Format(time.RFC3339))
		}
		for _, m := range pending {
			fmt.Fprintf(w, "pending  %s  %s\n", m.Version, m.Name)
		}
		return nil
	case down:
		if err := db.MigrateDown(ctx, src); err != nil {
			return fmt.Errorf("reverting migration: %w", err)
		}
		fmt.Fprintln(w, "reverted latest migration")
		return nil
	default:
		if err := db.Migrate(ctx, src); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		fmt.Fprintln(w, "migrations complete")
		return nil
	}
}

// tokenCommand prints a bearer token for the local API.
func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue an API bearer token signed with security.jwt.secret",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Value: "controller", Usage: "token subject"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime, zero for no expiry"},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c.String("config"), false)
			if err != nil {
				return err
			}
			if cfg.Security.JWT.Secret == "" {
				return errNoSecret
			}

			token, err := api.IssueToken(cfg.Security.JWT.Secret, c.String("subject"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, token)
			return nil
		},
	}
}
