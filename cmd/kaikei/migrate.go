package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kaikei/internal/cli"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring every tenant ledger up to the current schema",
		Long: `Open the tenant registry and each tenant's ledger, applying any pending
schema migrations. Migrations are idempotent; ledgers also migrate on first use.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenants, err := a.Directory.List(ctx)
	if err != nil {
		return err
	}

	for _, t := range tenants {
		if _, err := a.Ledgers.Open(ctx, t.Code); err != nil {
			return fmt.Errorf("migration failed for %s: %w", t.Code, err)
		}
		slog.Info("Ledger up to date", "tenant", t.Code, "path", a.Ledgers.Path(t.Code))
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Migrated %d ledgers", len(tenants))))
	return nil
}
