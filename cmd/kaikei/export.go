package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kaikei/internal/cli"
	"github.com/Veraticus/kaikei/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a tenant's journal",
	}

	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write the journal to a Google Sheet",
		Long: `Replace the configured sheet range (default Journal!A1) with the tenant's
journal, newest first. Configure sheets.spreadsheet_id and either
sheets.service_account_path or an OAuth client id, secret and refresh token.`,
		Args: cobra.NoArgs,
		RunE: runExportSheets,
	}
	addTenantFlag(sheetsCmd)
	sheetsCmd.Flags().String("spreadsheet", "", "spreadsheet id (default from sheets.spreadsheet_id)")
	sheetsCmd.Flags().String("range", "", "top-left cell, e.g. Journal!A1")

	cmd.AddCommand(sheetsCmd)
	return cmd
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenant, err := tenantFromFlag(cmd, a)
	if err != nil {
		return err
	}

	cfg := a.Config.Sheets
	if id, _ := cmd.Flags().GetString("spreadsheet"); id != "" {
		cfg.SpreadsheetID = id
	}
	if r, _ := cmd.Flags().GetString("range"); r != "" {
		cfg.Range = r
	}

	writer, err := sheets.NewWriter(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}

	ledger, err := a.Ledgers.Ledger(ctx, tenant.Code)
	if err != nil {
		return err
	}
	entries, err := ledger.ListEntries(ctx, 0)
	if err != nil {
		return err
	}

	n, err := writer.ExportJournal(ctx, tenant.Code, entries)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d entries to spreadsheet %s", n, cfg.SpreadsheetID)))
	return nil
}
