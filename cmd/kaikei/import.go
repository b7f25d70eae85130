package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kaikei/internal/app"
	"github.com/Veraticus/kaikei/internal/cli"
	"github.com/Veraticus/kaikei/internal/importer"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/normalize"
	"github.com/Veraticus/kaikei/internal/ofx"
	"github.com/Veraticus/kaikei/internal/plaid"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank and card feeds",
		Long: `Import transactions from a feed and run each one through the classifier.
Confident rows are posted; the rest are listed for review. Rows that already
produced an entry are skipped on later imports.`,
	}

	ofxCmd := &cobra.Command{
		Use:   "ofx <file>...",
		Short: "Import OFX/QFX statement files",
		Example: `  kaikei import ofx --tenant acme ~/Downloads/statement_2024_04.qfx
  kaikei import ofx --tenant acme ~/Downloads/*.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}
	addTenantFlag(ofxCmd)

	plaidCmd := &cobra.Command{
		Use:   "plaid",
		Short: "Import recent transactions from Plaid",
		Args:  cobra.NoArgs,
		RunE:  runImportPlaid,
	}
	addTenantFlag(plaidCmd)
	plaidCmd.Flags().Int("days", 30, "how many days back to fetch")

	cmd.AddCommand(ofxCmd, plaidCmd)
	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
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

	parser := ofx.NewParser()
	var txns []model.Transaction
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		stmt, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		slog.Info("Read statement", "file", path, "rows", stmt.Len())
		txns = append(txns, importer.FromStatement(normalize.Normalizer{}, stmt)...)
	}

	return runImport(cmd, a, tenant, txns)
}

func runImportPlaid(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenant, err := tenantFromFlag(cmd, a)
	if err != nil {
		return err
	}

	client, err := plaid.NewClient(a.Config.Plaid)
	if err != nil {
		return err
	}

	return importFromFetcher(cmd, a, tenant, client, days)
}

func importFromFetcher(cmd *cobra.Command, a *app.App, tenant model.Tenant, fetcher plaid.RowFetcher, days int) error {
	end := time.Now()
	txns, err := importer.FromFetcher(cmd.Context(), normalize.Normalizer{}, fetcher, end.AddDate(0, 0, -days), end)
	if err != nil {
		return err
	}
	return runImport(cmd, a, tenant, txns)
}

func runImport(cmd *cobra.Command, a *app.App, tenant model.Tenant, txns []model.Transaction) error {
	out := cmd.OutOrStdout()
	if len(txns) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No transactions to import"))
		return nil
	}

	bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(txns), "Classifying transactions...")
	imp := a.Importer()
	imp.Progress = func() {
		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	result, err := imp.Import(cmd.Context(), tenant, txns)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.RenderBox("Import complete", fmt.Sprintf(
		"Rows:      %d\nPosted:    %d\nPending:   %d\nSkipped:   %d\nFailed:    %d",
		result.Total, result.Committed, len(result.Pending), result.Skipped, result.Failed)))

	if len(result.Pending) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(result.Pending))
	for _, p := range result.Pending {
		rows = append(rows, []string{
			p.Transaction.Date.Format("2006-01-02"),
			p.Transaction.Summary,
			normalize.FormatAmount(p.Transaction.Amount),
			orDash(p.Suggestion.DebitAccount),
			orDash(p.Suggestion.CreditAccount),
			fmt.Sprintf("%.2f", p.Suggestion.Confidence),
		})
	}
	fmt.Fprintln(out, cli.StyleTitle("Needs review"))
	fmt.Fprintln(out, cli.RenderTable([]string{"Date", "Summary", "Amount", "Debit", "Credit", "Conf"}, rows))
	return nil
}
