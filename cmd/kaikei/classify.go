package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kaikei/internal/cli"
	"github.com/Veraticus/kaikei/internal/engine"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/normalize"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <summary>",
		Short: "Classify a transaction without posting it",
		Args:  cobra.ExactArgs(1),
		RunE:  runSuggest,
	}
	addTenantFlag(cmd)
	cmd.Flags().String("amount", "0", "amount")
	cmd.Flags().String("date", "", "transaction date (default today)")
	return cmd
}

func runSuggest(cmd *cobra.Command, args []string) error {
	amount, _ := cmd.Flags().GetString("amount")
	date, _ := cmd.Flags().GetString("date")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenant, err := tenantFromFlag(cmd, a)
	if err != nil {
		return err
	}

	txn := normalize.Normalizer{}.Bank(normalize.BankRow{Date: date, Description: args[0], Amount: amount})
	s := a.Pipeline.Suggest(cmd.Context(), tenant, txn)

	fmt.Fprintln(cmd.OutOrStdout(), renderSuggestion(s, engine.Decide(s, a.Pipeline.Threshold())))
	return nil
}

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <document.xml>",
		Short: "Run one scan document through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE:  runProcess,
	}
	addTenantFlag(cmd)
	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenant, err := tenantFromFlag(cmd, a)
	if err != nil {
		return err
	}

	outcome, skipped, err := a.Poller().ProcessDocument(cmd.Context(), tenant, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case skipped:
		fmt.Fprintln(out, cli.FormatInfo("Already processed: "+args[0]))
	case outcome.Committed:
		fmt.Fprintln(out, renderSuggestion(outcome.Suggestion, engine.Committed))
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Posted entry %d", outcome.Entry.ID)))
	default:
		fmt.Fprintln(out, renderSuggestion(outcome.Suggestion, engine.Pending))
		fmt.Fprintln(out, cli.FormatWarning("Held for review"))
	}
	return nil
}

func renderSuggestion(s model.Suggestion, d engine.Decision) string {
	status := cli.StyleWarning(d.String())
	if d == engine.Committed {
		status = cli.StyleSuccess(d.String())
	}

	body := fmt.Sprintf("Debit:      %s\nCredit:     %s\nConfidence: %.2f\nSource:     %s\nDecision:   %s",
		orDash(s.DebitAccount), orDash(s.CreditAccount), s.Confidence, s.Source, status)
	if s.Reason != "" {
		body += "\n" + cli.SubtleStyle.Render(s.Reason)
	}
	return cli.RenderBox("Suggestion", body)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
