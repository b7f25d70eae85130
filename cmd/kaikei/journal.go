package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kaikei/internal/cli"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/normalize"
	"github.com/Veraticus/kaikei/internal/service"
)

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect and edit a tenant's journal",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List journal entries, newest first",
		Args:  cobra.NoArgs,
		RunE:  runJournalList,
	}
	addTenantFlag(list)
	list.Flags().IntP("limit", "n", 50, "maximum entries to show (0 for all)")

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a journal entry by hand",
		Args:  cobra.NoArgs,
		RunE:  runJournalAdd,
	}
	addTenantFlag(add)
	add.Flags().String("date", "", "entry date (default today)")
	add.Flags().String("summary", "", "description")
	add.Flags().String("amount", "0", "amount")
	add.Flags().String("debit", "", "debit account")
	add.Flags().String("credit", "", "credit account")
	add.Flags().String("reason", "", "note")
	for _, f := range []string{"summary", "debit", "credit"} {
		_ = add.MarkFlagRequired(f)
	}

	correct := &cobra.Command{
		Use:   "correct <entry-id>",
		Short: "Override an entry's accounts and teach the classifier",
		Args:  cobra.ExactArgs(1),
		RunE:  runJournalCorrect,
	}
	addTenantFlag(correct)
	correct.Flags().String("debit", "", "corrected debit account")
	correct.Flags().String("credit", "", "corrected credit account")
	correct.Flags().String("reason", "", "why the suggestion was wrong")
	correct.Flags().String("reviewer", "", "reviewer name (default \"user\")")
	_ = correct.MarkFlagRequired("debit")
	_ = correct.MarkFlagRequired("credit")

	history := &cobra.Command{
		Use:   "history <entry-id>",
		Short: "Show an entry's correction history",
		Args:  cobra.ExactArgs(1),
		RunE:  runJournalHistory,
	}
	addTenantFlag(history)

	cmd.AddCommand(list, add, correct, history)
	return cmd
}

func runJournalList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenant, err := tenantFromFlag(cmd, a)
	if err != nil {
		return err
	}
	ledger, err := a.Ledgers.Ledger(cmd.Context(), tenant.Code)
	if err != nil {
		return err
	}

	entries, err := ledger.ListEntries(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No journal entries"))
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		reviewed := ""
		if e.Reviewed {
			reviewed = cli.SuccessIcon
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.Format("2006-01-02"),
			e.Summary,
			normalize.FormatAmount(e.Amount),
			e.DebitAccount,
			e.CreditAccount,
			fmt.Sprintf("%.2f", e.Confidence),
			reviewed,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(
		[]string{"ID", "Date", "Summary", "Amount", "Debit", "Credit", "Conf", "Reviewed"}, rows))
	return nil
}

func runJournalAdd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	date, _ := flags.GetString("date")
	summary, _ := flags.GetString("summary")
	amount, _ := flags.GetString("amount")
	debit, _ := flags.GetString("debit")
	credit, _ := flags.GetString("credit")
	reason, _ := flags.GetString("reason")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenant, err := tenantFromFlag(cmd, a)
	if err != nil {
		return err
	}
	ledger, err := a.Ledgers.Ledger(cmd.Context(), tenant.Code)
	if err != nil {
		return err
	}

	entry := &model.JournalEntry{
		Date:          normalize.Normalizer{}.Date(date),
		Summary:       summary,
		Amount:        normalize.Amount(amount),
		DebitAccount:  debit,
		CreditAccount: credit,
		Reason:        reason,
		Confidence:    1.0,
		TenantCode:    tenant.Code,
	}
	if err := ledger.CreateEntry(cmd.Context(), entry); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created entry %d", entry.ID)))
	return nil
}

func runJournalCorrect(cmd *cobra.Command, args []string) error {
	id, err := parseEntryID(args[0])
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	debit, _ := flags.GetString("debit")
	credit, _ := flags.GetString("credit")
	reason, _ := flags.GetString("reason")
	reviewer, _ := flags.GetString("reviewer")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenant, err := tenantFromFlag(cmd, a)
	if err != nil {
		return err
	}

	correction, err := a.Pipeline.RecordCorrection(cmd.Context(), tenant, service.CorrectionRequest{
		EntryID:   id,
		NewDebit:  debit,
		NewCredit: credit,
		Reason:    reason,
		Reviewer:  reviewer,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if correction == nil {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("No entry %d; nothing changed", id)))
		return nil
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Entry %d: %s/%s → %s/%s",
		id, correction.OldDebit, correction.OldCredit, correction.NewDebit, correction.NewCredit)))
	return nil
}

func runJournalHistory(cmd *cobra.Command, args []string) error {
	id, err := parseEntryID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenant, err := tenantFromFlag(cmd, a)
	if err != nil {
		return err
	}
	ledger, err := a.Ledgers.Ledger(cmd.Context(), tenant.Code)
	if err != nil {
		return err
	}

	corrections, err := ledger.GetCorrections(cmd.Context(), id)
	if err != nil {
		return err
	}
	if len(corrections) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Entry %d has no corrections", id)))
		return nil
	}

	rows := make([][]string, 0, len(corrections))
	for _, c := range corrections {
		rows = append(rows, []string{
			c.CreatedAt.Format("2006-01-02 15:04"),
			c.OldDebit + " / " + c.OldCredit,
			c.NewDebit + " / " + c.NewCredit,
			c.Reviewer,
			c.Reason,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"When", "From", "To", "Reviewer", "Reason"}, rows))
	return nil
}

func parseEntryID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", raw)
	}
	return id, nil
}
