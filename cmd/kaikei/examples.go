package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kaikei/internal/cli"
)

func examplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "examples",
		Short: "Show the correction examples fed to the reasoning classifier",
		Args:  cobra.NoArgs,
		RunE:  runExamples,
	}
	addTenantFlag(cmd)
	return cmd
}

func runExamples(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenant, err := tenantFromFlag(cmd, a)
	if err != nil {
		return err
	}

	examples, err := a.State.Examples(cmd.Context(), tenant.Code)
	if err != nil {
		return err
	}
	if len(examples) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No corrections recorded yet"))
		return nil
	}

	rows := make([][]string, 0, len(examples))
	for i, ex := range examples {
		rows = append(rows, []string{strconv.Itoa(i + 1), ex.Summary, ex.Debit(), ex.Credit(), ex.ReviewerReason})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"#", "Summary", "Debit", "Credit", "Reason"}, rows))
	return nil
}
