package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kaikei/internal/bayes"
	"github.com/Veraticus/kaikei/internal/cli"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the local model from a tenant's journal",
		Long: `Train the local classifier on every complete entry in the tenant's journal
and write it to classifier.model_path and classifier.vectorizer_path.`,
		Args: cobra.NoArgs,
		RunE: runTrain,
	}
	addTenantFlag(cmd)
	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
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

	paths := a.Config.Classifier
	m, samples, err := bayes.TrainFromLedger(cmd.Context(), ledger, paths.ModelPath, paths.VectorizerPath)
	if err != nil {
		return fmt.Errorf("training failed after %d samples: %w", samples, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
		"Trained on %d entries, %d account pairs; saved to %s", samples, m.Classes(), paths.ModelPath)))
	return nil
}
