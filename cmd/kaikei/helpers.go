package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/kaikei/internal/app"
	"github.com/Veraticus/kaikei/internal/config"
	"github.com/Veraticus/kaikei/internal/model"
)

// openApp loads the configuration and opens the application. Callers must Close it.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app.Open(ctx, cfg)
}

func addTenantFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("tenant", "t", "", "tenant code")
	_ = cmd.MarkFlagRequired("tenant")
}

// tenantFromFlag resolves --tenant against the directory.
func tenantFromFlag(cmd *cobra.Command, a *app.App) (model.Tenant, error) {
	code, _ := cmd.Flags().GetString("tenant")
	tenant, err := a.Tenant(cmd.Context(), code)
	if err != nil {
		return model.Tenant{}, fmt.Errorf("unknown tenant %q: %w", code, err)
	}
	return *tenant, nil
}
