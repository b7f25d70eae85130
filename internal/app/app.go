// Package app assembles the long-lived components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/kaikei/internal/classifier"
	"github.com/Veraticus/kaikei/internal/config"
	"github.com/Veraticus/kaikei/internal/engine"
	"github.com/Veraticus/kaikei/internal/importer"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/poller"
	"github.com/Veraticus/kaikei/internal/state"
	"github.com/Veraticus/kaikei/internal/storage"
)

// App owns the tenant directory, the ledger registry, the state store and
// the pipeline built on them.
type App struct {
	Config     *config.Config
	Directory  *storage.Directory
	Ledgers    *storage.Registry
	State      *state.Store
	Classifier classifier.Strategy
	Pipeline   *engine.Pipeline
}

// Open builds an App. On error everything opened so far is closed.
func Open(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.Directory, err = storage.OpenDirectory(ctx, cfg.DirectoryPath()); err != nil {
		return nil, fmt.Errorf("failed to open tenant directory: %w", err)
	}

	a.Ledgers = storage.NewRegistry(cfg.LedgerDir())

	if a.State, err = state.Open(cfg.StatePath()); err != nil {
		return nil, err
	}

	a.Classifier, err = classifier.New(ctx, classifier.Options{
		Strategy:       cfg.Classifier.Strategy,
		RulesFile:      cfg.Classifier.RulesFile,
		ModelPath:      cfg.Classifier.ModelPath,
		VectorizerPath: cfg.Classifier.VectorizerPath,
		Reasoning:      cfg.Reasoning,
		Examples:       a.State,
	})
	if err != nil {
		return nil, err
	}

	a.Pipeline = engine.NewPipeline(a.Classifier, a.Ledgers, a.State, engine.WithThreshold(cfg.Threshold))

	slog.Debug("Application opened",
		"data_dir", cfg.DataDir,
		"strategy", cfg.Classifier.Strategy,
		"threshold", cfg.Threshold)

	return a, nil
}

// Close tears components down in reverse order of construction.
func (a *App) Close() error {
	var errs []error
	if a.Classifier != nil {
		errs = append(errs, a.Classifier.Close())
	}
	if a.State != nil {
		errs = append(errs, a.State.Close())
	}
	if a.Ledgers != nil {
		errs = append(errs, a.Ledgers.Close())
	}
	if a.Directory != nil {
		errs = append(errs, a.Directory.Close())
	}
	return errors.Join(errs...)
}

// Poller returns a poller over every registered tenant.
func (a *App) Poller() *poller.Poller {
	return poller.New(a.Directory, a.Pipeline, a.State, poller.Config{
		Interval: a.Config.Poll.Interval,
		Folders:  a.Config.Poll.Folders,
	})
}

// Importer returns a feed importer.
func (a *App) Importer() *importer.Importer {
	return importer.New(a.Pipeline, a.State)
}

// Tenant resolves a tenant code.
func (a *App) Tenant(ctx context.Context, code string) (*model.Tenant, error) {
	return a.Directory.ByCode(ctx, code)
}

// DeleteTenant removes the tenant from the directory, archives its ledger
// file and drops its state. The archived ledger stays in the ledger
// directory for audit but is never reopened under the code.
func (a *App) DeleteTenant(ctx context.Context, code string) error {
	if err := a.Directory.Delete(ctx, code); err != nil {
		return err
	}
	archived, err := a.Ledgers.Archive(code)
	if err != nil {
		return fmt.Errorf("tenant deleted but ledger was not archived: %w", err)
	}
	if err := a.State.Forget(ctx, code); err != nil {
		return fmt.Errorf("tenant deleted but state cleanup failed: %w", err)
	}
	slog.Info("Tenant deleted", "tenant", code, "archived_ledger", archived)
	return nil
}
