// Package poller watches each tenant's scan folder and feeds new documents
// through the pipeline.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/kaikei/internal/engine"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/normalize"
	"github.com/Veraticus/kaikei/internal/service"
)

// DefaultInterval is the time between cycles.
const DefaultInterval = 3 * time.Minute

// TenantLister lists the tenants to poll.
type TenantLister interface {
	List(ctx context.Context) ([]model.Tenant, error)
}

// Stats summarizes one cycle.
type Stats struct {
	Scanned   int
	Skipped   int
	Committed int
	Pending   int
	Failed    int
}

// Poller runs the scan-folder cycle on an interval.
type Poller struct {
	tenants    TenantLister
	pipeline   *engine.Pipeline
	processed  service.ProcessedStore
	folders    map[string]string
	normalizer normalize.Normalizer
	interval   time.Duration
}

// Config holds the poller settings.
type Config struct {
	// Folders overrides a tenant's base folder, keyed by tenant code.
	// Lowercased codes also match, since config keys are case-folded.
	Folders  map[string]string
	Interval time.Duration
}

// New creates a poller.
func New(tenants TenantLister, pipeline *engine.Pipeline, processed service.ProcessedStore, cfg Config) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		tenants:   tenants,
		pipeline:  pipeline,
		processed: processed,
		folders:   cfg.Folders,
		interval:  interval,
	}
}

// Run performs a cycle immediately and then one per interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("Starting poller", "interval", p.interval)

	p.cycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil {
		slog.Error("Poll cycle failed", "error", err)
	}
}

// RunOnce polls every tenant's folder once. Item failures are logged and
// counted; only a failure to list tenants aborts the cycle.
func (p *Poller) RunOnce(ctx context.Context) (Stats, error) {
	var stats Stats
	log := slog.With("cycle", uuid.NewString())

	tenants, err := p.tenants.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list tenants: %w", err)
	}

	for _, tenant := range tenants {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		folder := p.Folder(tenant)
		if folder == "" {
			continue
		}

		files, err := documents(folder)
		if err != nil {
			log.Warn("Failed to list scan folder", "tenant", tenant.Code, "folder", folder, "error", err)
			continue
		}

		for _, path := range files {
			stats.Scanned++
			outcome, skipped, err := p.processFile(ctx, tenant, path)
			switch {
			case err != nil:
				stats.Failed++
				log.Error("Failed to process document", "tenant", tenant.Code, "path", path, "error", err)
			case skipped:
				stats.Skipped++
			case outcome.Committed:
				stats.Committed++
			default:
				stats.Pending++
				log.Info("Document needs review",
					"tenant", tenant.Code,
					"path", path,
					"confidence", outcome.Suggestion.Confidence)
			}
		}
	}

	log.Info("Poll cycle complete",
		"tenants", len(tenants),
		"scanned", stats.Scanned,
		"committed", stats.Committed,
		"pending", stats.Pending,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	return stats, nil
}

// Folder resolves the folder to poll for tenant.
func (p *Poller) Folder(tenant model.Tenant) string {
	for _, code := range []string{tenant.Code, strings.ToLower(tenant.Code)} {
		if folder := p.folders[code]; folder != "" {
			return folder
		}
	}
	return tenant.BaseFolder
}

// Key is the processed-set key for a document. absPath must already be
// resolved with ResolvePath so a symlinked folder maps to one key.
func Key(tenantCode, absPath string) string {
	return tenantCode + "|" + absPath
}

// ResolvePath returns path made absolute with every symlink evaluated.
func ResolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// ProcessDocument runs a single scan document through the pipeline under the
// same processed-set key the poll cycle would use. skipped reports a document
// that was already committed.
func (p *Poller) ProcessDocument(ctx context.Context, tenant model.Tenant, path string) (outcome engine.Outcome, skipped bool, err error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return engine.Outcome{}, false, err
	}
	return p.processFile(ctx, tenant, resolved)
}

func (p *Poller) processFile(ctx context.Context, tenant model.Tenant, path string) (engine.Outcome, bool, error) {
	key := Key(tenant.Code, path)

	done, err := p.processed.IsProcessed(ctx, tenant.Code, key)
	if err != nil || done {
		return engine.Outcome{}, done, err
	}

	txn, err := p.readDocument(path)
	if err != nil {
		return engine.Outcome{}, false, err
	}

	outcome, _, err := p.pipeline.ProcessOnce(ctx, p.processed, tenant, key, txn)
	return outcome, false, err
}

func (p *Poller) readDocument(path string) (model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := normalize.ParseScanXML(f)
	if err != nil {
		return model.Transaction{}, err
	}

	txn := p.normalizer.Scan(doc)
	txn.SourcePath = path
	return txn, nil
}

// documents returns the resolved paths of the XML documents in folder,
// sorted and without duplicates. A dangling link is kept as listed and
// fails when read.
func documents(folder string) ([]string, error) {
	dir, err := ResolvePath(folder)
	if err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		if resolved, err := filepath.EvalSymlinks(m); err == nil {
			matches[i] = resolved
		}
	}
	sort.Strings(matches)
	return slices.Compact(matches), nil
}
