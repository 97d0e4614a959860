package searcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/pkg/metrics"
)

// Engine owns the active Snapshot and the record store it is derived from.
// Queries read whichever generation is published at the time they load the
// pointer; Reindex and Rebuild construct a new generation off to the side
// and swap it in atomically, so in-flight queries always see either the old
// or the new snapshot in full.
type Engine struct {
	store    *record.Store
	snapshot atomic.Pointer[Snapshot]
	window   int
	metrics  *metrics.Metrics

	// rebuildMu serialises writers; readers never take it.
	rebuildMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithHighlightWindow sets the excerpt width in bytes.
func WithHighlightWindow(window int) Option {
	return func(e *Engine) {
		if window > 0 {
			e.window = window
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an Engine over the given store. No snapshot exists until
// the first Reindex or Rebuild succeeds; queries before that fail with
// ErrIndexUnavailable.
func NewEngine(store *record.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		window: 160,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecordError describes one record rejected during reindex.
type RecordError struct {
	RelativePath string `json:"relative_path"`
	SheetName    string `json:"sheet_name"`
	Reason       string `json:"reason"`
}

// ReindexReport summarises a reindex: how many records were accepted, how
// many rejected, and why. A rejected record never aborts the rest of the
// batch.
type ReindexReport struct {
	Indexed  int           `json:"indexed"`
	Rejected int           `json:"rejected"`
	Errors   []RecordError `json:"errors,omitempty"`
	Duration string        `json:"duration"`
}

// Reindex replaces the whole corpus with the given records and publishes a
// fresh snapshot. The outcome is independent of any previously ingested
// state: Reindex(nil) followed by Reindex(rs) equals Reindex(rs) from empty.
func (e *Engine) Reindex(ctx context.Context, records []record.Record) (ReindexReport, error) {
	start := time.Now()
	report := ReindexReport{}

	valid := make([]record.Record, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			report.Rejected++
			report.Errors = append(report.Errors, RecordError{
				RelativePath: r.RelativePath,
				SheetName:    r.SheetName,
				Reason:       err.Error(),
			})
			continue
		}
		if r.GeneSymbol == "" {
			r.GeneSymbol = record.DeriveGeneSymbol(r.RelativePath)
		}
		valid = append(valid, r)
	}

	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	e.store.ReplaceAll(valid)
	if err := e.publish(ctx); err != nil {
		e.observeRebuild("error", time.Since(start))
		return report, err
	}
	report.Indexed = len(valid)
	report.Duration = time.Since(start).String()

	e.observeRebuild("ok", time.Since(start))
	if e.metrics != nil {
		e.metrics.RecordsIndexedTotal.Add(float64(report.Indexed))
		e.metrics.RecordsRejectedTotal.Add(float64(report.Rejected))
	}
	return report, nil
}

// Rebuild publishes a fresh snapshot from the store's current contents.
// Used by the ingestion path after per-path record replacement.
func (e *Engine) Rebuild(ctx context.Context) error {
	start := time.Now()
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()
	if err := e.publish(ctx); err != nil {
		e.observeRebuild("error", time.Since(start))
		return err
	}
	e.observeRebuild("ok", time.Since(start))
	return nil
}

// publish builds a snapshot from the store and swaps it in. Callers hold
// rebuildMu.
func (e *Engine) publish(ctx context.Context) error {
	snap, err := BuildSnapshot(ctx, e.store.All())
	if err != nil {
		return fmt.Errorf("building snapshot: %w", err)
	}
	e.snapshot.Store(snap)
	if e.metrics != nil {
		e.metrics.SnapshotRecords.Set(float64(snap.Records))
	}
	return nil
}

// Current returns the active snapshot, or nil before the first build.
func (e *Engine) Current() *Snapshot {
	return e.snapshot.Load()
}

// Corpus returns every accepted record, ordered by ascending
// (relativePath, sheetName). Callers persisting the corpus get exactly what
// the snapshot was built from.
func (e *Engine) Corpus() []record.Record {
	return e.store.All()
}

func (e *Engine) observeRebuild(status string, d time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.RebuildsTotal.WithLabelValues(status).Inc()
	e.metrics.RebuildDuration.Observe(d.Seconds())
}
