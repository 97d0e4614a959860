// Package ingest connects the external spreadsheet-extraction pipeline to
// the search engine. Extracted records arrive on a Kafka topic as per-file
// batches; the consumer validates them, persists them, replaces the file's
// records in the store, and schedules a debounced snapshot rebuild.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/internal/searcher"
	"github.com/variantdb/sheetsearch/pkg/kafka"
)

// FileBatch is the Kafka message payload: every record extracted from one
// spreadsheet file. Publishing an empty Records slice removes the file from
// the corpus.
type FileBatch struct {
	RelativePath string          `json:"relative_path"`
	Records      []record.Record `json:"records"`
}

// Ingestor applies FileBatch messages to the store and engine.
type Ingestor struct {
	store    *record.Store
	engine   *searcher.Engine
	repo     *Repository
	debounce time.Duration
	rebuild  chan struct{}
	logger   *slog.Logger

	// AfterRebuild, when set, runs after each successful snapshot swap.
	// The server uses it to invalidate the query cache.
	AfterRebuild func(ctx context.Context)
}

// NewIngestor creates an Ingestor. repo may be nil when persistence is
// disabled.
func NewIngestor(store *record.Store, engine *searcher.Engine, repo *Repository, debounce time.Duration) *Ingestor {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Ingestor{
		store:    store,
		engine:   engine,
		repo:     repo,
		debounce: debounce,
		rebuild:  make(chan struct{}, 1),
		logger:   slog.Default().With("component", "ingestor"),
	}
}

// HandleMessage is the kafka.MessageHandler for the record-ingest topic.
// Invalid records inside a batch are skipped individually; they never block
// the rest of the batch or later messages.
func (in *Ingestor) HandleMessage(ctx context.Context, key, value []byte) error {
	batch, err := kafka.DecodeJSON[FileBatch](value)
	if err != nil {
		return err
	}
	if batch.RelativePath == "" {
		return fmt.Errorf("file batch missing relative path (key %q)", string(key))
	}

	valid := make([]record.Record, 0, len(batch.Records))
	for _, r := range batch.Records {
		if r.RelativePath == "" {
			r.RelativePath = batch.RelativePath
		}
		if err := r.Validate(); err != nil {
			in.logger.Warn("skipping invalid record",
				"relative_path", batch.RelativePath,
				"sheet", r.SheetName,
				"error", err,
			)
			continue
		}
		if r.GeneSymbol == "" {
			r.GeneSymbol = record.DeriveGeneSymbol(r.RelativePath)
		}
		valid = append(valid, r)
	}

	if in.repo != nil {
		if err := in.repo.ReplacePath(ctx, batch.RelativePath, valid); err != nil {
			return fmt.Errorf("persisting records for %s: %w", batch.RelativePath, err)
		}
	}
	in.store.ReplacePath(batch.RelativePath, valid)
	in.logger.Info("file batch ingested",
		"relative_path", batch.RelativePath,
		"records", len(valid),
		"skipped", len(batch.Records)-len(valid),
	)

	in.scheduleRebuild()
	return nil
}

// Start runs the debounced rebuild loop until ctx is cancelled.
func (in *Ingestor) Start(ctx context.Context) {
	go func() {
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case <-in.rebuild:
				if timer == nil {
					timer = time.NewTimer(in.debounce)
					fire = timer.C
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(in.debounce)
				}
			case <-fire:
				timer = nil
				fire = nil
				if err := in.engine.Rebuild(ctx); err != nil {
					in.logger.Error("snapshot rebuild failed", "error", err)
					continue
				}
				in.logger.Info("snapshot rebuilt", "records", in.store.Len())
				if in.AfterRebuild != nil {
					in.AfterRebuild(ctx)
				}
			}
		}
	}()
}

// scheduleRebuild coalesces rebuild requests; a pending request absorbs
// later ones.
func (in *Ingestor) scheduleRebuild() {
	select {
	case in.rebuild <- struct{}{}:
	default:
	}
}
