// Package searcher holds the query-resolution engine: an immutable snapshot
// of the inverted indices and lookup maps, an atomically swapped generation
// handle, and the five query operations exposed to the API layer.
package searcher

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/variantdb/sheetsearch/internal/indexer/index"
	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/internal/searcher/lookup"
)

// Snapshot is one fully built generation of the searchable state. It is
// immutable after BuildSnapshot returns; any number of queries may read it
// concurrently without coordination.
type Snapshot struct {
	Content *index.Index
	Image   *index.Index
	Lookups *lookup.Maps
	Records int
	BuiltAt time.Time
}

// BuildSnapshot constructs a complete generation from the given records.
// The two inverted indices and the lookup maps are built concurrently; the
// snapshot is only returned once every structure is complete, so a caller
// publishing it can never expose a half-built generation. Records are
// ordered by (relativePath, sheetName) first, which fixes DocID assignment
// and makes rebuilds deterministic regardless of input order.
func BuildSnapshot(ctx context.Context, records []record.Record) (*Snapshot, error) {
	docs := append([]record.Record(nil), records...)
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].RelativePath != docs[j].RelativePath {
			return docs[i].RelativePath < docs[j].RelativePath
		}
		return docs[i].SheetName < docs[j].SheetName
	})

	snap := &Snapshot{
		Records: len(docs),
		BuiltAt: time.Now().UTC(),
	}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Content = index.Build(docs, index.FieldContent)
		return nil
	})
	g.Go(func() error {
		snap.Image = index.Build(docs, index.FieldImage)
		return nil
	})
	g.Go(func() error {
		snap.Lookups = lookup.Build(docs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
