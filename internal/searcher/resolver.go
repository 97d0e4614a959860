package searcher

import (
	"strings"
	"time"

	"github.com/variantdb/sheetsearch/internal/indexer/index"
	"github.com/variantdb/sheetsearch/internal/indexer/tokenizer"
	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/internal/searcher/highlight"
	"github.com/variantdb/sheetsearch/internal/searcher/ranker"
	apperrors "github.com/variantdb/sheetsearch/pkg/errors"
)

// SearchContent runs a ranked full-text query over sheet cell text. A limit
// of 0 returns every matching record; a negative limit is rejected. Records
// matching none of the query terms are never returned.
func (e *Engine) SearchContent(query string, limit int) ([]record.SearchResult, error) {
	if limit < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, 400, "limit must be positive, got %d", limit)
	}
	return e.searchField(opContent, query, limit, index.FieldContent)
}

// SearchImageContent runs a ranked full-text query over extracted image
// description text. The operation takes no limit: it returns every match,
// mirroring the documented query surface.
func (e *Engine) SearchImageContent(query string) ([]record.SearchResult, error) {
	return e.searchField(opImage, query, 0, index.FieldImage)
}

// GetFileLocation resolves a filename to its single location. Filenames
// duplicated across folders resolve to the first by ascending relative
// path; an unknown filename fails with ErrNotFound.
func (e *Engine) GetFileLocation(filename string) (record.FileLocation, error) {
	defer e.observeQuery(opLocation)()
	if strings.TrimSpace(filename) == "" {
		e.countQuery(opLocation, "invalid")
		return record.FileLocation{}, apperrors.New(apperrors.ErrInvalidArgument, 400, "filename is required")
	}
	snap := e.snapshot.Load()
	if snap == nil {
		e.countQuery(opLocation, "unavailable")
		return record.FileLocation{}, apperrors.New(apperrors.ErrIndexUnavailable, 503, "no index snapshot built yet")
	}
	loc, ok := snap.Lookups.FileLocation(filename)
	if !ok {
		e.countQuery(opLocation, "not_found")
		return record.FileLocation{}, apperrors.Newf(apperrors.ErrNotFound, 404, "no file named %q", filename)
	}
	e.countQuery(opLocation, "ok")
	return loc, nil
}

// SearchByFilename returns every file whose name contains the given string,
// case-insensitively. No matches is an empty list, not an error.
func (e *Engine) SearchByFilename(filename string) ([]record.FileLocation, error) {
	defer e.observeQuery(opFilename)()
	if strings.TrimSpace(filename) == "" {
		e.countQuery(opFilename, "invalid")
		return nil, apperrors.New(apperrors.ErrInvalidArgument, 400, "filename is required")
	}
	snap := e.snapshot.Load()
	if snap == nil {
		e.countQuery(opFilename, "unavailable")
		return nil, apperrors.New(apperrors.ErrIndexUnavailable, 503, "no index snapshot built yet")
	}
	locs := snap.Lookups.ByFilename(filename)
	e.countResults(opFilename, len(locs))
	return locs, nil
}

// SearchByGeneSymbol returns every file in the folder named by the symbol,
// matched case-insensitively. No matches is an empty list, not an error.
func (e *Engine) SearchByGeneSymbol(symbol string) ([]record.FileLocation, error) {
	defer e.observeQuery(opGene)()
	if strings.TrimSpace(symbol) == "" {
		e.countQuery(opGene, "invalid")
		return nil, apperrors.New(apperrors.ErrInvalidArgument, 400, "gene symbol is required")
	}
	snap := e.snapshot.Load()
	if snap == nil {
		e.countQuery(opGene, "unavailable")
		return nil, apperrors.New(apperrors.ErrIndexUnavailable, 503, "no index snapshot built yet")
	}
	locs := snap.Lookups.ByGeneSymbol(symbol)
	e.countResults(opGene, len(locs))
	return locs, nil
}

const (
	opContent  = "content"
	opImage    = "image"
	opLocation = "file_location"
	opFilename = "filename"
	opGene     = "gene_symbol"
)

func (e *Engine) searchField(op, query string, limit int, field index.Field) ([]record.SearchResult, error) {
	defer e.observeQuery(op)()
	if strings.TrimSpace(query) == "" {
		e.countQuery(op, "invalid")
		return nil, apperrors.New(apperrors.ErrInvalidArgument, 400, "query is required")
	}
	snap := e.snapshot.Load()
	if snap == nil {
		e.countQuery(op, "unavailable")
		return nil, apperrors.New(apperrors.ErrIndexUnavailable, 503, "no index snapshot built yet")
	}

	terms := tokenizer.Terms(query)
	if len(terms) == 0 {
		e.countResults(op, 0)
		return []record.SearchResult{}, nil
	}

	idx := snap.Content
	if field == index.FieldImage {
		idx = snap.Image
	}

	scored := ranker.Rank(idx, terms, limit)
	results := make([]record.SearchResult, 0, len(scored))
	for _, s := range scored {
		doc := idx.Doc(s.DocID)
		results = append(results, record.SearchResult{
			Filename:     doc.Filename,
			RelativePath: doc.RelativePath,
			SheetName:    doc.SheetName,
			Score:        s.Score,
			Highlight:    highlight.Excerpt(index.FieldText(doc, field), terms, e.window),
		})
	}
	e.countResults(op, len(results))
	return results, nil
}

func (e *Engine) countQuery(op, outcome string) {
	if e.metrics == nil {
		return
	}
	e.metrics.QueriesTotal.WithLabelValues(op, outcome).Inc()
}

func (e *Engine) countResults(op string, n int) {
	if e.metrics == nil {
		return
	}
	outcome := "ok"
	if n == 0 {
		outcome = "empty"
	}
	e.metrics.QueriesTotal.WithLabelValues(op, outcome).Inc()
	if op == opContent || op == opImage {
		e.metrics.QueryResultsCount.Observe(float64(n))
	}
}

func (e *Engine) observeQuery(op string) func() {
	if e.metrics == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		e.metrics.QueryLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
