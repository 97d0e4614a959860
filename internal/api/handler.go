// Package api exposes the five query operations and the administrative
// reindex endpoint over JSON/HTTP. It is a thin shell; every decision about
// matching, ranking, and highlighting lives in the searcher engine.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/internal/searcher"
	"github.com/variantdb/sheetsearch/internal/searcher/cache"
	apperrors "github.com/variantdb/sheetsearch/pkg/errors"
	"github.com/variantdb/sheetsearch/pkg/logger"
	"github.com/variantdb/sheetsearch/pkg/metrics"
)

// RecordPersister stores the accepted corpus so the index can warm from
// persistent storage after a restart.
type RecordPersister interface {
	ReplaceAll(ctx context.Context, records []record.Record) error
}

// Handler binds HTTP requests to engine operations.
type Handler struct {
	engine       *searcher.Engine
	cache        *cache.QueryCache
	repo         RecordPersister
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a Handler. cache, repo, and m may be nil.
func New(engine *searcher.Engine, queryCache *cache.QueryCache, repo RecordPersister, m *metrics.Metrics, defaultLimit, maxResults int) *Handler {
	return &Handler{
		engine:       engine,
		cache:        queryCache,
		repo:         repo,
		metrics:      m,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "api"),
	}
}

// SearchContent handles GET /api/v1/search/content?q=...&limit=N. An absent
// limit falls back to the configured default; an explicit limit=0 disables
// truncation and returns every matching record.
func (h *Handler) SearchContent(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	results, cacheHit, err := h.cachedSearch(r, "content", query, limit, func() ([]record.SearchResult, error) {
		return h.engine.SearchContent(query, limit)
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.observeCache(cacheHit)
	h.writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

// SearchImageContent handles GET /api/v1/search/images?q=... — the image
// query surface carries no limit parameter.
func (h *Handler) SearchImageContent(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, cacheHit, err := h.cachedSearch(r, "image", query, 0, func() ([]record.SearchResult, error) {
		return h.engine.SearchImageContent(query)
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.observeCache(cacheHit)
	h.writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

// GetFileLocation handles GET /api/v1/files/location?filename=...
func (h *Handler) GetFileLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.engine.GetFileLocation(r.URL.Query().Get("filename"))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loc)
}

// SearchByFilename handles GET /api/v1/files?filename=...
func (h *Handler) SearchByFilename(w http.ResponseWriter, r *http.Request) {
	locs, err := h.engine.SearchByFilename(r.URL.Query().Get("filename"))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, locationsResponse{Locations: emptyIfNil(locs)})
}

// SearchByGeneSymbol handles GET /api/v1/genes/{symbol}/files.
func (h *Handler) SearchByGeneSymbol(w http.ResponseWriter, r *http.Request) {
	locs, err := h.engine.SearchByGeneSymbol(r.PathValue("symbol"))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, locationsResponse{Locations: emptyIfNil(locs)})
}

// Reindex handles POST /api/v1/reindex with a JSON array of records. It
// replaces the whole corpus and reports per-record rejections.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	var records []record.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		h.writeError(w, http.StatusBadRequest, "request body must be a JSON array of records")
		return
	}

	report, err := h.engine.Reindex(r.Context(), records)
	if err != nil {
		logger.FromContext(r.Context()).Error("reindex failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "reindex failed")
		return
	}
	// The warm-start path rebuilds the index from the repository, so the
	// persisted corpus must follow every accepted replacement or a restart
	// resurrects the previous corpus.
	if h.repo != nil {
		if err := h.repo.ReplaceAll(r.Context(), h.engine.Corpus()); err != nil {
			logger.FromContext(r.Context()).Error("persisting reindexed corpus failed", "error", err)
			h.writeError(w, http.StatusInternalServerError, "reindex applied but could not be persisted")
			return
		}
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		}
	}
	logger.FromContext(r.Context()).Info("reindex complete",
		"indexed", report.Indexed,
		"rejected", report.Rejected,
	)
	h.writeJSON(w, http.StatusOK, report)
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	h.writeJSON(w, http.StatusOK, map[string]int64{"hits": hits, "misses": misses})
}

type searchResponse struct {
	Query   string                `json:"query"`
	Results []record.SearchResult `json:"results"`
}

type locationsResponse struct {
	Locations []record.FileLocation `json:"locations"`
}

// cachedSearch routes ranked queries through the query cache when one is
// configured. Validation errors must not be cached, so obviously invalid
// input short-circuits to the engine.
func (h *Handler) cachedSearch(
	r *http.Request,
	op, query string,
	limit int,
	computeFn func() ([]record.SearchResult, error),
) ([]record.SearchResult, bool, error) {
	if h.cache == nil || query == "" || h.engine.Current() == nil {
		results, err := computeFn()
		return results, false, err
	}
	return h.cache.GetOrCompute(r.Context(), op, query, limit, computeFn)
}

func (h *Handler) observeCache(hit bool) {
	if h.metrics == nil || h.cache == nil {
		return
	}
	if hit {
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
}

func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("query failed", "path", r.URL.Path, "error", err)
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response failed", "error", err)
	}
}

func emptyIfNil(locs []record.FileLocation) []record.FileLocation {
	if locs == nil {
		return []record.FileLocation{}
	}
	return locs
}
