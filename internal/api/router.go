package api

import (
	"net/http"
	"time"

	"github.com/variantdb/sheetsearch/pkg/health"
	"github.com/variantdb/sheetsearch/pkg/metrics"
	"github.com/variantdb/sheetsearch/pkg/middleware"
)

// NewRouter builds the full HTTP handler with all routes and the middleware
// chain.
//
// Route table:
//
//	GET  /api/v1/search/content        → ranked content search (limit
//	                                     defaults per config; limit=0 returns
//	                                     every match)
//	GET  /api/v1/search/images         → ranked image-text search (no limit)
//	GET  /api/v1/files/location        → single-file exact lookup
//	GET  /api/v1/files                 → filename substring search
//	GET  /api/v1/genes/{symbol}/files  → gene-symbol folder lookup
//	POST /api/v1/reindex               → replace corpus and rebuild
//	GET  /api/v1/cache/stats           → query cache counters
//	GET  /health/live                  → liveness
//	GET  /health/ready                 → readiness
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics, timeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/search/content", h.SearchContent)
	mux.HandleFunc("GET /api/v1/search/images", h.SearchImageContent)
	mux.HandleFunc("GET /api/v1/files/location", h.GetFileLocation)
	mux.HandleFunc("GET /api/v1/files", h.SearchByFilename)
	mux.HandleFunc("GET /api/v1/genes/{symbol}/files", h.SearchByGeneSymbol)
	mux.HandleFunc("POST /api/v1/reindex", h.Reindex)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	// Middleware applied inside-out: request → RequestID → Metrics →
	// Timeout → mux.
	var chain http.Handler = mux
	chain = middleware.Timeout(timeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)
	return chain
}
