package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/internal/searcher"
	"github.com/variantdb/sheetsearch/pkg/health"
)

// memPersister records the last persisted corpus.
type memPersister struct {
	records []record.Record
	err     error
}

func (p *memPersister) ReplaceAll(ctx context.Context, records []record.Record) error {
	if p.err != nil {
		return p.err
	}
	p.records = records
	return nil
}

func newTestServer(t *testing.T, records []record.Record) *httptest.Server {
	t.Helper()
	srv, _ := newTestServerWithPersister(t, records, nil)
	return srv
}

func newTestServerWithPersister(t *testing.T, records []record.Record, persister RecordPersister) (*httptest.Server, *searcher.Engine) {
	t.Helper()
	eng := searcher.NewEngine(record.NewStore())
	if records != nil {
		_, err := eng.Reindex(context.Background(), records)
		require.NoError(t, err)
	}
	h := New(eng, nil, persister, nil, 10, 100)
	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if eng.Current() == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no snapshot built"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	srv := httptest.NewServer(NewRouter(h, checker, nil, 5*time.Second))
	t.Cleanup(srv.Close)
	return srv, eng
}

func apiCorpus() []record.Record {
	return []record.Record{
		{
			Filename:     "brca1_variants.xlsx",
			RelativePath: "BRCA1/brca1_variants.xlsx",
			SheetName:    "Pathogenic",
			ContentText:  "c.5266dupC frameshift pathogenic founder variant",
			ImageText:    "sanger trace showing duplication",
		},
		{
			Filename:     "tp53_summary.xlsx",
			RelativePath: "TP53/tp53_summary.xlsx",
			SheetName:    "Sheet1",
			ContentText:  "R175H hotspot missense",
		},
	}
}

func getJSON(t *testing.T, srv *httptest.Server, path string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode, "GET %s", path)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func TestSearchContentEndpoint(t *testing.T) {
	srv := newTestServer(t, apiCorpus())

	var body struct {
		Query   string                `json:"query"`
		Results []record.SearchResult `json:"results"`
	}
	getJSON(t, srv, "/api/v1/search/content?q=c.5266dupC", http.StatusOK, &body)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "brca1_variants.xlsx", body.Results[0].Filename)
	assert.Positive(t, body.Results[0].Score)
	assert.Contains(t, body.Results[0].Highlight, "**c.5266dupC**")
}

func TestSearchContentEndpointValidation(t *testing.T) {
	srv := newTestServer(t, apiCorpus())

	getJSON(t, srv, "/api/v1/search/content", http.StatusBadRequest, nil)
	getJSON(t, srv, "/api/v1/search/content?q=x&limit=-1", http.StatusBadRequest, nil)
	getJSON(t, srv, "/api/v1/search/content?q=x&limit=abc", http.StatusBadRequest, nil)
}

func TestSearchContentEndpointZeroLimitReturnsAll(t *testing.T) {
	// More matching records than the service default limit of 10.
	records := make([]record.Record, 15)
	for i := range records {
		filename := fmt.Sprintf("file_%02d.xlsx", i)
		records[i] = record.Record{
			Filename:     filename,
			RelativePath: "BRCA1/" + filename,
			SheetName:    "Sheet1",
			ContentText:  "pathogenic variant noted",
		}
	}
	srv := newTestServer(t, records)

	var body struct {
		Results []record.SearchResult `json:"results"`
	}
	getJSON(t, srv, "/api/v1/search/content?q=pathogenic", http.StatusOK, &body)
	assert.Len(t, body.Results, 10, "absent limit uses the service default")

	getJSON(t, srv, "/api/v1/search/content?q=pathogenic&limit=0", http.StatusOK, &body)
	assert.Len(t, body.Results, 15, "limit=0 must return every match")
}

func TestSearchContentEndpointLimitClamp(t *testing.T) {
	srv := newTestServer(t, apiCorpus())

	// A limit above maxResults is clamped, not rejected.
	getJSON(t, srv, "/api/v1/search/content?q=pathogenic&limit=10000", http.StatusOK, nil)
}

func TestSearchImagesEndpoint(t *testing.T) {
	srv := newTestServer(t, apiCorpus())

	var body struct {
		Results []record.SearchResult `json:"results"`
	}
	getJSON(t, srv, "/api/v1/search/images?q=sanger", http.StatusOK, &body)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Pathogenic", body.Results[0].SheetName)
}

func TestFileLocationEndpoint(t *testing.T) {
	srv := newTestServer(t, apiCorpus())

	var loc record.FileLocation
	getJSON(t, srv, "/api/v1/files/location?filename=tp53_summary.xlsx", http.StatusOK, &loc)
	assert.Equal(t, "TP53/tp53_summary.xlsx", loc.RelativePath)

	getJSON(t, srv, "/api/v1/files/location?filename=missing.xlsx", http.StatusNotFound, nil)
	getJSON(t, srv, "/api/v1/files/location", http.StatusBadRequest, nil)
}

func TestFilenameSearchEndpoint(t *testing.T) {
	srv := newTestServer(t, apiCorpus())

	var body struct {
		Locations []record.FileLocation `json:"locations"`
	}
	getJSON(t, srv, "/api/v1/files?filename=variants", http.StatusOK, &body)
	require.Len(t, body.Locations, 1)

	// No matches is an empty list with 200.
	getJSON(t, srv, "/api/v1/files?filename=zzz", http.StatusOK, &body)
	assert.NotNil(t, body.Locations)
	assert.Empty(t, body.Locations)
}

func TestGeneSymbolEndpoint(t *testing.T) {
	srv := newTestServer(t, apiCorpus())

	var body struct {
		Locations []record.FileLocation `json:"locations"`
	}
	getJSON(t, srv, "/api/v1/genes/brca1/files", http.StatusOK, &body)
	require.Len(t, body.Locations, 1)
	assert.Equal(t, "BRCA1/brca1_variants.xlsx", body.Locations[0].RelativePath)

	getJSON(t, srv, "/api/v1/genes/EGFR/files", http.StatusOK, &body)
	assert.Empty(t, body.Locations)
}

func TestQueriesBeforeFirstIndex(t *testing.T) {
	srv := newTestServer(t, nil)

	getJSON(t, srv, "/api/v1/search/content?q=anything", http.StatusServiceUnavailable, nil)
	getJSON(t, srv, "/api/v1/files/location?filename=a.xlsx", http.StatusServiceUnavailable, nil)

	resp, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReindexEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	payload, err := json.Marshal(apiCorpus())
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/v1/reindex", "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report searcher.ReindexReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 2, report.Indexed)
	assert.Zero(t, report.Rejected)

	// The new corpus is immediately queryable.
	getJSON(t, srv, "/api/v1/search/content?q=R175H", http.StatusOK, nil)
	resp2, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestReindexEndpointPersistsCorpus(t *testing.T) {
	persister := &memPersister{}
	srv, eng := newTestServerWithPersister(t, nil, persister)

	// One invalid record; only the accepted corpus may be persisted, or a
	// restart warm-load would diverge from the served snapshot.
	records := append(apiCorpus(), record.Record{SheetName: "Orphan"})
	payload, err := json.Marshal(records)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/v1/reindex", "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, eng.Corpus(), persister.records,
		"persisted corpus must match the corpus the snapshot was built from")
	require.Len(t, persister.records, 2)
	for _, rec := range persister.records {
		assert.NotEmpty(t, rec.Filename)
	}
}

func TestReindexEndpointPersistFailure(t *testing.T) {
	persister := &memPersister{err: errors.New("connection reset")}
	srv, _ := newTestServerWithPersister(t, nil, persister)

	payload, err := json.Marshal(apiCorpus())
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/v1/reindex", "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestReindexEndpointBadBody(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/v1/reindex", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReindexEndpointReportsRejections(t *testing.T) {
	srv := newTestServer(t, nil)

	records := append(apiCorpus(), record.Record{SheetName: "Orphan"})
	payload, err := json.Marshal(records)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/v1/reindex", "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report searcher.ReindexReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 1, report.Rejected)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Orphan", report.Errors[0].SheetName)
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, apiCorpus())

	resp, err := http.Get(srv.URL + "/api/v1/search/content?q=pathogenic")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestCacheStatsDisabled(t *testing.T) {
	srv := newTestServer(t, apiCorpus())

	var body map[string]string
	getJSON(t, srv, "/api/v1/cache/stats", http.StatusOK, &body)
	assert.Equal(t, "disabled", body["status"])
}
