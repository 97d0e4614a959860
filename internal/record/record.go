// Package record defines the normalized document records extracted from
// spreadsheet corpora, the projections derived from them, and the in-memory
// store that owns them.
package record

import (
	"fmt"
	"path"
	"strings"
)

// Record is one normalized (file, sheet) extraction. ContentText holds the
// cell text of the sheet; ImageText holds text recovered from embedded image
// descriptions and may be empty. Records are immutable once ingested.
type Record struct {
	Filename     string `json:"filename"`
	RelativePath string `json:"relative_path"`
	SheetName    string `json:"sheet_name"`
	ContentText  string `json:"content_text"`
	ImageText    string `json:"image_text,omitempty"`
	GeneSymbol   string `json:"gene_symbol"`
}

// Key uniquely identifies a record within the store.
func (r Record) Key() string {
	return r.RelativePath + "\x00" + r.SheetName
}

// Validate reports whether the record carries the fields the index requires.
// A failing record is skipped during reindex; it never aborts the batch.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Filename) == "" {
		return fmt.Errorf("record %q: filename is required", r.RelativePath)
	}
	if strings.TrimSpace(r.RelativePath) == "" {
		return fmt.Errorf("record %q: relative path is required", r.Filename)
	}
	if path.IsAbs(r.RelativePath) {
		return fmt.Errorf("record %q: relative path must not be absolute", r.RelativePath)
	}
	return nil
}

// FileLocation is the identity projection of a document, independent of
// ranking. It is always derived from a Record, never stored on its own.
type FileLocation struct {
	Filename     string `json:"filename"`
	RelativePath string `json:"relative_path"`
}

// Location returns the record's FileLocation projection.
func (r Record) Location() FileLocation {
	return FileLocation{Filename: r.Filename, RelativePath: r.RelativePath}
}

// SearchResult is one ranked hit. Scores depend on the query and snapshot,
// so results are constructed fresh per query.
type SearchResult struct {
	Filename     string  `json:"filename"`
	RelativePath string  `json:"relative_path"`
	SheetName    string  `json:"sheet_name"`
	Score        float64 `json:"score"`
	Highlight    string  `json:"highlight"`
}

// DeriveGeneSymbol maps a relative path to the gene symbol implied by the
// corpus layout: the top-level folder name is the symbol (one folder = one
// gene). Files at the corpus root have no symbol.
func DeriveGeneSymbol(relativePath string) string {
	p := strings.Trim(path.Clean(strings.ReplaceAll(relativePath, "\\", "/")), "/")
	idx := strings.IndexByte(p, '/')
	if idx <= 0 {
		return ""
	}
	return p[:idx]
}
