package lookup

import (
	"testing"

	"github.com/variantdb/sheetsearch/internal/record"
)

func corpus() []record.Record {
	return []record.Record{
		{Filename: "variants.xlsx", RelativePath: "BRCA1/variants.xlsx", SheetName: "Sheet1"},
		{Filename: "variants.xlsx", RelativePath: "BRCA1/variants.xlsx", SheetName: "Sheet2"},
		{Filename: "summary.xlsx", RelativePath: "BRCA1/summary.xlsx", SheetName: "Sheet1"},
		{Filename: "variants.xlsx", RelativePath: "TP53/variants.xlsx", SheetName: "Sheet1"},
		{Filename: "Report (final).xlsx", RelativePath: "TP53/Report (final).xlsx", SheetName: "Sheet1"},
	}
}

func TestByFilenameSubstring(t *testing.T) {
	m := Build(corpus())

	got := m.ByFilename("variant")
	want := []string{"BRCA1/variants.xlsx", "TP53/variants.xlsx"}
	if len(got) != len(want) {
		t.Fatalf("ByFilename(variant) returned %d locations, want %d: %+v", len(got), len(want), got)
	}
	for i, loc := range got {
		if loc.RelativePath != want[i] {
			t.Errorf("result[%d].RelativePath = %q, want %q", i, loc.RelativePath, want[i])
		}
	}

	// Case-insensitive against stored filenames.
	if got := m.ByFilename("REPORT"); len(got) != 1 || got[0].Filename != "Report (final).xlsx" {
		t.Errorf("ByFilename(REPORT) = %+v, want the report file", got)
	}

	if got := m.ByFilename("nomatch"); len(got) != 0 {
		t.Errorf("ByFilename(nomatch) = %+v, want empty", got)
	}
}

func TestByFilenameDeduplicatesSheets(t *testing.T) {
	m := Build(corpus())
	// BRCA1/variants.xlsx has two sheet records but is one file.
	got := m.ByFilename("variants")
	for i := 1; i < len(got); i++ {
		if got[i].RelativePath == got[i-1].RelativePath {
			t.Fatalf("duplicate location %q in %+v", got[i].RelativePath, got)
		}
	}
}

func TestByGeneSymbolCaseInsensitive(t *testing.T) {
	m := Build(corpus())

	for _, symbol := range []string{"BRCA1", "brca1", "Brca1"} {
		got := m.ByGeneSymbol(symbol)
		if len(got) != 2 {
			t.Fatalf("ByGeneSymbol(%q) returned %d locations, want 2: %+v", symbol, len(got), got)
		}
		if got[0].RelativePath != "BRCA1/summary.xlsx" || got[1].RelativePath != "BRCA1/variants.xlsx" {
			t.Errorf("ByGeneSymbol(%q) order = %+v, want ascending relative path", symbol, got)
		}
	}

	if got := m.ByGeneSymbol("EGFR"); len(got) != 0 {
		t.Errorf("ByGeneSymbol(EGFR) = %+v, want empty", got)
	}
}

func TestByGeneSymbolExplicitSymbolWins(t *testing.T) {
	records := []record.Record{
		{Filename: "a.xlsx", RelativePath: "misc/a.xlsx", SheetName: "Sheet1", GeneSymbol: "KRAS"},
	}
	m := Build(records)
	if got := m.ByGeneSymbol("kras"); len(got) != 1 {
		t.Fatalf("ByGeneSymbol(kras) = %+v, want the explicit-symbol record", got)
	}
	if got := m.ByGeneSymbol("misc"); len(got) != 0 {
		t.Errorf("derived folder symbol should not apply when explicit symbol set, got %+v", got)
	}
}

func TestFileLocationTieBreak(t *testing.T) {
	m := Build(corpus())

	// variants.xlsx exists under both BRCA1 and TP53; the ascending
	// relative path wins.
	loc, ok := m.FileLocation("variants.xlsx")
	if !ok {
		t.Fatal("FileLocation(variants.xlsx) not found")
	}
	if loc.RelativePath != "BRCA1/variants.xlsx" {
		t.Errorf("FileLocation tie-break = %q, want BRCA1/variants.xlsx", loc.RelativePath)
	}

	// Exact filename match is case-insensitive.
	if _, ok := m.FileLocation("VARIANTS.XLSX"); !ok {
		t.Error("FileLocation should match case-insensitively")
	}

	// Substring is not enough for the exact lookup.
	if _, ok := m.FileLocation("variants"); ok {
		t.Error("FileLocation must require an exact filename match")
	}

	if _, ok := m.FileLocation("missing.xlsx"); ok {
		t.Error("FileLocation on a missing file must report not found")
	}
}

func TestFileCount(t *testing.T) {
	m := Build(corpus())
	if got := m.FileCount(); got != 4 {
		t.Errorf("FileCount = %d, want 4 distinct files", got)
	}
	if got := Build(nil).FileCount(); got != 0 {
		t.Errorf("FileCount of empty corpus = %d, want 0", got)
	}
}
