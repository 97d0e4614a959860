// Package lookup builds the exact and substring lookup maps derived from the
// record store: filename search, gene-symbol search, and the single-file
// location lookup. Maps are rebuilt alongside the inverted indices and are
// immutable once built.
package lookup

import (
	"sort"
	"strings"

	"github.com/variantdb/sheetsearch/internal/record"
)

// Maps holds the auxiliary non-ranked lookup structures for one snapshot.
type Maps struct {
	// locations is every distinct file in the corpus, ascending by
	// relative path. One file may contribute many sheet records; it
	// appears here once.
	locations []entry
	byGene    map[string][]record.FileLocation
	byExact   map[string][]record.FileLocation
}

type entry struct {
	loc           record.FileLocation
	lowerFilename string
}

// Build derives the lookup maps from the given records.
func Build(records []record.Record) *Maps {
	m := &Maps{
		byGene:  make(map[string][]record.FileLocation),
		byExact: make(map[string][]record.FileLocation),
	}

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.RelativePath]; dup {
			continue
		}
		seen[r.RelativePath] = struct{}{}

		loc := r.Location()
		m.locations = append(m.locations, entry{
			loc:           loc,
			lowerFilename: strings.ToLower(r.Filename),
		})

		symbol := r.GeneSymbol
		if symbol == "" {
			symbol = record.DeriveGeneSymbol(r.RelativePath)
		}
		if symbol != "" {
			key := strings.ToLower(symbol)
			m.byGene[key] = append(m.byGene[key], loc)
		}
		exactKey := strings.ToLower(r.Filename)
		m.byExact[exactKey] = append(m.byExact[exactKey], loc)
	}

	sort.Slice(m.locations, func(i, j int) bool {
		return m.locations[i].loc.RelativePath < m.locations[j].loc.RelativePath
	})
	for _, locs := range m.byGene {
		sortLocations(locs)
	}
	for _, locs := range m.byExact {
		sortLocations(locs)
	}
	return m
}

// ByFilename returns every file whose filename contains the given string,
// case-insensitively, ordered by ascending relative path.
func (m *Maps) ByFilename(filename string) []record.FileLocation {
	needle := strings.ToLower(filename)
	out := make([]record.FileLocation, 0, 4)
	for _, e := range m.locations {
		if strings.Contains(e.lowerFilename, needle) {
			out = append(out, e.loc)
		}
	}
	return out
}

// ByGeneSymbol returns every file under the folder named by the symbol,
// matched case-insensitively, ordered by ascending relative path.
func (m *Maps) ByGeneSymbol(symbol string) []record.FileLocation {
	locs := m.byGene[strings.ToLower(symbol)]
	return append([]record.FileLocation(nil), locs...)
}

// FileLocation returns the single location for an exact filename match.
// When the same filename exists in several folders, the first by ascending
// relative path wins; the bool is false when nothing matches.
func (m *Maps) FileLocation(filename string) (record.FileLocation, bool) {
	locs := m.byExact[strings.ToLower(filename)]
	if len(locs) == 0 {
		return record.FileLocation{}, false
	}
	return locs[0], true
}

// FileCount returns the number of distinct files in the corpus.
func (m *Maps) FileCount() int {
	return len(m.locations)
}

func sortLocations(locs []record.FileLocation) {
	sort.Slice(locs, func(i, j int) bool {
		return locs[i].RelativePath < locs[j].RelativePath
	})
}
