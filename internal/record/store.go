package record

import (
	"sort"
	"sync"
)

// Store is the exclusive owner of ingested Records, keyed by relative path.
// Re-ingesting a path replaces every record previously held for that path.
// Indices and lookup maps hold references into snapshots taken from the
// store; they are rebuilt wholesale, never patched.
type Store struct {
	mu     sync.RWMutex
	byPath map[string][]Record
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byPath: make(map[string][]Record)}
}

// ReplaceAll discards the current corpus and installs the given records,
// grouped by relative path.
func (s *Store) ReplaceAll(records []Record) {
	grouped := make(map[string][]Record)
	for _, r := range records {
		grouped[r.RelativePath] = append(grouped[r.RelativePath], r)
	}
	s.mu.Lock()
	s.byPath = grouped
	s.mu.Unlock()
}

// ReplacePath replaces all records for one relative path. An empty records
// slice removes the path from the corpus.
func (s *Store) ReplacePath(relativePath string, records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(records) == 0 {
		delete(s.byPath, relativePath)
		return
	}
	s.byPath[relativePath] = append([]Record(nil), records...)
}

// All returns every record in the corpus, ordered by ascending
// (relativePath, sheetName). The slice is a copy; callers may not observe
// later store mutations through it.
func (s *Store) All() []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.byPath))
	for _, recs := range s.byPath {
		out = append(out, recs...)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].RelativePath != out[j].RelativePath {
			return out[i].RelativePath < out[j].RelativePath
		}
		return out[i].SheetName < out[j].SheetName
	})
	return out
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, recs := range s.byPath {
		n += len(recs)
	}
	return n
}
