// Package index builds immutable inverted indices over record fields.
// An Index maps each term to its posting list (document reference, term
// frequency, byte offsets of every occurrence). Indices are rebuilt
// wholesale on reindex and never mutated afterwards, so readers need no
// locking.
package index

import (
	"github.com/variantdb/sheetsearch/internal/indexer/tokenizer"
	"github.com/variantdb/sheetsearch/internal/record"
)

// Field selects which record field an index is built over.
type Field string

const (
	FieldContent Field = "content"
	FieldImage   Field = "image"
)

// FieldText extracts the indexed text of a record for the given field.
func FieldText(r record.Record, f Field) string {
	if f == FieldImage {
		return r.ImageText
	}
	return r.ContentText
}

// Offset is the byte range of one term occurrence in the source field.
type Offset struct {
	Start int
	End   int
}

// Posting records that a term occurs in one document, with its frequency and
// every occurrence offset (the Highlighter needs offsets).
type Posting struct {
	DocID     int
	Frequency int
	Offsets   []Offset
}

// Index is an immutable inverted index over one field of a document set.
// Posting lists are ordered by ascending DocID, and DocIDs index the docs
// slice the index was built from.
type Index struct {
	field    Field
	docs     []record.Record
	postings map[string][]Posting
	docCount int
}

// Build tokenizes the selected field of every document and constructs the
// inverted index. Documents whose field yields no tokens carry no postings
// and do not count toward the document total used for IDF. Build is
// deterministic: the same documents in the same order produce an identical
// index.
func Build(docs []record.Record, field Field) *Index {
	idx := &Index{
		field:    field,
		docs:     docs,
		postings: make(map[string][]Posting),
	}
	for docID, doc := range docs {
		tokens := tokenizer.Tokenize(FieldText(doc, field))
		if len(tokens) == 0 {
			continue
		}
		idx.docCount++

		perTerm := make(map[string]*Posting, len(tokens))
		order := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			p, ok := perTerm[tok.Term]
			if !ok {
				p = &Posting{DocID: docID}
				perTerm[tok.Term] = p
				order = append(order, tok.Term)
			}
			p.Frequency++
			p.Offsets = append(p.Offsets, Offset{Start: tok.Start, End: tok.End})
		}
		// Terms appended in first-occurrence order; combined with the
		// ascending docID loop this fixes posting order across rebuilds.
		for _, term := range order {
			idx.postings[term] = append(idx.postings[term], *perTerm[term])
		}
	}
	return idx
}

// Field returns the field this index covers.
func (idx *Index) Field() Field {
	return idx.field
}

// Lookup returns the posting list for a term, ordered by ascending DocID,
// or nil when the term does not occur.
func (idx *Index) Lookup(term string) []Posting {
	return idx.postings[term]
}

// DocFreq returns the number of documents containing the term.
func (idx *Index) DocFreq(term string) int {
	return len(idx.postings[term])
}

// DocCount returns the number of documents with at least one indexed token.
func (idx *Index) DocCount() int {
	return idx.docCount
}

// TermCount returns the number of distinct terms in the index.
func (idx *Index) TermCount() int {
	return len(idx.postings)
}

// Doc returns the record behind a DocID.
func (idx *Index) Doc(docID int) record.Record {
	return idx.docs[docID]
}
