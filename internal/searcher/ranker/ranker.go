// Package ranker scores documents against query terms with a TF-IDF
// relevance function and produces a deterministically ordered result list.
package ranker

import (
	"math"
	"sort"

	"github.com/variantdb/sheetsearch/internal/indexer/index"
)

// ScoredDoc pairs a document ID from the ranked index with its score.
type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// Rank scores every document matching at least one query term. Query terms
// use OR semantics; documents matching more terms accumulate higher scores
// through the sum, and documents matching none are excluded rather than
// scored zero. Results are ordered by descending score with ties broken by
// ascending (relativePath, sheetName), so repeated runs on an unchanged
// index return identical lists. A limit > 0 truncates after ranking.
func Rank(idx *index.Index, queryTerms []string, limit int) []ScoredDoc {
	totalDocs := idx.DocCount()
	if totalDocs == 0 {
		return []ScoredDoc{}
	}

	scores := make(map[int]float64)
	seen := make(map[string]struct{}, len(queryTerms))
	for _, term := range queryTerms {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}

		postings := idx.Lookup(term)
		if len(postings) == 0 {
			continue
		}
		idf := computeIDF(totalDocs, len(postings))
		for _, p := range postings {
			scores[p.DocID] += float64(p.Frequency) * idf
		}
	}

	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		result = append(result, ScoredDoc{
			DocID: docID,
			Score: math.Round(score*10000) / 10000,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		a, b := idx.Doc(result[i].DocID), idx.Doc(result[j].DocID)
		if a.RelativePath != b.RelativePath {
			return a.RelativePath < b.RelativePath
		}
		return a.SheetName < b.SheetName
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// computeIDF weights rare terms higher: log(1 + N/df).
func computeIDF(totalDocs, docFreq int) float64 {
	return math.Log(1 + float64(totalDocs)/float64(docFreq))
}
