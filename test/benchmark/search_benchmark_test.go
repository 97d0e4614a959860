package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/variantdb/sheetsearch/internal/indexer/index"
	"github.com/variantdb/sheetsearch/internal/indexer/tokenizer"
	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/internal/searcher"
	"github.com/variantdb/sheetsearch/internal/searcher/highlight"
	"github.com/variantdb/sheetsearch/internal/searcher/ranker"
)

// BenchmarkTokenize measures tokenization latency for cell text of varying
// shape, including the variant-notation tokens that exercise the connector
// rules.
func BenchmarkTokenize(b *testing.B) {
	inputs := []struct {
		name string
		text string
	}{
		{"plain_words", "pathogenic founder variant reported in multiple families"},
		{"variant_notation", "c.5266dupC p.Gln1756fs c.2311T>C rs80357906 NM_007294.4"},
		{"mixed", "exon 20 c.5266dupC frameshift, classified pathogenic (ClinVar 2024)"},
		{"long_cell", genCellText(200)},
	}

	for _, in := range inputs {
		b.Run(in.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(in.text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(in.text)
				_ = tokens
			}
		})
	}
}

// BenchmarkIndexBuild measures inverted-index construction for corpora of
// increasing size.
func BenchmarkIndexBuild(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("records_%d", n), func(b *testing.B) {
			records := genCorpus(n)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				idx := index.Build(records, index.FieldContent)
				_ = idx
			}
		})
	}
}

// BenchmarkRank measures TF-IDF scoring and sorting against indexes of
// increasing size.
func BenchmarkRank(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	terms := []string{"pathogenic", "variant", "frameshift"}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("records_%d", n), func(b *testing.B) {
			idx := index.Build(genCorpus(n), index.FieldContent)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				scored := ranker.Rank(idx, terms, 10)
				_ = scored
			}
		})
	}
}

// BenchmarkHighlight measures excerpt extraction over a long cell value.
func BenchmarkHighlight(b *testing.B) {
	text := genCellText(500)
	terms := []string{"pathogenic"}
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		excerpt := highlight.Excerpt(text, terms, highlight.DefaultWindow)
		_ = excerpt
	}
}

// BenchmarkSearchContent measures the full query path: tokenize, rank,
// highlight, through a published snapshot.
func BenchmarkSearchContent(b *testing.B) {
	sizes := []int{1000, 10000}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("records_%d", n), func(b *testing.B) {
			eng := searcher.NewEngine(record.NewStore())
			if _, err := eng.Reindex(context.Background(), genCorpus(n)); err != nil {
				b.Fatalf("Reindex: %v", err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				results, err := eng.SearchContent("pathogenic variant", 10)
				if err != nil {
					b.Fatal(err)
				}
				_ = results
			}
		})
	}
}

// BenchmarkReindex measures full corpus replacement including the snapshot
// rebuild.
func BenchmarkReindex(b *testing.B) {
	records := genCorpus(1000)
	eng := searcher.NewEngine(record.NewStore())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := eng.Reindex(context.Background(), records); err != nil {
			b.Fatal(err)
		}
	}
}

var vocab = []string{
	"pathogenic", "benign", "variant", "frameshift", "missense", "nonsense",
	"exon", "intron", "splice", "deletion", "duplication", "hotspot",
	"classified", "reported", "segregation", "founder",
}

func genCellText(words int) string {
	out := make([]byte, 0, words*10)
	for i := 0; i < words; i++ {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, vocab[i%len(vocab)]...)
	}
	return string(out)
}

func genCorpus(n int) []record.Record {
	genes := []string{"BRCA1", "BRCA2", "TP53", "EGFR", "KRAS"}
	records := make([]record.Record, n)
	for i := 0; i < n; i++ {
		gene := genes[i%len(genes)]
		filename := fmt.Sprintf("%s_file_%d.xlsx", gene, i/10)
		records[i] = record.Record{
			Filename:     filename,
			RelativePath: fmt.Sprintf("%s/%s", gene, filename),
			SheetName:    fmt.Sprintf("Sheet%d", i%10+1),
			ContentText:  fmt.Sprintf("c.%ddupC %s", 1000+i, genCellText(30+i%20)),
			ImageText:    genCellText(10),
		}
	}
	return records
}
