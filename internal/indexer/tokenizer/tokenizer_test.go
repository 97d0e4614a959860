package tokenizer

import (
	"reflect"
	"testing"
)

func terms(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Term)
	}
	return out
}

func TestTokenizeBasic(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain words",
			text: "Pathogenic variant identified",
			want: []string{"pathogenic", "variant", "identified"},
		},
		{
			name: "case folding",
			text: "BRCA1 Brca2 brca1",
			want: []string{"brca1", "brca2", "brca1"},
		},
		{
			name: "punctuation splits",
			text: "variant, (confirmed); done!",
			want: []string{"variant", "confirmed", "done"},
		},
		{
			name: "single characters kept",
			text: "a G c",
			want: []string{"a", "g", "c"},
		},
		{
			name: "numbers",
			text: "exon 20 of 24",
			want: []string{"exon", "20", "of", "24"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := terms(Tokenize(tt.text))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) terms = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizeGeneticNotation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "dup variant stays atomic",
			text: "variant c.5266dupC identified",
			want: []string{"variant", "c.5266dupc", "identified"},
		},
		{
			name: "substitution with greater-than",
			text: "found c.68A>G here",
			want: []string{"found", "c.68a>g", "here"},
		},
		{
			name: "protein notation",
			text: "p.Gln1756fs",
			want: []string{"p.gln1756fs"},
		},
		{
			name: "versioned accession",
			text: "NM_007294.4 transcript",
			want: []string{"nm_007294.4", "transcript"},
		},
		{
			name: "trailing dot splits",
			text: "the variant c.5266dupC.",
			want: []string{"the", "variant", "c.5266dupc"},
		},
		{
			name: "dot between non-words splits",
			text: "end. Start",
			want: []string{"end", "start"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := terms(Tokenize(tt.text))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) terms = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizeEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n", "...!?"} {
		if got := Tokenize(text); len(got) != 0 {
			t.Errorf("Tokenize(%q) = %v, want empty", text, got)
		}
	}
}

func TestTokenizeOffsets(t *testing.T) {
	text := "Pathogenic variant c.5266dupC identified"
	tokens := Tokenize(text)
	for _, tok := range tokens {
		if tok.Start < 0 || tok.End > len(text) || tok.Start >= tok.End {
			t.Fatalf("token %q has invalid offsets [%d, %d)", tok.Term, tok.Start, tok.End)
		}
		// The raw slice must fold to the term.
		if got := text[tok.Start:tok.End]; len(got) != tok.End-tok.Start {
			t.Fatalf("offset slice mismatch for %q", tok.Term)
		}
	}
	// Third token must span exactly "c.5266dupC".
	tok := tokens[2]
	if text[tok.Start:tok.End] != "c.5266dupC" {
		t.Errorf("token span = %q, want %q", text[tok.Start:tok.End], "c.5266dupC")
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	text := "BRCA1 c.5266dupC pathogenic BRCA1"
	a := Tokenize(text)
	b := Tokenize(text)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Tokenize is not deterministic: %v vs %v", a, b)
	}
}

func TestTerms(t *testing.T) {
	got := Terms("BRCA1 c.5266dupC brca1 BRCA1")
	want := []string{"brca1", "c.5266dupc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms = %v, want %v", got, want)
	}
	if Terms("") != nil {
		t.Errorf("Terms(\"\") should be nil")
	}
}
