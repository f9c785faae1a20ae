// Package analysis turns text into index terms: NFKC-normalised, lowercased,
// English stop words removed, unigrams plus adjacent-word bigrams.
package analysis

import (
	"fmt"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
	"golang.org/x/text/unicode/norm"
)

const analyzerName = "greenqa_terms"

// minTokenRunes drops single-character tokens ("a", "3", stray initials).
const minTokenRunes = 2

// Analyzer extracts unigram and bigram terms from text.
type Analyzer struct {
	words analysis.Analyzer
}

// New builds the bleve analyzer chain: unicode tokenizer -> lowercase -> English stop words.
func New() (*Analyzer, error) {
	cache := registry.NewCache()
	a, err := cache.DefineAnalyzer(analyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name, en.StopName},
	})
	if err != nil {
		return nil, fmt.Errorf("define analyzer: %w", err)
	}
	return &Analyzer{words: a}, nil
}

// MustNew calls New and panics on error.
func MustNew() *Analyzer {
	a, err := New()
	if err != nil {
		panic(err)
	}
	return a
}

// Words returns the content words of text in order.
func (a *Analyzer) Words(text string) []string {
	stream := a.words.Analyze([]byte(norm.NFKC.String(text)))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if utf8.RuneCount(tok.Term) < minTokenRunes {
			continue
		}
		out = append(out, string(tok.Term))
	}
	return out
}

// Terms returns unigrams followed by bigrams of adjacent content words.
// Bigrams are built after stop word removal, so "use of solar" yields "use solar".
func (a *Analyzer) Terms(text string) []string {
	words := a.Words(text)
	if len(words) == 0 {
		return nil
	}
	terms := make([]string, 0, 2*len(words)-1)
	terms = append(terms, words...)
	for i := 1; i < len(words); i++ {
		terms = append(terms, words[i-1]+" "+words[i])
	}
	return terms
}
