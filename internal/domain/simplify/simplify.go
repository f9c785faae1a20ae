// Package simplify rewrites a retrieved passage into a short, student-friendly answer:
// hard phrases are swapped for plain ones, long sentences are dropped and only the
// first few clear sentences are kept.
package simplify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FallbackAnswer is returned when no sentence of the passage is usable.
const FallbackAnswer = "I found information but it's too complex. Try asking differently."

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)
)

// Rule replaces a phrase (case-insensitive, whole words) with a plainer one.
type Rule struct {
	Phrase      string
	Replacement string
}

// Options controls sentence selection.
type Options struct {
	MaxSentences     int      // sentences kept in the answer
	MaxSentenceWords int      // sentences with this many words or more are dropped
	MinSentenceChars int      // sentences this short or shorter are dropped
	BlockedWords     []string // sentences containing any of these (lowercase) are dropped
}

// DefaultOptions returns the selection settings used by the web tool.
func DefaultOptions() Options {
	return Options{
		MaxSentences:     2,
		MaxSentenceWords: 25,
		MinSentenceChars: 15,
		BlockedWords:     []string{"sociologist"},
	}
}

// DefaultRules returns the built-in sustainability vocabulary table.
// Rules apply in order, so a longer phrase must precede any rule that would rewrite part of it.
func DefaultRules() []Rule {
	return []Rule{
		{"sustainability", "environmental health"},
		{"mitigation", "reduction"},
		{"anthropogenic", "human-caused"},
		{"biodiversity", "variety of life"},
		{"renewable energy", "clean energy"},
		{"greenhouse gases", "heat-trapping gases"},
		{"carbon footprint", "CO2 impact"},
		{"ecosystem", "natural environment"},
		{"photovoltaic", "solar panels"},
		{"fossil fuels", "coal and oil"},
		{"deforestation", "forest loss"},
		{"sustainable development", "balanced growth"},
		{"primarily", "mainly"},
		{"subsequently", "then"},
		{"consequently", "so"},
		{"encompasses", "includes"},
		{"utilize", "use"},
		{"implement", "put in place"},
		{"activities that are responsible for", "things that cause"},
		{"are embedded in", "are part of"},
		{"everyday social practices", "daily activities"},
		{"contribute to", "add to"},
		{"is also of interest to sociologists because", "sociologists study this because"},
		{"result in emissions of", "create"},
		{"heating and cooling our homes", "using home temperature control"},
	}
}

type compiledRule struct {
	re          *regexp.Regexp
	replacement string
}

// replace substitutes every whole-word occurrence of the phrase. RE2's \b only knows
// ASCII word characters, so boundaries are checked here against Unicode letters and digits.
func (r compiledRule) replace(text string) string {
	var b strings.Builder
	last, pos := 0, 0
	for pos <= len(text) {
		loc := r.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end == start || !wordBoundary(text, start) || !wordBoundary(text, end) {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + max(size, 1)
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(r.replacement)
		last, pos = end, end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// wordBoundary reports whether i sits between a word and a non-word rune (or a text edge).
func wordBoundary(text string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = isWordRune(r)
	}
	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Simplifier applies a static rule table and sentence filter. Safe for concurrent use.
type Simplifier struct {
	rules []compiledRule
	opts  Options
}

// New compiles the rule table.
func New(rules []Rule, opts Options) *Simplifier {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Phrase == "" {
			continue
		}
		compiled = append(compiled, compiledRule{
			re:          regexp.MustCompile(`(?i)` + regexp.QuoteMeta(r.Phrase)),
			replacement: r.Replacement,
		})
	}
	if opts.MaxSentences <= 0 {
		opts.MaxSentences = 1
	}
	blocked := make([]string, len(opts.BlockedWords))
	for i, w := range opts.BlockedWords {
		blocked[i] = strings.ToLower(w)
	}
	opts.BlockedWords = blocked
	return &Simplifier{rules: compiled, opts: opts}
}

// NewDefault returns a Simplifier with the built-in rules and options.
func NewDefault() *Simplifier {
	return New(DefaultRules(), DefaultOptions())
}

// Simplify returns a short plain-language version of passage.
func (s *Simplifier) Simplify(passage string) string {
	passage = strings.TrimSpace(spaceRe.ReplaceAllString(passage, " "))
	original := s.sentences(passage)

	text := passage
	for _, r := range s.rules {
		text = r.replace(text)
	}

	clear := make([]string, 0, s.opts.MaxSentences)
	for _, sentence := range s.sentences(text) {
		if !s.isClear(sentence) {
			continue
		}
		clear = append(clear, sentence)
		if len(clear) == s.opts.MaxSentences {
			break
		}
	}

	var answer string
	switch {
	case len(clear) > 0:
		answer = strings.Join(clear, ". ") + "."
	case len(original) > 0:
		answer = original[0] + "."
	default:
		return FallbackAnswer
	}

	answer = spaceRe.ReplaceAllString(answer, " ")
	return strings.ReplaceAll(answer, "..", ".")
}

// sentences splits on runs of terminal punctuation and drops short fragments.
func (s *Simplifier) sentences(text string) []string {
	parts := sentenceRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) > s.opts.MinSentenceChars {
			out = append(out, p)
		}
	}
	return out
}

func (s *Simplifier) isClear(sentence string) bool {
	if s.opts.MaxSentenceWords > 0 && len(strings.Fields(sentence)) >= s.opts.MaxSentenceWords {
		return false
	}
	lower := strings.ToLower(sentence)
	for _, w := range s.opts.BlockedWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}
