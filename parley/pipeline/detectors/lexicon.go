// Package detectors implements the three trigger-detector families and the
// phrase lexicon they match against.
package detectors

import (
	"strings"

	radix "github.com/armon/go-radix"

	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// Lexicon is a case-folded phrase set backed by a radix tree. Match scans a
// text for the first occurrence of any phrase; Count reports how many
// distinct phrases occur at least once.
type Lexicon struct {
	tree *radix.Tree
}

// NewLexicon builds a lexicon from phrases. Phrases are folded to lower
// case; empty phrases are dropped.
func NewLexicon(phrases ...string) *Lexicon {
	tree := radix.New()
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			tree.Insert(p, struct{}{})
		}
	}
	return &Lexicon{tree: tree}
}

// Match returns the first phrase found in text along with its byte span in
// the original text. The scan is case-insensitive.
func (l *Lexicon) Match(text string) (string, ports.Span, bool) {
	folded := strings.ToLower(text)
	for i := 0; i < len(folded); i++ {
		if phrase, _, ok := l.tree.LongestPrefix(folded[i:]); ok {
			return phrase, ports.Span{Start: i, End: i + len(phrase)}, true
		}
	}
	return "", ports.Span{}, false
}

// Count returns the number of distinct lexicon phrases present in text.
func (l *Lexicon) Count(text string) int {
	folded := strings.ToLower(text)
	seen := make(map[string]struct{})
	for i := 0; i < len(folded); i++ {
		if phrase, _, ok := l.tree.LongestPrefix(folded[i:]); ok {
			seen[phrase] = struct{}{}
		}
	}
	return len(seen)
}
