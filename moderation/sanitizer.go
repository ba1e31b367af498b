// Package moderation masks blacklisted words in chat content before it is
// persisted or fanned out.
package moderation

import (
	_ "embed"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed words.txt
var embeddedWords string

// Sanitizer masks blacklisted words using an Aho-Corasick automaton built
// once at startup. Matching runs on a folded view of the text (lowercased,
// leet substitutions mapped back, punctuation and spacing stripped) so
// "b @ d g e r" still matches "badger".
type Sanitizer struct {
	machine *goahocorasick.Machine
	mask    rune
}

// DefaultWords returns the embedded blacklist, one word per line. Blank
// lines and lines starting with '#' are ignored.
func DefaultWords() []string {
	var words []string
	for _, line := range strings.Split(embeddedWords, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}

func NewSanitizer(words []string, mask rune) (*Sanitizer, error) {
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		folded, _ := foldRunes([]rune(w))
		if len(folded) == 0 {
			continue
		}
		patterns = append(patterns, folded)
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Sanitizer{machine: machine, mask: mask}, nil
}

// Mask replaces every blacklisted match with the mask rune. The span is
// masked in the original text, so interior punctuation disappears with the
// word while the surrounding spacing stays intact.
func (s *Sanitizer) Mask(content string) string {
	original := []rune(content)
	folded, origIdx := foldRunes(original)
	if len(folded) == 0 {
		return content
	}

	terms := s.machine.MultiPatternSearch(folded, false)
	if len(terms) == 0 {
		return content
	}

	for _, term := range terms {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			original[i] = s.mask
		}
	}
	return string(original)
}

// foldRunes produces the searchable view of the input and an index mapping
// each folded position back to its original rune position.
func foldRunes(in []rune) ([]rune, []int) {
	folded := make([]rune, 0, len(in))
	origIdx := make([]int, 0, len(in))
	for i, r := range in {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return folded, origIdx
}

// unleet maps common leet-speak characters back to their alphabet
// counterparts before noise filtering, so '!' survives as 'i'.
func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
