package find

import (
	"unicode"

	"golang.org/x/text/cases"

	"github.com/dgallion1/docview/internal/dom"
)

// Match is a lazily-resolvable reference to one query occurrence: an
// index into the search context plus rune offsets. Live ranges are
// materialized on demand because reflows can invalidate them.
type Match struct {
	Node    int // index into the search context
	Start   int // rune offset within the node
	End     int
	Snippet Snippet
}

// Snippet is a bounded excerpt around a match for UI display; MatchStart
// and MatchEnd mark the query occurrence within Text, in runes.
type Snippet struct {
	Text       string `json:"text"`
	MatchStart int    `json:"matchStart"`
	MatchEnd   int    `json:"matchEnd"`
}

// snippetRadius is the number of context runes kept on each side of a
// match.
const snippetRadius = 40

var foldCaser = cases.Fold()

// foldRunes case-folds text rune by rune, returning the folded runes and
// a map from folded index to the originating original-rune index. Folds
// that change length (ß to ss) keep match offsets exact through the map.
func foldRunes(text []rune) (folded []rune, origIdx []int) {
	folded = make([]rune, 0, len(text))
	origIdx = make([]int, 0, len(text))
	for i, r := range text {
		for _, fr := range foldCaser.String(string(r)) {
			folded = append(folded, fr)
			origIdx = append(origIdx, i)
		}
	}
	return folded, origIdx
}

// runeIndex finds needle in haystack starting at from, or -1.
func runeIndex(haystack, needle []rune, from int) int {
	if len(needle) == 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		j := 0
		for ; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				break
			}
		}
		if j == len(needle) {
			return i
		}
	}
	return -1
}

// isWordRune follows Unicode word classes rather than ASCII \w so
// whole-word matching behaves for non-Latin scripts.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// wholeWordAt reports whether text[start:end] sits on word boundaries.
func wholeWordAt(text []rune, start, end int) bool {
	if start > 0 && isWordRune(text[start-1]) {
		return false
	}
	if end < len(text) && isWordRune(text[end]) {
		return false
	}
	return true
}

// scanNode finds all occurrences of the query in one leaf's text.
func scanNode(text []rune, query []rune, state State) []Match {
	haystack, origIdx := text, []int(nil)
	needle := query
	if !state.CaseSensitive {
		haystack, origIdx = foldRunes(text)
		folded, _ := foldRunes(query)
		needle = folded
	}
	var out []Match
	for from := 0; ; {
		i := runeIndex(haystack, needle, from)
		if i < 0 {
			break
		}
		start, end := i, i+len(needle)
		if origIdx != nil {
			start = origIdx[i]
			if end-1 < len(origIdx) {
				end = origIdx[end-1] + 1
			} else {
				end = len(text)
			}
		}
		if !state.EntireWord || wholeWordAt(text, start, end) {
			out = append(out, Match{
				Start:   start,
				End:     end,
				Snippet: makeSnippet(text, start, end),
			})
		}
		from = i + 1
	}
	return out
}

func makeSnippet(text []rune, start, end int) Snippet {
	lo := max(start-snippetRadius, 0)
	hi := min(end+snippetRadius, len(text))
	return Snippet{
		Text:       string(text[lo:hi]),
		MatchStart: start - lo,
		MatchEnd:   end - lo,
	}
}

// matchRange materializes a live range for a match, or nil when the
// underlying node has been detached since the snapshot.
func (sc *Context) matchRange(m Match) *dom.Range {
	n := sc.node(m.Node)
	if n == nil {
		return nil
	}
	ln := dom.RuneLen(n)
	if m.Start >= ln || m.End > ln {
		return nil
	}
	return &dom.Range{StartContainer: n, StartOffset: m.Start, EndContainer: n, EndOffset: m.End}
}
