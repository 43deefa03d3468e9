package composition

import (
	"regexp"
	"strings"
)

var blankLineSplitRe = regexp.MustCompile(`\n\s*\n+`)

// splitParagraphs breaks content on blank-line boundaries; if that yields
// only a single chunk (content doesn't "split well" into paragraphs), it
// falls back to splitting by line so the dedupe pass still has units to
// compare.
func splitParagraphs(content string) []string {
	paras := blankLineSplitRe.Split(content, -1)
	if len(paras) > 1 {
		return paras
	}
	return strings.Split(content, "\n")
}

// shingleSet tokenizes text on whitespace and returns the set of
// overlapping k-word windows ("shingles") used to detect near-duplicate
// paragraphs.
func shingleSet(text string, k int) map[string]bool {
	words := strings.Fields(text)
	set := map[string]bool{}
	if len(words) == 0 {
		return set
	}
	if len(words) < k {
		set[strings.Join(words, " ")] = true
		return set
	}
	for i := 0; i+k <= len(words); i++ {
		set[strings.Join(words[i:i+k], " ")] = true
	}
	return set
}

func shinglesIntersect(a, seen map[string]bool) bool {
	for sh := range a {
		if seen[sh] {
			return true
		}
	}
	return false
}

func mergeShingles(seen, a map[string]bool) {
	for sh := range a {
		seen[sh] = true
	}
}

func joinNonEmpty(chunks []string, sep string) string {
	return strings.Join(chunks, sep)
}
