package sections

import (
	"regexp"
	"strings"
)

// maxStripPasses bounds strip_markers's iteration, guarding against
// pathological content where a section's substituted text reintroduces
// marker-looking lines.
const maxStripPasses = 50

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// StripMarkers removes every SECTION/EXTEND marker line from content,
// reapplying itself until no marker lines remain (bounded at
// maxStripPasses), then collapses runs of 3+ blank lines to exactly 2.
func StripMarkers(content string) string {
	current := content
	for pass := 0; pass < maxStripPasses; pass++ {
		stripped, changed := stripOnce(current)
		current = stripped
		if !changed {
			break
		}
	}
	return blankRunRe.ReplaceAllString(current, "\n\n\n")
}

func stripOnce(content string) (result string, changed bool) {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if isMarkerLine(line) {
			changed = true
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), changed
}
