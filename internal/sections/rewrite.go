package sections

import "strings"

// Rewrite replaces every top-level SECTION block in template with its
// composed content from reg, leaving everything outside a top-level
// SECTION block untouched. Nested markers inside a replaced block are
// discarded from the template itself (their text survives only if it was
// captured into the outer block's base/extension chunks during Parse).
// A top-level name absent from reg is left as-is.
func Rewrite(template string, reg *Registry) (string, error) {
	lines := strings.Split(template, "\n")
	out := make([]string, 0, len(lines))

	depth := 0
	replacing := false
	var currentName string
	var skipped []string

	for _, line := range lines {
		switch {
		case sectionOpenRe.MatchString(line):
			m := sectionOpenRe.FindStringSubmatch(line)
			if depth == 0 {
				currentName = m[1]
				replacing = true
				depth = 1
				skipped = []string{line}
				continue
			}
			depth++
			if replacing {
				skipped = append(skipped, line)
				continue
			}
			out = append(out, line)

		case extendOpenRe.MatchString(line):
			if depth == 0 {
				out = append(out, line)
				continue
			}
			depth++
			if replacing {
				skipped = append(skipped, line)
				continue
			}
			out = append(out, line)

		case sectionCloseRe.MatchString(line):
			m := sectionCloseRe.FindStringSubmatch(line)
			if replacing && depth == 1 && m[1] == currentName {
				depth = 0
				replacing = false
				if content, ok := reg.Compose(currentName); ok {
					out = append(out, content)
				} else {
					out = append(out, skipped...)
					out = append(out, line)
				}
				skipped = nil
				continue
			}
			if depth > 0 {
				depth--
			}
			if replacing {
				skipped = append(skipped, line)
				continue
			}
			out = append(out, line)

		case extendCloseRe.MatchString(line):
			if depth > 0 {
				depth--
			}
			if replacing {
				skipped = append(skipped, line)
				continue
			}
			out = append(out, line)

		default:
			if replacing {
				skipped = append(skipped, line)
				continue
			}
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n"), nil
}
