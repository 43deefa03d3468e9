package sections

import "strings"

// Kind distinguishes a base SECTION block from an EXTEND block.
type Kind int

const (
	KindSection Kind = iota
	KindExtend
)

func (k Kind) String() string {
	if k == KindExtend {
		return "EXTEND"
	}
	return "SECTION"
}

// ParsedSection is one marker-delimited chunk emitted by Parse.
type ParsedSection struct {
	Name        string
	Kind        Kind
	Content     string
	SourceLayer string
}

type frame struct {
	name  string
	kind  Kind
	lines []string
}

// Parse scans content line by line for SECTION/EXTEND markers, supporting
// nesting: an outer block's Content includes its nested blocks' marker
// lines and text verbatim, while each nested block is also emitted on its
// own.
func Parse(content, layer string) ([]ParsedSection, error) {
	var sections []ParsedSection
	var stack []*frame

	appendLine := func(line string) {
		for _, f := range stack {
			f.lines = append(f.lines, line)
		}
	}

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		switch {
		case sectionOpenRe.MatchString(line):
			m := sectionOpenRe.FindStringSubmatch(line)
			appendLine(line)
			stack = append(stack, &frame{name: m[1], kind: KindSection})

		case extendOpenRe.MatchString(line):
			m := extendOpenRe.FindStringSubmatch(line)
			appendLine(line)
			stack = append(stack, &frame{name: m[1], kind: KindExtend})

		case sectionCloseRe.MatchString(line):
			m := sectionCloseRe.FindStringSubmatch(line)
			if len(stack) == 0 {
				return nil, errUnmatchedClose("SECTION", m[1])
			}
			top := stack[len(stack)-1]
			if top.kind != KindSection || top.name != m[1] {
				return nil, errUnmatchedClose("SECTION", m[1])
			}
			stack = stack[:len(stack)-1]
			appendLine(line)
			sections = append(sections, ParsedSection{
				Name: top.name, Kind: KindSection,
				Content: strings.Join(top.lines, "\n"), SourceLayer: layer,
			})

		case extendCloseRe.MatchString(line):
			if len(stack) == 0 {
				return nil, errUnmatchedClose("EXTEND", "")
			}
			top := stack[len(stack)-1]
			if top.kind != KindExtend {
				return nil, errUnmatchedClose("EXTEND", "")
			}
			stack = stack[:len(stack)-1]
			appendLine(line)
			sections = append(sections, ParsedSection{
				Name: top.name, Kind: KindExtend,
				Content: strings.Join(top.lines, "\n"), SourceLayer: layer,
			})

		default:
			appendLine(line)
		}
	}

	if len(stack) > 0 {
		names := make([]string, len(stack))
		for i, f := range stack {
			names[i] = f.kind.String() + ":" + f.name
		}
		return nil, errUnterminated(names)
	}

	return sections, nil
}
