package sections

import "strings"

type registryEntry struct {
	baseChunks      []string
	extensionChunks []string
	hasBase         bool
}

// Registry maps a section name to its accumulated base and extension
// chunks.
type Registry struct {
	entries map[string]*registryEntry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*registryEntry{}}
}

func (r *Registry) entry(name string) *registryEntry {
	e, ok := r.entries[name]
	if !ok {
		e = &registryEntry{}
		r.entries[name] = e
	}
	return e
}

// Apply folds one layer's parsed sections into the registry: a SECTION
// block seeds the base chunks for a name the registry has not seen yet,
// but never overrides an existing base; an EXTEND
// block always appends an extension chunk.
func (r *Registry) Apply(parsed []ParsedSection) {
	for _, ps := range parsed {
		e := r.entry(ps.Name)
		switch ps.Kind {
		case KindSection:
			if !e.hasBase {
				e.baseChunks = append(e.baseChunks, ps.Content)
				e.hasBase = true
			}
		case KindExtend:
			e.extensionChunks = append(e.extensionChunks, ps.Content)
		}
	}
}

// Names returns every section name the registry has seen, in the order
// first encountered by Apply. Callers that need a stable iteration order
// (e.g. a generator listing sections) should sort this themselves.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Has reports whether name has ever had a SECTION or EXTEND applied.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Compose renders name's content: base chunks joined by "\n\n", then, if
// any extensions exist, "\n" + extensions joined by "\n\n".
func (r *Registry) Compose(name string) (string, bool) {
	e, ok := r.entries[name]
	if !ok {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString(strings.Join(e.baseChunks, "\n\n"))
	if len(e.extensionChunks) > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Join(e.extensionChunks, "\n\n"))
	}
	return sb.String(), true
}
