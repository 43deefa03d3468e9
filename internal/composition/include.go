package composition

import (
	"os"
	"strings"

	"github.com/edison-run/edison/internal/discovery"
	"github.com/edison-run/edison/internal/sections"
)

// DiscoveryInclude resolves {{include-section:path#section}} references
// against a discovery.Index: path matches an entry's ID, and an optional
// "#section" suffix selects a named section out of that entry's own file
// (overlays from other layers are not applied). Without a "#section"
// suffix the whole file is returned.
type DiscoveryInclude struct {
	Index *discovery.Index
}

func (d *DiscoveryInclude) Resolve(ref string) (string, bool) {
	id, section, hasSection := strings.Cut(ref, "#")
	if d.Index == nil {
		return "", false
	}
	entry, ok := d.Index.Get(id)
	if !ok {
		return "", false
	}
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return "", false
	}
	content := string(data)
	if !hasSection {
		return content, true
	}
	return resolveNamedSection(content, entry.Layer.Name, section)
}

func resolveNamedSection(content, layerName, section string) (string, bool) {
	parsed, err := sections.Parse(content, layerName)
	if err != nil {
		return "", false
	}
	reg := sections.NewRegistry()
	reg.Apply(parsed)
	return reg.Compose(section)
}
