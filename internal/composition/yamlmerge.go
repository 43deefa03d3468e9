package composition

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/edison-run/edison/internal/config"
)

// YAMLMergeStrategy deep-merges layers as YAML documents instead of text:
// maps merge key by key (later layers win on scalar conflicts), sequences
// replace wholesale, and no key reordering/sorting is performed.
type YAMLMergeStrategy struct{}

func (y *YAMLMergeStrategy) Compose(layers []LayerContent, cfg config.CompositionConfig) (Result, error) {
	var merged any
	for _, l := range layers {
		if l.Content == "" {
			continue
		}
		var doc any
		if err := yaml.Unmarshal([]byte(l.Content), &doc); err != nil {
			return Result{}, fmt.Errorf("composition: parse yaml layer %q: %w", l.Layer, err)
		}
		merged = mergeYAML(merged, doc)
	}

	out, err := yaml.Marshal(merged)
	if err != nil {
		return Result{}, fmt.Errorf("composition: marshal merged yaml: %w", err)
	}
	return Result{Content: string(out)}, nil
}

// mergeYAML deep-merges b onto a. Maps merge recursively; any other type
// (including sequences) is replaced wholesale by b when b is non-nil.
func mergeYAML(a, b any) any {
	if b == nil {
		return a
	}
	if a == nil {
		return b
	}
	aMap, aIsMap := a.(map[string]any)
	bMap, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		out := make(map[string]any, len(aMap)+len(bMap))
		for k, v := range aMap {
			out[k] = v
		}
		for k, v := range bMap {
			if existing, ok := out[k]; ok {
				out[k] = mergeYAML(existing, v)
			} else {
				out[k] = v
			}
		}
		return out
	}
	return b
}
