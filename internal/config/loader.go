package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Layer identifies one YAML source in merge order (lowest priority first).
type Layer struct {
	Name string // "core" | "pack:<name>" | "project"
	Path string
}

// mergeListKeys names dotted key paths whose list values are appended
// across layers instead of replaced. All other lists follow the documented
// default of "later layer replaces".
var mergeListKeys = map[string]bool{
	"composition.exclude_globs": true,
}

// Resolver loads, merges, and caches the layered configuration tree.
type Resolver struct {
	mu       sync.Mutex
	root     string
	layers   []Layer
	merged   map[string]any
	mtimes   map[string]time.Time
	loadedAt time.Time
}

// NewResolver creates a Resolver rooted at root. Layers must already be in
// merge order: bundled defaults, then each active pack's overrides
// (bundled before project-scoped), then the project override.
func NewResolver(root string, layers []Layer) *Resolver {
	return &Resolver{root: root, layers: layers}
}

// Reset invalidates the cache unconditionally (used by tests).
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merged = nil
	r.mtimes = nil
}

// Load returns the merged configuration tree, reloading from disk if the
// cache is empty or any layer's mtime has changed since the last load.
func (r *Resolver) Load() (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.merged != nil && !r.staleLocked() {
		return r.merged, nil
	}

	merged := map[string]any{}
	mtimes := map[string]time.Time{}

	for _, layer := range r.layers {
		info, err := os.Stat(layer.Path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // absent layers are simply skipped
			}
			return nil, fmt.Errorf("config: stat %s: %w", layer.Path, err)
		}

		data, err := os.ReadFile(layer.Path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", layer.Path, err)
		}

		var parsed map[string]any
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, &ParseError{Path: layer.Path, Err: err}
		}

		merged = deepMerge(merged, parsed, "")
		mtimes[layer.Path] = info.ModTime()
	}

	r.merged = merged
	r.mtimes = mtimes
	r.loadedAt = time.Now()
	return merged, nil
}

func (r *Resolver) staleLocked() bool {
	for path, known := range r.mtimes {
		info, err := os.Stat(path)
		if err != nil {
			return true // layer vanished or became unreadable: force a reload
		}
		if info.ModTime().After(known) {
			return true
		}
	}
	return false
}

// deepMerge merges override on top of base. Maps merge key by key
// recursively; lists replace unless the dotted prefix is registered in
// mergeListKeys, in which case override's list is appended to base's.
func deepMerge(base, override map[string]any, prefix string) map[string]any {
	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}

	for k, overrideVal := range override {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		baseVal, exists := result[k]
		if !exists {
			result[k] = overrideVal
			continue
		}

		baseMap, baseIsMap := asStringMap(baseVal)
		overrideMap, overrideIsMap := asStringMap(overrideVal)
		if baseIsMap && overrideIsMap {
			result[k] = deepMerge(baseMap, overrideMap, key)
			continue
		}

		baseList, baseIsList := baseVal.([]any)
		overrideList, overrideIsList := overrideVal.([]any)
		if baseIsList && overrideIsList && mergeListKeys[key] {
			result[k] = append(append([]any{}, baseList...), overrideList...)
			continue
		}

		result[k] = overrideVal
	}
	return result
}

func asStringMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// RequireKey looks up a dotted key path in merged config and fails with
// MissingKeyError (naming the full search order) if absent.
func (r *Resolver) RequireKey(merged map[string]any, keyPath string) (any, error) {
	node := any(merged)
	for _, part := range splitDotted(keyPath) {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, &MissingKeyError{KeyPath: keyPath, SearchOrder: r.layerNames()}
		}
		v, ok := m[part]
		if !ok {
			return nil, &MissingKeyError{KeyPath: keyPath, SearchOrder: r.layerNames()}
		}
		node = v
	}
	return node, nil
}

func (r *Resolver) layerNames() []string {
	names := make([]string, 0, len(r.layers))
	for _, l := range r.layers {
		names = append(names, l.Name)
	}
	return names
}

func splitDotted(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	parts = append(parts, key[start:])
	return parts
}

// Viper builds a *viper.Viper pre-loaded with the merged config, giving
// callers typed, dotted-key access (v.GetString("session.worktree_base"),
// v.UnmarshalKey("composition", &CompositionConfig{})) on top of the
// layered YAML merge performed above.
func (r *Resolver) Viper() (*viper.Viper, error) {
	merged, err := r.Load()
	if err != nil {
		return nil, err
	}
	v := viper.New()
	if err := v.MergeConfigMap(merged); err != nil {
		return nil, fmt.Errorf("config: build viper view: %w", err)
	}
	return v, nil
}

// DefaultLayers builds the standard core -> packs -> project layer list
// for a project root, given the set of active pack names.
func DefaultLayers(root string, activePacks []string) []Layer {
	layers := []Layer{
		{Name: "core", Path: filepath.Join(root, ".edison", "core", "config.yml")},
	}
	sorted := append([]string{}, activePacks...)
	sort.Strings(sorted)
	for _, pack := range sorted {
		layers = append(layers, Layer{
			Name: "pack:" + pack,
			Path: filepath.Join(root, ".edison", "packs", pack, "config.yml"),
		})
	}
	projectDir := filepath.Join(root, ".edison", "config")
	entries, err := os.ReadDir(projectDir)
	if err == nil {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			layers = append(layers, Layer{Name: "project", Path: filepath.Join(projectDir, name)})
		}
	}
	return layers
}
