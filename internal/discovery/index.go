package discovery

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// Entry is one discovered content file: a new definition or an overlay.
type Entry struct {
	ID        string
	Layer     Layer
	Path      string // absolute filesystem path
	IsOverlay bool
}

// Index is the result of Discover for one content type: a stable,
// shadowing-resolved list of entries plus a by-id lookup.
type Index struct {
	ContentType string
	Entries     []Entry
	byID        map[string]Entry
}

// Get looks up an entry by id.
func (idx *Index) Get(id string) (Entry, bool) {
	e, ok := idx.byID[id]
	return e, ok
}

// Discover walks layers in precedence order for contentType, applying
// excludeGlobs and the shadowing/overlay rules: a later layer's new
// definition of an id an earlier layer already defined is a ShadowingError,
// and an overlay with no matching base definition
// anywhere ahead of it is an error. pattern defaults to "**/*.md" when empty. The per-layer filesystem scan
// (globbing, typically the slow part when a layer sits on a network
// filesystem) runs one goroutine per layer; the shadowing/overlay
// resolution that follows is inherently sequential (a later layer's
// overlay can only be judged "dangling" against what earlier layers
// already defined) and runs single-threaded over the gathered results.
func Discover(contentType string, layers []Layer, excludeGlobs []string, pattern string) (*Index, error) {
	if pattern == "" {
		pattern = "**/*.md"
	}

	scanned := make([][]string, len(layers))
	var g errgroup.Group
	for i, layer := range layers {
		i, layer := i, layer
		g.Go(func() error {
			files, err := listLayerFiles(filepath.Join(layer.Root, contentType), pattern, excludeGlobs)
			if err != nil {
				return err
			}
			scanned[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := &Index{ContentType: contentType, byID: map[string]Entry{}}
	defined := map[string]bool{}

	for i, layer := range layers {
		contentDir := filepath.Join(layer.Root, contentType)
		files := scanned[i]

		for _, rel := range files {
			isOverlay := strings.HasPrefix(rel, "overlays/")
			id := idToPosix(rel, isOverlay)

			if isOverlay {
				if !defined[id] {
					return nil, &DanglingOverlayError{Layer: layerLabel(layer), ID: id}
				}
				idx.Entries = append(idx.Entries, Entry{ID: id, Layer: layer, Path: filepath.Join(contentDir, rel), IsOverlay: true})
				continue
			}

			if defined[id] {
				return nil, &ShadowingError{Layer: layerLabel(layer), ID: id}
			}
			defined[id] = true
			entry := Entry{ID: id, Layer: layer, Path: filepath.Join(contentDir, rel)}
			idx.Entries = append(idx.Entries, entry)
			idx.byID[id] = entry
		}
	}

	return idx, nil
}

func layerLabel(l Layer) string {
	if l.Name == "" {
		return l.Role.String()
	}
	return fmt.Sprintf("%s(%s)", l.Role, l.Name)
}

// idToPosix derives the relative-POSIX-path-minus-extension id, additionally
// stripping the "overlays/" prefix for overlay entries so an overlay and the
// definition it extends share the same id.
func idToPosix(rel string, isOverlay bool) string {
	if isOverlay {
		rel = strings.TrimPrefix(rel, "overlays/")
	}
	ext := path.Ext(rel)
	return strings.TrimSuffix(rel, ext)
}

// listLayerFiles returns contentDir's matching files as slash-separated
// paths relative to contentDir, walked in lexicographic order, with
// excludeGlobs applied. A missing contentDir yields an empty, non-error
// result — not every layer provides every content type.
func listLayerFiles(contentDir, pattern string, excludeGlobs []string) ([]string, error) {
	fsys := os.DirFS(contentDir)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("discovery: glob %s under %s: %w", pattern, contentDir, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		excluded := false
		for _, g := range excludeGlobs {
			if ok, _ := doublestar.Match(g, m); ok {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}
