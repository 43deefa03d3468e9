// Package composition implements the layered-content composition pipeline
// and its Template Engine: turning an ordered list of per-layer file
// contents into one rendered document.
package composition

import (
	"github.com/edison-run/edison/internal/config"
	"github.com/edison-run/edison/internal/sections"
)

// LayerContent is one layer's raw file content contributing to a
// composed document, in ascending precedence order (lowest-priority layer
// first — Core, then Packs-bundled, Packs-project, User, Project).
type LayerContent struct {
	Layer   string // layer name/id, for diagnostics only
	Content string
}

// Result is a composed document plus whatever the pipeline recorded along
// the way.
type Result struct {
	Content     string
	Diagnostics []Diagnostic
}

// Strategy composes an ordered list of layer contents into one document.
type Strategy interface {
	Compose(layers []LayerContent, cfg config.CompositionConfig) (Result, error)
}

// StrategyFor resolves a CompositionConfig's composition_mode to a
// Strategy.
func StrategyFor(cfg config.CompositionConfig) (Strategy, error) {
	switch cfg.CompositionMode {
	case "", "section":
		return &MarkdownStrategy{}, nil
	case "concatenate":
		return &ConcatenateStrategy{}, nil
	case "yaml_merge":
		return &YAMLMergeStrategy{}, nil
	default:
		return nil, &UnknownModeError{Mode: cfg.CompositionMode}
	}
}

// MarkdownStrategy composes markdown layers using the SECTION/EXTEND
// registry when cfg.EnableSections is set, otherwise plain concatenation,
// then optionally dedupes and template-renders the result.
type MarkdownStrategy struct {
	// TemplateVars supplies the context the Template Engine renders
	// against when cfg.EnableTemplateProcessing is set.
	TemplateVars map[string]any
	// Include resolves {{include-section:...}} references.
	Include IncludeProvider
	// SafeRoot bounds {{safe_include(...)}} reads.
	SafeRoot string
}

func (m *MarkdownStrategy) Compose(layers []LayerContent, cfg config.CompositionConfig) (Result, error) {
	var rendered string

	if cfg.EnableSections && len(layers) > 0 {
		reg := sections.NewRegistry()
		for _, l := range layers {
			parsed, err := sections.Parse(l.Content, l.Layer)
			if err != nil {
				return Result{}, err
			}
			reg.Apply(parsed)
		}
		replaced, err := sections.Rewrite(layers[0].Content, reg)
		if err != nil {
			return Result{}, err
		}
		rendered = replaced
	} else {
		rendered = concatLayers(layers)
	}

	if cfg.EnableDedupe {
		shingleSize := cfg.DedupeShingleSize
		if shingleSize <= 0 {
			shingleSize = 12
		}
		rendered = dedupeParagraphsReverse(rendered, shingleSize)
	}

	rendered = sections.StripMarkers(rendered)

	var diags []Diagnostic
	if cfg.EnableTemplateProcessing {
		engine := NewEngine(m.Include, m.SafeRoot)
		out, d, err := engine.Render(rendered, m.TemplateVars)
		if err != nil {
			return Result{}, err
		}
		rendered = out
		diags = d
	}

	return Result{Content: rendered, Diagnostics: diags}, nil
}

func concatLayers(layers []LayerContent) string {
	var chunks []string
	for _, l := range layers {
		if l.Content == "" {
			continue
		}
		chunks = append(chunks, l.Content)
	}
	return joinNonEmpty(chunks, "\n\n")
}

// ConcatenateStrategy concatenates layers without a section registry,
// deduping layer-by-layer in reverse precedence order.
type ConcatenateStrategy struct{}

func (c *ConcatenateStrategy) Compose(layers []LayerContent, cfg config.CompositionConfig) (Result, error) {
	if !cfg.EnableDedupe {
		return Result{Content: concatLayers(layers)}, nil
	}
	shingleSize := cfg.DedupeShingleSize
	if shingleSize <= 0 {
		shingleSize = 12
	}
	return Result{Content: concatenateDedupe(layers, shingleSize)}, nil
}
