package composition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edison-run/edison/internal/config"
)

func TestMarkdownStrategy_SectionModeComposesBaseAndExtensions(t *testing.T) {
	core := "intro\n<!-- SECTION: rules -->\nbe kind\n<!-- /SECTION: rules -->\n"
	pack := "<!-- EXTEND: rules -->\nbe brief\n<!-- /EXTEND -->\n"

	strat := &MarkdownStrategy{}
	cfg := config.CompositionConfig{EnableSections: true, CompositionMode: "section"}
	result, err := strat.Compose([]LayerContent{{Layer: "core", Content: core}, {Layer: "pack", Content: pack}}, cfg)
	require.NoError(t, err)
	assert.Contains(t, result.Content, "intro")
	assert.Contains(t, result.Content, "be kind")
	assert.Contains(t, result.Content, "be brief")
	assert.NotContains(t, result.Content, "SECTION")
}

func TestMarkdownStrategy_NonSectionModeConcatenates(t *testing.T) {
	strat := &MarkdownStrategy{}
	cfg := config.CompositionConfig{EnableSections: false}
	result, err := strat.Compose([]LayerContent{{Layer: "core", Content: "core text"}, {Layer: "project", Content: "project text"}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "core text\n\nproject text", result.Content)
}

func TestMarkdownStrategy_TemplateProcessingRendersVars(t *testing.T) {
	strat := &MarkdownStrategy{TemplateVars: map[string]any{"name": "widget"}}
	cfg := config.CompositionConfig{EnableSections: false, EnableTemplateProcessing: true}
	result, err := strat.Compose([]LayerContent{{Layer: "core", Content: "hello {{name}}"}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "hello widget", result.Content)
}

func TestConcatenateStrategy_DedupeKeepsHigherPriorityLayer(t *testing.T) {
	core := "run the tests before merging any change to the main branch today"
	project := "run the tests before merging any change to the main branch today"
	strat := &ConcatenateStrategy{}
	cfg := config.CompositionConfig{EnableDedupe: true, DedupeShingleSize: 4}
	result, err := strat.Compose([]LayerContent{{Layer: "core", Content: core}, {Layer: "project", Content: project}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, project, result.Content)
}

func TestYAMLMergeStrategy_DeepMergesMaps(t *testing.T) {
	core := "a: 1\nnested:\n  x: 1\n  y: 2\n"
	project := "nested:\n  y: 9\n  z: 3\n"
	strat := &YAMLMergeStrategy{}
	result, err := strat.Compose([]LayerContent{{Layer: "core", Content: core}, {Layer: "project", Content: project}}, config.CompositionConfig{})
	require.NoError(t, err)
	assert.Contains(t, result.Content, "a: 1")
	assert.Contains(t, result.Content, "x: 1")
	assert.Contains(t, result.Content, "y: 9")
	assert.Contains(t, result.Content, "z: 3")
}

func TestStrategyFor_UnknownModeErrors(t *testing.T) {
	_, err := StrategyFor(config.CompositionConfig{CompositionMode: "bogus"})
	var modeErr *UnknownModeError
	require.ErrorAs(t, err, &modeErr)
}
