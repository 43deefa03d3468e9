package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCompositionConfig_AcceptsWellFormedSection(t *testing.T) {
	err := ValidateCompositionConfig(map[string]any{
		"enable_sections":    true,
		"dedupe_shingle_size": 12,
		"composition_mode":    "section",
	})
	assert.NoError(t, err)
}

func TestValidateCompositionConfig_RejectsUnknownCompositionMode(t *testing.T) {
	err := ValidateCompositionConfig(map[string]any{
		"composition_mode": "sections",
	})
	require.Error(t, err)
}

func TestValidateCompositionConfig_RejectsNonPositiveShingleSize(t *testing.T) {
	err := ValidateCompositionConfig(map[string]any{
		"dedupe_shingle_size": 0,
	})
	require.Error(t, err)
}

func TestUnmarshalComposition_RejectsBadSectionAtLoadTime(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core.yml")
	writeYAML(t, core, "composition:\n  composition_mode: sections\n")

	r := NewResolver(dir, []Layer{{Name: "core", Path: core}})
	_, err := r.UnmarshalComposition("composition")
	require.Error(t, err)
}

func TestUnmarshalComposition_SucceedsForValidSection(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core.yml")
	writeYAML(t, core, "composition:\n  composition_mode: concatenate\n  dedupe_shingle_size: 8\n")

	r := NewResolver(dir, []Layer{{Name: "core", Path: core}})
	cfg, err := r.UnmarshalComposition("composition")
	require.NoError(t, err)
	assert.Equal(t, "concatenate", cfg.CompositionMode)
	assert.Equal(t, 8, cfg.DedupeShingleSize)
}
