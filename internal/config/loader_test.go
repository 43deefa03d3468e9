package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolver_DeepMergeDictIntoDict(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core.yml")
	project := filepath.Join(dir, "project.yml")

	writeYAML(t, core, "composition:\n  enable_sections: true\n  dedupe_shingle_size: 12\n")
	writeYAML(t, project, "composition:\n  dedupe_shingle_size: 20\n")

	r := NewResolver(dir, []Layer{{Name: "core", Path: core}, {Name: "project", Path: project}})
	merged, err := r.Load()
	require.NoError(t, err)

	comp := merged["composition"].(map[string]any)
	assert.Equal(t, true, comp["enable_sections"])
	assert.Equal(t, 20, comp["dedupe_shingle_size"])
}

func TestResolver_ListsReplaceByDefault(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core.yml")
	project := filepath.Join(dir, "project.yml")

	writeYAML(t, core, "validators:\n  required: [a, b]\n")
	writeYAML(t, project, "validators:\n  required: [c]\n")

	r := NewResolver(dir, []Layer{{Name: "core", Path: core}, {Name: "project", Path: project}})
	merged, err := r.Load()
	require.NoError(t, err)

	validators := merged["validators"].(map[string]any)
	assert.Equal(t, []any{"c"}, validators["required"])
}

func TestResolver_MergeListKeyException(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core.yml")
	project := filepath.Join(dir, "project.yml")

	writeYAML(t, core, "composition:\n  exclude_globs: [\"*.tmp\"]\n")
	writeYAML(t, project, "composition:\n  exclude_globs: [\"*.bak\"]\n")

	r := NewResolver(dir, []Layer{{Name: "core", Path: core}, {Name: "project", Path: project}})
	merged, err := r.Load()
	require.NoError(t, err)

	comp := merged["composition"].(map[string]any)
	assert.Equal(t, []any{"*.tmp", "*.bak"}, comp["exclude_globs"])
}

func TestResolver_MissingKeyNamesSearchOrder(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core.yml")
	writeYAML(t, core, "composition:\n  enable_sections: true\n")

	r := NewResolver(dir, []Layer{{Name: "core", Path: core}})
	merged, err := r.Load()
	require.NoError(t, err)

	_, err = r.RequireKey(merged, "qa.required_validators")
	require.Error(t, err)
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "qa.required_validators", missing.KeyPath)
	assert.Equal(t, []string{"core"}, missing.SearchOrder)
}

func TestResolver_ParseErrorNamesFile(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core.yml")
	writeYAML(t, core, "composition: [this is not a map\n")

	r := NewResolver(dir, []Layer{{Name: "core", Path: core}})
	_, err := r.Load()
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, core, parseErr.Path)
}

func TestResolver_CacheInvalidatesOnMtimeChange(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core.yml")
	writeYAML(t, core, "composition:\n  dedupe_shingle_size: 12\n")

	r := NewResolver(dir, []Layer{{Name: "core", Path: core}})
	merged, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, 12, merged["composition"].(map[string]any)["dedupe_shingle_size"])

	// Force a later mtime so the cache is detected stale even on fast filesystems.
	info, err := os.Stat(core)
	require.NoError(t, err)
	future := info.ModTime().Add(time.Second)
	writeYAML(t, core, "composition:\n  dedupe_shingle_size: 99\n")
	require.NoError(t, os.Chtimes(core, future, future))

	merged, err = r.Load()
	require.NoError(t, err)
	assert.Equal(t, 99, merged["composition"].(map[string]any)["dedupe_shingle_size"])
}
