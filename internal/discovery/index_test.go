package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscover_ListsNewDefinitionsAcrossLayers(t *testing.T) {
	core := t.TempDir()
	project := t.TempDir()
	writeFile(t, filepath.Join(core, "agents", "reviewer.md"), "core reviewer")
	writeFile(t, filepath.Join(project, "agents", "tester.md"), "project tester")

	layers := []Layer{
		{Role: RoleCore, Root: core},
		{Role: RoleProject, Root: project},
	}
	idx, err := Discover("agents", layers, nil, "")
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	assert.Equal(t, "reviewer", idx.Entries[0].ID)
	assert.Equal(t, "tester", idx.Entries[1].ID)
}

func TestDiscover_RejectsShadowingDefinition(t *testing.T) {
	core := t.TempDir()
	project := t.TempDir()
	writeFile(t, filepath.Join(core, "agents", "reviewer.md"), "core")
	writeFile(t, filepath.Join(project, "agents", "reviewer.md"), "project")

	layers := []Layer{
		{Role: RoleCore, Root: core},
		{Role: RoleProject, Root: project},
	}
	_, err := Discover("agents", layers, nil, "")
	var shadowing *ShadowingError
	require.ErrorAs(t, err, &shadowing)
	assert.Equal(t, "reviewer", shadowing.ID)
}

func TestDiscover_AcceptsOverlayReferencingEarlierDefinition(t *testing.T) {
	core := t.TempDir()
	project := t.TempDir()
	writeFile(t, filepath.Join(core, "agents", "reviewer.md"), "core")
	writeFile(t, filepath.Join(project, "agents", "overlays", "reviewer.md"), "extra")

	layers := []Layer{
		{Role: RoleCore, Root: core},
		{Role: RoleProject, Root: project},
	}
	idx, err := Discover("agents", layers, nil, "")
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	assert.True(t, idx.Entries[1].IsOverlay)
	assert.Equal(t, "reviewer", idx.Entries[1].ID)
}

func TestDiscover_RejectsDanglingOverlay(t *testing.T) {
	project := t.TempDir()
	writeFile(t, filepath.Join(project, "agents", "overlays", "ghost.md"), "extra")

	layers := []Layer{{Role: RoleProject, Root: project}}
	_, err := Discover("agents", layers, nil, "")
	var dangling *DanglingOverlayError
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, "ghost", dangling.ID)
}

func TestDiscover_AppliesExcludeGlobs(t *testing.T) {
	core := t.TempDir()
	writeFile(t, filepath.Join(core, "agents", "reviewer.md"), "core")
	writeFile(t, filepath.Join(core, "agents", "draft.md"), "wip")

	layers := []Layer{{Role: RoleCore, Root: core}}
	idx, err := Discover("agents", layers, []string{"draft.md"}, "")
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "reviewer", idx.Entries[0].ID)
}

func TestDiscover_MissingLayerDirectoryIsNotAnError(t *testing.T) {
	core := t.TempDir()
	layers := []Layer{{Role: RoleCore, Root: core}}
	idx, err := Discover("validators", layers, nil, "")
	require.NoError(t, err)
	assert.Empty(t, idx.Entries)
}

func TestCache_InvalidatesOnLayerMtimeChange(t *testing.T) {
	core := t.TempDir()
	writeFile(t, filepath.Join(core, "agents", "reviewer.md"), "v1")

	cache := NewCache()
	layers := []Layer{{Role: RoleCore, Root: core}}

	idx1, err := cache.Get("agents", "agents", layers, nil, "")
	require.NoError(t, err)
	require.Len(t, idx1.Entries, 1)

	writeFile(t, filepath.Join(core, "agents", "second.md"), "v1")
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(core, future, future))

	idx2, err := cache.Get("agents", "agents", layers, nil, "")
	require.NoError(t, err)
	assert.Len(t, idx2.Entries, 2)
}

func TestCheckPurity_FlagsCoreFileEditedInPlace(t *testing.T) {
	core := t.TempDir()
	path := filepath.Join(core, "agents", "reviewer.md")
	writeFile(t, path, "original")

	baseline := CoreBaseline{}
	sum, err := Checksum(path)
	require.NoError(t, err)
	baseline["reviewer"] = sum

	writeFile(t, path, "tampered")

	layers := []Layer{{Role: RoleCore, Root: core}}
	idx, err := Discover("agents", layers, nil, "")
	require.NoError(t, err)

	findings, err := CheckPurity(idx, baseline, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "core-modified", findings[0].Kind)
}

func TestCheckPurity_FlagsUnreachableGuideline(t *testing.T) {
	core := t.TempDir()
	writeFile(t, filepath.Join(core, "guidelines", "style.md"), "content")

	layers := []Layer{{Role: RoleCore, Root: core}}
	idx, err := Discover("guidelines", layers, nil, "")
	require.NoError(t, err)

	findings, err := CheckPurity(idx, nil, map[string]bool{})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "unreachable-guideline", findings[0].Kind)
}
