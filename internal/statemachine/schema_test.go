package statemachine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpecFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state_machine.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSpec_AcceptsWellFormedSpec(t *testing.T) {
	path := writeSpecFile(t, `
entity_kind: task
states:
  todo:
    initial: true
    allowed_transitions:
      - to: wip
        actions: [record_activation_time]
  wip:
    allowed_transitions:
      - to: done
        guard: AllTasksReady
        conditions:
          - name: has_implementation_report
  done:
    final: true
`)
	spec, err := LoadSpec(path)
	require.NoError(t, err)
	assert.Equal(t, "task", spec.EntityKind)
	assert.Len(t, spec.States, 3)
}

func TestLoadSpec_RejectsMissingEntityKind(t *testing.T) {
	path := writeSpecFile(t, `
states:
  todo:
    initial: true
`)
	_, err := LoadSpec(path)
	require.Error(t, err)
	var specErr *SpecError
	assert.ErrorAs(t, err, &specErr)
}

func TestLoadSpec_RejectsTransitionMissingTo(t *testing.T) {
	path := writeSpecFile(t, `
entity_kind: task
states:
  todo:
    allowed_transitions:
      - guard: SomeGuard
`)
	_, err := LoadSpec(path)
	require.Error(t, err)
}

func TestLoadSpec_RejectsEmptyStates(t *testing.T) {
	path := writeSpecFile(t, `
entity_kind: task
states: {}
`)
	_, err := LoadSpec(path)
	require.Error(t, err)
}

func TestLoadSpec_AcceptsNestedOrConditions(t *testing.T) {
	path := writeSpecFile(t, `
entity_kind: qa
states:
  waiting:
    initial: true
    allowed_transitions:
      - to: todo
        conditions:
          - or:
              - name: bundle_approved
              - name: override_granted
  todo:
    final: true
`)
	_, err := LoadSpec(path)
	require.NoError(t, err)
}
