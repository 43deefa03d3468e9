package repository

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/edison-run/edison/internal/entity"
)

// taskIO implements EntityIO[*entity.Task] over .project/tasks/{state}/{id}.md.
type taskIO struct {
	root string
}

func newTaskIO(root string) *taskIO { return &taskIO{root: root} }

func (tio *taskIO) Encode(t *entity.Task) ([]byte, error) {
	text, err := entity.EncodeTask(t)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func (tio *taskIO) Decode(data []byte) (*entity.Task, error) {
	return entity.DecodeTask(string(data))
}

func (tio *taskIO) PathFor(state, id string) string {
	return filepath.Join(tio.root, ".project", "tasks", state, id+".md")
}

func (tio *taskIO) ListIDs(state string) ([]string, error) {
	return listIDsWithSuffix(filepath.Join(tio.root, ".project", "tasks", state), ".md")
}

func listIDsWithSuffix(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &IOFailureError{Op: "readdir " + dir, Err: err}
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), suffix))
	}
	sort.Strings(ids)
	return ids, nil
}
