package repository

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/edison-run/edison/internal/entity"
)

// sessionIO implements EntityIO[*entity.Session] over
// .project/sessions/{state}/{id}/session.json.
type sessionIO struct {
	root string
}

func newSessionIO(root string) *sessionIO { return &sessionIO{root: root} }

func (sio *sessionIO) Encode(s *entity.Session) ([]byte, error) {
	return entity.EncodeSession(s)
}

func (sio *sessionIO) Decode(data []byte) (*entity.Session, error) {
	return entity.DecodeSession(data)
}

func (sio *sessionIO) PathFor(state, id string) string {
	return filepath.Join(sio.root, ".project", "sessions", state, id, "session.json")
}

func (sio *sessionIO) ListIDs(state string) ([]string, error) {
	dir := filepath.Join(sio.root, ".project", "sessions", state)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &IOFailureError{Op: "readdir " + dir, Err: err}
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), "session.json")); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
