package repository

import (
	"path/filepath"

	"github.com/edison-run/edison/internal/entity"
)

// qaIO implements EntityIO[*entity.QARecord] over
// .project/qa/{state}/{task_id}-qa.md.
type qaIO struct {
	root string
}

func newQAIO(root string) *qaIO { return &qaIO{root: root} }

func (qio *qaIO) Encode(q *entity.QARecord) ([]byte, error) {
	text, err := entity.EncodeQA(q)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func (qio *qaIO) Decode(data []byte) (*entity.QARecord, error) {
	return entity.DecodeQA(string(data))
}

// PathFor uses id directly: a QARecord's id already equals
// entity.QAID(taskID) == taskID+"-qa", so the file is "{id}.md".
func (qio *qaIO) PathFor(state, id string) string {
	return filepath.Join(qio.root, ".project", "qa", state, id+".md")
}

func (qio *qaIO) ListIDs(state string) ([]string, error) {
	return listIDsWithSuffix(filepath.Join(qio.root, ".project", "qa", state), ".md")
}
