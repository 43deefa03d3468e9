package entity

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// splitFrontmatter separates a leading "---\n...\n---\n" YAML block from
// the remaining markdown body. Returns the raw YAML and the body with a
// single leading newline trimmed (never trailing content trimmed, to keep
// the round-trip law decode(encode(x)) == x).
func splitFrontmatter(content string) (yamlBlock, body string, err error) {
	if !strings.HasPrefix(content, frontmatterDelim) {
		return "", "", fmt.Errorf("entity: missing frontmatter delimiter")
	}
	rest := content[len(frontmatterDelim):]
	rest = strings.TrimPrefix(rest, "\n")

	idx := strings.Index(rest, "\n"+frontmatterDelim)
	if idx == -1 {
		return "", "", fmt.Errorf("entity: unterminated frontmatter block")
	}
	yamlBlock = rest[:idx]
	after := rest[idx+len("\n"+frontmatterDelim):]
	body = strings.TrimPrefix(after, "\n")
	return yamlBlock, body, nil
}

func joinFrontmatter(yamlBlock, body string) string {
	var sb strings.Builder
	sb.WriteString(frontmatterDelim)
	sb.WriteString("\n")
	sb.WriteString(strings.TrimRight(yamlBlock, "\n"))
	sb.WriteString("\n")
	sb.WriteString(frontmatterDelim)
	sb.WriteString("\n")
	sb.WriteString(body)
	return sb.String()
}

// EncodeTask renders a Task as markdown with YAML frontmatter.
func EncodeTask(t *Task) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(t.toFrontmatter())
	if err != nil {
		return "", fmt.Errorf("entity: marshal task frontmatter: %w", err)
	}
	return joinFrontmatter(string(data), t.Body), nil
}

// DecodeTask parses markdown with YAML frontmatter into a Task.
func DecodeTask(content string) (*Task, error) {
	yamlBlock, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}
	var fm taskFrontmatter
	if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
		return nil, fmt.Errorf("entity: unmarshal task frontmatter: %w", err)
	}
	return fm.toTask(body), nil
}

// EncodeQA renders a QARecord as markdown with YAML frontmatter.
func EncodeQA(q *QARecord) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(q.toFrontmatter())
	if err != nil {
		return "", fmt.Errorf("entity: marshal qa frontmatter: %w", err)
	}
	return joinFrontmatter(string(data), q.Body), nil
}

// DecodeQA parses markdown with YAML frontmatter into a QARecord.
func DecodeQA(content string) (*QARecord, error) {
	yamlBlock, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}
	var fm qaFrontmatter
	if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
		return nil, fmt.Errorf("entity: unmarshal qa frontmatter: %w", err)
	}
	return fm.toQA(body), nil
}

// EncodeSession renders a Session as its JSON wire form.
func EncodeSession(s *Session) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(s.toJSON(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("entity: marshal session: %w", err)
	}
	return data, nil
}

// DecodeSession parses a session.json payload into a Session.
func DecodeSession(data []byte) (*Session, error) {
	var j sessionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("entity: unmarshal session: %w", err)
	}
	return j.toSession(), nil
}
