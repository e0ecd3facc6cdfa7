package task

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const headerFence = "---"

// Marshal renders a task as its on-disk form: a YAML header between "---"
// fences, a blank line, then the content body.
func Marshal(t *Task) ([]byte, error) {
	header, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal task %s header: %w", t.ID, err)
	}
	var buf bytes.Buffer
	buf.WriteString(headerFence + "\n")
	buf.Write(header)
	buf.WriteString(headerFence + "\n")
	if t.Content != "" {
		buf.WriteString("\n")
		buf.WriteString(t.Content)
		if !strings.HasSuffix(t.Content, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// Unmarshal parses the on-disk form back into a task. The header fences are
// required; everything after the closing fence becomes Content with one
// leading blank line stripped.
func Unmarshal(data []byte) (*Task, error) {
	text := string(data)
	if !strings.HasPrefix(text, headerFence+"\n") {
		return nil, fmt.Errorf("parse task: missing header fence")
	}
	rest := text[len(headerFence)+1:]
	idx := strings.Index(rest, "\n"+headerFence+"\n")
	var header, body string
	switch {
	case idx >= 0:
		header = rest[:idx+1]
		body = rest[idx+len(headerFence)+2:]
	case strings.HasSuffix(rest, "\n"+headerFence):
		header = rest[:len(rest)-len(headerFence)]
	default:
		return nil, fmt.Errorf("parse task: unterminated header")
	}

	var t Task
	if err := yaml.Unmarshal([]byte(header), &t); err != nil {
		return nil, fmt.Errorf("parse task header: %w", err)
	}
	if t.ID == "" {
		return nil, fmt.Errorf("parse task: header has no id")
	}
	t.Content = strings.TrimPrefix(body, "\n")
	return &t, nil
}
