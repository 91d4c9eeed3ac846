package core

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slabforge/tsk/pkg/models"
)

// Task records are markdown files with a YAML frontmatter header between
// --- fences and the free-text description as the body:
//
//	---
//	title: Rework the ingest API
//	status: open
//	created_at: 2026-08-21T10:11:12Z
//	...
//	---
//
//	Description body.
//
// The header carries everything except the id, which is the filename.

const frontmatterFence = "---\n"

// EncodeTask renders a task into its persisted record form. The task is
// validated first so a structurally broken task never reaches disk.
func EncodeTask(t *models.Task) ([]byte, error) {
	if err := validateTask(t); err != nil {
		return nil, err
	}

	header, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshaling record header for %s: %w", t.ID, err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterFence)
	buf.Write(header)
	buf.WriteString("---\n")
	body := strings.TrimRight(t.Description, "\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// DecodeTask parses record bytes into a task. The id comes from the
// record's filename, not the header. Unknown header keys are ignored;
// missing required keys, malformed references, and unrecognized status
// values fail with InvalidRecordError.
func DecodeTask(id string, data []byte) (*models.Task, error) {
	content := string(data)
	if !strings.HasPrefix(content, frontmatterFence) {
		return nil, &InvalidRecordError{ID: id, Field: "header", Reason: "missing frontmatter fence"}
	}

	rest := content[len(frontmatterFence):]
	end := strings.Index(rest, "\n---\n")
	var header, body string
	switch {
	case end >= 0:
		header = rest[:end+1]
		body = strings.TrimLeft(rest[end+len("\n---\n"):], "\n")
	case strings.HasSuffix(rest, "\n---"):
		header = rest[:len(rest)-len("---")]
		body = ""
	default:
		return nil, &InvalidRecordError{ID: id, Field: "header", Reason: "unterminated frontmatter fence"}
	}

	t := &models.Task{}
	if err := yaml.Unmarshal([]byte(header), t); err != nil {
		return nil, &InvalidRecordError{ID: id, Field: "header", Reason: fmt.Sprintf("parsing header: %v", err)}
	}
	t.ID = id
	t.Description = strings.TrimRight(body, "\n")
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}

	if err := validateTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

// validateTask checks the structural invariants every record must hold,
// whether it came from disk, an import feed, or a create call.
func validateTask(t *models.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return &InvalidRecordError{ID: t.ID, Field: "title", Reason: "must not be empty"}
	}
	if t.Status == "" {
		return &InvalidRecordError{ID: t.ID, Field: "status", Reason: "must not be empty"}
	}
	if !t.Status.IsValid() {
		return &InvalidRecordError{ID: t.ID, Field: "status",
			Reason: fmt.Sprintf("%q is not one of open, active, closed", t.Status)}
	}
	if t.CreatedAt.IsZero() {
		return &InvalidRecordError{ID: t.ID, Field: "created_at", Reason: "must be set"}
	}

	seen := make(map[string]bool, len(t.Blocks))
	for _, ref := range t.Blocks {
		if !ValidTaskID(ref) {
			return &InvalidRecordError{ID: t.ID, Field: "blocks",
				Reason: fmt.Sprintf("%q is not a valid task id", ref)}
		}
		if ref == t.ID {
			return &InvalidRecordError{ID: t.ID, Field: "blocks", Reason: "task cannot block on itself"}
		}
		if seen[ref] {
			return &InvalidRecordError{ID: t.ID, Field: "blocks",
				Reason: fmt.Sprintf("duplicate entry %q", ref)}
		}
		seen[ref] = true
	}

	if t.Parent != "" {
		if !ValidTaskID(t.Parent) {
			return &InvalidRecordError{ID: t.ID, Field: "parent",
				Reason: fmt.Sprintf("%q is not a valid task id", t.Parent)}
		}
		if t.Parent == t.ID {
			return &InvalidRecordError{ID: t.ID, Field: "parent", Reason: "task cannot be its own parent"}
		}
	}

	return nil
}
