package sections

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
)

// Section is one protected HTML fragment.
type Section struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// sectionID returns the id of the n-th section in a document.
func sectionID(n int) string {
	return fmt.Sprintf("section-%d", n)
}

// Serialize encodes sections as a JSON array in their original order.
// HTML characters are not escaped so the output matches what a browser's
// JSON.stringify would produce for the same records.
func Serialize(sections []Section) (string, error) {
	if sections == nil {
		sections = []Section{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sections); err != nil {
		return "", fmt.Errorf("failed to serialize sections: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

type rawSection struct {
	ID      *string `json:"id"`
	Content *string `json:"content"`
}

// Deserialize parses the output of Serialize. Malformed JSON, a missing id or
// content field, or a duplicate id fails with ErrFormat.
func Deserialize(plaintext string) ([]Section, error) {
	var raw []rawSection
	if err := json.Unmarshal([]byte(plaintext), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrFormat, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON array of sections", kerrors.ErrFormat)
	}

	sections := make([]Section, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, r := range raw {
		if r.ID == nil || r.Content == nil {
			return nil, fmt.Errorf("%w: section %d is missing a required field", kerrors.ErrFormat, i)
		}
		if seen[*r.ID] {
			return nil, fmt.Errorf("%w: duplicate section id %q", kerrors.ErrFormat, *r.ID)
		}
		seen[*r.ID] = true
		sections = append(sections, Section{ID: *r.ID, Content: *r.Content})
	}

	return sections, nil
}

// Find returns the section with the given id.
func Find(sections []Section, id string) (Section, error) {
	for _, s := range sections {
		if s.ID == id {
			return s, nil
		}
	}
	return Section{}, fmt.Errorf("%w: %s", kerrors.ErrNotFound, id)
}

// IDs returns the ids of sections in order.
func IDs(sections []Section) []string {
	ids := make([]string, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	return ids
}
