// Package survey implements the questionnaire document model and the pure
// traversal engine over it: conditional page/question visibility, page
// numbering, navigation with monotonic furthest-page tracking, and resume
// semantics. Everything here is synchronous, in-process logic with no I/O;
// persistence and gating live in their own packages.
package survey

import "encoding/json"

// Component types with special answer handling. Checkbox answers are booleans,
// every other question type stores a string.
const ComponentTypeCheckbox = "checkbox"

// Schema is one versioned questionnaire document: an ordered sequence of pages,
// each an ordered sequence of components.
type Schema struct {
	Title                  string `json:"title"`
	ShowWithdrawIfComplete bool   `json:"showWithdrawIfComplete"`
	Pages                  []Page `json:"pages"`
}

// Page groups components and may itself be conditionally visible.
type Page struct {
	EnableWhen []Condition `json:"enableWhen,omitempty"`
	Components []Component `json:"components"`
}

// Component is a single page element. Question components carry a stable ID
// that keys their answer in the response map; display-only components have
// no ID.
type Component struct {
	ID         string      `json:"id,omitempty"`
	Type       string      `json:"type"`
	IsRequired bool        `json:"isRequired,omitempty"`
	EnableWhen []Condition `json:"enableWhen,omitempty"`
}

// IsQuestion reports whether the component collects an answer.
func (c Component) IsQuestion() bool { return c.ID != "" }

/// EmptyAnswer is the reset value written when a question is hidden: false for
// checkboxes, the empty string for everything else.
func (c Component) EmptyAnswer() any {
	if c.Type == ComponentTypeCheckbox {
		return false
	}
	return ""
}

// QuestionIDs returns the IDs of all question components in document order,
// regardless of visibility.
func (s Schema) QuestionIDs() []string {
	var ids []string
	for _, page := range s.Pages {
		for _, component := range page.Components {
			if component.IsQuestion() {
				ids = append(ids, component.ID)
			}
		}
	}
	return ids
}

// QuestionCount counts question components across the whole schema. Hidden
// questions count too; this is informational, not pagination.
func (s Schema) QuestionCount() int {
	return len(s.QuestionIDs())
}

// ParseSchema decodes a schema document from its JSON wire shape.
func ParseSchema(raw []byte) (Schema, error) {
	var schema Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return Schema{}, err
	}
	return schema, nil
}
