// Package catalog owns named, versioned form definitions. Forms are immutable
// once created: editing always inserts a new row with the next version number,
// so history is never rewritten and old responses keep pointing at the exact
// schema they answered.
package catalog

import (
	"sort"
	"time"

	"cohort/internal/survey"
	id "cohort/pkg/domain"
)

// FormType distinguishes the single registry consent form from the module
// questionnaires gated behind it.
type FormType string

const (
	FormTypeConsent FormType = "CONSENT"
	FormTypeModule  FormType = "MODULE"
)

// ParseFormType validates external input into a FormType.
func ParseFormType(s string) (FormType, bool) {
	switch FormType(s) {
	case FormTypeConsent, FormTypeModule:
		return FormType(s), true
	}
	return "", false
}

// Form is one immutable version of a named form within a study.
// Invariant: (StudyID, Name, Version) is unique; versions for a (study, name)
// pair are strictly increasing starting at 1.
type Form struct {
	ID        id.FormID     `json:"id"`
	StudyID   id.StudyID    `json:"study_id"`
	Name      string        `json:"name"`
	Type      FormType      `json:"type"`
	Version   int           `json:"version"`
	Schema    survey.Schema `json:"schema"`
	CreatedBy string        `json:"created_by"`
	CreatedAt time.Time     `json:"created_at"`
}

// SortForms orders forms for presentation: CONSENT-typed forms first, then
// alphabetically by name. The order is stable for equal keys.
func SortForms(forms []Form) {
	sort.SliceStable(forms, func(i, j int) bool {
		if forms[i].Type != forms[j].Type {
			return forms[i].Type == FormTypeConsent
		}
		return forms[i].Name < forms[j].Name
	})
}
