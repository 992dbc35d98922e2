package survey

import (
	"errors"
	"reflect"
)

// Navigation errors. ErrRequiredUnanswered blocks Advance while a required,
// visible question on the current page has no answer.
var (
	ErrRequiredUnanswered = errors.New("required questions unanswered on current page")
)

// Session is a single participant's in-progress traversal of one schema. It is
// single-owner state: recomputation happens synchronously inside every
// mutation, so derived visibility can never drift from the answer map.
//
// Pages are addressed by document-order index (0-based); the 1-based numbers
// reported by PageNumber and TotalPages count visible pages only.
type Session struct {
	schema    Schema
	responses map[string]any
	vis       Visibility

	currentPage  int
	furthestPage int
}

// NewSession builds a session from a stored response. Completed responses
// restart at page 0; in-progress ones resume at the persisted furthest page
// (0 when unset). If the resume page is hidden under the stored answers, the
// session seeks forward to the nearest visible page.
func NewSession(schema Schema, answers map[string]any, furthestPage int, isComplete bool) *Session {
	s := &Session{
		schema:    schema,
		responses: make(map[string]any, len(answers)),
	}
	for key, value := range answers {
		s.responses[key] = value
	}
	s.recompute()

	if !isComplete {
		if furthestPage > 0 && furthestPage < len(schema.Pages) {
			s.currentPage = furthestPage
		}
		s.furthestPage = s.currentPage
	}
	s.seekVisible()
	return s
}

// SetAnswer records an answer and synchronously recomputes visibility,
// resetting answers of questions the change just hid.
func (s *Session) SetAnswer(questionID string, value any) {
	s.responses[questionID] = value
	s.recompute()
	s.seekVisible()
}

// Advance moves to the next visible page. It fails with ErrRequiredUnanswered
// while the current page has a required, visible, unanswered question (an
// unchecked required checkbox counts as unanswered). On the last page Advance
// is a no-op.
//
// FurthestPageCompleted is monotone under navigation: it rises to the new page
// while further pages remain, and is set to the new page exactly when that
// page is the last one (completion case).
func (s *Session) Advance() error {
	if blocking := s.BlockingQuestions(); len(blocking) > 0 {
		return ErrRequiredUnanswered
	}
	next, ok := s.nextVisible(s.currentPage)
	if !ok {
		return nil
	}
	s.currentPage = next
	if _, further := s.nextVisible(next); further {
		if next > s.furthestPage {
			s.furthestPage = next
		}
	} else {
		s.furthestPage = next
	}
	return nil
}

// Retreat moves to the previous visible page. Never blocked, never affects the
// furthest-page marker.
func (s *Session) Retreat() {
	if prev, ok := s.prevVisible(s.currentPage); ok {
		s.currentPage = prev
	}
}

// BlockingQuestions lists the required, visible, unanswered question IDs on
// the current page. Non-required components never block.
func (s *Session) BlockingQuestions() []string {
	if s.currentPage >= len(s.schema.Pages) {
		return nil
	}
	if !s.pageVisible(s.currentPage) {
		return nil
	}
	var blocking []string
	for _, component := range s.schema.Pages[s.currentPage].Components {
		if !component.IsQuestion() || !component.IsRequired {
			continue
		}
		if !s.vis.Components[component.ID] {
			continue
		}
		if !truthy(s.responses[component.ID]) {
			blocking = append(blocking, component.ID)
		}
	}
	return blocking
}

// IsLastPage reports whether no further visible page exists. A schema with
// fewer than two visible pages is always its own last page.
func (s *Session) IsLastPage() bool {
	if s.vis.TotalVisiblePages < 2 {
		return true
	}
	_, ok := s.nextVisible(s.currentPage)
	return !ok
}

// CurrentPage returns the document-order index of the current page.
func (s *Session) CurrentPage() int { return s.currentPage }

// FurthestPageCompleted returns the monotone resume marker to persist.
func (s *Session) FurthestPageCompleted() int { return s.furthestPage }

// PageNumber returns the 1-based number of the current page among visible
// pages, or 0 if the current page is hidden.
func (s *Session) PageNumber() int {
	if s.currentPage < len(s.vis.Pages) {
		return s.vis.Pages[s.currentPage].Number
	}
	return 0
}

// TotalPages returns the count of visible pages, the figure used for all
// user-facing pagination.
func (s *Session) TotalPages() int { return s.vis.TotalVisiblePages }

// QuestionCount returns the number of question components in the schema,
// hidden or not.
func (s *Session) QuestionCount() int { return s.schema.QuestionCount() }

// Answers returns a copy of the current answer map, suitable for persisting.
func (s *Session) Answers() map[string]any {
	out := make(map[string]any, len(s.responses))
	for key, value := range s.responses {
		out[key] = value
	}
	return out
}

// Visibility exposes the current derived state, including any unknown
// enableWhen references the caller should log.
func (s *Session) Visibility() Visibility { return s.vis }

// recompute derives visibility and applies hidden resets until stable. A reset
// can itself change visibility of other items, so iterate to the fixpoint;
// each pass clears at least one answer, bounding the loop by the question
// count.
func (s *Session) recompute() {
	for range len(s.schema.QuestionIDs()) + 1 {
		s.vis = ComputeVisibility(s.schema, s.responses)
		next := ApplyHiddenResets(s.responses, s.schema, s.vis)
		if mapsEqual(next, s.responses) {
			return
		}
		s.responses = next
	}
}

// seekVisible moves the pointer onto a visible page if the current one is
// hidden: forward first, then backward, else page 0.
func (s *Session) seekVisible() {
	if s.pageVisible(s.currentPage) {
		return
	}
	if next, ok := s.nextVisible(s.currentPage); ok {
		s.currentPage = next
		return
	}
	if prev, ok := s.prevVisible(s.currentPage); ok {
		s.currentPage = prev
		return
	}
	s.currentPage = 0
}

func (s *Session) pageVisible(index int) bool {
	return index >= 0 && index < len(s.vis.Pages) && s.vis.Pages[index].Visible
}

func (s *Session) nextVisible(from int) (int, bool) {
	for i := from + 1; i < len(s.vis.Pages); i++ {
		if s.vis.Pages[i].Visible {
			return i, true
		}
	}
	return 0, false
}

func (s *Session) prevVisible(from int) (int, bool) {
	for i := from - 1; i >= 0; i-- {
		if s.vis.Pages[i].Visible {
			return i, true
		}
	}
	return 0, false
}

func mapsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	// Answers decoded from JSON may be slices or maps, so compare structurally.
	for key, value := range a {
		if other, ok := b[key]; !ok || !reflect.DeepEqual(other, value) {
			return false
		}
	}
	return true
}
