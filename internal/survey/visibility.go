package survey

// Visibility is the derived, ephemeral view of a schema for one response map.
// It is a pure function of (schema, responses) and is recomputed on every
// answer change; nothing in it is persisted.
type Visibility struct {
	// Pages mirrors schema.Pages by index.
	Pages []PageState
	// Components maps question component ID to effective visibility (the
	// component's own rule AND its page's rule).
	Components map[string]bool
	// TotalVisiblePages is the page count used for user-facing pagination.
	TotalVisiblePages int
	// UnknownRefs lists question IDs referenced by enableWhen rules that do
	// not exist in the schema. These indicate authoring bugs; callers should
	// log them. The affected conditions evaluate to false.
	UnknownRefs []string
}

// PageState carries a page's visibility and its 1-based number among visible
// pages (0 when hidden).
type PageState struct {
	Visible bool
	Number  int
}

// ComputeVisibility evaluates every page and component rule against the given
// responses. It never mutates its inputs; pair it with ApplyHiddenResets to
// clear answers of hidden questions.
func ComputeVisibility(schema Schema, responses map[string]any) Visibility {
	known := make(map[string]bool)
	for _, id := range schema.QuestionIDs() {
		known[id] = true
	}

	vis := Visibility{
		Pages:      make([]PageState, len(schema.Pages)),
		Components: make(map[string]bool),
	}
	seenRefs := make(map[string]bool)
	collect := func(refs []string) {
		for _, ref := range refs {
			if !seenRefs[ref] {
				seenRefs[ref] = true
				vis.UnknownRefs = append(vis.UnknownRefs, ref)
			}
		}
	}

	pageNumber := 0
	for i, page := range schema.Pages {
		pageVisible, refs := evaluateConditions(page.EnableWhen, responses, known)
		collect(refs)
		state := PageState{Visible: pageVisible}
		if pageVisible {
			pageNumber++
			state.Number = pageNumber
		}
		vis.Pages[i] = state

		for _, component := range page.Components {
			if !component.IsQuestion() {
				continue
			}
			componentVisible, refs := evaluateConditions(component.EnableWhen, responses, known)
			collect(refs)
			vis.Components[component.ID] = pageVisible && componentVisible
		}
	}
	vis.TotalVisiblePages = pageNumber
	return vis
}

// ApplyHiddenResets returns a copy of responses where every hidden question's
// answer is reset to its type-appropriate empty value (false for checkboxes,
// "" otherwise). Hidden questions must never retain stale answers that would
// feed back into visibility evaluation. Answers of visible questions are
// untouched; questions never answered stay absent.
func ApplyHiddenResets(responses map[string]any, schema Schema, vis Visibility) map[string]any {
	out := make(map[string]any, len(responses))
	for key, value := range responses {
		out[key] = value
	}
	for _, page := range schema.Pages {
		for _, component := range page.Components {
			if !component.IsQuestion() || vis.Components[component.ID] {
				continue
			}
			if current, ok := out[component.ID]; ok && current != component.EmptyAnswer() {
				out[component.ID] = component.EmptyAnswer()
			}
		}
	}
	return out
}
