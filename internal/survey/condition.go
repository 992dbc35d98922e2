package survey

import (
	"encoding/json"
	"reflect"
)

// ConditionKind tags the three visibility condition semantics plus an invalid
// marker for malformed authoring.
type ConditionKind string

const (
	// KindEquals is satisfied when the referenced answer equals Value.
	KindEquals ConditionKind = "equals"
	// KindHasAnswer is satisfied when the answer's presence matches Present.
	// An answer is present when it is truthy: a non-empty string or true.
	KindHasAnswer ConditionKind = "has_answer"
	// KindIsFalsy is satisfied when the answer is absent, empty, or false.
	// Authored on the wire as {"answer": false}.
	KindIsFalsy ConditionKind = "is_falsy"
	// KindInvalid never satisfies. Assigned to wire entries carrying neither
	// an answer nor a hasAnswer clause.
	KindInvalid ConditionKind = "invalid"
)

// Condition is one entry of an enableWhen rule set. Conditions sharing a
// Question are OR'd together; groups with distinct Questions are AND'd.
type Condition struct {
	Question string
	Kind     ConditionKind
	// Value is the comparison operand for KindEquals.
	Value any
	// Present is the expectation for KindHasAnswer.
	Present bool
}

// Satisfied evaluates the condition against a single answer value. Unknown
// question references are rejected before this is called; here the answer may
// simply be nil (unanswered).
func (c Condition) Satisfied(answer any) bool {
	switch c.Kind {
	case KindEquals:
		return answersEqual(answer, c.Value)
	case KindHasAnswer:
		return truthy(answer) == c.Present
	case KindIsFalsy:
		return !truthy(answer)
	default:
		return false
	}
}

// truthy reports whether an answer counts as given: non-empty strings and true
// booleans. Unanswered questions are nil.
func truthy(answer any) bool {
	switch v := answer.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	default:
		return true
	}
}

// answersEqual compares a stored answer with an authored operand. JSON numbers
// decode as float64 on both sides. The comparison is structural: decoded JSON
// may hold slices and maps, which panic under ==.
func answersEqual(answer, want any) bool {
	return reflect.DeepEqual(answer, want)
}

type conditionWire struct {
	Question  string          `json:"question"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	HasAnswer *bool           `json:"hasAnswer,omitempty"`
}

// UnmarshalJSON decodes the {question, answer?, hasAnswer?} wire shape into a
// tagged condition:
//   - hasAnswer present        -> KindHasAnswer
//   - answer == false          -> KindIsFalsy
//   - any other answer value   -> KindEquals
//   - neither clause           -> KindInvalid (never satisfied)
func (c *Condition) UnmarshalJSON(raw []byte) error {
	var wire conditionWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	c.Question = wire.Question
	c.Value = nil
	c.Present = false

	if wire.HasAnswer != nil {
		c.Kind = KindHasAnswer
		c.Present = *wire.HasAnswer
		return nil
	}
	if len(wire.Answer) > 0 {
		var value any
		if err := json.Unmarshal(wire.Answer, &value); err != nil {
			return err
		}
		if value == false {
			c.Kind = KindIsFalsy
			return nil
		}
		c.Kind = KindEquals
		c.Value = value
		return nil
	}
	c.Kind = KindInvalid
	return nil
}

// MarshalJSON writes the condition back in its authored wire shape.
func (c Condition) MarshalJSON() ([]byte, error) {
	wire := conditionWire{Question: c.Question}
	switch c.Kind {
	case KindHasAnswer:
		present := c.Present
		wire.HasAnswer = &present
	case KindIsFalsy:
		wire.Answer = json.RawMessage("false")
	case KindEquals:
		value, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		wire.Answer = value
	}
	return json.Marshal(wire)
}

// evaluateConditions applies the grouped contract: group by referenced
// question, OR within a group, AND across groups. Conditions referencing
// unknown question IDs evaluate to false for their group (and are reported to
// the caller for logging) rather than panicking.
func evaluateConditions(conditions []Condition, responses map[string]any, known map[string]bool) (visible bool, unknownRefs []string) {
	if len(conditions) == 0 {
		return true, nil
	}

	groupOrder := make([]string, 0, len(conditions))
	groups := make(map[string][]Condition, len(conditions))
	for _, condition := range conditions {
		if _, seen := groups[condition.Question]; !seen {
			groupOrder = append(groupOrder, condition.Question)
		}
		groups[condition.Question] = append(groups[condition.Question], condition)
	}

	visible = true
	for _, question := range groupOrder {
		if !known[question] {
			unknownRefs = append(unknownRefs, question)
			visible = false
			continue
		}
		satisfied := false
		for _, condition := range groups[question] {
			if condition.Satisfied(responses[question]) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			visible = false
		}
	}
	return visible, unknownRefs
}
