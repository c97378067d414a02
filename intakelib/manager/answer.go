package manager

import (
	"strconv"
	"strings"

	"github.com/carelane/intake/libs/errors"
)

// Answer represents a single value entered by the patient for a field.
// Use the constructors below to create instances; the concrete types are
// owned by this package.
type Answer interface {
	// isEmpty reports whether the answer is considered unanswered for
	// requirement checks.
	isEmpty() bool

	// equals reports whether the other answer holds the same value. Used to
	// suppress no-op updates.
	equals(other Answer) bool

	// matches reports whether the answer satisfies an expected condition or
	// trigger value. Multi-select answers match on membership, scalar answers
	// on exact equality. There is no coercion between answer types.
	matches(value string) bool

	// formattedValue returns the human readable rendering of the answer for
	// the ordered answer document.
	formattedValue() string

	// value returns the raw representation suitable for JSON serialization.
	value() interface{}
}

// TextAnswer returns an answer holding free text. It is used for the
// short-text and long-text question types as well as the single-choice and
// dropdown types, which store the selected option value.
func TextAnswer(text string) Answer {
	return &textAnswer{Text: text}
}

// NumberAnswer returns an answer holding the raw text of a numeric entry.
// The text is validated as numeric when the owning question is required.
func NumberAnswer(text string) Answer {
	return &numberAnswer{Text: text}
}

// BoolAnswer returns an answer for a single checkbox question.
func BoolAnswer(v bool) Answer {
	return &boolAnswer{Checked: v}
}

// MultiChoiceAnswer returns an answer holding the selected option values of
// a multi-choice question.
func MultiChoiceAnswer(selections ...string) Answer {
	return &multiChoiceAnswer{Selections: selections}
}

type textAnswer struct {
	Text string `json:"text"`
}

func (a *textAnswer) isEmpty() bool {
	return strings.TrimSpace(a.Text) == ""
}

func (a *textAnswer) equals(other Answer) bool {
	o, ok := other.(*textAnswer)
	if !ok {
		return false
	}
	return a.Text == o.Text
}

func (a *textAnswer) matches(value string) bool {
	return a.Text == value
}

func (a *textAnswer) formattedValue() string {
	return a.Text
}

func (a *textAnswer) value() interface{} {
	return a.Text
}

type numberAnswer struct {
	Text string `json:"number"`
}

func (a *numberAnswer) isEmpty() bool {
	return strings.TrimSpace(a.Text) == ""
}

func (a *numberAnswer) isNumeric() bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(a.Text), 64)
	return err == nil
}

func (a *numberAnswer) equals(other Answer) bool {
	o, ok := other.(*numberAnswer)
	if !ok {
		return false
	}
	return a.Text == o.Text
}

func (a *numberAnswer) matches(value string) bool {
	return a.Text == value
}

func (a *numberAnswer) formattedValue() string {
	return a.Text
}

func (a *numberAnswer) value() interface{} {
	if f, err := strconv.ParseFloat(strings.TrimSpace(a.Text), 64); err == nil {
		return f
	}
	return a.Text
}

type boolAnswer struct {
	Checked bool `json:"checked"`
}

func (a *boolAnswer) isEmpty() bool {
	// an unchecked checkbox carries no information
	return !a.Checked
}

func (a *boolAnswer) equals(other Answer) bool {
	o, ok := other.(*boolAnswer)
	if !ok {
		return false
	}
	return a.Checked == o.Checked
}

func (a *boolAnswer) matches(value string) bool {
	// checkbox answers match only the literal true/false representation
	// used by condition values; there is no coercion to other types.
	if a.Checked {
		return value == "true"
	}
	return value == "false"
}

func (a *boolAnswer) formattedValue() string {
	if a.Checked {
		return "Yes"
	}
	return "No"
}

func (a *boolAnswer) value() interface{} {
	return a.Checked
}

type multiChoiceAnswer struct {
	Selections []string `json:"selections"`
}

func (a *multiChoiceAnswer) isEmpty() bool {
	return len(a.Selections) == 0
}

func (a *multiChoiceAnswer) equals(other Answer) bool {
	o, ok := other.(*multiChoiceAnswer)
	if !ok {
		return false
	}
	if len(a.Selections) != len(o.Selections) {
		return false
	}
	for i, s := range a.Selections {
		if o.Selections[i] != s {
			return false
		}
	}
	return true
}

func (a *multiChoiceAnswer) matches(value string) bool {
	for _, s := range a.Selections {
		if s == value {
			return true
		}
	}
	return false
}

func (a *multiChoiceAnswer) formattedValue() string {
	return strings.Join(a.Selections, ", ")
}

func (a *multiChoiceAnswer) value() interface{} {
	return a.Selections
}

// getAnswer rehydrates an answer from its raw JSON representation. Used when
// resuming a session from a persisted draft.
func getAnswer(v interface{}) (Answer, error) {
	switch av := v.(type) {
	case string:
		return &textAnswer{Text: av}, nil
	case float64:
		return &numberAnswer{Text: trimFloat(av)}, nil
	case bool:
		return &boolAnswer{Checked: av}, nil
	case []interface{}:
		selections := make([]string, len(av))
		for i, item := range av {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Errorf("expected a string at index %d of a multi-choice answer but got %T", i, item)
			}
			selections[i] = s
		}
		return &multiChoiceAnswer{Selections: selections}, nil
	}
	return nil, errors.Errorf("unable to classify answer of type %T", v)
}

// answerMap holds the current answer for every answered field, keyed by the
// static question id or the derived follow-up instance id. It is owned
// exclusively by the session; all other components receive it behind the
// read-only answerReader interface for a single computation pass.
type answerMap map[string]Answer

func (m answerMap) answer(fieldID string) (Answer, bool) {
	a, ok := m[fieldID]
	return a, ok
}

// serialize returns the raw value representation of every answer for
// persistence.
func (m answerMap) serialize() map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for id, a := range m {
		out[id] = a.value()
	}
	return out
}

// answerReader is the read-only view of the answer map handed to the pure
// computation passes. Implementations must not be retained across passes.
type answerReader interface {
	answer(fieldID string) (Answer, bool)
}
