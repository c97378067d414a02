package manager

import (
	"fmt"
	"strings"
)

// FieldError describes a validation failure on a single visible field.
type FieldError struct {
	FieldID string
	Message string
}

// ValidationError aggregates the per-field failures of a validation pass.
// It blocks navigation and submission but is never fatal; correcting the
// input recovers locally.
type ValidationError struct {
	Errors []*FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", fe.FieldID, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// FirstFieldID returns the id of the first invalid field in document order
// so the rendering layer can focus it.
func (e *ValidationError) FirstFieldID() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].FieldID
}

// requiredFieldSet derives the ids of fields that must validate from the
// currently visible tree. By construction the set is a subset of the
// visible field ids: a hidden required field can never block submission.
// It must be rebuilt whenever the tree changes.
func requiredFieldSet(vt *VisibleTree) map[string]bool {
	required := make(map[string]bool)
	for _, id := range vt.fieldIDs {
		if vt.fieldMap[id].Question.Required {
			required[id] = true
		}
	}
	return required
}

// validateFields checks the given visible field ids against the required
// set and per-type rules, returning nil when every field passes. Only
// required fields are checked; optional fields never fail validation.
func validateFields(vt *VisibleTree, answers answerReader, required map[string]bool, fieldIDs []string) *ValidationError {
	var fieldErrors []*FieldError
	for _, id := range fieldIDs {
		f := vt.fieldMap[id]
		if f == nil || !required[id] {
			continue
		}

		a, ok := answers.answer(id)
		if !ok || a == nil {
			fieldErrors = append(fieldErrors, &FieldError{
				FieldID: id,
				Message: errQuestionRequirement.Error(),
			})
			continue
		}

		if msg := checkAnswerForQuestion(f.Question, a); msg != "" {
			fieldErrors = append(fieldErrors, &FieldError{
				FieldID: id,
				Message: msg,
			})
		}
	}

	if len(fieldErrors) == 0 {
		return nil
	}
	return &ValidationError{Errors: fieldErrors}
}

// checkAnswerForQuestion applies the per-type rule for a required question
// and returns a user-facing message when the answer fails it.
func checkAnswerForQuestion(q *Question, a Answer) string {
	if a.isEmpty() {
		return errQuestionRequirement.Error()
	}

	switch q.Type {
	case QuestionTypeNumber:
		na, ok := a.(*numberAnswer)
		if !ok || !na.isNumeric() {
			return "Please enter a number."
		}
	case QuestionTypeMultiChoice:
		if _, ok := a.(*multiChoiceAnswer); !ok {
			return errQuestionRequirement.Error()
		}
	case QuestionTypeCheckbox:
		ba, ok := a.(*boolAnswer)
		if !ok || !ba.Checked {
			return "Please check the box to continue."
		}
	}

	return ""
}
