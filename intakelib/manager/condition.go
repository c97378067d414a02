package manager

import (
	"github.com/carelane/intake/libs/errors"
)

type conditionType string

const (
	conditionTypeAnswerEquals      conditionType = "answer_equals"
	conditionTypeAnswerContainsAny conditionType = "answer_contains_any"
	conditionTypeAND               conditionType = "and"
	conditionTypeOR                conditionType = "or"
	conditionTypeNOT               conditionType = "not"
)

func (c conditionType) String() string {
	return string(c)
}

// condition determines the visibility of the layout unit it is attached to.
// Evaluation is purely a function of the current answer set; it has no side
// effects and is safe to call on every recomputation pass.
type condition interface {
	unmarshalMapFromClient(data dataMap) error
	evaluate(answers answerReader) bool

	// questionIDs returns the ids of the questions the condition depends on,
	// used to build the dependency graph at load time.
	questionIDs() []string
}

var conditionRegistry = make(map[string]func() condition)

func mustRegisterCondition(op string, factory func() condition) {
	if _, ok := conditionRegistry[op]; ok {
		panic("condition op already registered: " + op)
	}
	conditionRegistry[op] = factory
}

func init() {
	mustRegisterCondition(conditionTypeAnswerEquals.String(), func() condition { return &answerEqualsCondition{} })
	mustRegisterCondition(conditionTypeAnswerContainsAny.String(), func() condition { return &answerContainsAnyCondition{} })
	mustRegisterCondition(conditionTypeAND.String(), func() condition { return &andCondition{} })
	mustRegisterCondition(conditionTypeOR.String(), func() condition { return &orCondition{} })
	mustRegisterCondition(conditionTypeNOT.String(), func() condition { return &notCondition{} })
}

// getCondition parses the condition object based on its "op" key.
func getCondition(data dataMap) (condition, error) {
	op := data.mustGetString("op")
	factory, ok := conditionRegistry[op]
	if !ok {
		return nil, errors.Errorf("unknown condition op %q", op)
	}

	c := factory()
	if err := c.unmarshalMapFromClient(data); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}

// alwaysFalseCondition replaces a condition that references a question the
// template doesn't define (or defines later in document order). Hiding the
// unit keeps rendering resilient to a malformed schema.
type alwaysFalseCondition struct {
	reason string
}

func (a *alwaysFalseCondition) unmarshalMapFromClient(data dataMap) error {
	return nil
}

func (a *alwaysFalseCondition) evaluate(answers answerReader) bool {
	return false
}

func (a *alwaysFalseCondition) questionIDs() []string {
	return nil
}
