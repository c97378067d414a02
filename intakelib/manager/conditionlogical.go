package manager

import "github.com/carelane/intake/libs/errors"

type logicalCondition struct {
	Op       string      `json:"op"`
	Operands []condition `json:"operands"`
}

func (l *logicalCondition) unmarshalMapFromClient(data dataMap) error {
	if err := data.requiredKeys("logical_condition", "op", "operands"); err != nil {
		return err
	}

	l.Op = data.mustGetString("op")
	operands, err := data.getInterfaceSlice("operands")
	if err != nil {
		return err
	}

	l.Operands = make([]condition, len(operands))
	for i, operand := range operands {
		operandData, err := getDataMap(operand)
		if err != nil {
			return errors.Trace(err)
		}

		l.Operands[i], err = getCondition(operandData)
		if err != nil {
			return errors.Trace(err)
		}
	}

	return nil
}

func (l *logicalCondition) questionIDs() []string {
	var ids []string
	for _, operand := range l.Operands {
		ids = append(ids, operand.questionIDs()...)
	}
	return ids
}

type andCondition struct {
	logicalCondition
}

func (a *andCondition) evaluate(answers answerReader) bool {
	// all conditions have to evaluate to true
	for _, operand := range a.Operands {
		if !operand.evaluate(answers) {
			return false
		}
	}

	return true
}

type orCondition struct {
	logicalCondition
}

func (a *orCondition) evaluate(answers answerReader) bool {
	for _, operand := range a.Operands {
		if operand.evaluate(answers) {
			return true
		}
	}

	return false
}

type notCondition struct {
	logicalCondition
}

func (a *notCondition) unmarshalMapFromClient(data dataMap) error {
	if err := a.logicalCondition.unmarshalMapFromClient(data); err != nil {
		return err
	}

	if len(a.Operands) != 1 {
		return errors.Errorf("expected single operand for NOT condition but got %d", len(a.Operands))
	}

	return nil
}

func (a *notCondition) evaluate(answers answerReader) bool {
	return !a.Operands[0].evaluate(answers)
}
