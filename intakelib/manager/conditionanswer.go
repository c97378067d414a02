package manager

type answerCondition struct {
	Op         string   `json:"op"`
	QuestionID string   `json:"question_id"`
	Values     []string `json:"values"`
}

func (a *answerCondition) questionIDs() []string {
	return []string{a.QuestionID}
}

// answerEqualsCondition is true when the current answer for the dependent
// question exactly matches the expected value. A missing answer evaluates
// to false.
type answerEqualsCondition struct {
	answerCondition
}

func (a *answerEqualsCondition) unmarshalMapFromClient(data dataMap) error {
	if err := data.requiredKeys(
		conditionTypeAnswerEquals.String(),
		"op", "question_id", "value"); err != nil {
		return err
	}

	a.Op = data.mustGetString("op")
	a.QuestionID = data.mustGetString("question_id")
	a.Values = []string{data.mustGetString("value")}

	return nil
}

func (a *answerEqualsCondition) evaluate(answers answerReader) bool {
	pa, ok := answers.answer(a.QuestionID)
	if !ok || pa == nil {
		return false
	}
	return pa.matches(a.Values[0])
}

// answerContainsAnyCondition is true when the current answer for the
// dependent question matches any of the expected values.
type answerContainsAnyCondition struct {
	answerCondition
}

func (a *answerContainsAnyCondition) unmarshalMapFromClient(data dataMap) error {
	if err := data.requiredKeys(
		conditionTypeAnswerContainsAny.String(),
		"op", "question_id", "values"); err != nil {
		return err
	}

	a.Op = data.mustGetString("op")
	a.QuestionID = data.mustGetString("question_id")

	var err error
	a.Values, err = data.getStringSlice("values")

	return err
}

func (a *answerContainsAnyCondition) evaluate(answers answerReader) bool {
	pa, ok := answers.answer(a.QuestionID)
	if !ok || pa == nil {
		return false
	}

	for _, v := range a.Values {
		if pa.matches(v) {
			return true
		}
	}

	return false
}
