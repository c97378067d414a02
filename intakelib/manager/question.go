package manager

import (
	"github.com/carelane/intake/libs/errors"
)

// QuestionType identifies the input control and validation rule for a
// question.
type QuestionType string

const (
	QuestionTypeShortText    QuestionType = "q_type_short_text"
	QuestionTypeLongText     QuestionType = "q_type_long_text"
	QuestionTypeNumber       QuestionType = "q_type_number"
	QuestionTypeSingleChoice QuestionType = "q_type_single_choice"
	QuestionTypeMultiChoice  QuestionType = "q_type_multi_choice"
	QuestionTypeDropdown     QuestionType = "q_type_dropdown"
	QuestionTypeCheckbox     QuestionType = "q_type_checkbox"
)

func (q QuestionType) String() string {
	return string(q)
}

var questionTypes = map[string]QuestionType{
	QuestionTypeShortText.String():    QuestionTypeShortText,
	QuestionTypeLongText.String():     QuestionTypeLongText,
	QuestionTypeNumber.String():       QuestionTypeNumber,
	QuestionTypeSingleChoice.String(): QuestionTypeSingleChoice,
	QuestionTypeMultiChoice.String():  QuestionTypeMultiChoice,
	QuestionTypeDropdown.String():     QuestionTypeDropdown,
	QuestionTypeCheckbox.String():     QuestionTypeCheckbox,
}

// choiceTypes are the question types that carry a list of options.
var choiceTypes = map[QuestionType]bool{
	QuestionTypeSingleChoice: true,
	QuestionTypeMultiChoice:  true,
	QuestionTypeDropdown:     true,
}

var (
	errNoAnswerExists      = errors.New("answer doesn't exist for question")
	errQuestionRequirement = errors.New("Please answer the question to continue.")
)

// Option is a selectable value of a choice question.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Question is a single input definition within a section. Questions are
// immutable once the template is parsed.
type Question struct {
	ID        string              `json:"question_id"`
	Label     string              `json:"label"`
	Type      QuestionType        `json:"type"`
	Options   []*Option           `json:"options"`
	Required  bool                `json:"required"`
	Mode      string              `json:"show_in_mode"`
	Followups []*FollowupTemplate `json:"followups"`

	cond condition
}

func (q *Question) condition() condition {
	return q.cond
}

func (q *Question) unmarshalMapFromClient(data dataMap) error {
	if err := data.requiredKeys("question",
		"question_id", "label", "type"); err != nil {
		return err
	}

	q.ID = data.mustGetString("question_id")
	q.Label = data.mustGetString("label")
	q.Required = data.mustGetBool("required")
	q.Mode = data.mustGetString("show_in_mode")

	typeTag := data.mustGetString("type")
	qType, ok := questionTypes[typeTag]
	if !ok {
		return errors.Errorf("unknown question type %q for question %q", typeTag, q.ID)
	}
	q.Type = qType

	options, err := data.getInterfaceSlice("options")
	if err != nil {
		return errors.Trace(err)
	}
	if len(options) > 0 && !choiceTypes[q.Type] {
		return errors.Errorf("question %q of type %s cannot declare options", q.ID, q.Type)
	}
	q.Options = make([]*Option, len(options))
	for i, optionVal := range options {
		optionMap, err := getDataMap(optionVal)
		if err != nil {
			return errors.Trace(err)
		}
		if err := optionMap.requiredKeys("option", "value", "label"); err != nil {
			return errors.Trace(err)
		}
		q.Options[i] = &Option{
			Value: optionMap.mustGetString("value"),
			Label: optionMap.mustGetString("label"),
		}
	}

	conditionData, err := data.dataMapForKey("show_if")
	if err != nil {
		return errors.Trace(err)
	} else if conditionData != nil {
		q.cond, err = getCondition(conditionData)
		if err != nil {
			return errors.Trace(err)
		}
	}

	followups, err := data.getInterfaceSlice("followups")
	if err != nil {
		return errors.Trace(err)
	}
	if len(followups) > 0 && !choiceTypes[q.Type] {
		return errors.Errorf("question %q of type %s cannot declare followups", q.ID, q.Type)
	}
	q.Followups = make([]*FollowupTemplate, len(followups))
	for i, followupVal := range followups {
		followupMap, err := getDataMap(followupVal)
		if err != nil {
			return errors.Trace(err)
		}

		q.Followups[i] = &FollowupTemplate{ParentQuestionID: q.ID}
		if err := q.Followups[i].unmarshalMapFromClient(followupMap); err != nil {
			return errors.Trace(err)
		}
	}

	return nil
}
