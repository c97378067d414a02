package manager

import (
	"github.com/carelane/intake/libs/errors"
)

// Section is a titled, ordered group of questions, optionally shown
// conditionally. Sections without a show_if condition are always candidates
// for visibility.
type Section struct {
	ID        string      `json:"section_id"`
	Title     string      `json:"title"`
	Questions []*Question `json:"questions"`

	cond condition
}

func (s *Section) condition() condition {
	return s.cond
}

func (s *Section) unmarshalMapFromClient(data dataMap) error {
	if err := data.requiredKeys("section", "title", "questions"); err != nil {
		return err
	}

	s.ID = data.mustGetString("section_id")
	s.Title = data.mustGetString("title")

	conditionData, err := data.dataMapForKey("show_if")
	if err != nil {
		return errors.Trace(err)
	} else if conditionData != nil {
		s.cond, err = getCondition(conditionData)
		if err != nil {
			return errors.Trace(err)
		}
	}

	questions, err := data.getInterfaceSlice("questions")
	if err != nil {
		return errors.Trace(err)
	}

	s.Questions = make([]*Question, len(questions))
	for i, questionVal := range questions {
		questionMap, err := getDataMap(questionVal)
		if err != nil {
			return errors.Trace(err)
		}

		s.Questions[i] = &Question{}
		if err := s.Questions[i].unmarshalMapFromClient(questionMap); err != nil {
			return errors.Trace(err)
		}
	}

	return nil
}
