package manager

import (
	"fmt"
	"hash/fnv"

	"github.com/carelane/intake/libs/errors"
)

// FollowupTemplate is a question template nested under a specific option of
// a parent question. It has no fixed field id; an instance id is derived
// when the template is materialized for a matching parent answer.
type FollowupTemplate struct {
	TemplateID       string `json:"template_id"`
	ParentQuestionID string `json:"-"`
	TriggerValue     string `json:"trigger_value"`

	// Question holds the input definition of the follow-up. Its ID field is
	// empty; the derived instance id identifies answers to it.
	Question *Question `json:"question"`
}

func (f *FollowupTemplate) unmarshalMapFromClient(data dataMap) error {
	if err := data.requiredKeys("followup",
		"template_id", "trigger_value", "label", "type"); err != nil {
		return err
	}

	f.TemplateID = data.mustGetString("template_id")
	f.TriggerValue = data.mustGetString("trigger_value")

	f.Question = &Question{}
	payload := make(dataMap, len(data))
	for k, v := range data {
		payload[k] = v
	}
	// the template has no fixed identifier; satisfy the question parser with
	// the template id as a placeholder and strip it after
	payload["question_id"] = f.TemplateID
	if err := f.Question.unmarshalMapFromClient(payload); err != nil {
		return errors.Trace(err)
	}
	f.Question.ID = ""

	if len(f.Question.Followups) > 0 {
		return errors.Errorf("followup template %q cannot nest further followups", f.TemplateID)
	}

	return nil
}

// followupFieldID derives the instance id for a materialized follow-up. The
// derivation is a pure function of (parent question id, parent answer value,
// template id) so that re-evaluation passes with unchanged answers produce
// the same id and answers stay associated with the correct instance.
func followupFieldID(parentQuestionID, parentValue, templateID string) string {
	h := fnv.New32a()
	h.Write([]byte(parentValue))
	return fmt.Sprintf("%s.%s.%08x", parentQuestionID, templateID, h.Sum32())
}
