package manager

import (
	"encoding/json"
	"sort"

	"github.com/carelane/intake/libs/errors"
	"github.com/carelane/intake/libs/golog"
)

// FormTemplate is the root of the declarative intake schema: a title and an
// ordered sequence of sections. It is immutable once parsed and is shared
// read-only across every computation pass of a session.
type FormTemplate struct {
	Title    string     `json:"title"`
	Sections []*Section `json:"sections"`

	questionMap map[string]*Question
	orderIndex  map[string]int

	// referencedIDs is the sorted set of question ids that can change
	// visibility when their answer changes: ids referenced by some condition
	// plus parents of follow-up templates. Used to fingerprint the answer
	// map so unrelated keystrokes skip recomputation.
	referencedIDs []string

	findings []*SchemaFinding
}

// ParseTemplate unmarshals and lints a template. Schema problems that can
// be recovered locally (dangling, forward or circular condition references)
// degrade the offending condition to never-satisfied and are reported as
// findings and warnings rather than errors, so a malformed rule never
// prevents the rest of the form from rendering.
func ParseTemplate(data []byte) (*FormTemplate, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Trace(err)
	}

	t := &FormTemplate{}
	if err := t.unmarshalMapFromClient(dataMap(raw)); err != nil {
		return nil, errors.Trace(err)
	}

	t.index()
	t.lint()

	return t, nil
}

func (t *FormTemplate) unmarshalMapFromClient(data dataMap) error {
	if err := data.requiredKeys("form_template", "title", "sections"); err != nil {
		return err
	}

	t.Title = data.mustGetString("title")

	sections, err := data.getInterfaceSlice("sections")
	if err != nil {
		return errors.Trace(err)
	}

	t.Sections = make([]*Section, len(sections))
	for i, sectionVal := range sections {
		sectionMap, err := getDataMap(sectionVal)
		if err != nil {
			return errors.Trace(err)
		}

		t.Sections[i] = &Section{}
		if err := t.Sections[i].unmarshalMapFromClient(sectionMap); err != nil {
			return errors.Trace(err)
		}
	}

	return nil
}

// index builds the question lookup and document-order maps. The first
// occurrence of a duplicated id wins so that condition references stay
// stable; the duplicate is reported by lint.
func (t *FormTemplate) index() {
	t.questionMap = make(map[string]*Question)
	t.orderIndex = make(map[string]int)

	order := 0
	for _, se := range t.Sections {
		for _, q := range se.Questions {
			if _, ok := t.questionMap[q.ID]; !ok {
				t.questionMap[q.ID] = q
				t.orderIndex[q.ID] = order
			}
			order++
		}
	}
}

// Question returns the static question with the given id, or nil if the
// template doesn't define it. Follow-up instances are not static questions
// and are not found here.
func (t *FormTemplate) Question(id string) *Question {
	return t.questionMap[id]
}

// Findings returns the schema problems detected at load time.
func (t *FormTemplate) Findings() []*SchemaFinding {
	return t.findings
}

func (t *FormTemplate) lint() {
	g := newDepGraph(t)
	t.findings = g.validate()

	for _, f := range t.findings {
		golog.Warningf("template %q: %s", t.Title, f.Message)
	}

	// degrade every condition implicated in a finding to never-satisfied
	for _, se := range t.Sections {
		if se.cond != nil && g.degradedSections[se] {
			se.cond = &alwaysFalseCondition{}
		}
		for _, q := range se.Questions {
			if q.cond != nil && g.degradedQuestions[q.ID] {
				q.cond = &alwaysFalseCondition{}
			}
			for _, tpl := range q.Followups {
				if tpl.Question.cond != nil && g.degradedFollowups[tpl] {
					tpl.Question.cond = &alwaysFalseCondition{}
				}
			}
		}
	}

	t.collectReferencedIDs()
}

func (t *FormTemplate) collectReferencedIDs() {
	seen := make(map[string]bool)
	for _, se := range t.Sections {
		if se.cond != nil {
			for _, id := range se.cond.questionIDs() {
				seen[id] = true
			}
		}
		for _, q := range se.Questions {
			if q.cond != nil {
				for _, id := range q.cond.questionIDs() {
					seen[id] = true
				}
			}
			for _, tpl := range q.Followups {
				// the parent's answer decides materialization, and the
				// follow-up's own condition gates it on top
				seen[q.ID] = true
				if tpl.Question.cond != nil {
					for _, id := range tpl.Question.cond.questionIDs() {
						seen[id] = true
					}
				}
			}
		}
	}

	t.referencedIDs = make([]string, 0, len(seen))
	for id := range seen {
		t.referencedIDs = append(t.referencedIDs, id)
	}
	sort.Strings(t.referencedIDs)
}
