package manager

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

type visibility int

const (
	hidden visibility = iota
	visible
)

func (v visibility) String() string {
	if v == visible {
		return "visible"
	}
	return "hidden"
}

// Rendering modes. A question that declares show_in_mode only appears when
// the session renders in that mode.
const (
	ModePatient   = "patient"
	ModeClinician = "clinician"
)

// VisibleField is a single renderable input in the visible tree: either a
// static question or a materialized follow-up instance.
type VisibleField struct {
	// FieldID keys the field's answer in the answer map. For static
	// questions it is the question id; for follow-up instances it is the
	// derived instance id.
	FieldID string

	// Question describes the input. For follow-up instances this is the
	// template's question payload.
	Question *Question

	// ParentFieldID and TriggerValue are set for follow-up instances only.
	ParentFieldID string
	TriggerValue  string
}

func (f *VisibleField) isFollowup() bool {
	return f.ParentFieldID != ""
}

// VisibleSection is a section retained by the resolver along with its
// visible fields in document order.
type VisibleSection struct {
	SectionIndex int
	Title        string
	Fields       []*VisibleField
}

// VisibleTree is the derived, render-ready view of the template for a given
// answer set and mode. It is fully recomputed on every answer mutation and
// never mutated in place.
type VisibleTree struct {
	Title    string
	Mode     string
	Sections []*VisibleSection

	fieldIDs []string
	fieldMap map[string]*VisibleField
}

// FieldIDs returns every visible field id in document order.
func (vt *VisibleTree) FieldIDs() []string {
	return vt.fieldIDs
}

// Field returns the visible field with the given id, or nil when the field
// is not currently visible.
func (vt *VisibleTree) Field(fieldID string) *VisibleField {
	return vt.fieldMap[fieldID]
}

// FirstFieldID returns the first visible field id, or the empty string for
// an empty tree.
func (vt *VisibleTree) FirstFieldID() string {
	if len(vt.fieldIDs) == 0 {
		return ""
	}
	return vt.fieldIDs[0]
}

// DebugString renders the tree with one line per unit for inspection.
func (vt *VisibleTree) DebugString() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s [mode=%s]\n", vt.Title, vt.Mode)
	for _, se := range vt.Sections {
		fmt.Fprintf(&b, "  se:%d %s\n", se.SectionIndex, se.Title)
		for _, f := range se.Fields {
			indent := "    "
			if f.isFollowup() {
				indent = "      "
			}
			fmt.Fprintf(&b, "%s%s: %s | Q: %s\n", indent, f.FieldID, f.Question.Type, f.Question.Label)
		}
	}
	return b.String()
}

func modeAllows(questionMode, sessionMode string) bool {
	return questionMode == "" || questionMode == sessionMode
}

// resolveVisibleTree walks the template in document order and filters it
// down to the sections and questions whose conditions hold for the current
// answers, materializing follow-up instances for matching parent answers.
// It is a pure derivation: the answer reader is only read, never retained.
func resolveVisibleTree(t *FormTemplate, answers answerReader, mode string) *VisibleTree {
	vt := &VisibleTree{
		Title:    t.Title,
		Mode:     mode,
		fieldMap: make(map[string]*VisibleField),
	}

	for i, se := range t.Sections {
		if se.cond != nil && !se.cond.evaluate(answers) {
			continue
		}

		vs := &VisibleSection{
			SectionIndex: i,
			Title:        se.Title,
		}

		for _, q := range se.Questions {
			if !modeAllows(q.Mode, mode) {
				continue
			}
			if q.cond != nil && !q.cond.evaluate(answers) {
				continue
			}

			vs.Fields = append(vs.Fields, &VisibleField{
				FieldID:  q.ID,
				Question: q,
			})

			// materialize follow-up instances immediately after their parent
			// so parent and follow-ups stay grouped in tab order
			parentAnswer, ok := answers.answer(q.ID)
			if !ok || parentAnswer == nil {
				continue
			}
			for _, tpl := range q.Followups {
				if !parentAnswer.matches(tpl.TriggerValue) {
					continue
				}
				if tpl.Question.cond != nil && !tpl.Question.cond.evaluate(answers) {
					continue
				}
				if !modeAllows(tpl.Question.Mode, mode) {
					continue
				}
				vs.Fields = append(vs.Fields, &VisibleField{
					FieldID:       followupFieldID(q.ID, tpl.TriggerValue, tpl.TemplateID),
					Question:      tpl.Question,
					ParentFieldID: q.ID,
					TriggerValue:  tpl.TriggerValue,
				})
			}
		}

		// a section whose questions are all hidden contributes nothing to
		// navigate to, so it is dropped along with them
		if len(vs.Fields) == 0 {
			continue
		}

		vt.Sections = append(vt.Sections, vs)
		for _, f := range vs.Fields {
			vt.fieldIDs = append(vt.fieldIDs, f.FieldID)
			vt.fieldMap[f.FieldID] = f
		}
	}

	return vt
}

// answerFingerprint summarizes the answers that can change visibility. Two
// answer maps with the same fingerprint resolve to the same visible tree,
// which lets the session skip recomputation on unrelated keystrokes.
func answerFingerprint(t *FormTemplate, answers answerReader, mode string) string {
	var b strings.Builder
	b.WriteString(mode)
	for _, id := range t.referencedIDs {
		b.WriteByte('|')
		b.WriteString(id)
		b.WriteByte('=')
		if a, ok := answers.answer(id); ok && a != nil {
			b.WriteString(fingerprintValue(a))
		}
	}
	return b.String()
}

func fingerprintValue(a Answer) string {
	switch av := a.value().(type) {
	case string:
		return av
	case bool:
		return fmt.Sprintf("%t", av)
	case float64:
		return trimFloat(av)
	case []string:
		sorted := make([]string, len(av))
		copy(sorted, av)
		sort.Strings(sorted)
		return strings.Join(sorted, ",")
	}
	return fmt.Sprintf("%v", a.value())
}
