package manager

import (
	"bytes"
	"fmt"
)

// noAnswerSentinel is emitted for visible questions that were left
// unanswered. The formatted document is hashed for summarization caching
// downstream, so the sentinel must stay fixed.
const noAnswerSentinel = "(no answer)"

// FormatDocument serializes the answer map into an ordered, human readable
// section/question/answer document. The walk follows template document
// order, not answer insertion order, so formatting the same inputs twice
// yields byte-identical output.
//
// Sections appear only when at least one of their visible questions was
// answered. Questions restricted to a non-patient mode are excluded: the
// document is the patient-facing summary handed to the summarization
// collaborator, while clinician-only annotations remain in the raw answer
// map for storage.
func FormatDocument(t *FormTemplate, answers map[string]Answer, vt *VisibleTree) string {
	visibleByIndex := make(map[int]*VisibleSection, len(vt.Sections))
	for _, vs := range vt.Sections {
		visibleByIndex[vs.SectionIndex] = vs
	}

	var b bytes.Buffer
	for i, se := range t.Sections {
		vs := visibleByIndex[i]
		if vs == nil {
			continue
		}

		lines := formatSection(vs, answerMap(answers))
		if lines == nil {
			continue
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "== %s ==\n", se.Title)
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// formatSection renders the lines for one section, or nil when no visible
// question in it was answered.
func formatSection(vs *VisibleSection, answers answerReader) []string {
	answered := false
	var lines []string

	for _, f := range vs.Fields {
		// clinician-only annotations are excluded from the patient-facing
		// document
		if f.Question.Mode != "" && f.Question.Mode != ModePatient {
			continue
		}

		label := f.Question.Label
		if f.isFollowup() {
			// preserve the parent context once the synthetic id is stripped
			// away: "Parent label (trigger), follow-up label"
			parentLabel := f.ParentFieldID
			if parent := vs.fieldByID(f.ParentFieldID); parent != nil {
				parentLabel = parent.Question.Label
			}
			label = fmt.Sprintf("%s (%s), %s", parentLabel, f.TriggerValue, f.Question.Label)
		}

		value := noAnswerSentinel
		if a, ok := answers.answer(f.FieldID); ok && a != nil && !a.isEmpty() {
			value = formatAnswerValue(a)
			answered = true
		}

		lines = append(lines, fmt.Sprintf("%s: %s", label, value))
	}

	if !answered {
		return nil
	}
	return lines
}

func (vs *VisibleSection) fieldByID(fieldID string) *VisibleField {
	for _, f := range vs.Fields {
		if f.FieldID == fieldID {
			return f
		}
	}
	return nil
}

// formatAnswerValue renders an answer value, falling back to a raw string
// coercion for shapes it cannot classify so formatting always completes.
func formatAnswerValue(a Answer) string {
	if s := a.formattedValue(); s != "" {
		return s
	}
	return fmt.Sprintf("%v", a.value())
}
