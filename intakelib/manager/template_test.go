package manager

import (
	"testing"

	"github.com/carelane/intake/libs/test"
)

// visionIntakeJSON is the template most tests in this package share: three
// sections covering an unconditional intro, a conditional follow-up chain
// and a conditionally shown section.
const visionIntakeJSON = `{
	"title": "Vision Intake",
	"sections": [{
		"title": "Patient",
		"questions": [{
			"question_id": "full_name",
			"label": "Full name",
			"type": "q_type_short_text",
			"required": true
		}, {
			"question_id": "visit_reason",
			"label": "Reason for your visit",
			"type": "q_type_single_choice",
			"required": true,
			"options": [
				{"value": "checkup", "label": "Routine checkup"},
				{"value": "emergency", "label": "Emergency"}
			]
		}]
	}, {
		"title": "Vision",
		"questions": [{
			"question_id": "has_glasses",
			"label": "Do you wear glasses?",
			"type": "q_type_single_choice",
			"required": true,
			"options": [
				{"value": "Yes", "label": "Yes"},
				{"value": "No", "label": "No"}
			],
			"followups": [{
				"template_id": "prescription_age",
				"trigger_value": "Yes",
				"label": "How old is your current prescription?",
				"type": "q_type_number",
				"required": true
			}]
		}, {
			"question_id": "glasses_type",
			"label": "What type of glasses?",
			"type": "q_type_dropdown",
			"show_if": {"op": "answer_equals", "question_id": "has_glasses", "value": "Yes"},
			"options": [
				{"value": "frames", "label": "Frames"},
				{"value": "contacts", "label": "Contact lenses"}
			]
		}, {
			"question_id": "clinician_notes",
			"label": "Clinician notes",
			"type": "q_type_long_text",
			"show_in_mode": "clinician"
		}]
	}, {
		"title": "Habits",
		"show_if": {"op": "answer_contains_any", "question_id": "visit_reason", "values": ["checkup"]},
		"questions": [{
			"question_id": "screen_time",
			"label": "Daily screen time in hours",
			"type": "q_type_number",
			"required": true
		}, {
			"question_id": "symptoms",
			"label": "Any of the following symptoms?",
			"type": "q_type_multi_choice",
			"options": [
				{"value": "headaches", "label": "Headaches"},
				{"value": "blurry_vision", "label": "Blurry vision"},
				{"value": "dry_eyes", "label": "Dry eyes"}
			]
		}]
	}]
}`

func parseTemplate(t *testing.T, data string) *FormTemplate {
	template, err := ParseTemplate([]byte(data))
	test.OK(t, err)
	return template
}

func TestParseTemplate(t *testing.T) {
	template := parseTemplate(t, visionIntakeJSON)

	test.Equals(t, "Vision Intake", template.Title)
	test.Equals(t, 3, len(template.Sections))
	test.Equals(t, 0, len(template.Findings()))

	q := template.Question("has_glasses")
	test.AssertNotNil(t, q)
	test.Equals(t, QuestionTypeSingleChoice, q.Type)
	test.Equals(t, 2, len(q.Options))
	test.Equals(t, 1, len(q.Followups))
	test.Equals(t, "prescription_age", q.Followups[0].TemplateID)
	test.Equals(t, "has_glasses", q.Followups[0].ParentQuestionID)
	test.Equals(t, "", q.Followups[0].Question.ID)

	// the fingerprint only tracks ids that can flip visibility: condition
	// references plus follow-up parents
	test.Equals(t, []string{"has_glasses", "visit_reason"}, template.referencedIDs)
}

func TestParseTemplate_malformed(t *testing.T) {
	// a question of a non-choice type cannot declare followups
	_, err := ParseTemplate([]byte(`{
		"title": "Broken",
		"sections": [{
			"title": "One",
			"questions": [{
				"question_id": "name",
				"label": "Name",
				"type": "q_type_short_text",
				"followups": [{
					"template_id": "f",
					"trigger_value": "x",
					"label": "F",
					"type": "q_type_short_text"
				}]
			}]
		}]
	}`))
	test.AssertNotNil(t, err)

	// followups cannot nest
	_, err = ParseTemplate([]byte(`{
		"title": "Broken",
		"sections": [{
			"title": "One",
			"questions": [{
				"question_id": "choice",
				"label": "Choice",
				"type": "q_type_single_choice",
				"options": [{"value": "a", "label": "A"}],
				"followups": [{
					"template_id": "outer",
					"trigger_value": "a",
					"label": "Outer",
					"type": "q_type_single_choice",
					"options": [{"value": "b", "label": "B"}],
					"followups": [{
						"template_id": "inner",
						"trigger_value": "b",
						"label": "Inner",
						"type": "q_type_short_text"
					}]
				}]
			}]
		}]
	}`))
	test.AssertNotNil(t, err)
}

func TestLint_danglingReference(t *testing.T) {
	template := parseTemplate(t, `{
		"title": "Dangling",
		"sections": [{
			"title": "One",
			"questions": [{
				"question_id": "ghost_hunter",
				"label": "Only shown for ghosts",
				"type": "q_type_short_text",
				"show_if": {"op": "answer_equals", "question_id": "ghost", "value": "boo"}
			}, {
				"question_id": "always",
				"label": "Always shown",
				"type": "q_type_short_text"
			}]
		}]
	}`)

	findings := template.Findings()
	test.Equals(t, 1, len(findings))
	test.Equals(t, FindingDanglingReference, findings[0].Kind)
	test.Equals(t, "ghost_hunter", findings[0].UnitID)
	test.Equals(t, "ghost", findings[0].RefID)

	// the implicated question degrades to hidden rather than failing the parse
	vt := resolveVisibleTree(template, answerMap{"ghost": TextAnswer("boo")}, ModePatient)
	test.Equals(t, []string{"always"}, vt.FieldIDs())
}

func TestLint_forwardReference(t *testing.T) {
	template := parseTemplate(t, `{
		"title": "Forward",
		"sections": [{
			"title": "One",
			"questions": [{
				"question_id": "early",
				"label": "Early",
				"type": "q_type_short_text",
				"show_if": {"op": "answer_equals", "question_id": "later", "value": "x"}
			}, {
				"question_id": "later",
				"label": "Later",
				"type": "q_type_short_text"
			}]
		}]
	}`)

	findings := template.Findings()
	test.Equals(t, 1, len(findings))
	test.Equals(t, FindingForwardReference, findings[0].Kind)
	test.Equals(t, "early", findings[0].UnitID)
	test.Equals(t, "later", findings[0].RefID)

	// even a satisfied forward reference stays hidden once degraded
	vt := resolveVisibleTree(template, answerMap{"later": TextAnswer("x")}, ModePatient)
	test.Equals(t, []string{"later"}, vt.FieldIDs())
}

func TestLint_duplicateIDAndCycle(t *testing.T) {
	// the second definition of "a" references "b" which references the first
	// "a", which is the only way a cycle survives the forward-reference check
	template := parseTemplate(t, `{
		"title": "Cycle",
		"sections": [{
			"title": "One",
			"questions": [{
				"question_id": "a",
				"label": "First a",
				"type": "q_type_short_text"
			}, {
				"question_id": "b",
				"label": "B",
				"type": "q_type_short_text",
				"show_if": {"op": "answer_equals", "question_id": "a", "value": "x"}
			}, {
				"question_id": "a",
				"label": "Second a",
				"type": "q_type_short_text",
				"show_if": {"op": "answer_equals", "question_id": "b", "value": "y"}
			}]
		}]
	}`)

	kinds := make(map[FindingKind]int)
	for _, f := range template.Findings() {
		kinds[f.Kind]++
	}
	test.Equals(t, 1, kinds[FindingDuplicateID])
	test.Equals(t, 1, kinds[FindingCircularReference])
}

func TestLint_followupReferences(t *testing.T) {
	template := parseTemplate(t, `{
		"title": "Followup Refs",
		"sections": [{
			"title": "One",
			"questions": [{
				"question_id": "picker",
				"label": "Pick one",
				"type": "q_type_single_choice",
				"options": [{"value": "a", "label": "A"}],
				"followups": [{
					"template_id": "self_ref",
					"trigger_value": "a",
					"label": "Asks about the parent",
					"type": "q_type_short_text",
					"show_if": {"op": "answer_equals", "question_id": "picker", "value": "a"}
				}, {
					"template_id": "ghost_ref",
					"trigger_value": "a",
					"label": "Asks about a ghost",
					"type": "q_type_short_text",
					"show_if": {"op": "answer_equals", "question_id": "ghost", "value": "x"}
				}, {
					"template_id": "forward_ref",
					"trigger_value": "a",
					"label": "Asks about a later question",
					"type": "q_type_short_text",
					"show_if": {"op": "answer_equals", "question_id": "later", "value": "x"}
				}]
			}, {
				"question_id": "later",
				"label": "Later",
				"type": "q_type_short_text"
			}]
		}]
	}`)

	// a follow-up referencing its own parent is fine; the ghost and forward
	// references are findings
	findings := template.Findings()
	test.Equals(t, 2, len(findings))
	test.Equals(t, FindingDanglingReference, findings[0].Kind)
	test.Equals(t, "followup ghost_ref of picker", findings[0].UnitID)
	test.Equals(t, "ghost", findings[0].RefID)
	test.Equals(t, FindingForwardReference, findings[1].Kind)
	test.Equals(t, "followup forward_ref of picker", findings[1].UnitID)
	test.Equals(t, "later", findings[1].RefID)

	// only the clean follow-up materializes; the degraded ones stay hidden
	// even when their references would be satisfied
	vt := resolveVisibleTree(template, answerMap{
		"picker": TextAnswer("a"),
		"ghost":  TextAnswer("x"),
		"later":  TextAnswer("x"),
	}, ModePatient)
	test.AssertNotNil(t, vt.Field(followupFieldID("picker", "a", "self_ref")))
	test.Assert(t, vt.Field(followupFieldID("picker", "a", "ghost_ref")) == nil,
		"expected the dangling-reference follow-up to stay hidden")
	test.Assert(t, vt.Field(followupFieldID("picker", "a", "forward_ref")) == nil,
		"expected the forward-reference follow-up to stay hidden")

	// degraded conditions contribute nothing to the fingerprint set; the
	// surviving follow-up condition references only the parent
	test.Equals(t, []string{"picker"}, template.referencedIDs)
}

func TestLint_sectionDanglingReference(t *testing.T) {
	template := parseTemplate(t, `{
		"title": "Section",
		"sections": [{
			"title": "Shown sometimes",
			"show_if": {"op": "answer_equals", "question_id": "missing", "value": "x"},
			"questions": [{
				"question_id": "inner",
				"label": "Inner",
				"type": "q_type_short_text"
			}]
		}]
	}`)

	findings := template.Findings()
	test.Equals(t, 1, len(findings))
	test.Equals(t, FindingDanglingReference, findings[0].Kind)

	// degraded section condition hides the whole section
	vt := resolveVisibleTree(template, answerMap{"missing": TextAnswer("x")}, ModePatient)
	test.Equals(t, 0, len(vt.Sections))
}
