package manager

import (
	"testing"

	"github.com/carelane/intake/libs/test"
)

func TestPartitionSteps(t *testing.T) {
	template := parseTemplate(t, visionIntakeJSON)

	// each visible section becomes one step; the hidden Habits section
	// contributes none
	vt := resolveVisibleTree(template, answerMap{}, ModePatient)
	steps := partitionSteps(vt)
	test.Equals(t, 2, len(steps))
	test.Equals(t, []string{"full_name", "visit_reason"}, steps[0].fieldIDs())
	test.Equals(t, "full_name", steps[0].firstFieldID())
	test.Equals(t, []string{"has_glasses"}, steps[1].fieldIDs())

	// answering the section condition adds a step at the end
	vt = resolveVisibleTree(template, answerMap{"visit_reason": TextAnswer("checkup")}, ModePatient)
	steps = partitionSteps(vt)
	test.Equals(t, 3, len(steps))
	test.Equals(t, "Habits", steps[2].Section.Title)
	test.Equals(t, []string{"screen_time", "symptoms"}, steps[2].fieldIDs())
}

func TestProgressPercent(t *testing.T) {
	test.Equals(t, 0, progressPercent(0, 0))
	test.Equals(t, 100, progressPercent(0, 1))
	test.Equals(t, 33, progressPercent(0, 3))
	test.Equals(t, 66, progressPercent(1, 3))
	test.Equals(t, 100, progressPercent(2, 3))

	// a step index past the end clamps rather than overflowing
	test.Equals(t, 100, progressPercent(5, 3))
}
