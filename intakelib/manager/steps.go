package manager

// Step is one unit of multi-step navigation. The default partitioning
// policy maps each visible section to its own step, which is what scopes
// per-step validation.
type Step struct {
	Index   int
	Section *VisibleSection
}

// partitionSteps groups the visible sections of a tree into an ordered
// sequence of steps, one step per section.
func partitionSteps(vt *VisibleTree) []*Step {
	steps := make([]*Step, len(vt.Sections))
	for i, se := range vt.Sections {
		steps[i] = &Step{
			Index:   i,
			Section: se,
		}
	}
	return steps
}

// fieldIDs returns the flattened list of visible field ids belonging to the
// step, used to scope validation on navigation.
func (s *Step) fieldIDs() []string {
	ids := make([]string, len(s.Section.Fields))
	for i, f := range s.Section.Fields {
		ids[i] = f.FieldID
	}
	return ids
}

// firstFieldID returns the id of the first field of the step, or the empty
// string if the step has no fields.
func (s *Step) firstFieldID() string {
	if len(s.Section.Fields) == 0 {
		return ""
	}
	return s.Section.Fields[0].FieldID
}

// progressPercent returns the progress through the given number of steps
// once stepIndex is reached.
func progressPercent(stepIndex, stepCount int) int {
	if stepCount == 0 {
		return 0
	}
	if stepIndex >= stepCount {
		return 100
	}
	return ((stepIndex + 1) * 100) / stepCount
}
