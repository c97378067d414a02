package manager

import "fmt"

// FindingKind classifies a schema problem detected at template load time.
type FindingKind string

const (
	FindingDuplicateID       FindingKind = "duplicate_id"
	FindingDanglingReference FindingKind = "dangling_reference"
	FindingForwardReference  FindingKind = "forward_reference"
	FindingCircularReference FindingKind = "circular_reference"
)

// SchemaFinding describes a schema problem. Findings never abort parsing;
// the implicated condition is degraded to never-satisfied instead.
type SchemaFinding struct {
	Kind    FindingKind
	UnitID  string
	RefID   string
	Message string
}

// depGraph is the explicit adjacency structure formed by show_if references
// across question ids. Conditions are only allowed to reference questions
// that occur earlier in document order, which also implies the graph is
// acyclic; both properties are checked here rather than assumed.
type depGraph struct {
	template *FormTemplate

	// edges maps a question id to the ids its condition depends on.
	edges map[string][]string

	degradedQuestions map[string]bool
	degradedSections  map[*Section]bool
	degradedFollowups map[*FollowupTemplate]bool
}

func newDepGraph(t *FormTemplate) *depGraph {
	g := &depGraph{
		template:          t,
		edges:             make(map[string][]string),
		degradedQuestions: make(map[string]bool),
		degradedSections:  make(map[*Section]bool),
		degradedFollowups: make(map[*FollowupTemplate]bool),
	}
	for _, se := range t.Sections {
		for _, q := range se.Questions {
			if q.cond != nil {
				g.edges[q.ID] = q.cond.questionIDs()
			}
		}
	}
	return g
}

func (g *depGraph) validate() []*SchemaFinding {
	var findings []*SchemaFinding

	// duplicate ids
	seen := make(map[string]bool)
	for _, se := range g.template.Sections {
		for _, q := range se.Questions {
			if seen[q.ID] {
				findings = append(findings, &SchemaFinding{
					Kind:    FindingDuplicateID,
					UnitID:  q.ID,
					Message: fmt.Sprintf("question id %q is defined more than once", q.ID),
				})
			}
			seen[q.ID] = true
		}
	}

	// dangling and forward references. A section's condition is positioned
	// at the document order of its first question for the forward check.
	order := 0
	for _, se := range g.template.Sections {
		if se.cond != nil {
			for _, refID := range se.cond.questionIDs() {
				if f := g.checkReference("section "+se.Title, refID, order); f != nil {
					findings = append(findings, f)
					g.degradedSections[se] = true
				}
			}
		}
		for _, q := range se.Questions {
			if q.cond != nil {
				for _, refID := range q.cond.questionIDs() {
					if f := g.checkReference(q.ID, refID, order); f != nil {
						findings = append(findings, f)
						g.degradedQuestions[q.ID] = true
					}
				}
			}
			// a follow-up materializes directly after its parent, so its
			// condition is positioned one slot later for the forward check
			// and may therefore reference the parent itself
			for _, tpl := range q.Followups {
				if tpl.Question.cond == nil {
					continue
				}
				unitID := "followup " + tpl.TemplateID + " of " + q.ID
				for _, refID := range tpl.Question.cond.questionIDs() {
					if f := g.checkReference(unitID, refID, order+1); f != nil {
						findings = append(findings, f)
						g.degradedFollowups[tpl] = true
					}
				}
			}
			order++
		}
	}

	// cycles. Forward references are already degraded, but a reference
	// chain routed through duplicated ids can still loop, so walk the
	// remaining edges explicitly.
	for _, f := range g.cycles() {
		findings = append(findings, f)
		g.degradedQuestions[f.UnitID] = true
	}

	return findings
}

func (g *depGraph) checkReference(unitID, refID string, unitOrder int) *SchemaFinding {
	refOrder, ok := g.template.orderIndex[refID]
	if !ok {
		return &SchemaFinding{
			Kind:    FindingDanglingReference,
			UnitID:  unitID,
			RefID:   refID,
			Message: fmt.Sprintf("%s references question %q which the template does not define", unitID, refID),
		}
	}
	if refOrder >= unitOrder {
		return &SchemaFinding{
			Kind:    FindingForwardReference,
			UnitID:  unitID,
			RefID:   refID,
			Message: fmt.Sprintf("%s references question %q which occurs later in document order", unitID, refID),
		}
	}
	return nil
}

func (g *depGraph) cycles() []*SchemaFinding {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)

	var findings []*SchemaFinding
	state := make(map[string]int, len(g.edges))

	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case inStack:
			return true
		case done:
			return false
		}
		state[id] = inStack
		for _, ref := range g.edges[id] {
			if g.degradedQuestions[id] {
				continue
			}
			if visit(ref) {
				findings = append(findings, &SchemaFinding{
					Kind:    FindingCircularReference,
					UnitID:  id,
					RefID:   ref,
					Message: fmt.Sprintf("condition reference cycle through %q and %q", id, ref),
				})
			}
		}
		state[id] = done
		return false
	}

	ids := make([]string, 0, len(g.edges))
	for _, se := range g.template.Sections {
		for _, q := range se.Questions {
			if _, ok := g.edges[q.ID]; ok {
				ids = append(ids, q.ID)
			}
		}
	}
	for _, id := range ids {
		visit(id)
	}

	return findings
}
