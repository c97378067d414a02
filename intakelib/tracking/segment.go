// Package tracking provides a Segment backed implementation of the intake
// session tracking collaborator.
package tracking

import (
	analytics "github.com/segmentio/analytics-go"

	"github.com/carelane/intake/intakelib/manager"
	"github.com/carelane/intake/libs/golog"
)

type trackClient interface {
	Track(t *analytics.Track) error
}

// SegmentTracker forwards navigation and submission events to Segment.
// Events are informational; delivery failures are logged and dropped.
type SegmentTracker struct {
	client         trackClient
	userID         string
	organizationID string
}

// NewSegmentTracker returns a tracker that attributes events to the given
// user and organization.
func NewSegmentTracker(client *analytics.Client, userID, organizationID string) *SegmentTracker {
	return &SegmentTracker{
		client:         client,
		userID:         userID,
		organizationID: organizationID,
	}
}

func (t *SegmentTracker) StepChanged(stepIndex int, firstFieldID string, progressPercent int) {
	err := t.client.Track(&analytics.Track{
		Event:  "intake-step-viewed",
		UserId: t.userID,
		Properties: map[string]interface{}{
			"organization_id":  t.organizationID,
			"step_index":       stepIndex,
			"first_field_id":   firstFieldID,
			"progress_percent": progressPercent,
		},
	})
	if err != nil {
		golog.Warningf("tracking: failed to send step event: %s", err)
	}
}

func (t *SegmentTracker) SubmissionOutcome(outcome manager.SubmissionOutcome) {
	event := "intake-submission-succeeded"
	properties := map[string]interface{}{
		"organization_id": t.organizationID,
	}
	if outcome.Success {
		properties["entry_id"] = outcome.EntryID
	} else {
		event = "intake-submission-failed"
		if outcome.Err != nil {
			properties["error"] = outcome.Err.Error()
		}
	}

	err := t.client.Track(&analytics.Track{
		Event:      event,
		UserId:     t.userID,
		Properties: properties,
	})
	if err != nil {
		golog.Warningf("tracking: failed to send submission event: %s", err)
	}
}
