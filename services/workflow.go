package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"visadesk-backend/models"

	"github.com/google/uuid"
)

// Case stages in their usual order
const (
	StageIntake     = "intake"
	StageDocuments  = "documents"
	StageSubmitted  = "submitted"
	StageBiometrics = "biometrics"
	StageInterview  = "interview"
	StageDecision   = "decision"
	StageClosed     = "closed"
)

// TimelineExport is the file format of an exported case timeline
type TimelineExport struct {
	Reference  string                 `json:"reference"`
	VisaType   string                 `json:"visaType"`
	ExportedAt time.Time              `json:"exportedAt"`
	Events     []models.TimelineEvent `json:"events"`
}

func sortTimeline(events []models.TimelineEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
}

// CurrentStage is the stage of the latest event, or intake for an empty timeline
func CurrentStage(events []models.TimelineEvent) string {
	if len(events) == 0 {
		return StageIntake
	}
	return events[len(events)-1].Stage
}

func validateEvent(i int, ev models.TimelineEvent) error {
	if strings.TrimSpace(ev.Stage) == "" {
		return fmt.Errorf("%w: event %d has no stage", ErrInvalidTimeline, i)
	}
	if strings.TrimSpace(ev.Title) == "" {
		return fmt.Errorf("%w: event %d has no title", ErrInvalidTimeline, i)
	}
	if ev.OccurredAt.IsZero() {
		return fmt.Errorf("%w: event %d has no occurredAt", ErrInvalidTimeline, i)
	}
	return nil
}

// AppendEvent adds ev to the case timeline, keeping it ordered and the case stage current
func AppendEvent(c *models.Case, ev models.TimelineEvent, now time.Time) (models.TimelineEvent, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = now
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if err := validateEvent(len(c.Timeline), ev); err != nil {
		return ev, err
	}

	events := append([]models.TimelineEvent{}, c.Timeline...)
	events = append(events, ev)
	sortTimeline(events)

	c.Timeline = events
	c.Stage = CurrentStage(events)
	return ev, nil
}

// ExportTimeline serialises the case timeline for download
func ExportTimeline(c *models.Case, now time.Time) ([]byte, error) {
	events := c.Timeline
	if events == nil {
		events = []models.TimelineEvent{}
	}
	return json.MarshalIndent(TimelineExport{
		Reference:  c.Reference,
		VisaType:   c.VisaType,
		ExportedAt: now.UTC(),
		Events:     events,
	}, "", "  ")
}

// ImportTimeline parses an exported timeline, or a bare JSON array of events.
// Events are validated, given ids when missing and sorted by occurredAt.
func ImportTimeline(data []byte) ([]models.TimelineEvent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidTimeline)
	}

	var events []models.TimelineEvent
	if data[0] == '[' {
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTimeline, err)
		}
	} else {
		var export TimelineExport
		if err := json.Unmarshal(data, &export); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTimeline, err)
		}
		events = export.Events
	}

	if events == nil {
		events = []models.TimelineEvent{}
	}
	for i := range events {
		if err := validateEvent(i, events[i]); err != nil {
			return nil, err
		}
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
	}
	sortTimeline(events)
	return events, nil
}
