package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	testCases := []struct {
		name string
		from CampaignStatus
		to   CampaignStatus
		ok   bool
	}{
		{"draft starts", StatusDraft, StatusActive, true},
		{"active pauses", StatusActive, StatusPaused, true},
		{"paused resumes", StatusPaused, StatusActive, true},
		{"active completes", StatusActive, StatusCompleted, true},
		{"paused completes", StatusPaused, StatusCompleted, true},
		{"draft cannot pause", StatusDraft, StatusPaused, false},
		{"draft cannot complete", StatusDraft, StatusCompleted, false},
		{"completed is terminal", StatusCompleted, StatusActive, false},
		{"no self transition", StatusActive, StatusActive, false},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCampaignActionHelpers(t *testing.T) {
	draft := &Campaign{Status: StatusDraft}
	assert.True(t, draft.Startable())
	assert.False(t, draft.Pausable())

	active := &Campaign{Status: StatusActive}
	assert.False(t, active.Startable())
	assert.True(t, active.Pausable())

	done := &Campaign{Status: StatusCompleted}
	assert.False(t, done.Startable())
	assert.False(t, done.Pausable())
	assert.True(t, done.Status.IsTerminal())
}

func TestNewCreateCampaignRequest_validation(t *testing.T) {
	valid := CampaignDraft{
		Name:       "Spring Outreach",
		Type:       TypeManual,
		Contacts:   []string{"c-123"},
		CallScript: "Hi {name}",
	}

	testCases := []struct {
		name      string
		mutate    func(*CampaignDraft)
		wantField string
	}{
		{"empty name", func(d *CampaignDraft) { d.Name = "" }, "name"},
		{"whitespace name", func(d *CampaignDraft) { d.Name = "   " }, "name"},
		{"empty script", func(d *CampaignDraft) { d.CallScript = "" }, "call_script"},
		{"no targets", func(d *CampaignDraft) { d.Contacts = nil; d.GroupIDs = nil }, "targets"},
		{
			"only malformed contact ids",
			func(d *CampaignDraft) { d.Contacts = []string{"", "  "}; d.GroupIDs = nil },
			"targets",
		},
		{
			"manual with schedule",
			func(d *CampaignDraft) { d.ScheduleSettings = &ScheduleSettings{Frequency: FrequencyWeekly} },
			"type",
		},
		{
			"manual with schedule time",
			func(d *CampaignDraft) {
				at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
				d.ScheduleTime = &at
			},
			"type",
		},
		{
			"scheduled without settings",
			func(d *CampaignDraft) { d.Type = TypeScheduled },
			"schedule_settings",
		},
		{"unknown type", func(d *CampaignDraft) { d.Type = "oneshot" }, "type"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			req, err := NewCreateCampaignRequest("csm", d)
			require.Error(t, err)
			assert.Nil(t, req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestNewCreateCampaignRequest_manualPayload(t *testing.T) {
	req, err := NewCreateCampaignRequest("csm", CampaignDraft{
		Name:       "Spring Outreach",
		Type:       TypeManual,
		Contacts:   []string{"c-123"},
		CallScript: "Hi {name}",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, req.Status)
	assert.Equal(t, "csm", req.Source)
	assert.Equal(t, []string{"c-123"}, req.Contacts)
	assert.Empty(t, req.GroupIDs)
	assert.Nil(t, req.ScheduleTime)
	assert.Nil(t, req.ScheduleSettings)

	body, err := json.Marshal(req)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(body, &wire))
	assert.Equal(t, "draft", wire["status"])
	assert.Equal(t, "manual", wire["type"])
	assert.Equal(t, []any{"c-123"}, wire["contacts"])
	assert.Equal(t, []any{}, wire["group_ids"])
	assert.Nil(t, wire["schedule_time"])
	assert.Nil(t, wire["schedule_settings"])
	assert.Equal(t, map[string]any{}, wire["settings"])
}

func TestNewCreateCampaignRequest_scheduledPayload(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	req, err := NewCreateCampaignRequest("renewals", CampaignDraft{
		Name:         "Renewal reminders",
		Type:         TypeScheduled,
		GroupIDs:     []string{"g-1"},
		CallScript:   "Hello {name}, your plan renews soon.",
		ScheduleTime: &start,
		ScheduleSettings: &ScheduleSettings{
			Frequency:  FrequencyWeekly,
			StartTime:  "09:00",
			DaysOfWeek: []int{1, 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", string(req.Type))

	body, err := json.Marshal(req)
	require.NoError(t, err)

	var wire struct {
		ScheduleSettings map[string]any `json:"schedule_settings"`
	}
	require.NoError(t, json.Unmarshal(body, &wire))
	require.NotNil(t, wire.ScheduleSettings)
	assert.Equal(t, []any{float64(1), float64(3)}, wire.ScheduleSettings["days_of_week"])
	// No end_time was set, so it must not appear on the wire at all.
	_, hasEnd := wire.ScheduleSettings["end_time"]
	assert.False(t, hasEnd)
	assert.Equal(t, "UTC", wire.ScheduleSettings["timezone"])
}

func TestNewCreateCampaignRequest_filtersAndDedupes(t *testing.T) {
	req, err := NewCreateCampaignRequest("upsell", CampaignDraft{
		Name:       "Expansion",
		Type:       TypeManual,
		Contacts:   []string{"c-1", "", "  ", "c-2", "c-1"},
		GroupIDs:   []string{" g-9 ", ""},
		CallScript: "Hi",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1", "c-2"}, req.Contacts)
	assert.Equal(t, []string{"g-9"}, req.GroupIDs)
}
