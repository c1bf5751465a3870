package model

import (
	"fmt"
	"strings"
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusActive    CampaignStatus = "active"
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed"
)

// CampaignType distinguishes on-demand campaigns from recurring ones.
type CampaignType string

const (
	TypeManual    CampaignType = "manual"
	TypeScheduled CampaignType = "scheduled"
)

// Campaign is an outbound engagement campaign as returned by the backend.
type Campaign struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Status           CampaignStatus    `json:"status"`
	Type             CampaignType      `json:"type"`
	Source           string            `json:"source"`
	CampaignGoalID   *string           `json:"campaign_goal_id"`
	Contacts         []string          `json:"contacts"`
	GroupIDs         []string          `json:"group_ids"`
	CallScript       string            `json:"call_script"`
	ScheduleTime     *time.Time        `json:"schedule_time"`
	ScheduleSettings *ScheduleSettings `json:"schedule_settings"`
	Settings         map[string]any    `json:"settings"`
	UserID           string            `json:"user_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// transitions holds the legal client-observable status moves. completed is
// terminal and only ever set by the backend.
var transitions = map[CampaignStatus][]CampaignStatus{
	StatusDraft:  {StatusActive},
	StatusActive: {StatusPaused, StatusCompleted},
	StatusPaused: {StatusActive, StatusCompleted},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to CampaignStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true once a campaign can no longer change state.
func (s CampaignStatus) IsTerminal() bool {
	return s == StatusCompleted
}

// Startable reports whether the start/resume action applies to the campaign.
func (c *Campaign) Startable() bool {
	return CanTransition(c.Status, StatusActive)
}

// Pausable reports whether the pause action applies to the campaign.
func (c *Campaign) Pausable() bool {
	return CanTransition(c.Status, StatusPaused)
}

// ValidationError is returned for preconditions that fail before any call
// to the backend is issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CreateCampaignRequest is the exact create payload sent to the backend.
// Status is always draft and Settings is always an empty object; both are
// set by NewCreateCampaignRequest rather than by callers.
type CreateCampaignRequest struct {
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Status           CampaignStatus    `json:"status"`
	Type             CampaignType      `json:"type"`
	Source           string            `json:"source"`
	CampaignGoalID   *string           `json:"campaign_goal_id"`
	Contacts         []string          `json:"contacts"`
	GroupIDs         []string          `json:"group_ids"`
	CallScript       string            `json:"call_script"`
	ScheduleTime     *time.Time        `json:"schedule_time"`
	ScheduleSettings *ScheduleSettings `json:"schedule_settings"`
	Settings         map[string]any    `json:"settings"`
}

// CampaignDraft is the caller-supplied portion of a new campaign. Source is
// injected by the owning module, never taken from the draft.
type CampaignDraft struct {
	Name             string
	Description      string
	Type             CampaignType
	CampaignGoalID   *string
	Contacts         []string
	GroupIDs         []string
	CallScript       string
	ScheduleTime     *time.Time
	ScheduleSettings *ScheduleSettings
}

// NewCreateCampaignRequest normalizes a draft into the wire payload. Contact
// ids are filtered once more here even when the caller already toggled them
// through a Selection; the upstream contact feed is known to contain partial
// records. Schedule fields are carried through as-is so that Validate can
// reject a manual draft that still carries one instead of dropping it.
func NewCreateCampaignRequest(source string, d CampaignDraft) (*CreateCampaignRequest, error) {
	req := &CreateCampaignRequest{
		Name:             strings.TrimSpace(d.Name),
		Description:      strings.TrimSpace(d.Description),
		Status:           StatusDraft,
		Type:             d.Type,
		Source:           source,
		CampaignGoalID:   d.CampaignGoalID,
		Contacts:         NormalizeContactIDs(d.Contacts),
		GroupIDs:         NormalizeContactIDs(d.GroupIDs),
		CallScript:       d.CallScript,
		ScheduleTime:     d.ScheduleTime,
		ScheduleSettings: d.ScheduleSettings,
		Settings:         map[string]any{},
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate enforces the creation preconditions. A request failing here must
// never reach the network.
func (r *CreateCampaignRequest) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(r.CallScript) == "" {
		return &ValidationError{Field: "call_script", Reason: "must not be empty"}
	}
	if len(r.Contacts) == 0 && len(r.GroupIDs) == 0 {
		return &ValidationError{Field: "targets", Reason: "select at least one contact or group"}
	}
	switch r.Type {
	case TypeManual:
		if r.ScheduleTime != nil || r.ScheduleSettings != nil {
			return &ValidationError{Field: "type", Reason: "manual campaigns cannot carry a schedule"}
		}
	case TypeScheduled:
		if r.ScheduleSettings == nil {
			return &ValidationError{Field: "schedule_settings", Reason: "required for scheduled campaigns"}
		}
		if err := r.ScheduleSettings.Validate(); err != nil {
			return err
		}
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown campaign type %q", r.Type)}
	}
	return nil
}

// CampaignListFilter narrows campaign listings.
type CampaignListFilter struct {
	Search string
	Status CampaignStatus
	Limit  int
	Offset int
}
