package model

import (
	"strings"
	"time"
)

// CampaignGoal is a named category campaigns optionally attach to, scoped
// per business module by Source.
type CampaignGoal struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	ColorGradient string    `json:"color_gradient,omitempty"`
	Source        string    `json:"source"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateGoalRequest is the goal creation payload. Description carries
// omitempty so an empty description is dropped from the body entirely
// instead of being sent as "".
type CreateGoalRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source"`
}

// NewCreateGoalRequest trims inputs and injects the module source.
func NewCreateGoalRequest(source, name, description string) (*CreateGoalRequest, error) {
	req := &CreateGoalRequest{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Source:      source,
	}
	if req.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return req, nil
}

// ResolveGoal looks up a campaign's goal reference in a fetched goal list.
// Goals are deleted independently of their campaigns, so a campaign may hold
// a dangling id; that resolves to nil and renders as "no goal".
func ResolveGoal(goals []CampaignGoal, goalID *string) *CampaignGoal {
	if goalID == nil {
		return nil
	}
	for i := range goals {
		if goals[i].ID == *goalID {
			return &goals[i]
		}
	}
	return nil
}
