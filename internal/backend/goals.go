package backend

import (
	"context"
	"net/url"

	"github.com/outreachhq/campaignd/internal/model"
)

const pathGoals = "campaign-goals"

// CreateGoal persists a new goal under the request's source tag.
func (c *Client) CreateGoal(ctx context.Context, req *model.CreateGoalRequest) (*model.CampaignGoal, error) {
	var res model.CampaignGoal
	if err := c.postJSON(ctx, pathGoals, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListGoals fetches goals scoped to one module source. Ordering is whatever
// the backend returns; callers do not re-sort.
func (c *Client) ListGoals(ctx context.Context, source string) ([]model.CampaignGoal, error) {
	q := url.Values{}
	q.Set("source", source)

	var res struct {
		Goals []model.CampaignGoal `json:"goals"`
	}
	if err := c.getJSON(ctx, pathGoals, q, &res); err != nil {
		return nil, err
	}
	return res.Goals, nil
}
