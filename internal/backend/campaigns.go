package backend

import (
	"context"
	"net/url"
	"strconv"

	"github.com/outreachhq/campaignd/internal/model"
)

const (
	pathCampaigns = "campaigns"
)

// StartResponse is the backend's answer to a start call. For manual
// campaigns the message is shown to the user verbatim.
type StartResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// CreateCampaign persists a new draft campaign and returns the stored record.
func (c *Client) CreateCampaign(ctx context.Context, req *model.CreateCampaignRequest) (*model.Campaign, error) {
	var res model.Campaign
	if err := c.postJSON(ctx, pathCampaigns, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListCampaigns fetches the campaigns owned by one module source.
func (c *Client) ListCampaigns(ctx context.Context, source string, f model.CampaignListFilter) ([]model.Campaign, error) {
	q := url.Values{}
	q.Set("source", source)
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}

	var res struct {
		Campaigns []model.Campaign `json:"campaigns"`
	}
	if err := c.getJSON(ctx, pathCampaigns, q, &res); err != nil {
		return nil, err
	}
	return res.Campaigns, nil
}

// StartCampaign asks the backend to start (or resume) a campaign. For manual
// campaigns the backend interprets this as "execute now".
func (c *Client) StartCampaign(ctx context.Context, id string) (*StartResponse, error) {
	var res StartResponse
	if err := c.postJSON(ctx, pathCampaigns+"/"+id+"/start", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PauseCampaign pauses an active campaign. The backend owns the status
// precondition; no state is checked client-side.
func (c *Client) PauseCampaign(ctx context.Context, id string) error {
	return c.postJSON(ctx, pathCampaigns+"/"+id+"/pause", nil, nil)
}

// DeleteCampaign removes a campaign. Irreversible.
func (c *Client) DeleteCampaign(ctx context.Context, id string) error {
	return c.deleteJSON(ctx, pathCampaigns+"/"+id)
}
