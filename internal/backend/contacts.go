package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/outreachhq/campaignd/internal/model"
)

const (
	pathContacts = "contacts"
	pathGroups   = "groups"
)

// SearchContacts queries the contact pool. Depending on the backend route
// the response is either a bare array or wrapped in {"contacts": [...]};
// both shapes are accepted.
func (c *Client) SearchContacts(ctx context.Context, f model.ContactFilter) ([]model.Contact, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}

	var raw json.RawMessage
	if err := c.getJSON(ctx, pathContacts, q, &raw); err != nil {
		return nil, err
	}
	return decodeContacts(raw)
}

func decodeContacts(raw json.RawMessage) ([]model.Contact, error) {
	var contacts []model.Contact
	if err := json.Unmarshal(raw, &contacts); err == nil {
		return contacts, nil
	}
	var wrapped struct {
		Contacts []model.Contact `json:"contacts"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &APIError{Stage: StageAfterRequest, Type: TypeJSONParse, Body: raw, Err: err}
	}
	return wrapped.Contacts, nil
}

// ListGroups fetches the pre-built contact groups.
func (c *Client) ListGroups(ctx context.Context) ([]model.Group, error) {
	var res struct {
		Groups []model.Group `json:"groups"`
	}
	if err := c.getJSON(ctx, pathGroups, nil, &res); err != nil {
		return nil, err
	}
	return res.Groups, nil
}
