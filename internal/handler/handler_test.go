package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachhq/campaignd/internal/audit"
	"github.com/outreachhq/campaignd/internal/backend"
	"github.com/outreachhq/campaignd/internal/handler"
	"github.com/outreachhq/campaignd/internal/model"
	"github.com/outreachhq/campaignd/internal/service"
)

// fakeBackend is a minimal programmable backend for gateway tests.
type fakeBackend struct {
	calls     int
	createReq *model.CreateCampaignRequest
	goalReq   *model.CreateGoalRequest
	campaigns []model.Campaign
	startErr  error
	listErr   error
	deleteErr error
}

func (f *fakeBackend) CreateCampaign(_ context.Context, req *model.CreateCampaignRequest) (*model.Campaign, error) {
	f.calls++
	f.createReq = req
	return &model.Campaign{ID: "cmp-1", Name: req.Name, Status: req.Status, Type: req.Type, Source: req.Source}, nil
}

func (f *fakeBackend) ListCampaigns(context.Context, string, model.CampaignListFilter) ([]model.Campaign, error) {
	f.calls++
	return f.campaigns, f.listErr
}

func (f *fakeBackend) StartCampaign(context.Context, string) (*backend.StartResponse, error) {
	f.calls++
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &backend.StartResponse{Status: "started", Message: "Queued"}, nil
}

func (f *fakeBackend) PauseCampaign(context.Context, string) error {
	f.calls++
	return nil
}

func (f *fakeBackend) DeleteCampaign(context.Context, string) error {
	f.calls++
	return f.deleteErr
}

func (f *fakeBackend) CreateGoal(_ context.Context, req *model.CreateGoalRequest) (*model.CampaignGoal, error) {
	f.calls++
	f.goalReq = req
	return &model.CampaignGoal{ID: "goal-1", Name: req.Name, Source: req.Source}, nil
}

func (f *fakeBackend) ListGoals(context.Context, string) ([]model.CampaignGoal, error) {
	f.calls++
	return nil, nil
}

func (f *fakeBackend) SearchContacts(context.Context, model.ContactFilter) ([]model.Contact, error) {
	f.calls++
	return nil, nil
}

func (f *fakeBackend) ListGroups(context.Context) ([]model.Group, error) {
	f.calls++
	return nil, nil
}

func newServer(b *fakeBackend) *httptest.Server {
	svc := &service.CampaignService{Backend: b, Policy: service.DefaultPolicy()}
	h := handler.New(svc, nil)
	return httptest.NewServer(h.Routes())
}

func TestCreateCampaign_validationBlocksSubmission(t *testing.T) {
	b := &fakeBackend{}
	srv := newServer(b)
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{
		"name":        "",
		"type":        "manual",
		"call_script": "Hi",
		"contacts":    []string{"c-1"},
	})
	res, err := http.Post(srv.URL+"/api/modules/csm/campaigns", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, 0, b.calls)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Equal(t, "name", payload["field"])
}

func TestCreateCampaign_created(t *testing.T) {
	b := &fakeBackend{}
	srv := newServer(b)
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{
		"name":        "Spring Outreach",
		"type":        "manual",
		"call_script": "Hi {name}",
		"contacts":    []string{"c-123"},
	})
	res, err := http.Post(srv.URL+"/api/modules/csm/campaigns", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)

	var created model.Campaign
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.Equal(t, model.StatusDraft, created.Status)
	assert.Equal(t, "csm", created.Source)

	// Source is injected from the route, not the body.
	require.NotNil(t, b.createReq)
	assert.Equal(t, "csm", b.createReq.Source)
}

func TestStartCampaign_manualMaskedOverHTTP(t *testing.T) {
	b := &fakeBackend{startErr: assert.AnError}
	srv := newServer(b)
	defer srv.Close()

	body := bytes.NewReader([]byte(`{"type":"manual"}`))
	res, err := http.Post(srv.URL+"/api/modules/csm/campaigns/cmp-1/start", "application/json", body)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Equal(t, "started", payload["status"])
}

func TestStartCampaign_scheduledFailureSurfaces(t *testing.T) {
	b := &fakeBackend{startErr: assert.AnError}
	srv := newServer(b)
	defer srv.Close()

	body := bytes.NewReader([]byte(`{"type":"scheduled"}`))
	res, err := http.Post(srv.URL+"/api/modules/renewals/campaigns/cmp-1/start", "application/json", body)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
}

func TestStartCampaign_typeRequired(t *testing.T) {
	for _, body := range []string{"", "{}", `{"type":"oneshot"}`} {
		t.Run("body="+body, func(t *testing.T) {
			b := &fakeBackend{}
			srv := newServer(b)
			defer srv.Close()

			res, err := http.Post(srv.URL+"/api/modules/csm/campaigns/cmp-1/start",
				"application/json", strings.NewReader(body))
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			assert.Zero(t, b.calls)
		})
	}
}

func TestDeleteCampaign_confirmGate(t *testing.T) {
	b := &fakeBackend{}
	srv := newServer(b)
	defer srv.Close()

	client := srv.Client()

	// Without confirmation: refused, zero backend calls.
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/modules/csm/campaigns/cmp-1", nil)
	res, err := client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, 0, b.calls)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Equal(t, true, payload["confirm_required"])

	// With confirmation: deleted.
	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/modules/csm/campaigns/cmp-1?confirm=true", nil)
	res2, err := client.Do(req)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusNoContent, res2.StatusCode)
	assert.Equal(t, 1, b.calls)
}

func TestListCampaigns_decoratesAllowedActions(t *testing.T) {
	b := &fakeBackend{campaigns: []model.Campaign{
		{ID: "cmp-1", Status: model.StatusDraft},
		{ID: "cmp-2", Status: model.StatusActive},
		{ID: "cmp-3", Status: model.StatusCompleted},
	}}
	srv := newServer(b)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/modules/csm/campaigns")
	require.NoError(t, err)
	defer res.Body.Close()

	var payload struct {
		Campaigns []struct {
			ID       string `json:"id"`
			CanStart bool   `json:"can_start"`
			CanPause bool   `json:"can_pause"`
		} `json:"campaigns"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Len(t, payload.Campaigns, 3)
	assert.True(t, payload.Campaigns[0].CanStart)
	assert.False(t, payload.Campaigns[0].CanPause)
	assert.True(t, payload.Campaigns[1].CanPause)
	assert.False(t, payload.Campaigns[2].CanStart)
	assert.False(t, payload.Campaigns[2].CanPause)
}

func TestListCampaigns_degradesToEmptyOnError(t *testing.T) {
	b := &fakeBackend{listErr: assert.AnError}
	srv := newServer(b)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/modules/csm/campaigns")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var payload struct {
		Campaigns []any `json:"campaigns"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Empty(t, payload.Campaigns)
}

func TestCreateGoal_sourceFromRoute(t *testing.T) {
	b := &fakeBackend{}
	srv := newServer(b)
	defer srv.Close()

	// A source in the body must be ignored in favor of the route.
	body := bytes.NewReader([]byte(`{"name":"Retention","source":"spoofed"}`))
	res, err := http.Post(srv.URL+"/api/modules/upsell/goals", "application/json", body)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	require.NotNil(t, b.goalReq)
	assert.Equal(t, "upsell", b.goalReq.Source)
}

type fakeAuditReader struct {
	entries []audit.Entry
}

func (f *fakeAuditReader) Recent(_ context.Context, source string, _ int) ([]audit.Entry, error) {
	var out []audit.Entry
	for _, e := range f.entries {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestRecentAudit(t *testing.T) {
	svc := &service.CampaignService{Backend: &fakeBackend{}, Policy: service.DefaultPolicy()}
	h := handler.New(svc, nil)
	h.Audit = &fakeAuditReader{entries: []audit.Entry{
		{ID: "a-1", Operation: "delete", Source: "csm", Outcome: "ok"},
		{ID: "a-2", Operation: "start", Source: "renewals", Outcome: "masked_error"},
	}}
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/modules/csm/audit")
	require.NoError(t, err)
	defer res.Body.Close()

	var payload struct {
		Entries []audit.Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Len(t, payload.Entries, 1)
	assert.Equal(t, "delete", payload.Entries[0].Operation)
}

func TestHealthz(t *testing.T) {
	srv := newServer(&fakeBackend{})
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
