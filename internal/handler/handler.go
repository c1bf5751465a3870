// Package handler exposes the shared campaign lifecycle over HTTP. One route
// tree is mounted under /api/modules/{source}, so csm, renewals, upsell,
// convention-activities and any custom workflow key all hit identical code.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/outreachhq/campaignd/internal/audit"
	"github.com/outreachhq/campaignd/internal/model"
	"github.com/outreachhq/campaignd/internal/service"
)

// AuditReader serves the mutation trail of one module source.
type AuditReader interface {
	Recent(ctx context.Context, source string, limit int) ([]audit.Entry, error)
}

// Handler holds the dependencies for the gateway endpoints.
type Handler struct {
	Service *service.CampaignService
	Audit   AuditReader // optional
	Log     *zap.Logger
}

func New(svc *service.CampaignService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: svc, Log: log}
}

// Routes builds the gateway router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/contacts", h.SearchContacts)
		r.Get("/groups", h.ListGroups)

		r.Route("/modules/{source}", func(r chi.Router) {
			r.Get("/campaigns", h.ListCampaigns)
			r.Post("/campaigns", h.CreateCampaign)
			r.Post("/campaigns/{id}/start", h.StartCampaign)
			r.Post("/campaigns/{id}/pause", h.PauseCampaign)
			r.Delete("/campaigns/{id}", h.DeleteCampaign)
			r.Get("/goals", h.ListGoals)
			r.Post("/goals", h.CreateGoal)
			r.Get("/audit", h.RecentAudit)
		})
	})

	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.Log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// campaignView decorates a campaign with the actions the lifecycle state
// machine currently allows, so module UIs enable/disable buttons uniformly.
type campaignView struct {
	model.Campaign
	CanStart bool `json:"can_start"`
	CanPause bool `json:"can_pause"`
}

// ListCampaigns lists the campaigns owned by the module source. A fetch
// failure degrades to an empty list with a logged error rather than a
// surfaced one.
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	f := model.CampaignListFilter{
		Search: r.URL.Query().Get("search"),
		Status: model.CampaignStatus(r.URL.Query().Get("status")),
		Limit:  intParam(r, "limit"),
		Offset: intParam(r, "offset"),
	}

	campaigns, err := h.Service.ListCampaigns(r.Context(), source, f)
	if err != nil {
		h.Log.Error("list campaigns failed", zap.String("source", source), zap.Error(err))
		campaigns = nil
	}

	views := make([]campaignView, 0, len(campaigns))
	for _, c := range campaigns {
		views = append(views, campaignView{
			Campaign: c,
			CanStart: c.Startable(),
			CanPause: c.Pausable(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": views})
}

type createCampaignBody struct {
	Name             string                  `json:"name"`
	Description      string                  `json:"description"`
	Type             model.CampaignType      `json:"type"`
	CampaignGoalID   *string                 `json:"campaign_goal_id"`
	Contacts         []string                `json:"contacts"`
	GroupIDs         []string                `json:"group_ids"`
	CallScript       string                  `json:"call_script"`
	ScheduleTime     *time.Time              `json:"schedule_time"`
	ScheduleSettings *model.ScheduleSettings `json:"schedule_settings"`
}

// CreateCampaign validates and creates a draft campaign for the module.
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	var body createCampaignBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Service.CreateCampaign(r.Context(), source, model.CampaignDraft{
		Name:             body.Name,
		Description:      body.Description,
		Type:             body.Type,
		CampaignGoalID:   body.CampaignGoalID,
		Contacts:         body.Contacts,
		GroupIDs:         body.GroupIDs,
		CallScript:       body.CallScript,
		ScheduleTime:     body.ScheduleTime,
		ScheduleSettings: body.ScheduleSettings,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type startCampaignBody struct {
	Type model.CampaignType `json:"type"`
}

// StartCampaign starts or resumes a campaign. The caller must state the
// campaign type; the manual-start reporting policy only applies when the
// caller explicitly asks for a manual start.
func (h *Handler) StartCampaign(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	id := chi.URLParam(r, "id")

	var body startCampaignBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch body.Type {
	case model.TypeManual, model.TypeScheduled:
	default:
		writeError(w, http.StatusBadRequest, "campaign type is required")
		return
	}

	res, err := h.Service.Start(r.Context(), source, id, body.Type)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "started",
		"message": res.Message,
	})
}

// PauseCampaign pauses a campaign; failures are surfaced truthfully.
func (h *Handler) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	id := chi.URLParam(r, "id")

	if err := h.Service.Pause(r.Context(), source, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// DeleteCampaign removes a campaign. The confirmation gate of the original
// dashboards maps to an explicit confirm=true parameter; without it the
// request is refused before any backend call.
func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	id := chi.URLParam(r, "id")
	confirmed := r.URL.Query().Get("confirm") == "true"

	err := h.Service.Delete(r.Context(), source, id, confirmed)
	if errors.Is(err, service.ErrNotConfirmed) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"confirm_required": true,
			"message":          "deleting a campaign is irreversible; repeat the request with confirm=true",
		})
		return
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListGoals lists the goals scoped to the module source.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	goals, err := h.Service.ListGoals(r.Context(), source)
	if err != nil {
		h.Log.Error("list goals failed", zap.String("source", source), zap.Error(err))
		goals = nil
	}
	if goals == nil {
		goals = []model.CampaignGoal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

type createGoalBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateGoal creates a goal under the module's source tag. The tag comes
// from the route, never from the body.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	var body createGoalBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	goal, err := h.Service.CreateGoal(r.Context(), source, body.Name, body.Description)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

// SearchContacts proxies contact search with its passthrough parameters.
func (h *Handler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	f := model.ContactFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  intParam(r, "limit"),
		Offset: intParam(r, "offset"),
	}

	contacts, err := h.Service.SearchContacts(r.Context(), f)
	if err != nil {
		h.Log.Error("contact search failed", zap.Error(err))
		contacts = nil
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

// ListGroups lists the contact groups.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.ListGroups(r.Context())
	if err != nil {
		h.Log.Error("list groups failed", zap.Error(err))
		groups = nil
	}
	if groups == nil {
		groups = []model.Group{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

// RecentAudit returns the latest mutation records for the module, newest
// first. Without an audit store the trail is simply empty.
func (h *Handler) RecentAudit(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	entries := []audit.Entry{}
	if h.Audit != nil {
		got, err := h.Audit.Recent(r.Context(), source, intParam(r, "limit"))
		if err != nil {
			h.Log.Error("audit read failed", zap.String("source", source), zap.Error(err))
		} else if got != nil {
			entries = got
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": verr.Reason,
			"field": verr.Field,
		})
		return
	}
	h.Log.Error("backend call failed", zap.Error(err))
	writeError(w, http.StatusBadGateway, "campaign backend request failed")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func intParam(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
