package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-intelligence/internal/analytics"
	"github.com/ignite/campaign-intelligence/internal/domain"
	"github.com/ignite/campaign-intelligence/internal/pkg/httputil"
	"github.com/ignite/campaign-intelligence/internal/service/insights"
	"github.com/ignite/campaign-intelligence/internal/storage"
)

// InsightsService is the insights surface served over HTTP.
type InsightsService interface {
	ListCampaigns(ctx context.Context, orgID string, f insights.ListFilter) ([]domain.Campaign, int, error)
	ForecastCampaign(ctx context.Context, orgID, campaignID string, days int) (*analytics.CampaignForecast, error)
	ForecastOrganization(ctx context.Context, orgID string, days int) (*analytics.OrganizationForecast, error)
	ForecastDays() int
	AnalyzeCampaign(ctx context.Context, orgID, campaignID string) (*analytics.CampaignAnalysis, error)
	DecisionSupport(ctx context.Context, orgID, campaignID string, req analytics.DecisionRequest) (*analytics.DecisionResult, error)
	LearnOrganizationPatterns(ctx context.Context, orgID string) (*analytics.PatternReport, error)
	OptimalPostingTimes(ctx context.Context, orgID, platform string) (*analytics.PostingTimes, error)
	SimilarContent(ctx context.Context, orgID string, t domain.ReferenceType, id string, limit int) (*insights.SimilarResult, error)
	ContentForCampaign(ctx context.Context, orgID, campaignID string, limit int) (*insights.ContentResult, error)
}

// ReportHistory lists archived reports.
type ReportHistory interface {
	History(ctx context.Context, orgID string, kind storage.Kind, limit int) ([]storage.Entry, error)
}

// Handlers serves the insights API.
type Handlers struct {
	svc     InsightsService
	history ReportHistory
}

// NewHandlers creates the handlers. history may be nil, in which case the
// reports endpoint answers 404.
func NewHandlers(svc InsightsService, history ReportHistory) *Handlers {
	return &Handlers{svc: svc, history: history}
}

// Query limits.
const (
	defaultPageSize = 50
	maxPageSize     = 200
	maxResultLimit  = 100
	maxHistory      = 100
)

// writeError maps service errors onto HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, insights.ErrCampaignNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, insights.ErrReferenceNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, insights.ErrInvalidHorizon):
		httputil.Error(w, http.StatusBadRequest, "invalid_horizon", err.Error())
	case errors.Is(err, insights.ErrUnknownDecision):
		httputil.Error(w, http.StatusBadRequest, "unknown_decision", "Unknown decision type")
	default:
		httputil.InternalError(w, r, err)
	}
}

// respond writes v or maps err.
func respond[T any](w http.ResponseWriter, r *http.Request, v T, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, v)
}

// ListCampaigns handles GET /api/campaigns?status=&page=&limit=
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !domain.CampaignStatus(status).Valid() {
		httputil.BadRequest(w, "unknown status "+status)
		return
	}
	p := ParsePagination(r, defaultPageSize, maxPageSize)

	cs, total, err := h.svc.ListCampaigns(r.Context(), orgID(r), insights.ListFilter{
		Status: status, Limit: p.Limit, Offset: p.Offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cs == nil {
		cs = []domain.Campaign{}
	}
	httputil.OK(w, NewPaginatedResponse(cs, p, total))
}

// forecastDays reads ?days=, falling back to the service's configured
// horizon when absent.
func (h *Handlers) forecastDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	days, err := httputil.QueryInt(r, "days", h.svc.ForecastDays(), 1, insights.MaxHorizonDays)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid_horizon", err.Error())
		return 0, false
	}
	return days, true
}

// ForecastCampaign handles GET /api/campaigns/{id}/forecast?days=N
func (h *Handlers) ForecastCampaign(w http.ResponseWriter, r *http.Request) {
	days, ok := h.forecastDays(w, r)
	if !ok {
		return
	}
	f, err := h.svc.ForecastCampaign(r.Context(), orgID(r), chi.URLParam(r, "id"), days)
	respond(w, r, f, err)
}

// AnalyzeCampaign handles GET /api/campaigns/{id}/analysis
func (h *Handlers) AnalyzeCampaign(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.AnalyzeCampaign(r.Context(), orgID(r), chi.URLParam(r, "id"))
	respond(w, r, a, err)
}

// DecisionSupport handles POST /api/campaigns/{id}/decisions
func (h *Handlers) DecisionSupport(w http.ResponseWriter, r *http.Request) {
	var req analytics.DecisionRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.svc.DecisionSupport(r.Context(), orgID(r), chi.URLParam(r, "id"), req)
	respond(w, r, res, err)
}

// ContentRecommendations handles GET /api/campaigns/{id}/content-recommendations?limit=
func (h *Handlers) ContentRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", 0, 1, maxResultLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	res, err := h.svc.ContentForCampaign(r.Context(), orgID(r), chi.URLParam(r, "id"), limit)
	respond(w, r, res, err)
}

// ForecastOrganization handles GET /api/organization/forecast?days=N
func (h *Handlers) ForecastOrganization(w http.ResponseWriter, r *http.Request) {
	days, ok := h.forecastDays(w, r)
	if !ok {
		return
	}
	f, err := h.svc.ForecastOrganization(r.Context(), orgID(r), days)
	respond(w, r, f, err)
}

// Patterns handles GET /api/organization/patterns
func (h *Handlers) Patterns(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.LearnOrganizationPatterns(r.Context(), orgID(r))
	respond(w, r, p, err)
}

// PostingTimes handles GET /api/organization/posting-times?platform=
func (h *Handlers) PostingTimes(w http.ResponseWriter, r *http.Request) {
	pt, err := h.svc.OptimalPostingTimes(r.Context(), orgID(r), r.URL.Query().Get("platform"))
	respond(w, r, pt, err)
}

// SimilarContent handles GET /api/recommendations/similar?type=&id=&limit=
func (h *Handlers) SimilarContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, ok := domain.ParseReferenceType(q.Get("type"))
	if !ok {
		httputil.BadRequest(w, "type must be one of content, campaign, creative")
		return
	}
	id := q.Get("id")
	if id == "" {
		httputil.BadRequest(w, "id is required")
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0, 1, maxResultLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	res, err := h.svc.SimilarContent(r.Context(), orgID(r), t, id, limit)
	respond(w, r, res, err)
}

// ReportHistory handles GET /api/organization/reports?kind=&limit=
func (h *Handlers) ReportHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		httputil.NotFound(w, "report archive not configured")
		return
	}
	kind, ok := storage.ParseKind(r.URL.Query().Get("kind"))
	if !ok {
		httputil.BadRequest(w, "kind must be patterns or forecast")
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 20, 1, maxHistory)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	entries, err := h.history.History(r.Context(), orgID(r), kind, limit)
	if err != nil {
		httputil.InternalError(w, r, err)
		return
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	httputil.OK(w, map[string]interface{}{"reports": entries, "count": len(entries)})
}
