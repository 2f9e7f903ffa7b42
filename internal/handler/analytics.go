package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gnosislens-api/internal/middleware"
	"gnosislens-api/internal/model"
	"gnosislens-api/internal/service"
	"gnosislens-api/pkg/apierror"
	"gnosislens-api/pkg/response"
)

// AnalyticsHandler serves user, market and global statistics.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// UserAnalytics handles GET /api/user/analytics
func (h *AnalyticsHandler) UserAnalytics(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	stats, err := h.analytics.UserAnalytics(r.Context(), session.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, stats)
}

// History handles GET /api/user/history?limit=
func (h *AnalyticsHandler) History(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(w, apierror.ValidationError("Invalid request",
				apierror.FieldError{Field: "limit", Message: "must be a non-negative integer"}))
			return
		}
		limit = n
	}
	limit = service.ClampHistoryLimit(limit)

	records, err := h.analytics.History(r.Context(), session.UserID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSONWithMeta(w, http.StatusOK, records, limit, len(records))
}

// MarketPrices handles GET /api/market-prices/{country}?item=
func (h *AnalyticsHandler) MarketPrices(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	if country == "" {
		response.Error(w, apierror.BadRequest("country is required"))
		return
	}

	aggs, err := h.analytics.MarketPrices(r.Context(), country, r.URL.Query().Get("item"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, aggs)
}

// PriceStatistics handles GET /api/price-stats/{country}/{item}
func (h *AnalyticsHandler) PriceStatistics(w http.ResponseWriter, r *http.Request) {
	country, item := chi.URLParam(r, "country"), chi.URLParam(r, "item")

	stats, err := h.analytics.PriceStatistics(r.Context(), country, item)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, stats)
}

// GlobalStatsResponse separates "nothing recorded" from real statistics.
type GlobalStatsResponse struct {
	NoData bool                   `json:"noData"`
	Stats  *model.GlobalAnalytics `json:"stats,omitempty"`
}

// GlobalStats handles GET /api/global-stats
func (h *AnalyticsHandler) GlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.GlobalStats(r.Context())
	if errors.Is(err, service.ErrNoData) {
		response.OK(w, GlobalStatsResponse{NoData: true})
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, GlobalStatsResponse{Stats: stats})
}
