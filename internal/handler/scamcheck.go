package handler

import (
	"net/http"
	"strings"

	"gnosislens-api/internal/middleware"
	"gnosislens-api/internal/service"
	"gnosislens-api/pkg/apierror"
	"gnosislens-api/pkg/response"
)

// ScamCheckHandler serves purchase analysis.
type ScamCheckHandler struct {
	checks *service.ScamCheckService
}

// NewScamCheckHandler creates a new scam check handler.
func NewScamCheckHandler(checks *service.ScamCheckService) *ScamCheckHandler {
	return &ScamCheckHandler{checks: checks}
}

// ScamCheckRequest is the body of POST /api/scam-check.
type ScamCheckRequest struct {
	Text    string `json:"text"`
	Country string `json:"country"`
	City    string `json:"city"`
	// Currency is the caller's home currency. It defaults to the session's.
	Currency string `json:"currency"`
}

// Check handles POST /api/scam-check
func (h *ScamCheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req ScamCheckRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		response.Error(w, apierror.ValidationError("Invalid request",
			apierror.FieldError{Field: "text", Message: "describe what you bought and what you paid"}))
		return
	}

	session := middleware.SessionFromContext(r.Context())
	in := service.ScamCheckRequest{
		Text:         req.Text,
		Country:      req.Country,
		City:         req.City,
		HomeCurrency: strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	if session != nil {
		in.UserID = session.UserID
		in.DisplayName = session.DisplayName
		if in.HomeCurrency == "" {
			in.HomeCurrency = session.HomeCurrency
		}
	}

	result, err := h.checks.Check(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.OK(w, result)
}
