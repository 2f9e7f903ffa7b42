package handler

import (
	"net/http"
	"strings"
	"time"

	"gnosislens-api/internal/exchangerate"
	"gnosislens-api/pkg/apierror"
	"gnosislens-api/pkg/response"
)

// RatesHandler exposes the current exchange-rate table.
type RatesHandler struct {
	provider *exchangerate.Provider
}

// NewRatesHandler creates a new rates handler.
func NewRatesHandler(provider *exchangerate.Provider) *RatesHandler {
	return &RatesHandler{provider: provider}
}

// RatesResponse is the table relative to Base.
type RatesResponse struct {
	Base      string              `json:"base"`
	Source    exchangerate.Source `json:"source"`
	FetchedAt time.Time           `json:"fetchedAt"`
	Rates     map[string]float64  `json:"rates"`
}

// Rates handles GET /api/rates?base=
func (h *RatesHandler) Rates(w http.ResponseWriter, r *http.Request) {
	base := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("base")))
	if base == "" {
		base = exchangerate.Base
	}

	snap, source := h.provider.Current(r.Context())
	if snap == nil {
		response.Error(w, apierror.ServiceUnavailable("Exchange rates are unavailable"))
		return
	}

	rates := snap.Rebase(base)
	if rates == nil {
		response.Error(w, apierror.ValidationError("Invalid request",
			apierror.FieldError{Field: "base", Message: "unknown currency " + base}))
		return
	}

	response.OK(w, RatesResponse{
		Base:      base,
		Source:    source,
		FetchedAt: snap.FetchedAt,
		Rates:     rates,
	})
}
