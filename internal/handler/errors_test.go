package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"gnosislens-api/internal/analyzer"
	"gnosislens-api/internal/oracle"
	"gnosislens-api/internal/repository"
	"gnosislens-api/internal/service"
	"gnosislens-api/pkg/apierror"
)

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"transport", fmt.Errorf("oracle: %w", &oracle.TransportError{StatusCode: 503}), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"parse", &analyzer.AnalysisParseError{Reason: "missing field"}, http.StatusBadGateway, "ANALYSIS_FAILED"},
		{"deadline", fmt.Errorf("analyze: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"no data", service.ErrNoData, http.StatusNotFound, "NO_DATA"},
		{"validation", &service.ValidationError{Field: "email", Message: "bad"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"token", service.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"duplicate", service.ErrUserExists, http.StatusConflict, "CONFLICT"},
		{"not found", repository.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"api error", apierror.BadRequest("nope"), http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAPIError(context.Background(), tt.err)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}

func TestValidationErrorNamesField(t *testing.T) {
	got := toAPIError(context.Background(), &service.ValidationError{Field: "password", Message: "too short"})
	if assert.Len(t, got.Details, 1) {
		assert.Equal(t, "password", got.Details[0].Field)
	}
}
