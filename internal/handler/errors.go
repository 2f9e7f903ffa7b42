package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"gnosislens-api/internal/analyzer"
	"gnosislens-api/internal/oracle"
	"gnosislens-api/internal/repository"
	"gnosislens-api/internal/service"
	"gnosislens-api/pkg/apierror"
	"gnosislens-api/pkg/response"
)

const maxBodyBytes = 64 << 10

// writeServiceError maps service and boundary errors onto API errors.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, toAPIError(r.Context(), err))
}

func toAPIError(ctx context.Context, err error) *apierror.Error {
	var (
		apiErr    *apierror.Error
		transport *oracle.TransportError
		parseErr  *analyzer.AnalysisParseError
		validErr  *service.ValidationError
	)
	log := zerolog.Ctx(ctx)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &validErr):
		return apierror.ValidationError("Invalid request", apierror.FieldError{Field: validErr.Field, Message: validErr.Message})
	case errors.As(err, &transport):
		log.Warn().Err(err).Int("oracle_status", transport.StatusCode).Msg("Oracle unavailable")
		return apierror.ServiceUnavailable("Could not analyze right now. The oracle is unreachable, please try again.")
	case errors.As(err, &parseErr):
		log.Warn().Err(err).Str("reason", parseErr.Reason).Msg("Oracle reply rejected")
		return apierror.AnalysisFailed("")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Msg("Request timed out")
		return apierror.ServiceUnavailable("The request timed out, please try again.")
	case errors.Is(err, service.ErrNoData):
		return apierror.NoData("No data recorded yet")
	case errors.Is(err, service.ErrInvalidCredentials):
		return apierror.Unauthorized("Invalid username or password")
	case errors.Is(err, service.ErrInvalidToken):
		return apierror.Unauthorized("Invalid or expired token")
	case errors.Is(err, service.ErrUserExists):
		return apierror.Conflict("Username or email already registered")
	case errors.Is(err, repository.ErrNotFound):
		return apierror.NotFound("")
	default:
		log.Error().Err(err).Msg("Unhandled error")
		return apierror.InternalError("")
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) *apierror.Error {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.BadRequest("request body is required")
		}
		return apierror.BadRequest("invalid request body")
	}
	return nil
}
