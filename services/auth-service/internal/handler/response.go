package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/limiter"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/tezrent-api/shared/validation"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	writeJSON(w, status, payload.ErrorResponse{
		Error: payload.ErrorBody{Code: code, Message: message, Fields: fields},
	})
}

// decodeJSON reads the request body into dst and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be a valid JSON object", nil)
		return false
	}

	return true
}

// writeUsecaseError maps usecase errors to HTTP responses.
func (h *httpHandler) writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrValidationFailed):
		var fields validation.FieldErrors
		errors.As(err, &fields)
		writeError(w, http.StatusBadRequest, "validation_failed", "request validation failed", fields)
	case errors.Is(err, usecase.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", nil)
	case errors.Is(err, usecase.ErrInvalidOrExpiredCode):
		writeError(w, http.StatusUnauthorized, "invalid_or_expired_code", "the code is invalid or has expired", nil)
	case errors.Is(err, usecase.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token", nil)
	case errors.Is(err, usecase.ErrAccountAlreadyExists):
		writeError(w, http.StatusConflict, "account_already_exists", "an account with this email or handle already exists", nil)
	case errors.Is(err, usecase.ErrRegistrationExpired):
		writeError(w, http.StatusGone, "registration_expired", "registration expired, request a new signup code", nil)
	case errors.Is(err, usecase.ErrRateLimited):
		if retryAfter := limiter.RetryAfter(err); retryAfter > 0 {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many code requests, try again later", nil)
	case errors.Is(err, usecase.ErrUnavailable):
		hlog.FromRequest(r).Error().Err(err).Msg("dependency unavailable")
		writeError(w, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable, try again", nil)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}

func (h *httpHandler) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Debug().Err(err).Msg("bearer authentication failed")
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token", nil)
}
