package handler

import (
	"net/http"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
	authtypes "github.com/vasapolrittideah/tezrent-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/tezrent-api/shared/middleware"
)

func (h *httpHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext[*authtypes.JWTClaims](r.Context())
	if !ok {
		h.writeUsecaseError(w, r, usecase.ErrInvalidToken)
		return
	}

	profile, err := h.accountUsecase.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	resp := payload.NewAccountResponse(profile.Account)
	resp.Providers = profile.Providers
	writeJSON(w, http.StatusOK, resp)
}

func (h *httpHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext[*authtypes.JWTClaims](r.Context())
	if !ok {
		h.writeUsecaseError(w, r, usecase.ErrInvalidToken)
		return
	}

	var params usecase.SetPasswordParams
	if !decodeJSON(w, r, &params) {
		return
	}

	if err := h.accountUsecase.SetPassword(r.Context(), claims.UserID, params); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) LocationChoices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, payload.LocationChoicesResponse{
		Countries: model.Countries,
		Cities:    model.CitiesByCountry,
	})
}
