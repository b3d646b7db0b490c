package handler

import (
	"net/http"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
)

func (h *httpHandler) Login(w http.ResponseWriter, r *http.Request) {
	var params usecase.LoginParams
	if !decodeJSON(w, r, &params) {
		return
	}

	tokens, err := h.authUsecase.Login(r.Context(), params)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewTokenResponse(tokens))
}

func (h *httpHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params usecase.RegisterParams
	if !decodeJSON(w, r, &params) {
		return
	}

	result, err := h.authUsecase.Register(r.Context(), params)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.RegisterResponse{
		Account:       payload.NewAccountResponse(result.Account),
		TokenResponse: payload.NewTokenResponse(result.Tokens),
	})
}

func (h *httpHandler) RefreshTokens(w http.ResponseWriter, r *http.Request) {
	var params usecase.RefreshTokenParams
	if !decodeJSON(w, r, &params) {
		return
	}

	tokens, err := h.authUsecase.RefreshTokens(r.Context(), params)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewTokenResponse(tokens))
}

func (h *httpHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var params usecase.RefreshTokenParams
	if !decodeJSON(w, r, &params) {
		return
	}

	if err := h.authUsecase.Logout(r.Context(), params); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
