package handler

import (
	"net/http"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
)

func (h *httpHandler) RequestLoginOTP(w http.ResponseWriter, r *http.Request) {
	var params usecase.RequestLoginOTPParams
	if !decodeJSON(w, r, &params) {
		return
	}

	if err := h.otpUsecase.RequestLoginOTP(r.Context(), params); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, payload.AckResponse{Message: payload.LoginCodeAckMessage})
}

func (h *httpHandler) VerifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	var params usecase.VerifyOTPParams
	if !decodeJSON(w, r, &params) {
		return
	}

	tokens, err := h.otpUsecase.VerifyLoginOTP(r.Context(), params)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewTokenResponse(tokens))
}

func (h *httpHandler) RequestSignupOTP(w http.ResponseWriter, r *http.Request) {
	var params usecase.RequestSignupOTPParams
	if !decodeJSON(w, r, &params) {
		return
	}

	result, err := h.otpUsecase.RequestSignupOTP(r.Context(), params)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	resp := payload.SignupRequestResponse{
		Message:   payload.SignupCodeAckMessage,
		ExpiresAt: result.ExpiresAt,
	}
	if result.DeliveryFailed {
		resp.Delivery = payload.DeliveryFailed
	}

	writeJSON(w, http.StatusAccepted, resp)
}

func (h *httpHandler) VerifySignupOTP(w http.ResponseWriter, r *http.Request) {
	var params usecase.VerifyOTPParams
	if !decodeJSON(w, r, &params) {
		return
	}

	result, err := h.otpUsecase.VerifySignupOTP(r.Context(), params)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.RegisterResponse{
		Account:       payload.NewAccountResponse(result.Account),
		TokenResponse: payload.NewTokenResponse(result.Tokens),
	})
}
