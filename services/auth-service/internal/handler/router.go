package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
	authtypes "github.com/vasapolrittideah/tezrent-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/tezrent-api/shared/middleware"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries everything the HTTP layer depends on.
type RouterConfig struct {
	Logger         *zerolog.Logger
	Timeout        time.Duration
	AuthUsecase    usecase.AuthUsecase
	OTPUsecase     usecase.OTPUsecase
	AccountUsecase usecase.AccountUsecase
	SessionIssuer  usecase.SessionIssuer
	HealthChecks   map[string]HealthCheck
}

type httpHandler struct {
	authUsecase    usecase.AuthUsecase
	otpUsecase     usecase.OTPUsecase
	accountUsecase usecase.AccountUsecase
	healthChecks   map[string]HealthCheck
}

// NewRouter builds the accounts HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	h := &httpHandler{
		authUsecase:    cfg.AuthUsecase,
		otpUsecase:     cfg.OTPUsecase,
		accountUsecase: cfg.AccountUsecase,
		healthChecks:   cfg.HealthChecks,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(hlog.NewHandler(*cfg.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimiddleware.Recoverer)
	if cfg.Timeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Timeout))
	}
	r.Use(clientInfo)

	bearer := middleware.NewJWTMiddleware[*authtypes.JWTClaims](cfg.SessionIssuer.VerifyAccessToken, h.unauthorized)

	r.Route("/api/accounts", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/location-choices", h.LocationChoices)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/token", h.Login)
			r.Post("/token/refresh", h.RefreshTokens)
			r.Post("/logout", h.Logout)
			r.Post("/register", h.Register)

			r.Post("/otp/request", h.RequestLoginOTP)
			r.Post("/otp/verify", h.VerifyLoginOTP)
			r.Post("/otp/signup-request", h.RequestSignupOTP)
			r.Post("/otp/signup-verify", h.VerifySignupOTP)

			r.Group(func(r chi.Router) {
				r.Use(bearer)
				r.Get("/me", h.Me)
				r.Post("/password", h.SetPassword)
			})
		})
	})

	return r
}

func clientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := usecase.WithClientInfo(r.Context(), r.RemoteAddr, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
