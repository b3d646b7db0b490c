package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	consul "github.com/hashicorp/consul/api"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"google.golang.org/grpc"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/limiter"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/notifier"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/tezrent-api/shared/auth"
	"github.com/vasapolrittideah/tezrent-api/shared/clock"
	"github.com/vasapolrittideah/tezrent-api/shared/mailer"
	"github.com/vasapolrittideah/tezrent-api/shared/security"
	"github.com/vasapolrittideah/tezrent-api/shared/utilities"
	"github.com/vasapolrittideah/tezrent-api/shared/validation"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is fine outside development.
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "auth-service").Logger()

	cfg := config.NewAuthServiceConfig(&logger)
	if cfg.IsDevelopment() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, &logger); err != nil {
		logger.Fatal().Err(err).Msg("auth-service stopped with error")
	}
	logger.Info().Msg("auth-service stopped")
}

func run(ctx context.Context, cfg *config.AuthServiceConfig, logger *zerolog.Logger) error {
	mongoClient, err := mongo.Connect(options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(cfg.Mongo.ConnectTimeout))
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()
	db := mongoClient.Database(cfg.Mongo.Database)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	clk := clock.New()
	codeGenerator, err := security.NewDigitCodeGenerator(cfg.OTP.Digits)
	if err != nil {
		return err
	}

	accountRepo := repository.NewAccountMongoRepository(ctx, logger, db)
	identityRepo := repository.NewIdentityMongoRepository(ctx, logger, db)
	sessionRepo := repository.NewSessionMongoRepository(ctx, logger, db)
	pendingRepo := repository.NewPendingRegistrationMongoRepository(ctx, logger, db, clk)

	var otpRepo repository.OTPCodeRepository
	switch cfg.OTP.LedgerBackend {
	case config.LedgerBackendRedis:
		otpRepo = repository.NewOTPCodeRedisRepository(redisClient, clk, codeGenerator, "otp", cfg.OTP.Retention)
	default:
		otpRepo = repository.NewOTPCodeMongoRepository(ctx, logger, db, clk, codeGenerator, cfg.OTP.Retention)
	}

	var codeNotifier notifier.Notifier
	switch cfg.Notifier {
	case config.NotifierLog:
		logger.Warn().Msg("one-time codes are written to the log instead of being emailed")
		codeNotifier = notifier.NewLogNotifier(logger)
	default:
		codeNotifier = notifier.NewEmailNotifier(
			mailer.NewMailer(logger),
			cfg.AppName,
			cfg.OTP.NotifyTimeout,
			map[model.OTPPurpose]time.Duration{
				model.OTPPurposeLogin:  cfg.OTP.LoginTTL,
				model.OTPPurposeSignup: cfg.OTP.SignupTTL,
			},
		)
	}

	issueLimiter := limiter.NewIssueLimiter(redisClient, limiter.Config{
		ResendInterval:     cfg.OTP.ResendInterval,
		MaxIssuesPerWindow: cfg.OTP.MaxIssuesPerWindow,
		Window:             cfg.OTP.IssueWindow,
	})

	validator := validation.New()
	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer, auth.WithTimeFunc(clk.Now))

	sessions := usecase.NewSessionIssuer(sessionRepo, jwtAuth, cfg.Token, clk)
	authUsecase := usecase.NewAuthUsecase(accountRepo, identityRepo, pendingRepo, sessions, validator, logger)
	accountUsecase := usecase.NewAccountUsecase(accountRepo, identityRepo, validator, logger)
	otpUsecase := usecase.NewOTPUsecase(
		accountRepo,
		identityRepo,
		pendingRepo,
		otpRepo,
		issueLimiter,
		codeNotifier,
		sessions,
		validator,
		clk,
		cfg,
		logger,
	)

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		Timeout:        cfg.Timeout,
		AuthUsecase:    authUsecase,
		OTPUsecase:     otpUsecase,
		AccountUsecase: accountUsecase,
		SessionIssuer:  sessions,
		HealthChecks: map[string]handler.HealthCheck{
			"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := utilities.RegisterHealthServer(grpcServer, cfg.Consul.ServiceName)

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.GRPCAddr).Msg("grpc health server listening")
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}()

	if cfg.Consul.Enabled {
		deregister, err := registerWithConsul(cfg)
		if err != nil {
			logger.Error().Err(err).Msg("consul registration failed")
		} else {
			defer func() {
				if err := deregister(); err != nil {
					logger.Warn().Err(err).Msg("failed to deregister from consul")
				}
			}()
		}
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stopServers(httpServer, grpcServer, logger)
		return err
	}

	healthServer.Shutdown()
	stopServers(httpServer, grpcServer, logger)
	return nil
}

func stopServers(httpServer *http.Server, grpcServer *grpc.Server, logger *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown")
	}
	grpcServer.GracefulStop()
}

func registerWithConsul(cfg *config.AuthServiceConfig) (func() error, error) {
	consulCfg := consul.DefaultConfig()
	consulCfg.Address = cfg.Consul.Addr
	client, err := consul.NewClient(consulCfg)
	if err != nil {
		return nil, err
	}

	serviceID := cfg.Consul.ServiceID
	if serviceID == "" {
		hostname, _ := os.Hostname()
		serviceID = cfg.Consul.ServiceName + "-" + hostname
	}

	_, httpPort, err := net.SplitHostPort(cfg.HTTPAddr)
	if err != nil {
		return nil, err
	}
	port, err := net.LookupPort("tcp", httpPort)
	if err != nil {
		return nil, err
	}

	return utilities.RegisterConsulService(client, utilities.ServiceRegistration{
		Name:     cfg.Consul.ServiceName,
		ID:       serviceID,
		Host:     cfg.Consul.ServiceHost,
		GRPCAddr: cfg.GRPCAddr,
		HTTPPort: port,
		Tags:     []string{"auth", strings.ToLower(cfg.Environment)},
	})
}
