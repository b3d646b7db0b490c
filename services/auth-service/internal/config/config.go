package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

const (
	LedgerBackendMongo = "mongo"
	LedgerBackendRedis = "redis"

	NotifierSMTP = "smtp"
	NotifierLog  = "log"
)

// AuthServiceConfig holds the auth-service configuration read from the environment.
type AuthServiceConfig struct {
	Environment string        `env:"APP_ENV"          envDefault:"development"`
	AppName     string        `env:"APP_NAME"         envDefault:"TezRent"`
	LogLevel    string        `env:"LOG_LEVEL"        envDefault:"info"`
	HTTPAddr    string        `env:"AUTH_HTTP_ADDR"   envDefault:":8080"`
	GRPCAddr    string        `env:"AUTH_GRPC_ADDR"   envDefault:":9090"`
	Timeout     time.Duration `env:"AUTH_HTTP_TIMEOUT" envDefault:"15s"`
	Notifier    string        `env:"AUTH_NOTIFIER"    envDefault:"smtp"`

	PendingRegistrationTTL time.Duration `env:"PENDING_REGISTRATION_TTL" envDefault:"30m"`

	Mongo  MongoConfig  `envPrefix:"MONGO_"`
	Redis  RedisConfig  `envPrefix:"REDIS_"`
	Consul ConsulConfig `envPrefix:"CONSUL_"`
	Token  TokenConfig  `envPrefix:"TOKEN_"`
	OTP    OTPConfig    `envPrefix:"OTP_"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI            string        `env:"URI"             envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"DATABASE"        envDefault:"tezrent_auth"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"       envDefault:"0"`
}

// ConsulConfig controls service registration.
type ConsulConfig struct {
	Enabled     bool   `env:"ENABLED"      envDefault:"false"`
	Addr        string `env:"ADDR"         envDefault:"localhost:8500"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"auth-service"`
	ServiceID   string `env:"SERVICE_ID"`
	ServiceHost string `env:"SERVICE_HOST" envDefault:"localhost"`
}

// TokenConfig holds session token signing settings.
type TokenConfig struct {
	Issuer                string        `env:"ISSUER"                   envDefault:"tezrent"`
	Audience              string        `env:"AUDIENCE"                 envDefault:"tezrent-api"`
	AccessTokenSecret     string        `env:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiresIn  time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN"  envDefault:"15m"`
	RefreshTokenSecret    string        `env:"REFRESH_TOKEN_SECRET"`
	RefreshTokenExpiresIn time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"168h"`
}

// OTPConfig holds one-time code issuance settings.
type OTPConfig struct {
	Digits             int           `env:"DIGITS"                envDefault:"6"`
	LoginTTL           time.Duration `env:"LOGIN_TTL"             envDefault:"5m"`
	SignupTTL          time.Duration `env:"SIGNUP_TTL"            envDefault:"10m"`
	Retention          time.Duration `env:"RETENTION"             envDefault:"24h"`
	LedgerBackend      string        `env:"LEDGER_BACKEND"        envDefault:"mongo"`
	ResendInterval     time.Duration `env:"RESEND_INTERVAL"       envDefault:"60s"`
	MaxIssuesPerWindow int           `env:"MAX_ISSUES_PER_WINDOW" envDefault:"5"`
	IssueWindow        time.Duration `env:"ISSUE_WINDOW"          envDefault:"1h"`
	NotifyTimeout      time.Duration `env:"NOTIFY_TIMEOUT"        envDefault:"10s"`
}

// NewAuthServiceConfig parses and validates the configuration, exiting on failure.
func NewAuthServiceConfig(logger *zerolog.Logger) *AuthServiceConfig {
	cfg, err := Parse()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load auth-service configuration")
	}

	return cfg
}

// Parse reads the configuration from the environment and validates it.
func Parse() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *AuthServiceConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *AuthServiceConfig) validate() error {
	if c.Token.AccessTokenSecret == "" {
		return errors.New("missing TOKEN_ACCESS_TOKEN_SECRET environment variable")
	}
	if c.Token.RefreshTokenSecret == "" {
		return errors.New("missing TOKEN_REFRESH_TOKEN_SECRET environment variable")
	}
	if c.Token.AccessTokenSecret == c.Token.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.Token.AccessTokenExpiresIn <= 0 || c.Token.RefreshTokenExpiresIn <= 0 {
		return errors.New("token lifetimes must be positive")
	}

	if c.OTP.LoginTTL <= 0 || c.OTP.SignupTTL <= 0 {
		return errors.New("OTP TTLs must be positive")
	}
	if c.OTP.MaxIssuesPerWindow < 1 {
		return errors.New("OTP_MAX_ISSUES_PER_WINDOW must be at least 1")
	}
	if c.OTP.IssueWindow <= 0 {
		return errors.New("OTP_ISSUE_WINDOW must be positive")
	}
	if c.OTP.ResendInterval < 0 {
		return errors.New("OTP_RESEND_INTERVAL must not be negative")
	}
	switch c.OTP.LedgerBackend {
	case LedgerBackendMongo, LedgerBackendRedis:
	default:
		return fmt.Errorf("unsupported OTP_LEDGER_BACKEND %q", c.OTP.LedgerBackend)
	}

	switch c.Notifier {
	case NotifierSMTP:
	case NotifierLog:
		if !c.IsDevelopment() {
			return errors.New("AUTH_NOTIFIER=log is only allowed in development")
		}
	default:
		return fmt.Errorf("unsupported AUTH_NOTIFIER %q", c.Notifier)
	}

	if c.PendingRegistrationTTL < c.OTP.SignupTTL {
		return errors.New("PENDING_REGISTRATION_TTL must be at least OTP_SIGNUP_TTL")
	}

	return nil
}
