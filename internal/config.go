package internal

import (
	"fmt"
	"time"
)

// ServerConfig configures cmd/server.
type ServerConfig struct {
	BufferSize        int           `env:"BUFFER_SIZE,default=256"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=1m"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	AuthTokenKey      string        `env:"AUTH_TOKEN_KEY,required=true"`
	GoogleClientID    string        `env:"GOOGLE_CLIENT_ID"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	MaxContentLength  int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	Host              string        `env:"HOST,default=0.0.0.0"`
	Port              int           `env:"PORT,default=8080"`
	DebugPort         int           `env:"DEBUG_PORT,default=8081"`
}

func (c ServerConfig) Validate() error {
	if len(c.AuthTokenKey) < 32 {
		return fmt.Errorf("AUTH_TOKEN_KEY must be at least 32 bytes, got %d", len(c.AuthTokenKey))
	}
	if c.MaxContentLength <= 0 {
		return fmt.Errorf("MAX_CONTENT_LENGTH must be positive, got %d", c.MaxContentLength)
	}
	if c.LimitMessages != nil && *c.LimitMessages <= 0 {
		return fmt.Errorf("LIMIT_MESSAGES must be positive, got %d", *c.LimitMessages)
	}
	return nil
}

// Provider names accepted by IDENTITY_PROVIDER.
const (
	ProviderGoogle   = "google"
	ProviderPassword = "password"
	ProviderGuest    = "guest"
)

// ClientConfig configures cmd/chat and the headless client.
type ClientConfig struct {
	ServerAddress      string        `env:"SERVER_ADDRESS,default=localhost:8080"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO"`
	LogFile            string        `env:"LOG_FILE,default=superchat.log"`
	BufferSize         int           `env:"BUFFER_SIZE,default=64"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval     time.Duration `env:"METRIC_INTERVAL,default=1m"`
	SignInTimeout      time.Duration `env:"SIGN_IN_TIMEOUT,default=2m"`
	IdentityProvider   string        `env:"IDENTITY_PROVIDER,default=password"`
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	Email              string        `env:"CHAT_EMAIL"`
	Password           string        `env:"CHAT_PASSWORD"`
	GuestName          string        `env:"GUEST_NAME,default=Guest"`
	GuestPhotoURL      string        `env:"GUEST_PHOTO_URL"`
	AuthTokenKey       string        `env:"AUTH_TOKEN_KEY"`
	AuthTokenDuration  time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
}

func (c ClientConfig) Validate() error {
	switch c.IdentityProvider {
	case ProviderGoogle:
		if c.GoogleClientID == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID is required with the google provider")
		}
	case ProviderPassword:
		if c.Email == "" || c.Password == "" {
			return fmt.Errorf("CHAT_EMAIL and CHAT_PASSWORD are required with the password provider")
		}
	case ProviderGuest:
		if c.AuthTokenKey == "" {
			return fmt.Errorf("AUTH_TOKEN_KEY is required with the guest provider")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.IdentityProvider)
	}
	return nil
}
