package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

type Config struct {
	Port           string        `env:"PORT,default=8000"`
	DatabaseURL    string        `env:"DATABASE_URL,default=sqlite:///./ajatuskumppani.db"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS,default=*"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,default=24h"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`

	ChatRateLimit float64 `env:"CHAT_RATE_LIMIT,default=5"`
	ChatRateBurst int     `env:"CHAT_RATE_BURST,default=10"`

	DefaultDailyLimit    int           `env:"DEFAULT_DAILY_LIMIT,default=100000"`
	NodeHeartbeatTimeout time.Duration `env:"NODE_HEARTBEAT_TIMEOUT,default=5m"`
	UsageResetSchedule   string        `env:"USAGE_RESET_SCHEDULE,default=@daily"`
	NodeSweepSchedule    string        `env:"NODE_SWEEP_SCHEDULE,default=@every 1m"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads an optional .env file and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}
	return cfg, nil
}

// Origins returns the CORS origins as a list.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
