package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	App   App
	HTTP  HTTP
	Mongo Mongo
	JWT   JWT
	Log   Log
	Redis Redis
	SMTP  SMTP
	CORS  CORS
}

type App struct {
	Env   string `env:"APP_ENV" env-default:"development"`
	Store string `env:"STORE" env-default:"mongo"`
}

type HTTP struct {
	Port            string        `env:"PORT" env-default:"5000"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type Mongo struct {
	URI            string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DB_NAME" env-default:"task-manager"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
}

type JWT struct {
	Secret    string        `env:"JWT_SECRET" env-required:"true"`
	ExpiresIn time.Duration `env:"JWT_EXPIRES_IN" env-default:"24h"`
	Issuer    string        `env:"JWT_ISSUER" env-default:"task-manager"`
}

type Log struct {
	File  string `env:"LOG_FILE" env-default:"logs/server.log"`
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

// Redis is optional; an empty Addr disables rate limiting.
type Redis struct {
	Addr      string        `env:"REDIS_ADDR"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB" env-default:"0"`
	AuthLimit int           `env:"AUTH_RATE_LIMIT" env-default:"20"`
	Window    time.Duration `env:"AUTH_RATE_WINDOW" env-default:"15m"`
}

// SMTP is optional; an empty Host disables welcome emails.
type SMTP struct {
	Host     string `env:"SMTP_HOST"`
	Port     string `env:"SMTP_PORT" env-default:"587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"EMAIL_FROM" env-default:"noreply@task-manager.local"`
}

type CORS struct {
	FrontendURL string `env:"FRONTEND_URL" env-default:"http://localhost:3000"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.App.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("APP_ENV must be one of development, production, test; got %q", c.App.Env)
	}
	switch c.App.Store {
	case "mongo", "memory":
	default:
		return fmt.Errorf("STORE must be mongo or memory; got %q", c.App.Store)
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

func (c *Config) Addr() string {
	return ":" + c.HTTP.Port
}
