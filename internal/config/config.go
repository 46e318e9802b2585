package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is only acceptable for local development
const DefaultJWTSecret = "change-me-in-production"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Log        LogConfig        `mapstructure:"log"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Database    string `mapstructure:"database"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type AuthConfig struct {
	JWTSecret    string `mapstructure:"jwt_secret"`
	Issuer       string `mapstructure:"issuer"`
	SecureCookie bool   `mapstructure:"secure_cookie"`
}

// SummarizerConfig describes the upstream chat-completion provider.
// An empty APIKey leaves the summarizer unconfigured.
type SummarizerConfig struct {
	Name        string        `mapstructure:"name"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type JobsConfig struct {
	SessionCleanupSpec string `mapstructure:"session_cleanup_spec"`
}

// Addr returns the listen address for the HTTP server
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from an optional config file, .env and the environment
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(homeDir, ".notes"))
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFile reads configuration from an explicit path, with the same .env and
// environment overrides as Load
func LoadFile(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return unmarshal(v)
}

// loadDotEnv reads .env from the working directory without overriding variables already set
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", "http://localhost:3000,http://localhost:5173")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "notes")
	v.SetDefault("database.database", "notes")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)

	v.SetDefault("auth.jwt_secret", DefaultJWTSecret)
	v.SetDefault("auth.issuer", "notes")
	v.SetDefault("auth.secure_cookie", true)

	v.SetDefault("summarizer.name", "groq")
	v.SetDefault("summarizer.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("summarizer.model", "llama3-8b-8192")
	v.SetDefault("summarizer.temperature", 0.3)
	v.SetDefault("summarizer.max_tokens", 512)
	v.SetDefault("summarizer.timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("jobs.session_cleanup_spec", "@every 1h")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := loadEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) error {
	if host := os.Getenv("NOTES_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("NOTES_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid NOTES_PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}
	if origins := os.Getenv("NOTES_CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = origins
	}
	if secret := os.Getenv("NOTES_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if level := os.Getenv("NOTES_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if inMemory := os.Getenv("NOTES_IN_MEMORY"); inMemory != "" {
		useInMemory, err := strconv.ParseBool(inMemory)
		if err != nil {
			return fmt.Errorf("invalid NOTES_IN_MEMORY %q: %w", inMemory, err)
		}
		cfg.Database.UseInMemory = useInMemory
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		db, err := parseDatabaseURL(dbURL)
		if err != nil {
			return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		db.UseInMemory = cfg.Database.UseInMemory
		cfg.Database = db
	}
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	// GROQ_API_KEY is the name the hosted deployment has always used
	if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
		cfg.Summarizer.APIKey = apiKey
	}
	if apiKey := os.Getenv("SUMMARIZER_API_KEY"); apiKey != "" {
		cfg.Summarizer.APIKey = apiKey
	}
	if baseURL := os.Getenv("SUMMARIZER_BASE_URL"); baseURL != "" {
		cfg.Summarizer.BaseURL = baseURL
	}
	if model := os.Getenv("SUMMARIZER_MODEL"); model != "" {
		cfg.Summarizer.Model = model
	}
	if timeout := os.Getenv("SUMMARIZER_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid SUMMARIZER_TIMEOUT %q: %w", timeout, err)
		}
		cfg.Summarizer.Timeout = d
	}

	return nil
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return DatabaseConfig{}, fmt.Errorf("invalid port %q", u.Port())
		}
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}
