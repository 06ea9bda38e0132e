package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benchmarket/benchchat/internal/model/chat"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultPageSize     = 20
	DefaultHTTPTimeout  = 15 * time.Second
	MaxPageSize         = 100

	DefaultRateLimitRPS   = 5
	DefaultRateLimitBurst = 10
)

// Config aggregates the settings of both binaries.
type Config struct {
	Server ServerConfig
	Client ClientConfig
	Log    LogConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Client: client, Log: loadLogConfig()}, nil
}

// ServerConfig describes the reference backend listener.
type ServerConfig struct {
	Addr string
	// RateLimitRPS caps requests per second per caller; zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	rps := float64(DefaultRateLimitRPS)
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return ServerConfig{}, fmt.Errorf("invalid RATE_LIMIT_RPS value %q", raw)
		}
		rps = v
	}

	burst := DefaultRateLimitBurst
	if override, err := parseOptionalIntEnv("RATE_LIMIT_BURST"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		burst = clamp(*override, 1, 1000)
	}

	cfg := ServerConfig{RateLimitRPS: rps, RateLimitBurst: burst}

	if strings.Contains(port, ":") {
		// accept ":8080" or "127.0.0.1:8080" as is
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// ClientConfig describes how the chat client reaches the marketplace API
// and who it talks as.
type ClientConfig struct {
	BaseURL      string
	Token        string
	Identity     chat.Identity
	PollInterval time.Duration
	PageSize     int
	HTTPTimeout  time.Duration
	PushEnabled  bool
}

// Validate reports settings the chat client cannot run without.
func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("BENCH_API_URL is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid BENCH_API_URL value %q: %w", c.BaseURL, err)
	}
	if c.Token == "" {
		return fmt.Errorf("BENCH_API_TOKEN is required")
	}
	if c.Identity.CompanyID == "" && c.Identity.UserID == "" {
		return fmt.Errorf("BENCH_COMPANY_ID or BENCH_USER_ID is required")
	}
	return nil
}

func loadClientConfig() (ClientConfig, error) {
	poll, err := parseDurationEnv("CHAT_POLL_INTERVAL", DefaultPollInterval)
	if err != nil {
		return ClientConfig{}, err
	}
	if poll <= 0 {
		return ClientConfig{}, fmt.Errorf("invalid CHAT_POLL_INTERVAL value %q: must be positive", poll)
	}

	timeout, err := parseDurationEnv("CHAT_HTTP_TIMEOUT", DefaultHTTPTimeout)
	if err != nil {
		return ClientConfig{}, err
	}

	pageSize := DefaultPageSize
	if override, err := parseOptionalIntEnv("CHAT_PAGE_SIZE"); err != nil {
		return ClientConfig{}, err
	} else if override != nil {
		pageSize = clamp(*override, 1, MaxPageSize)
	}

	push, err := parseBoolEnv("CHAT_PUSH_ENABLED", false)
	if err != nil {
		return ClientConfig{}, err
	}

	return ClientConfig{
		BaseURL: strings.TrimRight(getEnvOrDefault("BENCH_API_URL", "http://localhost:8080"), "/"),
		Token:   strings.TrimSpace(os.Getenv("BENCH_API_TOKEN")),
		Identity: chat.Identity{
			UserID:      strings.TrimSpace(os.Getenv("BENCH_USER_ID")),
			UserName:    strings.TrimSpace(os.Getenv("BENCH_USER_NAME")),
			CompanyID:   strings.TrimSpace(os.Getenv("BENCH_COMPANY_ID")),
			CompanyName: strings.TrimSpace(os.Getenv("BENCH_COMPANY_NAME")),
		},
		PollInterval: poll,
		PageSize:     pageSize,
		HTTPTimeout:  timeout,
		PushEnabled:  push,
	}, nil
}

// LogConfig selects the zap level and sink. Output is a zap sink such as
// "stderr" or a file path.
type LogConfig struct {
	Level  string
	Output string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Output: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseDurationEnv accepts Go durations ("10s") or bare seconds ("10").
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}

	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	val, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return val, nil
}
