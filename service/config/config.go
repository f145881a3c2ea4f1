package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Environment keys read by Load.
const (
	KeyRPCURL     = "RPC_URL"
	KeyRPCTimeout = "RPC_TIMEOUT"
	KeyCommitment = "SOLANA_COMMITMENT"
	KeyLogLevel   = "LOG_LEVEL"
)

// DefaultTimeout bounds the signature lookup and transaction fetch together.
const DefaultTimeout = 30 * time.Second

// Config holds the runtime settings of one invocation. It is immutable once
// loaded.
type Config struct {
	// RPCURL is the Solana JSON-RPC endpoint. API keys may be embedded in it.
	RPCURL string

	// Timeout bounds the whole lookup and fetch round trip.
	Timeout time.Duration

	// Commitment is sent with both RPC calls when non-empty.
	Commitment string

	LogLevel string
}

// ConfigError reports missing or invalid configuration. Key names the first
// offending setting; Problems holds every problem found.
type ConfigError struct {
	Key      string
	Problems []error
}

func (e *ConfigError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return "configuration validation failed: " + strings.Join(msgs, "; ")
}

func (e *ConfigError) Unwrap() []error { return e.Problems }

var validCommitments = map[string]bool{
	"processed": true,
	"confirmed": true,
	"finalized": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load reads configuration from src and validates all fields.
// Every problem is collected before returning so one run reports them all.
func Load(src Source) (*Config, error) {
	cfg := &Config{}
	cerr := &ConfigError{}
	fail := func(key string, err error) {
		if cerr.Key == "" {
			cerr.Key = key
		}
		cerr.Problems = append(cerr.Problems, err)
	}

	cfg.RPCURL = strings.TrimSpace(getOrDefault(src, KeyRPCURL, ""))
	if cfg.RPCURL == "" {
		fail(KeyRPCURL, fmt.Errorf("Failed to retrieve %s from environment: not set", KeyRPCURL))
	} else if err := validateURL(cfg.RPCURL); err != nil {
		fail(KeyRPCURL, fmt.Errorf("%s: %w", KeyRPCURL, err))
	}

	timeout, err := parseDuration(src, KeyRPCTimeout, DefaultTimeout.String())
	if err != nil {
		fail(KeyRPCTimeout, err)
	} else if timeout <= 0 {
		fail(KeyRPCTimeout, fmt.Errorf("%s must be positive, got %v", KeyRPCTimeout, timeout))
	} else {
		cfg.Timeout = timeout
	}

	cfg.Commitment = strings.ToLower(getOrDefault(src, KeyCommitment, ""))
	if cfg.Commitment != "" && !validCommitments[cfg.Commitment] {
		fail(KeyCommitment, fmt.Errorf("%s: unknown commitment %q (want processed, confirmed or finalized)", KeyCommitment, cfg.Commitment))
	}

	cfg.LogLevel = strings.ToLower(getOrDefault(src, KeyLogLevel, "error"))
	if !validLogLevels[cfg.LogLevel] {
		fail(KeyLogLevel, fmt.Errorf("%s: unknown log level %q", KeyLogLevel, cfg.LogLevel))
	}

	if len(cerr.Problems) > 0 {
		return nil, cerr
	}
	return cfg, nil
}

// Endpoint returns the RPC host, suitable as a metrics label. Paths and
// query strings are dropped since providers put API keys there.
func (c *Config) Endpoint() string {
	u, err := url.Parse(c.RPCURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}

// getOrDefault returns the value of key in src or a default if not set.
func getOrDefault(src Source, key, defaultValue string) string {
	if src == nil {
		return defaultValue
	}
	if value, ok := src.Lookup(key); ok && value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from src or uses a default.
func parseDuration(src Source, key, defaultValue string) (time.Duration, error) {
	value := getOrDefault(src, key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}
