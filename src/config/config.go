// Package config centralizes the engine's environment-variable
// configuration. The teacher reads os.Getenv scattered across
// main.go and src/middleware; original_source/src/args.rs groups the
// same kind of settings (listen address, TLS paths, dumpfile) behind
// one Arguments struct with OME_-prefixed env fallbacks and constant
// defaults. This generalizes both into a single loader.
package config

import (
	"os"
	"strconv"
	"time"
)

const (
	defaultListenAddress   = "0.0.0.0"
	defaultPort            = "8080"
	defaultDumpfile        = "./dump.json"
	defaultShutdownTimeout = 10 * time.Second
)

// Config is the engine's full runtime configuration, assembled once at
// startup from the process environment.
type Config struct {
	ListenAddress string
	Port          string

	ForceNoTLS      bool
	CertificatePath string
	PrivateKeyPath  string

	KnownMarketsURL string
	ExternalBookURL string
	ExecutionerURL  string

	Dumpfile        string
	ShutdownTimeout time.Duration

	ExecutionQueueSize int
}

// Load reads configuration from the process environment, applying the
// same fallback-to-default pattern as original_source/src/args.rs.
func Load() Config {
	return Config{
		ListenAddress: getenv("OME_LISTEN_ADDRESS", defaultListenAddress),
		Port:          getenv("OME_LISTEN_PORT", defaultPort),

		ForceNoTLS:      os.Getenv("OME_FORCE_NO_TLS") == "1",
		CertificatePath: os.Getenv("OME_CERTIFICATE_PATH"),
		PrivateKeyPath:  os.Getenv("OME_PRIVATE_KEY_PATH"),

		KnownMarketsURL: os.Getenv("OME_KNOWN_MARKETS_URL"),
		ExternalBookURL: os.Getenv("OME_EXTERNAL_BOOK_URL"),
		ExecutionerURL:  os.Getenv("OME_EXECUTIONER_ADDRESS"),

		Dumpfile:        getenv("OME_DUMPFILE", defaultDumpfile),
		ShutdownTimeout: getDurationSeconds("OME_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeout),

		ExecutionQueueSize: getInt("OME_EXECUTION_QUEUE_SIZE", 1024),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getDurationSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Second
}
