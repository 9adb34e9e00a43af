// Package config defines the run configuration for the migration job.
//
// A run is configured entirely through environment variables (a local .env
// file is loaded by the CLI before FromEnv is called). Decoding is performed
// by the standard library; validation is a separate pass that returns a list
// of issues rather than failing on the first one.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Run modes.
const (
	ModeProd = "prod"
	ModeDev  = "dev"
)

// Metrics backends.
const (
	MetricsNone        = "none"
	MetricsPushgateway = "pushgateway"
	MetricsDatadog     = "datadog"
)

// Config is the full configuration for one migration run.
type Config struct {
	// Job names the run; it is used for metrics labeling.
	Job string

	// Source settings.
	FirebaseURL   string        // Realtime Database root URL
	UsersPath     string        // node holding the user subtree, e.g. "Users"
	SourceTimeout time.Duration // per-request timeout

	// Target settings.
	DatabaseURL string // pgx connection string
	TargetTable string // e.g. "User_clone" or "public.users"

	// Run behavior.
	Mode             string // prod or dev
	DevUserLimit     int    // record cap applied in dev mode
	LoadMode         string // "bulk" or "per-record"
	ChunkSize        int    // rows per bulk chunk
	RemoveDuplicates bool
	KeepPolicy       string // dedup keep policy: first, last, all
	DedupKeyField    string // natural key used for dedup grouping
	DedupOrderField  string // ordering field for keep first/last

	// Export settings. Empty ExportDir disables snapshot files.
	ExportDir string

	// Metrics settings.
	MetricsBackend string
	PushgatewayURL string
	DatadogAddr    string // DogStatsD address, e.g. 127.0.0.1:8125
}

// FromEnv builds a Config from the environment, applying defaults for unset
// variables. It never fails; use Validate to surface misconfigurations.
func FromEnv() Config {
	return Config{
		Job:              envStr("JOB_NAME", "usermigrate"),
		FirebaseURL:      strings.TrimSpace(os.Getenv("FIREBASE_DATABASE_URL")),
		UsersPath:        envStr("FIREBASE_USERS_PATH", "Users"),
		SourceTimeout:    envDuration("SOURCE_TIMEOUT", 30*time.Second),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TargetTable:      envStr("TARGET_TABLE", "User_clone"),
		Mode:             strings.ToLower(envStr("MODE", ModeProd)),
		DevUserLimit:     envInt("DEV_USER_LIMIT", 1000),
		LoadMode:         strings.ToLower(envStr("LOAD_MODE", "bulk")),
		ChunkSize:        envInt("CHUNK_SIZE", 500),
		RemoveDuplicates: envBool("REMOVE_DUPLICATES", true),
		KeepPolicy:       strings.ToLower(envStr("KEEP_POLICY", "last")),
		DedupKeyField:    envStr("DEDUP_KEY_FIELD", "email"),
		DedupOrderField:  envStr("DEDUP_ORDER_FIELD", "createdAt"),
		ExportDir:        strings.TrimSpace(os.Getenv("EXPORT_DIR")),
		MetricsBackend:   strings.ToLower(envStr("METRICS_BACKEND", MetricsNone)),
		PushgatewayURL:   envStr("PUSHGATEWAY_URL", "http://localhost:9091"),
		DatadogAddr:      envStr("DATADOG_ADDR", "127.0.0.1:8125"),
	}
}

// DevLimit returns the record cap for this run: the configured dev limit in
// dev mode, zero (no cap) otherwise.
func (c Config) DevLimit() int {
	if c.Mode == ModeDev {
		return c.DevUserLimit
	}
	return 0
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
