// Static validation for Config values. Checks return a list of issues
// (errors and warnings) that callers can surface in the CLI or tests.
package config

import (
	"fmt"
	"strings"

	"usermigrate/internal/storage"
	"usermigrate/internal/transform"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Config.
//
// Path names the environment variable (or logical field) the finding refers
// to. Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the list is severity error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of the Config.
//
// It does not mutate the config. Callers decide whether to treat warnings as
// fatal or not.
func (c Config) Validate() []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "JOB_NAME",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	issues = append(issues, c.validateSource()...)
	issues = append(issues, c.validateTarget()...)
	issues = append(issues, c.validateRun()...)
	issues = append(issues, c.validateMetrics()...)

	return issues
}

func (c Config) validateSource() []Issue {
	var issues []Issue

	if c.FirebaseURL == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "FIREBASE_DATABASE_URL",
			Message:  "source database URL is required",
		})
	} else if !strings.HasPrefix(c.FirebaseURL, "http://") && !strings.HasPrefix(c.FirebaseURL, "https://") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "FIREBASE_DATABASE_URL",
			Message:  "must be an http(s) URL",
		})
	}

	if strings.TrimSpace(c.UsersPath) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "FIREBASE_USERS_PATH",
			Message:  "users path must not be empty",
		})
	}

	return issues
}

func (c Config) validateTarget() []Issue {
	var issues []Issue

	if c.DatabaseURL == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "DATABASE_URL",
			Message:  "target connection string is required",
		})
	}
	if strings.TrimSpace(c.TargetTable) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "TARGET_TABLE",
			Message:  "target table must not be empty",
		})
	}

	return issues
}

func (c Config) validateRun() []Issue {
	var issues []Issue

	switch c.Mode {
	case ModeProd, ModeDev:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "MODE",
			Message:  fmt.Sprintf("unknown mode %q (expected %q or %q)", c.Mode, ModeProd, ModeDev),
		})
	}

	if c.Mode == ModeDev && c.DevUserLimit <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "DEV_USER_LIMIT",
			Message:  "dev mode requires a positive record limit",
		})
	}

	switch storage.Mode(c.LoadMode) {
	case storage.ModeBulk, storage.ModePerRecord:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "LOAD_MODE",
			Message:  fmt.Sprintf("unknown load mode %q (expected %q or %q)", c.LoadMode, storage.ModeBulk, storage.ModePerRecord),
		})
	}

	if c.ChunkSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "CHUNK_SIZE",
			Message:  "non-positive chunk size; the loader default will be used",
		})
	}

	switch c.KeepPolicy {
	case transform.KeepFirst, transform.KeepLast, transform.KeepAll:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "KEEP_POLICY",
			Message:  fmt.Sprintf("unknown keep policy %q (expected first, last or all)", c.KeepPolicy),
		})
	}

	if c.RemoveDuplicates {
		if strings.TrimSpace(c.DedupKeyField) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "DEDUP_KEY_FIELD",
				Message:  "deduplication is enabled but no key field is set",
			})
		}
		if strings.TrimSpace(c.DedupOrderField) == "" && c.KeepPolicy != transform.KeepAll {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "DEDUP_ORDER_FIELD",
				Message:  "no order field set; duplicate groups will be kept in input order",
			})
		}
	}

	return issues
}

func (c Config) validateMetrics() []Issue {
	var issues []Issue

	switch c.MetricsBackend {
	case MetricsNone, MetricsPushgateway, MetricsDatadog:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "METRICS_BACKEND",
			Message:  fmt.Sprintf("unknown metrics backend %q (expected %q, %q or %q)", c.MetricsBackend, MetricsNone, MetricsPushgateway, MetricsDatadog),
		})
	}

	if c.MetricsBackend == MetricsPushgateway && strings.TrimSpace(c.PushgatewayURL) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "PUSHGATEWAY_URL",
			Message:  "pushgateway backend selected but no gateway URL set",
		})
	}

	if c.MetricsBackend == MetricsDatadog && strings.TrimSpace(c.DatadogAddr) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "DATADOG_ADDR",
			Message:  "datadog backend selected but no agent address set",
		})
	}

	return issues
}
