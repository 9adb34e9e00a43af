// Package datadog emits migration metrics over DogStatsD. Counters map to
// Count metrics, step durations to Histograms, and labels to "key:value"
// tags. Only this package knows about the statsd wire client; everything
// else talks to metrics.Backend.
package datadog

import (
	"fmt"
	"sort"

	"github.com/DataDog/datadog-go/v5/statsd"

	"usermigrate/internal/metrics"
)

// Config holds the DogStatsD connection settings.
type Config struct {
	// Addr is the agent address, e.g. "127.0.0.1:8125" or a
	// "unix:///path/to/socket" endpoint.
	Addr string

	// Namespace prefixes every metric name, e.g. "usermigrate.".
	Namespace string

	// GlobalTags are attached to every metric, e.g. "service:usermigrate".
	GlobalTags []string
}

// statsClient is the slice of the statsd client the backend uses.
// *statsd.Client satisfies it.
type statsClient interface {
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Close() error
}

// Backend forwards metrics.Backend calls to a DogStatsD agent.
type Backend struct {
	client statsClient
}

// NewBackend opens a client against the agent at cfg.Addr. Namespace and
// global tags are fixed at construction and applied by the client to every
// metric it sends.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: agent address is required")
	}

	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}

	client, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: connect %s: %w", cfg.Addr, err)
	}
	return &Backend{client: client}, nil
}

// IncCounter sends a Count. DogStatsD counts are integral, so fractional
// deltas are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Count(name, int64(delta), tagsFor(labels), 1)
}

// ObserveHistogram sends a Histogram observation.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Histogram(name, value, tagsFor(labels), 1)
}

// Flush closes the client, draining anything still buffered. The process
// calls it once at shutdown.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// tagsFor renders labels as "key:value" tags in a stable order.
func tagsFor(labels metrics.Labels) []string {
	if len(labels) == 0 {
		return nil
	}
	tags := make([]string, 0, len(labels))
	for k, v := range labels {
		tags = append(tags, k+":"+v)
	}
	sort.Strings(tags)
	return tags
}
