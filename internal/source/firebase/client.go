// Package firebase implements source.Source against the Realtime Database
// REST surface: GET {base}/{path}.json returns the whole subtree as JSON.
//
// The client stays a thin I/O wrapper. The only shaping it performs is what
// the store itself guarantees nothing about: it attaches the node key as
// id/uid, decodes {seconds,nanoseconds} maps into the timestamp wrapper, and
// applies the provider default (a record with no email belongs to the
// federated identity provider). Everything else is left raw for the
// transformer.
package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"usermigrate/internal/schema"
	"usermigrate/pkg/records"
)

// Config configures the Realtime Database client.
//
// Zero values get sensible defaults: Timeout 30s, MaxRetries 3,
// InitialBackoff 200ms.
type Config struct {
	// BaseURL is the database root, e.g. https://example.firebaseio.com.
	BaseURL string

	// Timeout is the per-request timeout at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int

	// InitialBackoff is the base backoff for the first retry; each
	// subsequent retry doubles it.
	InitialBackoff time.Duration

	// Limit caps the number of records FetchAll returns (dev runs).
	// Zero means no cap. Records are taken in key order so repeated dev
	// runs see the same subset.
	Limit int
}

// Client is a Realtime Database REST client.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	limit          int

	// sleep is injectable to make retry tests fast.
	sleep func(time.Duration)
}

// NewClient constructs a Client, applying defaults for zero values.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("firebase: base URL required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		limit:          cfg.Limit,
		sleep:          time.Sleep,
	}, nil
}

// FetchAll returns every record under path, keyed by node key. Non-object
// nodes are skipped; the store allows scalar leaves anywhere.
func (c *Client) FetchAll(ctx context.Context, path string) (map[string]records.Record, error) {
	body, err := c.get(ctx, c.nodeURL(path))
	if err != nil {
		return nil, err
	}

	var tree map[string]json.RawMessage
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("firebase: decode %s: %w", path, err)
	}

	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if c.limit > 0 && len(keys) > c.limit {
		keys = keys[:c.limit]
	}

	out := make(map[string]records.Record, len(keys))
	for _, uid := range keys {
		var raw map[string]any
		if err := json.Unmarshal(tree[uid], &raw); err != nil {
			continue
		}
		out[uid] = c.shape(uid, raw)
	}
	return out, nil
}

// FetchOne returns the record at path/id, or nil when the node is absent.
func (c *Client) FetchOne(ctx context.Context, path, id string) (records.Record, error) {
	body, err := c.get(ctx, c.nodeURL(path+"/"+id))
	if err != nil {
		return nil, err
	}
	if string(body) == "null" {
		return nil, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("firebase: decode %s/%s: %w", path, id, err)
	}
	return c.shape(id, raw), nil
}

// shape converts the decoded node into a Record, attaching identifiers and
// the provider/email defaults.
func (c *Client) shape(uid string, raw map[string]any) records.Record {
	rec := make(records.Record, len(raw)+3)
	for k, v := range raw {
		rec[k] = decodeValue(v)
	}
	if _, ok := rec["id"]; !ok {
		rec["id"] = uid
	}
	rec["uid"] = uid
	if _, ok := rec["provider"]; !ok {
		if s, _ := rec["email"].(string); s != "" {
			rec["provider"] = schema.DefaultProvider
		} else {
			rec["provider"] = schema.ProviderGoogle
		}
	}
	return rec
}

// decodeValue rewrites timestamp wrapper objects into records.Timestamp and
// recurses into containers. All other values pass through unchanged.
func decodeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if ts, ok := asTimestamp(t); ok {
			return ts
		}
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = decodeValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = decodeValue(vv)
		}
		return out
	default:
		return v
	}
}

func asTimestamp(m map[string]any) (records.Timestamp, bool) {
	sec, ok := m["seconds"].(float64)
	if !ok || len(m) > 2 {
		return records.Timestamp{}, false
	}
	ts := records.Timestamp{Seconds: int64(sec)}
	if ns, ok := m["nanoseconds"].(float64); ok {
		ts.Nanoseconds = int64(ns)
	} else if len(m) == 2 {
		return records.Timestamp{}, false
	}
	return ts, true
}

func (c *Client) nodeURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(segments, "/") + ".json"
}

// get performs a GET with exponential backoff on transient failures.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	backoff := c.initialBackoff
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			c.sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return body, nil
		}
		lastErr = fmt.Errorf("firebase: GET %s: %s", u, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors will not improve with retries.
			return nil, lastErr
		}
	}
	return nil, lastErr
}
