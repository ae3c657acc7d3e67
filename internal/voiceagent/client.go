package voiceagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"calldata-platform/internal/calls"
	"calldata-platform/internal/sources"
	"calldata-platform/internal/tenants"
)

type Config struct {
	BaseURL string
	// APIKey is used when a handle has no CredentialRef or the ref is not in Credentials.
	APIKey      string
	Credentials map[string]string

	RatePerSecond float64
	Burst         int

	PhoneRegion string
	HTTPClient  *http.Client
}

// Client is a sources.EventSource for the voice-agent provider's call log API.
type Client struct {
	base        *url.URL
	apiKey      string
	credentials map[string]string
	region      string
	http        *http.Client
	limiter     *TenantLimiter
}

var _ sources.EventSource = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("voiceagent: base url is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("voiceagent: parse base url: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	creds := make(map[string]string, len(cfg.Credentials))
	for k, v := range cfg.Credentials {
		creds[k] = v
	}
	return &Client{
		base:        u,
		apiKey:      cfg.APIKey,
		credentials: creds,
		region:      cfg.PhoneRegion,
		http:        hc,
		limiter:     NewTenantLimiter(cfg.RatePerSecond, cfg.Burst),
	}, nil
}

func (c *Client) credential(ref string) string {
	if ref != "" {
		if v, ok := c.credentials[ref]; ok {
			return v
		}
	}
	return c.apiKey
}

func (c *Client) FetchEvents(ctx context.Context, tenantID string, h tenants.EventSourceHandle, f sources.Filters) (sources.EventBatch, error) {
	if h.WorkflowID == "" {
		return sources.EventBatch{}, sources.Unavailable(sources.KindEvent, sources.ErrNotConfigured)
	}
	if err := c.limiter.Wait(ctx, tenantID); err != nil {
		return sources.EventBatch{}, sources.Unavailable(sources.KindEvent, fmt.Errorf("voiceagent: rate limit: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.callsURL(h.WorkflowID, f), nil)
	if err != nil {
		return sources.EventBatch{}, sources.Unavailable(sources.KindEvent, err)
	}
	req.Header.Set("Accept", "application/json")
	if key := c.credential(h.CredentialRef); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return sources.EventBatch{}, sources.Unavailable(sources.KindEvent, fmt.Errorf("voiceagent: list calls: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return sources.EventBatch{}, sources.Unavailable(sources.KindEvent,
			fmt.Errorf("voiceagent: list calls: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return sources.EventBatch{}, sources.Unavailable(sources.KindEvent, fmt.Errorf("voiceagent: decode calls: %w", err))
	}

	events := make([]calls.CallEvent, 0, len(body.Calls))
	for _, w := range body.Calls {
		if strings.TrimSpace(w.ID) == "" {
			continue
		}
		events = append(events, w.toEvent(tenantID, c.region))
	}
	return sources.EventBatch{
		// The provider treats query params as hints only.
		Events:    sources.FilterEvents(events, f),
		Analytics: body.Analytics.toAnalytics(),
	}, nil
}

func (c *Client) callsURL(workflowID string, f sources.Filters) string {
	u := *c.base
	u.Path = u.Path + "/v1/workflows/" + url.PathEscape(workflowID) + "/calls"
	q := url.Values{}
	if f.Phone != "" {
		q.Set("customer_number", f.Phone)
	}
	if !f.From.IsZero() {
		q.Set("from", f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.UTC().Format(time.RFC3339))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
