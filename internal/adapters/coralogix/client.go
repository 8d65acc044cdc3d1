// internal/adapters/coralogix/client.go
package coralogix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"mcp_gateway/internal/adapters/restclient"
	"mcp_gateway/internal/domain"
)

const DefaultDomain = "coralogix.com"

var regionDomains = map[string]string{
	"EU1": "coralogix.com",
	"EU2": "eu2.coralogix.com",
	"US1": "coralogix.us",
	"US2": "cx498.coralogix.com",
	"AP1": "coralogix.in",
	"AP2": "coralogixsg.com",
	"AP3": "ap3.coralogix.com",
}

// BaseURLFor resolves CORALOGIX_DOMAIN (a region alias such as EU2 or a
// domain such as eu2.coralogix.com) to the REST API host.
func BaseURLFor(d string) string {
	d = strings.TrimSpace(d)
	if d == "" {
		d = DefaultDomain
	}
	if mapped, ok := regionDomains[strings.ToUpper(d)]; ok {
		d = mapped
	}
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "api.")
	d = strings.TrimRight(d, "/")
	return "https://api." + d
}

type Config struct {
	BaseURL string
	APIKey  string
	RPS     int
	Timeout time.Duration
}

type Client struct {
	rc  *restclient.Client
	key func() (string, error)
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURLFor(DefaultDomain)
	}
	c := &Client{}
	c.key = sync.OnceValues(func() (string, error) {
		if cfg.APIKey == "" {
			return "", fmt.Errorf("coralogix: CORALOGIX_API_KEY must be set: %w", domain.ErrMissingCredentials)
		}
		return cfg.APIKey, nil
	})
	rc, err := restclient.New(restclient.Options{
		Service:     "coralogix",
		BaseURL:     cfg.BaseURL,
		RPS:         cfg.RPS,
		Timeout:     cfg.Timeout,
		Authorize:   c.authorize,
		ErrorDetail: errorDetail,
	})
	if err != nil {
		return nil, fmt.Errorf("coralogix: %w", err)
	}
	c.rc = rc
	return c, nil
}

func (c *Client) authorize(_ context.Context, req *http.Request) error {
	key, err := c.key()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	return nil
}

// ---- Logs ----

func (c *Client) Query(ctx context.Context, q domain.DataQuery) (domain.QueryResult, error) {
	meta := map[string]any{
		"syntax":        q.Syntax,
		"tier":          q.Tier,
		"defaultSource": "logs",
	}
	if !q.Start.IsZero() {
		meta["startDate"] = q.Start.UTC().Format(time.RFC3339)
	}
	if !q.End.IsZero() {
		meta["endDate"] = q.End.UTC().Format(time.RFC3339)
	}
	if q.Limit > 0 {
		meta["limit"] = q.Limit
	}
	body, err := c.rc.DoRaw(ctx, restclient.Request{
		Method:     http.MethodPost,
		Path:       "/api/v1/dataprime/query",
		Body:       map[string]any{"query": q.Query, "metadata": meta},
		Idempotent: true, // queries are reads
	})
	if err != nil {
		return domain.QueryResult{}, err
	}
	return foldQueryStream(body)
}

// ---- Alerts ----

const alertDefsPath = "/mgmt/openapi/v3/alert-defs"

func (c *Client) ListAlerts(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, alertDefsPath, "", nil)
}

func (c *Client) GetAlert(ctx context.Context, id string) (map[string]any, error) {
	return c.getMap(ctx, alertDefsPath+"/"+url.PathEscape(id), alertDefsPath+"/{id}", nil)
}

func (c *Client) SetAlertActive(ctx context.Context, id string, active bool) error {
	v := url.Values{}
	v.Set("active", strconv.FormatBool(active))
	return c.rc.Do(ctx, restclient.Request{
		Method:     http.MethodPost,
		Path:       alertDefsPath + "/" + url.PathEscape(id) + ":setActive",
		Endpoint:   alertDefsPath + "/{id}:setActive",
		Query:      v,
		Idempotent: true,
	}, nil)
}

// ---- Dashboards ----

func (c *Client) ListDashboards(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, "/mgmt/openapi/v1/dashboards/catalog", "", nil)
}

func (c *Client) GetDashboard(ctx context.Context, id string) (map[string]any, error) {
	return c.getMap(ctx, "/mgmt/openapi/v1/dashboards/dashboards/"+url.PathEscape(id), "/mgmt/openapi/v1/dashboards/dashboards/{id}", nil)
}

// ---- Enrichments ----

func (c *Client) ListEnrichments(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, "/api/v1/enrichments", "", nil)
}

func (c *Client) ListCustomEnrichments(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, "/api/v1/custom_enrichment", "", nil)
}

// ---- Usage & TCO ----

func (c *Client) GetDataUsage(ctx context.Context, q domain.UsageQuery) ([]map[string]any, error) {
	v := url.Values{}
	v.Set("dateRange.fromDate", q.From.UTC().Format(time.RFC3339))
	v.Set("dateRange.toDate", q.To.UTC().Format(time.RFC3339))
	if q.Resolution != "" {
		v.Set("resolution", q.Resolution)
	}
	if q.Aggregate != "" {
		v.Set("aggregate", q.Aggregate)
	}
	body, err := c.rc.DoRaw(ctx, restclient.Request{Path: "/api/v2/datausage", Query: v})
	if err != nil {
		return nil, err
	}
	return foldUsageStream(body)
}

func (c *Client) ListTCOPolicies(ctx context.Context, sourceType string) (map[string]any, error) {
	var v url.Values
	if sourceType != "" {
		v = url.Values{}
		v.Set("sourceType", sourceType)
	}
	return c.getMap(ctx, "/api/v1/policies", "", v)
}

// ---- Internals ----

func (c *Client) getMap(ctx context.Context, path, endpoint string, q url.Values) (map[string]any, error) {
	var out map[string]any
	err := c.rc.Do(ctx, restclient.Request{Path: path, Endpoint: endpoint, Query: q}, &out)
	return out, err
}

func errorDetail(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return strings.TrimSpace(string(body))
	}
	if env.Message != "" {
		return env.Message
	}
	switch e := env.Error.(type) {
	case string:
		return e
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	return strings.TrimSpace(string(body))
}
