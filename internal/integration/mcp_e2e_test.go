//go:build integration || !unit

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	httpserver "mcp_gateway/internal/adapters/http_server"
	mcpserver "mcp_gateway/internal/adapters/mcp_server"
	"mcp_gateway/internal/domain"
	"mcp_gateway/internal/gateway"
	"mcp_gateway/internal/shared"
)

// ---------- helpers ----------

type memAudit struct {
	mu    sync.Mutex
	calls []domain.ToolCall
}

func (m *memAudit) RecordCall(_ context.Context, c domain.ToolCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append([]domain.ToolCall{c}, m.calls...)
	return nil
}

func (m *memAudit) ListRecentCalls(_ context.Context, srv string, limit int) ([]domain.ToolCall, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ToolCall
	for _, c := range m.calls {
		if c.Server == srv && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func baseConfig() shared.Config {
	return shared.Config{
		Transport:     shared.TransportStdio,
		VendorRPS:     50,
		VendorTimeout: 5 * time.Second,
		CacheTTL:      time.Minute,
	}
}

// rpc sends one JSON-RPC message and returns the marshalled response.
func rpc(t *testing.T, s *server.MCPServer, id int, method string, params any) gjson.Result {
	t.Helper()
	msg, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params})
	require.NoError(t, err)
	resp := s.HandleMessage(context.Background(), msg)
	require.NotNil(t, resp, method)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	out := gjson.ParseBytes(raw)
	require.False(t, out.Get("error").Exists(), "rpc error: %s", raw)
	return out.Get("result")
}

func initialize(t *testing.T, s *server.MCPServer) gjson.Result {
	return rpc(t, s, 1, "initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "e2e", "version": "1.0.0"},
	})
}

func callTool(t *testing.T, s *server.MCPServer, id int, name string, args map[string]any) (string, bool) {
	t.Helper()
	res := rpc(t, s, id, "tools/call", map[string]any{"name": name, "arguments": args})
	return res.Get("content.0.text").String(), res.Get("isError").Bool()
}

// ---------- fake vendors ----------

func fakeAmadeus(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.Form.Get("client_id") != "id" || r.Form.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"amadeusOAuth2Token","access_token":"tok-e2e","token_type":"Bearer","expires_in":1799}`))
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-e2e" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"status":401,"detail":"Access token invalid"}]}`))
			return
		}
		q := r.URL.Query()
		if q.Get("originLocationCode") != "MAD" || q.Get("destinationLocationCode") != "LHR" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{
		  "data": [{
		    "id": "1",
		    "numberOfBookableSeats": 4,
		    "itineraries": [{"duration": "PT2H15M", "segments": [
		      {"departure": {"iataCode": "MAD", "at": "2026-12-01T07:00:00"}, "arrival": {"iataCode": "LHR", "at": "2026-12-01T08:15:00"}, "carrierCode": "IB", "number": "3166"}
		    ]}],
		    "price": {"currency": "EUR", "total": "131.20", "grandTotal": "131.20"},
		    "travelerPricings": [{"fareDetailsBySegment": [{"cabin": "ECONOMY"}]}]
		  }],
		  "dictionaries": {"carriers": {"IB": "IBERIA"}}
		}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fakeCoralogix(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/dataprime/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer cx-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var body struct {
			Query    string         `json:"query"`
			Metadata map[string]any `json:"metadata"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "QUERY_SYNTAX_DATAPRIME", body.Metadata["syntax"])
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"queryId":{"queryId":"q-e2e"}}
{"result":{"results":[{"metadata":[{"key":"timestamp","value":"2026-10-19T08:00:00Z"},{"key":"severity","value":"5"}],"labels":[{"key":"applicationname","value":"checkout"},{"key":"subsystemname","value":"api"}],"userData":"{\"message\":\"payment declined\"}"}]}}
`))
	})
	mux.HandleFunc("/mgmt/openapi/v3/alert-defs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"alertDefs":[]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// ---------- tests ----------

func TestAmadeusMCP_EndToEnd(t *testing.T) {
	vendor := fakeAmadeus(t)
	cfg := baseConfig()
	cfg.AmadeusBaseURL = vendor.URL
	cfg.AmadeusClientID, cfg.AmadeusClientSecret = "id", "secret"

	audit := &memAudit{}
	deps := gateway.NoopDeps()
	deps.Audit = audit
	reg, err := gateway.NewAmadeus(cfg, deps)
	require.NoError(t, err)
	s := mcpserver.NewMCPServer(reg, gateway.Version)

	info := initialize(t, s)
	assert.Equal(t, "amadeus-mcp", info.Get("serverInfo.name").String())
	assert.True(t, info.Get("capabilities.tools").Exists())

	tools := rpc(t, s, 2, "tools/list", map[string]any{})
	assert.Len(t, tools.Get("tools").Array(), 16)
	assert.Equal(t, "object", tools.Get(`tools.#(name=="search_flights").inputSchema.type`).String())

	text, isErr := callTool(t, s, 3, "search_flights", map[string]any{
		"origin": "mad", "destination": "LHR", "departure_date": "2026-12-01",
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Found 1 flight offer for MAD → LHR on 2026-12-01:")
	assert.Contains(t, text, "1. Offer 1: 131.20 EUR (4 seats left), ECONOMY")
	assert.Contains(t, text, "IB3166 (IBERIA)")

	text, isErr = callTool(t, s, 4, "search_flights", map[string]any{
		"origin": "MAD", "destination": "LHR", "departure_date": "2026-12-01", "adults": 12,
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "Error: invalid arguments")

	text, isErr = callTool(t, s, 5, "no_such_tool", map[string]any{})
	assert.True(t, isErr)
	assert.Equal(t, `Error: unknown tool "no_such_tool"`, text)

	calls, err := audit.ListRecentCalls(context.Background(), "amadeus", 10)
	require.NoError(t, err)
	require.Len(t, calls, 3)
	assert.Equal(t, "search_flights", calls[2].Tool)
	assert.False(t, calls[2].IsError)
	assert.True(t, calls[1].IsError)
}

func TestAmadeusMCP_MissingCredentials(t *testing.T) {
	cfg := baseConfig()
	cfg.AmadeusBaseURL = fakeAmadeus(t).URL
	reg, err := gateway.NewAmadeus(cfg, gateway.NoopDeps())
	require.NoError(t, err)
	s := mcpserver.NewMCPServer(reg, gateway.Version)
	initialize(t, s)

	text, isErr := callTool(t, s, 2, "search_flights", map[string]any{
		"origin": "MAD", "destination": "LHR", "departure_date": "2026-12-01",
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "AMADEUS_CLIENT_ID")
}

func TestCoralogixMCP_EndToEnd(t *testing.T) {
	vendor := fakeCoralogix(t)
	cfg := baseConfig()
	cfg.CoralogixBaseURL = vendor.URL
	cfg.CoralogixAPIKey = "cx-key"

	reg, err := gateway.NewCoralogix(cfg, gateway.NoopDeps())
	require.NoError(t, err)
	s := mcpserver.NewMCPServer(reg, gateway.Version)
	initialize(t, s)

	tools := rpc(t, s, 2, "tools/list", map[string]any{})
	assert.Len(t, tools.Get("tools").Array(), 11)

	text, isErr := callTool(t, s, 3, "search_logs", map[string]any{"application": "checkout", "severity": "ERROR", "start_time": "1h"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "ERROR checkout/api: payment declined")

	text, isErr = callTool(t, s, 4, "list_alerts", nil)
	require.False(t, isErr, text)
	assert.Equal(t, "No alerts found.", text)
}

func TestHTTPTransport_AuditAndHealth(t *testing.T) {
	cfg := baseConfig()
	cfg.CoralogixBaseURL = fakeCoralogix(t).URL
	cfg.CoralogixAPIKey = "cx-key"

	audit := &memAudit{}
	deps := gateway.NoopDeps()
	deps.Audit = audit
	reg, err := gateway.NewCoralogix(cfg, deps)
	require.NoError(t, err)
	reg.Call(context.Background(), "list_alerts", nil)

	router := httpserver.New()
	router.MountHandlers(&httpserver.Handlers{
		Server: reg.Server(),
		MCP:    mcpserver.StreamableHandler(mcpserver.NewMCPServer(reg, gateway.Version)),
		Audit:  audit,
	})
	ts := httptest.NewServer(router.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/v1/audit/calls?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Server string `json:"server"`
		Calls  []struct {
			Tool string `json:"tool"`
		} `json:"calls"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "coralogix", page.Server)
	require.Len(t, page.Calls, 1)
	assert.Equal(t, "list_alerts", page.Calls[0].Tool)
}
