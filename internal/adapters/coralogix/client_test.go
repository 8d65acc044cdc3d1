package coralogix_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp_gateway/internal/adapters/coralogix"
	"mcp_gateway/internal/domain"
)

func newClient(t *testing.T, base, key string) *coralogix.Client {
	t.Helper()
	cl, err := coralogix.New(coralogix.Config{BaseURL: base, APIKey: key, RPS: 100, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return cl
}

func TestQuery_FoldsStream(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/dataprime/query", r.URL.Path)
		assert.Equal(t, "Bearer cx-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"queryId":{"queryId":"q-1"}}
{"warning":{"compileWarning":{"warningMessage":"keypath does not exist"}}}
{"result":{"results":[{"metadata":[{"key":"severity","value":"Error"}],"labels":[],"userData":"{\"message\":\"boom\"}"}]}}
{"result":{"results":[{"metadata":[],"labels":[],"userData":"{\"message\":\"second\"}"}]}}
`))
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL, "cx-key")
	start := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	res, err := cl.Query(context.Background(), domain.DataQuery{
		Query: "source logs | filter $m.severity == ERROR", Syntax: domain.SyntaxDataPrime,
		Tier: domain.TierFrequentSearch, Start: start, End: start.Add(time.Hour), Limit: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "q-1", res.QueryID)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, []string{"keypath does not exist"}, res.Warnings)

	meta := got["metadata"].(map[string]any)
	assert.Equal(t, "QUERY_SYNTAX_DATAPRIME", meta["syntax"])
	assert.Equal(t, "2026-10-01T10:00:00Z", meta["startDate"])
	assert.Equal(t, float64(50), meta["limit"])
}

func TestQuery_ErrorLineFailsQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"queryId":{"queryId":"q-2"}}
{"error":{"message":"Compilation error: unknown command 'fliter'","code":{"compileError":{}}}}
`))
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL, "k").Query(context.Background(), domain.DataQuery{Query: "source logs | fliter"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command 'fliter'")
}

func TestMissingAPIKey_NoNetwork(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL, "").ListAlerts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingCredentials))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestSetAlertActive_PathAndQuery(t *testing.T) {
	var path, active string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, active = r.URL.Path, r.URL.Query().Get("active")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	require.NoError(t, newClient(t, ts.URL, "k").SetAlertActive(context.Background(), "a-1", false))
	assert.Equal(t, "/mgmt/openapi/v3/alert-defs/a-1:setActive", path)
	assert.Equal(t, "false", active)
}

func TestGetDataUsage_FoldsEntries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("resolution"))
		_, _ = w.Write([]byte(`{"entries":[{"timestamp":"2026-10-01T00:00:00Z","sizeGb":1.5,"units":0.75}]}
{"entries":[{"timestamp":"2026-10-02T00:00:00Z","sizeGb":2,"units":1}]}
`))
	}))
	defer ts.Close()

	now := time.Now()
	entries, err := newClient(t, ts.URL, "k").GetDataUsage(context.Background(), domain.UsageQuery{From: now.Add(-48 * time.Hour), To: now, Resolution: "1d"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestErrorDetailMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
		_, _ = w.Write([]byte(`{"message":"API key lacks alerts:ReadConfig permission"}`))
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL, "k").GetAlert(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.Contains(t, err.Error(), "alerts:ReadConfig")
}

func TestBaseURLFor(t *testing.T) {
	cases := map[string]string{
		"":                          "https://api.coralogix.com",
		"EU2":                       "https://api.eu2.coralogix.com",
		"us2":                       "https://api.cx498.coralogix.com",
		"eu2.coralogix.com":         "https://api.eu2.coralogix.com",
		"https://api.coralogix.us/": "https://api.coralogix.us",
	}
	for in, want := range cases {
		assert.Equal(t, want, coralogix.BaseURLFor(in), in)
	}
}
