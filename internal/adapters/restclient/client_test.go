package restclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"mcp_gateway/internal/adapters/restclient"
	"mcp_gateway/internal/domain"
)

func newClient(t *testing.T, base string) *restclient.Client {
	t.Helper()
	cl, err := restclient.New(restclient.Options{Service: "test", BaseURL: base, RPS: 100}) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func TestClient_Do_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 123.0})
		}
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var got map[string]any
	if err := cl.Do(ctx, restclient.Request{Path: "/things/123", Endpoint: "/things/{id}"}, &got); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	id, ok := got["id"].(float64)
	if !ok || int(id) != 123 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Do_PostNotRetriedOn5xx(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(503)
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	err := cl.Do(context.Background(), restclient.Request{Method: http.MethodPost, Path: "/orders", Body: map[string]any{"a": 1}}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected exactly one attempt for non-idempotent POST, got %d", n)
	}
	var se *restclient.StatusError
	if !errors.As(err, &se) || se.Status != 503 {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if err.Error() != "test: bad status 503" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestClient_Do_404MapsToNotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl := newClient(t, ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := cl.Do(ctx, restclient.Request{Path: "/missing"}, nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var se *restclient.StatusError
	if !errors.As(err, &se) || se.Status != 404 {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
}

func TestClient_Do_ErrorDetailAndHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(401)
			_, _ = w.Write([]byte(`{"message":"bad key"}`))
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(415)
			return
		}
		w.WriteHeader(400)
		_, _ = w.Write([]byte(`{"message":"query is empty"}`))
	}))
	defer ts.Close()

	detail := func(b []byte) string {
		var m struct{ Message string }
		_ = json.Unmarshal(b, &m)
		return m.Message
	}

	cl, err := restclient.New(restclient.Options{
		Service: "cx", BaseURL: ts.URL, RPS: 100, ErrorDetail: detail,
		Authorize: func(ctx context.Context, req *http.Request) error {
			req.Header.Set("Authorization", "Bearer k")
			return nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err = cl.Do(context.Background(), restclient.Request{Method: http.MethodPost, Path: "/q", Body: map[string]string{}}, nil)
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if err.Error() != "cx: bad status 400: query is empty" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestClient_Do_AuthorizeErrorStopsBeforeNetwork(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	cl, _ := restclient.New(restclient.Options{
		Service: "x", BaseURL: ts.URL, RPS: 100,
		Authorize: func(context.Context, *http.Request) error { return domain.ErrMissingCredentials },
	})
	err := cl.Do(context.Background(), restclient.Request{Path: "/"}, nil)
	if !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestClient_DoRaw_NoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	b, err := cl.DoRaw(context.Background(), restclient.Request{Method: http.MethodDelete, Path: "/x/1"})
	if err != nil || b != nil {
		t.Fatalf("expected nil body and nil error, got %q %v", b, err)
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := restclient.New(restclient.Options{}); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}
