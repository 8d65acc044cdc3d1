package amadeus_test

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

	"mcp_gateway/internal/adapters/amadeus"
	"mcp_gateway/internal/domain"
)

type fakeAmadeus struct {
	tokenHits int32
	apiHits   int32
	lastQuery map[string]string
	lastBody  map[string]any
}

func (f *fakeAmadeus) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenHits, 1)
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(400)
			return
		}
		if r.Form.Get("client_id") != "id" || r.Form.Get("client_secret") != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(401)
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"Client credentials are invalid"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"amadeusOAuth2Token","access_token":"tok-1","token_type":"Bearer","expires_in":1799}`))
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.apiHits, 1)
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(401)
			return
		}
		f.lastQuery = map[string]string{}
		for k := range r.URL.Query() {
			f.lastQuery[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{map[string]any{"id": "1"}}})
	})
	mux.HandleFunc("/v1/booking/flight-orders/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.apiHits, 1)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(404)
		_, _ = w.Write([]byte(`{"errors":[{"status":404,"code":1797,"title":"NOT FOUND","detail":"order not found","source":{"parameter":"flight-orderId"}}]}`))
	})
	mux.HandleFunc("/v1/booking/hotel-bookings", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.apiHits, 1)
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{map[string]any{"id": "HB1", "providerConfirmationId": "PC1"}}})
	})
	return mux
}

func newClient(t *testing.T, base, id, secret string) *amadeus.Client {
	t.Helper()
	cl, err := amadeus.New(amadeus.Config{BaseURL: base, ClientID: id, ClientSecret: secret, RPS: 100, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return cl
}

func TestSearchFlightOffers_TokenReusedAcrossCalls(t *testing.T) {
	f := &fakeAmadeus{}
	ts := httptest.NewServer(f.handler())
	defer ts.Close()

	cl := newClient(t, ts.URL, "id", "secret")
	q := domain.FlightSearch{Origin: "MAD", Destination: "JFK", DepartureDate: "2026-12-01", Adults: 2, NonStop: true, Max: 5}

	for i := 0; i < 2; i++ {
		out, err := cl.SearchFlightOffers(context.Background(), q)
		require.NoError(t, err)
		assert.Len(t, out["data"], 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.tokenHits), "token should be cached")
	assert.Equal(t, "MAD", f.lastQuery["originLocationCode"])
	assert.Equal(t, "2", f.lastQuery["adults"])
	assert.Equal(t, "true", f.lastQuery["nonStop"])
	assert.Equal(t, "5", f.lastQuery["max"])
	_, hasReturn := f.lastQuery["returnDate"]
	assert.False(t, hasReturn)
}

func TestMissingCredentials_NoNetwork(t *testing.T) {
	f := &fakeAmadeus{}
	ts := httptest.NewServer(f.handler())
	defer ts.Close()

	cl := newClient(t, ts.URL, "", "")
	_, err := cl.SearchFlightOffers(context.Background(), domain.FlightSearch{Origin: "MAD", Destination: "JFK", DepartureDate: "2026-12-01"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingCredentials))
	assert.Zero(t, atomic.LoadInt32(&f.tokenHits))
	assert.Zero(t, atomic.LoadInt32(&f.apiHits))
}

func TestInvalidCredentials_ReportsTokenError(t *testing.T) {
	f := &fakeAmadeus{}
	ts := httptest.NewServer(f.handler())
	defer ts.Close()

	cl := newClient(t, ts.URL, "id", "wrong")
	_, err := cl.LookupAirlines(context.Background(), []string{"IB"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "obtain access token")
	assert.Zero(t, atomic.LoadInt32(&f.apiHits))
}

func TestTokenFetch_FollowsRequestContext(t *testing.T) {
	release := make(chan struct{})
	var apiHits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiHits, 1)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	defer close(release)

	cl, err := amadeus.New(amadeus.Config{BaseURL: ts.URL, ClientID: "id", ClientSecret: "secret", RPS: 100, Timeout: 30 * time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = cl.LookupAirlines(ctx, []string{"IB"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Zero(t, atomic.LoadInt32(&apiHits))
}

func TestGetFlightOrder_VendorErrorDetail(t *testing.T) {
	f := &fakeAmadeus{}
	ts := httptest.NewServer(f.handler())
	defer ts.Close()

	cl := newClient(t, ts.URL, "id", "secret")
	_, err := cl.GetFlightOrder(context.Background(), "eJzTd9f3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), "NOT FOUND: order not found (parameter flight-orderId)")

	require.NoError(t, cl.CancelFlightOrder(context.Background(), "eJzTd9f3"))
}

func TestBookHotel_BuildsPayload(t *testing.T) {
	f := &fakeAmadeus{}
	ts := httptest.NewServer(f.handler())
	defer ts.Close()

	cl := newClient(t, ts.URL, "id", "secret")
	out, err := cl.BookHotel(context.Background(), domain.HotelBooking{
		OfferID: "OFF1",
		Guests:  []domain.Guest{{Title: "MS", FirstName: "Ana", LastName: "Lopez", Phone: "+34600000000", Email: "ana@example.com"}},
		Card:    domain.PaymentCard{VendorCode: "VI", Number: "4151289722471370", ExpiryDate: "2027-08"},
	})
	require.NoError(t, err)
	assert.NotNil(t, out["data"])

	data := f.lastBody["data"].(map[string]any)
	assert.Equal(t, "OFF1", data["offerId"])
	guests := data["guests"].([]any)
	require.Len(t, guests, 1)
	name := guests[0].(map[string]any)["name"].(map[string]any)
	assert.Equal(t, "Lopez", name["lastName"])
}

func TestBaseURLFor(t *testing.T) {
	assert.Equal(t, amadeus.TestBaseURL, amadeus.BaseURLFor(""))
	assert.Equal(t, amadeus.TestBaseURL, amadeus.BaseURLFor("test"))
	assert.Equal(t, amadeus.ProductionBaseURL, amadeus.BaseURLFor("Production"))
}
