// internal/adapters/amadeus/client.go
package amadeus

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

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"mcp_gateway/internal/adapters/restclient"
	"mcp_gateway/internal/domain"
)

const (
	TestBaseURL       = "https://test.api.amadeus.com"
	ProductionBaseURL = "https://api.amadeus.com"

	tokenPath = "/v1/security/oauth2/token"
)

// BaseURLFor maps AMADEUS_ENVIRONMENT to the API host.
func BaseURLFor(environment string) string {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "production", "prod", "live":
		return ProductionBaseURL
	}
	return TestBaseURL
}

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RPS          int
	Timeout      time.Duration
}

type Client struct {
	rc     *restclient.Client
	tokens func() (*tokenCache, error)
}

// tokenCache holds the current access token. Fetches run on the context of
// the request that needs the token, one at a time.
type tokenCache struct {
	mu  sync.Mutex
	cc  clientcredentials.Config
	hc  *http.Client
	tok *oauth2.Token
}

func (t *tokenCache) token(ctx context.Context) (*oauth2.Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tok.Valid() {
		return t.tok, nil
	}
	tok, err := t.cc.Token(context.WithValue(ctx, oauth2.HTTPClient, t.hc))
	if err != nil {
		return nil, err
	}
	t.tok = tok
	return tok, nil
}

// New builds the client without contacting the API. Credentials are checked
// and the token cache created on the first call.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = TestBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{}
	c.tokens = sync.OnceValues(func() (*tokenCache, error) {
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, fmt.Errorf("amadeus: AMADEUS_CLIENT_ID and AMADEUS_CLIENT_SECRET must be set: %w", domain.ErrMissingCredentials)
		}
		return &tokenCache{
			cc: clientcredentials.Config{
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				TokenURL:     strings.TrimRight(cfg.BaseURL, "/") + tokenPath,
				AuthStyle:    oauth2.AuthStyleInParams,
			},
			hc: &http.Client{Timeout: cfg.Timeout},
		}, nil
	})

	rc, err := restclient.New(restclient.Options{
		Service:     "amadeus",
		BaseURL:     cfg.BaseURL,
		RPS:         cfg.RPS,
		Timeout:     cfg.Timeout,
		Authorize:   c.authorize,
		ErrorDetail: errorDetail,
	})
	if err != nil {
		return nil, fmt.Errorf("amadeus: %w", err)
	}
	c.rc = rc
	return c, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	tc, err := c.tokens()
	if err != nil {
		return err
	}
	tok, err := tc.token(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("amadeus: obtain access token: %w", err)
	}
	tok.SetAuthHeader(req)
	return nil
}

// ---- Flights ----

func (c *Client) SearchFlightOffers(ctx context.Context, q domain.FlightSearch) (map[string]any, error) {
	v := url.Values{}
	v.Set("originLocationCode", q.Origin)
	v.Set("destinationLocationCode", q.Destination)
	v.Set("departureDate", q.DepartureDate)
	setStr(v, "returnDate", q.ReturnDate)
	v.Set("adults", strconv.Itoa(max(q.Adults, 1)))
	setInt(v, "children", q.Children)
	setInt(v, "infants", q.Infants)
	setStr(v, "travelClass", q.TravelClass)
	if q.NonStop {
		v.Set("nonStop", "true")
	}
	setStr(v, "currencyCode", q.Currency)
	setInt(v, "maxPrice", q.MaxPrice)
	setInt(v, "max", q.Max)
	return c.getMap(ctx, "/v2/shopping/flight-offers", "", v)
}

func (c *Client) PriceFlightOffer(ctx context.Context, offer map[string]any) (map[string]any, error) {
	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": []any{offer},
		},
	}
	var out map[string]any
	err := c.rc.Do(ctx, restclient.Request{
		Method:     http.MethodPost,
		Path:       "/v1/shopping/flight-offers/pricing",
		Body:       body,
		Idempotent: true, // pricing is a read
	}, &out)
	return out, err
}

func (c *Client) CreateFlightOrder(ctx context.Context, offer map[string]any, travelers []map[string]any) (map[string]any, error) {
	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-order",
			"flightOffers": []any{offer},
			"travelers":    travelers,
		},
	}
	var out map[string]any
	err := c.rc.Do(ctx, restclient.Request{Method: http.MethodPost, Path: "/v1/booking/flight-orders", Body: body}, &out)
	return out, err
}

func (c *Client) GetFlightOrder(ctx context.Context, id string) (map[string]any, error) {
	return c.getMap(ctx, "/v1/booking/flight-orders/"+url.PathEscape(id), "/v1/booking/flight-orders/{id}", nil)
}

func (c *Client) CancelFlightOrder(ctx context.Context, id string) error {
	return c.rc.Do(ctx, restclient.Request{
		Method:   http.MethodDelete,
		Path:     "/v1/booking/flight-orders/" + url.PathEscape(id),
		Endpoint: "/v1/booking/flight-orders/{id}",
	}, nil)
}

func (c *Client) SearchFlightDestinations(ctx context.Context, q domain.DestinationSearch) (map[string]any, error) {
	v := url.Values{}
	v.Set("origin", q.Origin)
	setStr(v, "departureDate", q.DepartureDate)
	setInt(v, "maxPrice", q.MaxPrice)
	if q.OneWay {
		v.Set("oneWay", "true")
	}
	return c.getMap(ctx, "/v1/shopping/flight-destinations", "", v)
}

func (c *Client) SearchFlightDates(ctx context.Context, q domain.FlightDateSearch) (map[string]any, error) {
	v := url.Values{}
	v.Set("origin", q.Origin)
	v.Set("destination", q.Destination)
	setStr(v, "departureDate", q.DepartureDate)
	if q.OneWay {
		v.Set("oneWay", "true")
	}
	return c.getMap(ctx, "/v1/shopping/flight-dates", "", v)
}

func (c *Client) GetFlightStatus(ctx context.Context, q domain.FlightStatusQuery) (map[string]any, error) {
	v := url.Values{}
	v.Set("carrierCode", q.CarrierCode)
	v.Set("flightNumber", q.FlightNumber)
	v.Set("scheduledDepartureDate", q.DepartureDate)
	return c.getMap(ctx, "/v2/schedule/flights", "", v)
}

// ---- Reference data ----

func (c *Client) SearchLocations(ctx context.Context, keyword string, subTypes []string) (map[string]any, error) {
	if len(subTypes) == 0 {
		subTypes = []string{"AIRPORT", "CITY"}
	}
	v := url.Values{}
	v.Set("keyword", keyword)
	v.Set("subType", strings.Join(subTypes, ","))
	v.Set("page[limit]", "10")
	return c.getMap(ctx, "/v1/reference-data/locations", "", v)
}

func (c *Client) LookupAirlines(ctx context.Context, codes []string) (map[string]any, error) {
	v := url.Values{}
	v.Set("airlineCodes", strings.Join(codes, ","))
	return c.getMap(ctx, "/v1/reference-data/airlines", "", v)
}

// ---- Hotels ----

func (c *Client) ListHotelsByCity(ctx context.Context, q domain.HotelCitySearch) (map[string]any, error) {
	v := url.Values{}
	v.Set("cityCode", q.CityCode)
	setInt(v, "radius", q.Radius)
	setStr(v, "radiusUnit", q.RadiusUnit)
	if len(q.Ratings) > 0 {
		v.Set("ratings", strings.Join(q.Ratings, ","))
	}
	if len(q.Amenities) > 0 {
		v.Set("amenities", strings.Join(q.Amenities, ","))
	}
	return c.getMap(ctx, "/v1/reference-data/locations/hotels/by-city", "", v)
}

func (c *Client) SearchHotelOffers(ctx context.Context, q domain.HotelOfferSearch) (map[string]any, error) {
	v := url.Values{}
	v.Set("hotelIds", strings.Join(q.HotelIDs, ","))
	setStr(v, "checkInDate", q.CheckInDate)
	setStr(v, "checkOutDate", q.CheckOutDate)
	v.Set("adults", strconv.Itoa(max(q.Adults, 1)))
	setInt(v, "roomQuantity", q.RoomQuantity)
	setStr(v, "currency", q.Currency)
	v.Set("bestRateOnly", strconv.FormatBool(q.BestRateOnly))
	return c.getMap(ctx, "/v3/shopping/hotel-offers", "", v)
}

func (c *Client) GetHotelOffer(ctx context.Context, offerID string) (map[string]any, error) {
	return c.getMap(ctx, "/v3/shopping/hotel-offers/"+url.PathEscape(offerID), "/v3/shopping/hotel-offers/{id}", nil)
}

func (c *Client) BookHotel(ctx context.Context, b domain.HotelBooking) (map[string]any, error) {
	guests := make([]map[string]any, 0, len(b.Guests))
	for i, g := range b.Guests {
		guests = append(guests, map[string]any{
			"id": i + 1,
			"name": map[string]any{
				"title":     g.Title,
				"firstName": g.FirstName,
				"lastName":  g.LastName,
			},
			"contact": map[string]any{
				"phone": g.Phone,
				"email": g.Email,
			},
		})
	}
	body := map[string]any{
		"data": map[string]any{
			"offerId": b.OfferID,
			"guests":  guests,
			"payments": []any{map[string]any{
				"id":     1,
				"method": "creditCard",
				"card": map[string]any{
					"vendorCode": b.Card.VendorCode,
					"cardNumber": b.Card.Number,
					"expiryDate": b.Card.ExpiryDate,
				},
			}},
		},
	}
	var out map[string]any
	err := c.rc.Do(ctx, restclient.Request{Method: http.MethodPost, Path: "/v1/booking/hotel-bookings", Body: body}, &out)
	return out, err
}

// ---- Activities ----

func (c *Client) SearchActivities(ctx context.Context, q domain.ActivitySearch) (map[string]any, error) {
	v := url.Values{}
	v.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	v.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	setInt(v, "radius", q.Radius)
	return c.getMap(ctx, "/v1/shopping/activities", "", v)
}

func (c *Client) GetActivity(ctx context.Context, id string) (map[string]any, error) {
	return c.getMap(ctx, "/v1/shopping/activities/"+url.PathEscape(id), "/v1/shopping/activities/{id}", nil)
}

// ---- Internals ----

func (c *Client) getMap(ctx context.Context, path, endpoint string, q url.Values) (map[string]any, error) {
	var out map[string]any
	err := c.rc.Do(ctx, restclient.Request{Path: path, Endpoint: endpoint, Query: q}, &out)
	return out, err
}

func setStr(v url.Values, k, s string) {
	if s != "" {
		v.Set(k, s)
	}
}

func setInt(v url.Values, k string, n int) {
	if n > 0 {
		v.Set(k, strconv.Itoa(n))
	}
}

// errorDetail flattens the vendor error envelope:
// {"errors":[{"title":"INVALID FORMAT","detail":"...","source":{"parameter":"x"}}]}
func errorDetail(body []byte) string {
	var env struct {
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
			Source struct {
				Parameter string `json:"parameter"`
				Pointer   string `json:"pointer"`
			} `json:"source"`
		} `json:"errors"`
		// OAuth errors use a different shape
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return strings.TrimSpace(string(body))
	}
	if env.ErrorDescription != "" {
		return env.ErrorDescription
	}
	parts := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		msg := e.Title
		if e.Detail != "" {
			if msg != "" {
				msg += ": "
			}
			msg += e.Detail
		}
		switch {
		case e.Source.Parameter != "":
			msg += " (parameter " + e.Source.Parameter + ")"
		case e.Source.Pointer != "":
			msg += " (" + e.Source.Pointer + ")"
		}
		if msg != "" {
			parts = append(parts, msg)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(string(body))
	}
	return strings.Join(parts, "; ")
}
