// Package apptest provides in-memory vendor clients and a cache for tests of
// the services and tool handlers.
package apptest

import (
	"context"
	"encoding/json"
	"sync"

	"mcp_gateway/internal/domain"
)

// Call is one recorded vendor invocation.
type Call struct {
	Method string
	Arg    any
}

type recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *recorder) record(method string, arg any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: method, Arg: arg})
}

// Calls returns a copy of the recorded calls.
func (r *recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many times method was called ("" counts everything).
func (r *recorder) Count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if method == "" {
		return len(r.calls)
	}
	n := 0
	for _, c := range r.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Amadeus answers every method from Resp (keyed by method name) or Err.
// HotelOffers, when set, overrides SearchHotelOffers.
type Amadeus struct {
	recorder
	Resp        map[string]map[string]any
	Err         error
	HotelOffers func(q domain.HotelOfferSearch) (map[string]any, error)
}

var _ domain.AmadeusClient = (*Amadeus)(nil)

func (f *Amadeus) answer(method string, arg any) (map[string]any, error) {
	f.record(method, arg)
	if f.Err != nil {
		return nil, f.Err
	}
	if r, ok := f.Resp[method]; ok {
		return r, nil
	}
	return map[string]any{"data": []any{}}, nil
}

func (f *Amadeus) SearchFlightOffers(_ context.Context, q domain.FlightSearch) (map[string]any, error) {
	return f.answer("SearchFlightOffers", q)
}
func (f *Amadeus) PriceFlightOffer(_ context.Context, offer map[string]any) (map[string]any, error) {
	return f.answer("PriceFlightOffer", offer)
}
func (f *Amadeus) CreateFlightOrder(_ context.Context, offer map[string]any, travelers []map[string]any) (map[string]any, error) {
	return f.answer("CreateFlightOrder", map[string]any{"offer": offer, "travelers": travelers})
}
func (f *Amadeus) GetFlightOrder(_ context.Context, id string) (map[string]any, error) {
	return f.answer("GetFlightOrder", id)
}
func (f *Amadeus) CancelFlightOrder(_ context.Context, id string) error {
	_, err := f.answer("CancelFlightOrder", id)
	return err
}
func (f *Amadeus) SearchFlightDestinations(_ context.Context, q domain.DestinationSearch) (map[string]any, error) {
	return f.answer("SearchFlightDestinations", q)
}
func (f *Amadeus) SearchFlightDates(_ context.Context, q domain.FlightDateSearch) (map[string]any, error) {
	return f.answer("SearchFlightDates", q)
}
func (f *Amadeus) GetFlightStatus(_ context.Context, q domain.FlightStatusQuery) (map[string]any, error) {
	return f.answer("GetFlightStatus", q)
}
func (f *Amadeus) SearchLocations(_ context.Context, keyword string, subTypes []string) (map[string]any, error) {
	return f.answer("SearchLocations", keyword)
}
func (f *Amadeus) LookupAirlines(_ context.Context, codes []string) (map[string]any, error) {
	return f.answer("LookupAirlines", codes)
}
func (f *Amadeus) ListHotelsByCity(_ context.Context, q domain.HotelCitySearch) (map[string]any, error) {
	return f.answer("ListHotelsByCity", q)
}
func (f *Amadeus) SearchHotelOffers(_ context.Context, q domain.HotelOfferSearch) (map[string]any, error) {
	if f.HotelOffers != nil {
		f.record("SearchHotelOffers", q)
		return f.HotelOffers(q)
	}
	return f.answer("SearchHotelOffers", q)
}
func (f *Amadeus) GetHotelOffer(_ context.Context, offerID string) (map[string]any, error) {
	return f.answer("GetHotelOffer", offerID)
}
func (f *Amadeus) BookHotel(_ context.Context, b domain.HotelBooking) (map[string]any, error) {
	return f.answer("BookHotel", b)
}
func (f *Amadeus) SearchActivities(_ context.Context, q domain.ActivitySearch) (map[string]any, error) {
	return f.answer("SearchActivities", q)
}
func (f *Amadeus) GetActivity(_ context.Context, id string) (map[string]any, error) {
	return f.answer("GetActivity", id)
}

// Coralogix mirrors Amadeus for the log-analytics client.
type Coralogix struct {
	recorder
	Resp   map[string]map[string]any
	Result domain.QueryResult
	Usage  []map[string]any
	Err    error
}

var _ domain.CoralogixClient = (*Coralogix)(nil)

func (f *Coralogix) answer(method string, arg any) (map[string]any, error) {
	f.record(method, arg)
	if f.Err != nil {
		return nil, f.Err
	}
	if r, ok := f.Resp[method]; ok {
		return r, nil
	}
	return map[string]any{}, nil
}

func (f *Coralogix) Query(_ context.Context, q domain.DataQuery) (domain.QueryResult, error) {
	f.record("Query", q)
	if f.Err != nil {
		return domain.QueryResult{}, f.Err
	}
	return f.Result, nil
}
func (f *Coralogix) ListAlerts(_ context.Context) (map[string]any, error) {
	return f.answer("ListAlerts", nil)
}
func (f *Coralogix) GetAlert(_ context.Context, id string) (map[string]any, error) {
	return f.answer("GetAlert", id)
}
func (f *Coralogix) SetAlertActive(_ context.Context, id string, active bool) error {
	_, err := f.answer("SetAlertActive", map[string]any{"id": id, "active": active})
	return err
}
func (f *Coralogix) ListDashboards(_ context.Context) (map[string]any, error) {
	return f.answer("ListDashboards", nil)
}
func (f *Coralogix) GetDashboard(_ context.Context, id string) (map[string]any, error) {
	return f.answer("GetDashboard", id)
}
func (f *Coralogix) ListEnrichments(_ context.Context) (map[string]any, error) {
	return f.answer("ListEnrichments", nil)
}
func (f *Coralogix) ListCustomEnrichments(_ context.Context) (map[string]any, error) {
	return f.answer("ListCustomEnrichments", nil)
}
func (f *Coralogix) GetDataUsage(_ context.Context, q domain.UsageQuery) ([]map[string]any, error) {
	f.record("GetDataUsage", q)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Usage, nil
}
func (f *Coralogix) ListTCOPolicies(_ context.Context, sourceType string) (map[string]any, error) {
	return f.answer("ListTCOPolicies", sourceType)
}

// Cache stores JSON copies so Get behaves like the Redis adapter.
type Cache struct {
	mu    sync.Mutex
	store map[string][]byte
	Hits  int
	Sets  int
}

var _ domain.Cache = (*Cache)(nil)

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.Hits++
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) Set(_ context.Context, key string, v any, _ int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	c.Sets++
	return nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}
