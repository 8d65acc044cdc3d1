package app_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp_gateway/internal/app"
	"mcp_gateway/internal/app/apptest"
	"mcp_gateway/internal/domain"
)

func TestLocationSearch_CacheMissThenHit(t *testing.T) {
	am := &apptest.Amadeus{Resp: map[string]map[string]any{
		"SearchLocations": {"data": []any{map[string]any{"iataCode": "PAR", "subType": "CITY", "name": "PARIS"}}},
	}}
	cache := &apptest.Cache{}
	s := app.NewLocationService(am, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	out, err := s.Search(context.Background(), "par", []string{"CITY", "AIRPORT"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := out["data"].([]any); len(got) != 1 {
		t.Fatalf("unexpected data: %+v", out)
	}
	if cache.Sets != 1 {
		t.Fatalf("expected cache set, got %d", cache.Sets)
	}

	// Hit, with the subtypes in another order and the keyword in another case
	out, err = s.Search(context.Background(), "PAR", []string{"AIRPORT", "CITY"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if cache.Hits != 1 || am.Count("SearchLocations") != 1 {
		t.Fatalf("expected cache hit, hits=%d vendor calls=%d", cache.Hits, am.Count("SearchLocations"))
	}
	if lookup := out["data"].([]any)[0].(map[string]any)["iataCode"]; lookup != "PAR" {
		t.Fatalf("cached value mismatch: %+v", out)
	}
}

func TestAirlines_NormalizesCodes(t *testing.T) {
	am := &apptest.Amadeus{}
	s := app.NewLocationService(am, &apptest.Cache{}, time.Minute)

	_, err := s.Airlines(context.Background(), []string{" ba", "AF"})
	require.NoError(t, err)

	calls := am.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"AF", "BA"}, calls[0].Arg)
}

func TestServices_WrapVendorErrors(t *testing.T) {
	am := &apptest.Amadeus{Err: domain.ErrUnauthorized}
	ctx := context.Background()

	_, err := app.NewFlightService(am).Search(ctx, domain.FlightSearch{Origin: "MAD", Destination: "LHR"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.True(t, strings.HasPrefix(err.Error(), "failed to search flight offers"), err.Error())

	err = app.NewFlightService(am).CancelOrder(ctx, "eJzTd9f3")
	assert.ErrorContains(t, err, "failed to cancel flight order eJzTd9f3")

	cx := &apptest.Coralogix{Err: domain.ErrForbidden}
	err = app.NewAlertService(cx).SetActive(ctx, "a-1", false)
	assert.ErrorContains(t, err, "failed to disable alert a-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestFlightBook_UsesRepricedOffer(t *testing.T) {
	repriced := map[string]any{"id": "1", "price": map[string]any{"total": "512.30"}}
	am := &apptest.Amadeus{Resp: map[string]map[string]any{
		"PriceFlightOffer":  {"data": map[string]any{"flightOffers": []any{repriced}}},
		"CreateFlightOrder": {"data": map[string]any{"id": "ORDER1"}},
	}}
	s := app.NewFlightService(am)

	out, err := s.Book(context.Background(), map[string]any{"id": "1", "price": map[string]any{"total": "499.00"}},
		[]map[string]any{{"id": "1"}})
	require.NoError(t, err)
	assert.Equal(t, "ORDER1", out["data"].(map[string]any)["id"])

	calls := am.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "PriceFlightOffer", calls[0].Method)
	booked := calls[1].Arg.(map[string]any)["offer"].(map[string]any)
	assert.Equal(t, "512.30", booked["price"].(map[string]any)["total"])
}

func hotelList(n int) map[string]any {
	data := make([]any, 0, n)
	for i := 0; i < n; i++ {
		data = append(data, map[string]any{"hotelId": "H" + string(rune('A'+i%26)) + string(rune('0'+i/26))})
	}
	return map[string]any{"data": data}
}

func TestSearchCityOffers_BatchesAndMerges(t *testing.T) {
	var inFlight, peak atomic.Int32
	am := &apptest.Amadeus{
		Resp: map[string]map[string]any{"ListHotelsByCity": hotelList(45)},
		HotelOffers: func(q domain.HotelOfferSearch) (map[string]any, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			data := make([]any, 0, len(q.HotelIDs))
			for _, id := range q.HotelIDs {
				data = append(data, map[string]any{"hotel": map[string]any{"hotelId": id}})
			}
			return map[string]any{"data": data}, nil
		},
	}
	s := app.NewHotelService(am)

	out, err := s.SearchCityOffers(context.Background(), domain.HotelCitySearch{CityCode: "PAR"},
		domain.HotelOfferSearch{Adults: 2})
	require.NoError(t, err)

	data := out["data"].([]any)
	require.Len(t, data, 45)
	// batch order is kept
	assert.Equal(t, "HA0", data[0].(map[string]any)["hotel"].(map[string]any)["hotelId"])
	assert.Equal(t, 3, am.Count("SearchHotelOffers"))
	assert.LessOrEqual(t, peak.Load(), int32(3))

	for _, c := range am.Calls() {
		if c.Method == "SearchHotelOffers" {
			q := c.Arg.(domain.HotelOfferSearch)
			assert.LessOrEqual(t, len(q.HotelIDs), 20)
			assert.Equal(t, 2, q.Adults)
		}
	}
}

func TestSearchCityOffers_PartialAndTotalFailure(t *testing.T) {
	boom := errors.New("boom")
	var n atomic.Int32
	am := &apptest.Amadeus{
		Resp: map[string]map[string]any{"ListHotelsByCity": hotelList(30)},
		HotelOffers: func(q domain.HotelOfferSearch) (map[string]any, error) {
			if q.HotelIDs[0] == "HA0" {
				return nil, boom
			}
			n.Add(1)
			return map[string]any{"data": []any{map[string]any{"hotel": map[string]any{"hotelId": q.HotelIDs[0]}}}}, nil
		},
	}
	out, err := app.NewHotelService(am).SearchCityOffers(context.Background(), domain.HotelCitySearch{CityCode: "NCE"}, domain.HotelOfferSearch{})
	require.NoError(t, err)
	assert.Len(t, out["data"], 1)
	assert.Equal(t, int32(1), n.Load())

	am.HotelOffers = func(domain.HotelOfferSearch) (map[string]any, error) { return nil, boom }
	_, err = app.NewHotelService(am).SearchCityOffers(context.Background(), domain.HotelCitySearch{CityCode: "NCE"}, domain.HotelOfferSearch{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "NCE")
}

func TestSearchCityOffers_NoHotels(t *testing.T) {
	am := &apptest.Amadeus{}
	out, err := app.NewHotelService(am).SearchCityOffers(context.Background(), domain.HotelCitySearch{CityCode: "XXX"}, domain.HotelOfferSearch{})
	require.NoError(t, err)
	assert.Empty(t, out["data"])
	assert.Zero(t, am.Count("SearchHotelOffers"))
}

func TestLogQuery_Defaults(t *testing.T) {
	cx := &apptest.Coralogix{}
	s := app.NewLogService(cx)

	_, err := s.Query(context.Background(), domain.DataQuery{Query: "source logs"})
	require.NoError(t, err)

	q := cx.Calls()[0].Arg.(domain.DataQuery)
	assert.Equal(t, domain.SyntaxDataPrime, q.Syntax)
	assert.Equal(t, domain.TierFrequentSearch, q.Tier)
	assert.Equal(t, app.DefaultQueryLimit, q.Limit)
	assert.Equal(t, app.DefaultQueryWindow, q.End.Sub(q.Start))

	_, err = s.Query(context.Background(), domain.DataQuery{Query: "x", Limit: 50000})
	require.NoError(t, err)
	assert.Equal(t, app.MaxQueryLimit, cx.Calls()[1].Arg.(domain.DataQuery).Limit)
}

func TestDashboardList_Cached(t *testing.T) {
	cx := &apptest.Coralogix{Resp: map[string]map[string]any{
		"ListDashboards": {"items": []any{map[string]any{"id": "d1", "name": "Errors"}}},
	}}
	s := app.NewDashboardService(cx, &apptest.Cache{}, time.Minute)

	for i := 0; i < 3; i++ {
		out, err := s.List(context.Background())
		require.NoError(t, err)
		require.Len(t, out["items"], 1)
	}
	assert.Equal(t, 1, cx.Count("ListDashboards"))
}

func TestDataUsage_DefaultRange(t *testing.T) {
	cx := &apptest.Coralogix{}
	_, err := app.NewUsageService(cx).DataUsage(context.Background(), domain.UsageQuery{})
	require.NoError(t, err)

	q := cx.Calls()[0].Arg.(domain.UsageQuery)
	assert.Equal(t, "1d", q.Resolution)
	assert.True(t, q.From.Equal(q.To.AddDate(0, 0, -7)))
}
