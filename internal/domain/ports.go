package domain

import "context"

// AmadeusClient is the travel vendor surface used by the travel services.
// Responses are the vendor JSON documents decoded into generic maps.
type AmadeusClient interface {
	// Flights
	SearchFlightOffers(ctx context.Context, q FlightSearch) (map[string]any, error)
	PriceFlightOffer(ctx context.Context, offer map[string]any) (map[string]any, error)
	CreateFlightOrder(ctx context.Context, offer map[string]any, travelers []map[string]any) (map[string]any, error)
	GetFlightOrder(ctx context.Context, id string) (map[string]any, error)
	CancelFlightOrder(ctx context.Context, id string) error
	SearchFlightDestinations(ctx context.Context, q DestinationSearch) (map[string]any, error)
	SearchFlightDates(ctx context.Context, q FlightDateSearch) (map[string]any, error)
	GetFlightStatus(ctx context.Context, q FlightStatusQuery) (map[string]any, error)

	// Reference data
	SearchLocations(ctx context.Context, keyword string, subTypes []string) (map[string]any, error)
	LookupAirlines(ctx context.Context, codes []string) (map[string]any, error)

	// Hotels
	ListHotelsByCity(ctx context.Context, q HotelCitySearch) (map[string]any, error)
	SearchHotelOffers(ctx context.Context, q HotelOfferSearch) (map[string]any, error)
	GetHotelOffer(ctx context.Context, offerID string) (map[string]any, error)
	BookHotel(ctx context.Context, b HotelBooking) (map[string]any, error)

	// Activities
	SearchActivities(ctx context.Context, q ActivitySearch) (map[string]any, error)
	GetActivity(ctx context.Context, id string) (map[string]any, error)
}

// CoralogixClient is the log-analytics vendor surface used by the log services.
type CoralogixClient interface {
	Query(ctx context.Context, q DataQuery) (QueryResult, error)

	ListAlerts(ctx context.Context) (map[string]any, error)
	GetAlert(ctx context.Context, id string) (map[string]any, error)
	SetAlertActive(ctx context.Context, id string, active bool) error

	ListDashboards(ctx context.Context) (map[string]any, error)
	GetDashboard(ctx context.Context, id string) (map[string]any, error)

	ListEnrichments(ctx context.Context) (map[string]any, error)
	ListCustomEnrichments(ctx context.Context) (map[string]any, error)

	GetDataUsage(ctx context.Context, q UsageQuery) ([]map[string]any, error)
	ListTCOPolicies(ctx context.Context, sourceType string) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// AuditLog persists one record per tool invocation.
type AuditLog interface {
	RecordCall(ctx context.Context, c ToolCall) error
	ListRecentCalls(ctx context.Context, server string, limit int) ([]ToolCall, error)
}
