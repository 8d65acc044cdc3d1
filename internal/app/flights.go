package app

import (
	"context"
	"fmt"

	"mcp_gateway/internal/domain"
)

type FlightService struct {
	amadeus domain.AmadeusClient
}

func NewFlightService(c domain.AmadeusClient) *FlightService {
	return &FlightService{amadeus: c}
}

func (s *FlightService) Search(ctx context.Context, q domain.FlightSearch) (map[string]any, error) {
	out, err := s.amadeus.SearchFlightOffers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search flight offers: %w", err)
	}
	return out, nil
}

func (s *FlightService) Price(ctx context.Context, offer map[string]any) (map[string]any, error) {
	out, err := s.amadeus.PriceFlightOffer(ctx, offer)
	if err != nil {
		return nil, fmt.Errorf("failed to price flight offer: %w", err)
	}
	return out, nil
}

// Book reprices the offer first: the booking endpoint rejects offers whose
// price changed since search, and pricing returns the bookable version.
func (s *FlightService) Book(ctx context.Context, offer map[string]any, travelers []map[string]any) (map[string]any, error) {
	priced, err := s.amadeus.PriceFlightOffer(ctx, offer)
	if err != nil {
		return nil, fmt.Errorf("failed to price flight offer before booking: %w", err)
	}
	if offers := lookupItems(priced, "data.flightOffers"); len(offers) > 0 {
		offer = offers[0]
	}
	out, err := s.amadeus.CreateFlightOrder(ctx, offer, travelers)
	if err != nil {
		return nil, fmt.Errorf("failed to create flight order: %w", err)
	}
	return out, nil
}

func (s *FlightService) GetOrder(ctx context.Context, id string) (map[string]any, error) {
	out, err := s.amadeus.GetFlightOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get flight order %s: %w", id, err)
	}
	return out, nil
}

func (s *FlightService) CancelOrder(ctx context.Context, id string) error {
	if err := s.amadeus.CancelFlightOrder(ctx, id); err != nil {
		return fmt.Errorf("failed to cancel flight order %s: %w", id, err)
	}
	return nil
}

func (s *FlightService) Destinations(ctx context.Context, q domain.DestinationSearch) (map[string]any, error) {
	out, err := s.amadeus.SearchFlightDestinations(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search flight destinations: %w", err)
	}
	return out, nil
}

func (s *FlightService) CheapestDates(ctx context.Context, q domain.FlightDateSearch) (map[string]any, error) {
	out, err := s.amadeus.SearchFlightDates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search cheapest flight dates: %w", err)
	}
	return out, nil
}

func (s *FlightService) Status(ctx context.Context, q domain.FlightStatusQuery) (map[string]any, error) {
	out, err := s.amadeus.GetFlightStatus(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to get flight status: %w", err)
	}
	return out, nil
}
