package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"mcp_gateway/internal/domain"
)

// LocationService serves reference data (airports, cities, airlines). The
// data changes rarely, so results are cached.
type LocationService struct {
	amadeus  domain.AmadeusClient
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewLocationService(c domain.AmadeusClient, cache domain.Cache, ttl time.Duration) *LocationService {
	return &LocationService{amadeus: c, cache: cache, cacheTTL: ttl}
}

func (s *LocationService) Search(ctx context.Context, keyword string, subTypes []string) (map[string]any, error) {
	st := append([]string(nil), subTypes...)
	sort.Strings(st)
	key := fmt.Sprintf("locations:%s:%s", strings.ToUpper(keyword), strings.Join(st, ","))

	var out map[string]any
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	out, err := s.amadeus.SearchLocations(ctx, keyword, subTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to search locations: %w", err)
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *LocationService) Airlines(ctx context.Context, codes []string) (map[string]any, error) {
	norm := make([]string, 0, len(codes))
	for _, c := range codes {
		norm = append(norm, strings.ToUpper(strings.TrimSpace(c)))
	}
	sort.Strings(norm)
	key := "airlines:" + strings.Join(norm, ",")

	var out map[string]any
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	out, err := s.amadeus.LookupAirlines(ctx, norm)
	if err != nil {
		return nil, fmt.Errorf("failed to look up airlines: %w", err)
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}
