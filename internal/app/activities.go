package app

import (
	"context"
	"fmt"

	"mcp_gateway/internal/domain"
)

type ActivityService struct {
	amadeus domain.AmadeusClient
}

func NewActivityService(c domain.AmadeusClient) *ActivityService {
	return &ActivityService{amadeus: c}
}

func (s *ActivityService) Search(ctx context.Context, q domain.ActivitySearch) (map[string]any, error) {
	out, err := s.amadeus.SearchActivities(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search activities: %w", err)
	}
	return out, nil
}

func (s *ActivityService) Get(ctx context.Context, id string) (map[string]any, error) {
	out, err := s.amadeus.GetActivity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity %s: %w", id, err)
	}
	return out, nil
}
