package app

import (
	"context"
	"fmt"

	"mcp_gateway/internal/domain"
)

type EnrichmentService struct {
	coralogix domain.CoralogixClient
}

func NewEnrichmentService(c domain.CoralogixClient) *EnrichmentService {
	return &EnrichmentService{coralogix: c}
}

func (s *EnrichmentService) List(ctx context.Context) (map[string]any, error) {
	out, err := s.coralogix.ListEnrichments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrichments: %w", err)
	}
	return out, nil
}

func (s *EnrichmentService) ListCustom(ctx context.Context) (map[string]any, error) {
	out, err := s.coralogix.ListCustomEnrichments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom enrichments: %w", err)
	}
	return out, nil
}
