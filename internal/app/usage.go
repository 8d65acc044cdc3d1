package app

import (
	"context"
	"fmt"
	"time"

	"mcp_gateway/internal/domain"
)

type UsageService struct {
	coralogix domain.CoralogixClient
	now       func() time.Time
}

func NewUsageService(c domain.CoralogixClient) *UsageService {
	return &UsageService{coralogix: c, now: time.Now}
}

// DataUsage defaults to the last 7 days at daily resolution.
func (s *UsageService) DataUsage(ctx context.Context, q domain.UsageQuery) ([]map[string]any, error) {
	if q.To.IsZero() {
		q.To = s.now()
	}
	if q.From.IsZero() {
		q.From = q.To.AddDate(0, 0, -7)
	}
	if q.Resolution == "" {
		q.Resolution = "1d"
	}
	out, err := s.coralogix.GetDataUsage(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to get data usage: %w", err)
	}
	return out, nil
}

func (s *UsageService) TCOPolicies(ctx context.Context, sourceType string) (map[string]any, error) {
	out, err := s.coralogix.ListTCOPolicies(ctx, sourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to list TCO policies: %w", err)
	}
	return out, nil
}
