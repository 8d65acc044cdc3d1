package app

import (
	"context"
	"fmt"
	"time"

	"mcp_gateway/internal/domain"
)

const dashboardCatalogKey = "dashboards:catalog"

type DashboardService struct {
	coralogix domain.CoralogixClient
	cache     domain.Cache
	cacheTTL  time.Duration
}

func NewDashboardService(c domain.CoralogixClient, cache domain.Cache, ttl time.Duration) *DashboardService {
	return &DashboardService{coralogix: c, cache: cache, cacheTTL: ttl}
}

func (s *DashboardService) List(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if ok, _ := s.cache.Get(ctx, dashboardCatalogKey, &out); ok {
		return out, nil
	}
	out, err := s.coralogix.ListDashboards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	_ = s.cache.Set(ctx, dashboardCatalogKey, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *DashboardService) Get(ctx context.Context, id string) (map[string]any, error) {
	out, err := s.coralogix.GetDashboard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard %s: %w", id, err)
	}
	return out, nil
}
