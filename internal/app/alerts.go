package app

import (
	"context"
	"fmt"

	"mcp_gateway/internal/domain"
)

type AlertService struct {
	coralogix domain.CoralogixClient
}

func NewAlertService(c domain.CoralogixClient) *AlertService {
	return &AlertService{coralogix: c}
}

func (s *AlertService) List(ctx context.Context) (map[string]any, error) {
	out, err := s.coralogix.ListAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return out, nil
}

func (s *AlertService) Get(ctx context.Context, id string) (map[string]any, error) {
	out, err := s.coralogix.GetAlert(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert %s: %w", id, err)
	}
	return out, nil
}

func (s *AlertService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.coralogix.SetAlertActive(ctx, id, active); err != nil {
		verb := "disable"
		if active {
			verb = "enable"
		}
		return fmt.Errorf("failed to %s alert %s: %w", verb, id, err)
	}
	return nil
}
