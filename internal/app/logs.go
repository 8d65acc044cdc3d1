package app

import (
	"context"
	"fmt"
	"time"

	"mcp_gateway/internal/domain"
)

const (
	DefaultQueryWindow = 15 * time.Minute
	DefaultQueryLimit  = 100
	MaxQueryLimit      = 2000
)

type LogService struct {
	coralogix domain.CoralogixClient
	now       func() time.Time
}

func NewLogService(c domain.CoralogixClient) *LogService {
	return &LogService{coralogix: c, now: time.Now}
}

// Query fills defaults (DataPrime syntax, frequent-search tier, last 15
// minutes, 100 records) and runs the query.
func (s *LogService) Query(ctx context.Context, q domain.DataQuery) (domain.QueryResult, error) {
	if q.Syntax == "" {
		q.Syntax = domain.SyntaxDataPrime
	}
	if q.Tier == "" {
		q.Tier = domain.TierFrequentSearch
	}
	if q.End.IsZero() {
		q.End = s.now()
	}
	if q.Start.IsZero() {
		q.Start = q.End.Add(-DefaultQueryWindow)
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultQueryLimit
	case q.Limit > MaxQueryLimit:
		q.Limit = MaxQueryLimit
	}
	res, err := s.coralogix.Query(ctx, q)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("failed to query logs: %w", err)
	}
	return res, nil
}
