package domain

import "time"

const (
	SyntaxDataPrime = "QUERY_SYNTAX_DATAPRIME"
	SyntaxLucene    = "QUERY_SYNTAX_LUCENE"

	TierFrequentSearch = "TIER_FREQUENT_SEARCH"
	TierArchive        = "TIER_ARCHIVE"
)

type DataQuery struct {
	Query  string
	Syntax string
	Tier   string
	Start  time.Time
	End    time.Time
	Limit  int
}

// QueryResult folds the streamed query response into one value.
type QueryResult struct {
	QueryID  string
	Records  []map[string]any
	Warnings []string
}

type UsageQuery struct {
	From       time.Time
	To         time.Time
	Resolution string // e.g. 1h, 1d
	Aggregate  string // AGGREGATE_BY_APPLICATION|AGGREGATE_BY_SUBSYSTEM|AGGREGATE_BY_PILLAR|AGGREGATE_BY_PRIORITY
}
