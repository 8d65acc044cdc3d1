package coralogix

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"mcp_gateway/internal/domain"
)

// queryLine is one NDJSON object of the query stream. Exactly one field is set per line.
type queryLine struct {
	QueryID *struct {
		QueryID string `json:"queryId"`
	} `json:"queryId"`
	Result *struct {
		Results []map[string]any `json:"results"`
	} `json:"result"`
	Warning map[string]any `json:"warning"`
	Error   *struct {
		Message string         `json:"message"`
		Code    map[string]any `json:"code"`
	} `json:"error"`
}

// foldQueryStream collects the streamed query response. An error line fails
// the whole query; warnings are kept alongside the records.
func foldQueryStream(body []byte) (domain.QueryResult, error) {
	var out domain.QueryResult
	dec := json.NewDecoder(bytes.NewReader(body))
	for {
		var line queryLine
		if err := dec.Decode(&line); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return out, fmt.Errorf("coralogix: decode query stream: %w", err)
		}
		switch {
		case line.Error != nil:
			msg := line.Error.Message
			if msg == "" {
				msg = firstKey(line.Error.Code)
			}
			return out, fmt.Errorf("coralogix: query failed: %s", msg)
		case line.QueryID != nil:
			out.QueryID = line.QueryID.QueryID
		case line.Result != nil:
			out.Records = append(out.Records, line.Result.Results...)
		case line.Warning != nil:
			if w := firstString(line.Warning); w != "" {
				out.Warnings = append(out.Warnings, w)
			}
		}
	}
	return out, nil
}

func foldUsageStream(body []byte) ([]map[string]any, error) {
	var out []map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	for {
		var line struct {
			Entries []map[string]any `json:"entries"`
		}
		if err := dec.Decode(&line); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return out, fmt.Errorf("coralogix: decode usage stream: %w", err)
		}
		out = append(out, line.Entries...)
	}
	return out, nil
}

// firstString returns the first string leaf found in a nested warning object,
// visiting keys in sorted order so the choice is stable.
func firstString(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if s := firstString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstKey(m map[string]any) string {
	for k := range m {
		return k
	}
	return "unknown error"
}
