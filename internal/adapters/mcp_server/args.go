package mcpserver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

const dateLayout = "2006-01-02"

var (
	iataRe    = regexp.MustCompile(`^[A-Z]{3}$`)
	airlineRe = regexp.MustCompile(`^[A-Z0-9]{2,3}$`)
	flightRe  = regexp.MustCompile(`^[0-9]{1,4}[A-Z]?$`)
)

// ArgError reports a tool argument rejected before any vendor call.
type ArgError struct {
	Arg string
	Msg string
}

func (e *ArgError) Error() string {
	if e.Arg == "" {
		return "invalid arguments: " + e.Msg
	}
	return fmt.Sprintf("invalid arguments: %s: %s", e.Arg, e.Msg)
}

func argErr(arg, format string, a ...any) error {
	return &ArgError{Arg: arg, Msg: fmt.Sprintf(format, a...)}
}

func optString(req mcp.CallToolRequest, key string) string {
	return strings.TrimSpace(req.GetString(key, ""))
}

func reqString(req mcp.CallToolRequest, key string) (string, error) {
	v, err := req.RequireString(key)
	if err != nil || strings.TrimSpace(v) == "" {
		return "", argErr(key, "required")
	}
	return strings.TrimSpace(v), nil
}

// iataCode reads a 3-letter airport or city code, upper-cased.
func iataCode(req mcp.CallToolRequest, key string, required bool) (string, error) {
	v := strings.ToUpper(optString(req, key))
	if v == "" {
		if required {
			return "", argErr(key, "required")
		}
		return "", nil
	}
	if !iataRe.MatchString(v) {
		return "", argErr(key, "%q is not a 3-letter IATA code", v)
	}
	return v, nil
}

// isoDate reads a YYYY-MM-DD date.
func isoDate(req mcp.CallToolRequest, key string, required bool) (string, time.Time, error) {
	v := optString(req, key)
	if v == "" {
		if required {
			return "", time.Time{}, argErr(key, "required")
		}
		return "", time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return "", time.Time{}, argErr(key, "%q is not a YYYY-MM-DD date", v)
	}
	return v, t, nil
}

// intArg reads an integer in [lo, hi], def when absent.
func intArg(req mcp.CallToolRequest, key string, def, lo, hi int) (int, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return def, nil
	}
	var n int
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, argErr(key, "must be an integer")
		}
		n = int(v)
	case int:
		n = v
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, argErr(key, "must be an integer")
		}
		n = i
	default:
		return 0, argErr(key, "must be an integer")
	}
	if n < lo || n > hi {
		return 0, argErr(key, "must be between %d and %d", lo, hi)
	}
	return n, nil
}

func floatArg(req mcp.CallToolRequest, key string, lo, hi float64) (float64, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return 0, argErr(key, "required")
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	default:
		return 0, argErr(key, "must be a number")
	}
	if f < lo || f > hi {
		return 0, argErr(key, "must be between %g and %g", lo, hi)
	}
	return f, nil
}

// stringList accepts a JSON array of strings or a comma separated string.
func stringList(req mcp.CallToolRequest, key string) []string {
	var parts []string
	switch v := req.GetArguments()[key].(type) {
	case []any:
		for _, it := range v {
			if s, ok := it.(string); ok {
				parts = append(parts, s)
			}
		}
	case []string:
		parts = v
	case string:
		parts = strings.Split(v, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func objectArg(req mcp.CallToolRequest, key string) (map[string]any, error) {
	v, ok := req.GetArguments()[key].(map[string]any)
	if !ok || len(v) == 0 {
		return nil, argErr(key, "required object")
	}
	return v, nil
}

func objectList(req mcp.CallToolRequest, key string) ([]map[string]any, error) {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok || len(raw) == 0 {
		return nil, argErr(key, "at least one entry required")
	}
	out := make([]map[string]any, 0, len(raw))
	for i, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, argErr(fmt.Sprintf("%s[%d]", key, i), "must be an object")
		}
		out = append(out, m)
	}
	return out, nil
}

/********** time ranges **********/

// parseInstant accepts RFC 3339 timestamps, YYYY-MM-DD dates and relative
// offsets like "15m", "6h" or "7d" (meaning that long before now).
func parseInstant(v string, now time.Time) (time.Time, error) {
	if v == "" || strings.EqualFold(v, "now") {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, nil
	}
	d, err := parseLookback(v)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}

func parseLookback(v string) (time.Duration, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "-")
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%q is not a valid duration", v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%q is not a valid duration", v)
	}
	return d, nil
}

// timeRange reads start_time/end_time. Zero values are left for the service
// defaults to fill; a start without an end is checked against now, which is
// the end the services default to.
func timeRange(req mcp.CallToolRequest, now time.Time) (time.Time, time.Time, error) {
	var start, end time.Time
	if v := optString(req, "start_time"); v != "" {
		t, err := parseInstant(v, now)
		if err != nil {
			return start, end, argErr("start_time", "%v", err)
		}
		start = t
	}
	if v := optString(req, "end_time"); v != "" {
		t, err := parseInstant(v, now)
		if err != nil {
			return start, end, argErr("end_time", "%v", err)
		}
		end = t
	}
	if start.IsZero() {
		return start, end, nil
	}
	switch {
	case end.IsZero() && !start.Before(now):
		return start, end, argErr("start_time", "must be in the past when end_time is omitted")
	case !end.IsZero() && !start.Before(end):
		return start, end, argErr("start_time", "must be before end_time")
	}
	return start, end, nil
}
