package mcpserver

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mcp_gateway/internal/app"
	"mcp_gateway/internal/domain"
)

var (
	severities   = []string{"DEBUG", "VERBOSE", "INFO", "WARNING", "ERROR", "CRITICAL"}
	resolutionRe = regexp.MustCompile(`^[0-9]+[mhd]$`)
	labelRe      = regexp.MustCompile(`^[A-Za-z0-9_.\-/]+$`)
)

// CoralogixServices are the log-analytics services behind the Coralogix tools.
type CoralogixServices struct {
	Logs        *app.LogService
	Alerts      *app.AlertService
	Dashboards  *app.DashboardService
	Enrichments *app.EnrichmentService
	Usage       *app.UsageService
}

type coralogixTools struct {
	CoralogixServices
	now func() time.Time
}

// RegisterCoralogix adds the log-analytics tools to r.
func RegisterCoralogix(r *Registry, s CoralogixServices) {
	t := coralogixTools{CoralogixServices: s, now: time.Now}
	r.Register("logs", t.queryLogs(), t.searchLogs())
	r.Register("alerts", t.listAlerts(), t.getAlert(), t.setAlertActive())
	r.Register("dashboards", t.listDashboards(), t.getDashboard())
	r.Register("enrichments", t.listEnrichments(), t.listCustomEnrichments())
	r.Register("usage", t.getDataUsage(), t.listTCOPolicies())
}

func timeRangeParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("start_time", mcp.Description("Range start: RFC 3339 timestamp, YYYY-MM-DD, or a lookback such as 15m, 6h, 7d")),
		mcp.WithString("end_time", mcp.Description("Range end, same formats as start_time (default now)")),
	}
}

func limitParam() mcp.ToolOption {
	return mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum records (1-%d)", app.MaxQueryLimit)),
		mcp.Min(1), mcp.Max(app.MaxQueryLimit), mcp.DefaultNumber(app.DefaultQueryLimit))
}

func (t coralogixTools) runQuery(ctx context.Context, req mcp.CallToolRequest, q domain.DataQuery) (*mcp.CallToolResult, error) {
	var err error
	if q.Start, q.End, err = timeRange(req, t.now()); err != nil {
		return nil, err
	}
	if q.Limit, err = intArg(req, "limit", app.DefaultQueryLimit, 1, app.MaxQueryLimit); err != nil {
		return nil, err
	}
	res, err := t.Logs.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return textResult(app.FormatLogRecords(res)), nil
}

/********** logs **********/

func (t coralogixTools) queryLogs() server.ServerTool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Run a DataPrime or Lucene query over logs for a time range (default: last 15 minutes)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Query text, e.g. source logs | filter $m.severity == ERROR")),
		mcp.WithString("syntax", mcp.Description("Query language"), mcp.Enum("dataprime", "lucene"), mcp.DefaultString("dataprime")),
		mcp.WithString("tier", mcp.Description("Storage tier to search"), mcp.Enum("frequent_search", "archive"), mcp.DefaultString("frequent_search")),
		limitParam(),
	}
	return server.ServerTool{
		Tool: newTool("query_logs", true, append(opts, timeRangeParams()...)...),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			query, err := reqString(req, "query")
			if err != nil {
				return nil, err
			}
			q := domain.DataQuery{Query: query, Syntax: domain.SyntaxDataPrime, Tier: domain.TierFrequentSearch}
			if strings.EqualFold(optString(req, "syntax"), "lucene") {
				q.Syntax = domain.SyntaxLucene
			}
			if strings.EqualFold(optString(req, "tier"), "archive") {
				q.Tier = domain.TierArchive
			}
			return t.runQuery(ctx, req, q)
		},
	}
}

func (t coralogixTools) searchLogs() server.ServerTool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Search logs by application, subsystem, minimum severity and free text without writing a query."),
		mcp.WithString("text", mcp.Description("Free text to find anywhere in the log")),
		mcp.WithString("application", mcp.Description("Application name")),
		mcp.WithString("subsystem", mcp.Description("Subsystem name")),
		mcp.WithString("severity", mcp.Description("Minimum severity"), mcp.Enum(severities...)),
		limitParam(),
	}
	return server.ServerTool{
		Tool: newTool("search_logs", true, append(opts, timeRangeParams()...)...),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			query, err := buildSearchQuery(req)
			if err != nil {
				return nil, err
			}
			return t.runQuery(ctx, req, domain.DataQuery{Query: query})
		},
	}
}

// buildSearchQuery turns search_logs filters into a DataPrime query.
func buildSearchQuery(req mcp.CallToolRequest) (string, error) {
	parts := []string{"source logs"}
	for _, f := range []struct{ arg, label string }{
		{"application", "applicationname"},
		{"subsystem", "subsystemname"},
	} {
		v := optString(req, f.arg)
		if v == "" {
			continue
		}
		if !labelRe.MatchString(v) {
			return "", argErr(f.arg, "%q contains unsupported characters", v)
		}
		parts = append(parts, fmt.Sprintf("filter $l.%s == '%s'", f.label, v))
	}
	if sev := strings.ToUpper(optString(req, "severity")); sev != "" {
		idx := -1
		for i, s := range severities {
			if s == sev {
				idx = i
			}
		}
		if idx < 0 {
			return "", argErr("severity", "must be one of %s", strings.Join(severities, ", "))
		}
		if idx > 0 {
			conds := make([]string, 0, len(severities)-idx)
			for _, s := range severities[idx:] {
				conds = append(conds, "$m.severity == "+s)
			}
			parts = append(parts, "filter "+strings.Join(conds, " || "))
		}
	}
	if text := optString(req, "text"); text != "" {
		parts = append(parts, "wildfind '"+quoteDataPrime(text)+"'")
	}
	return strings.Join(parts, " | "), nil
}

func quoteDataPrime(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

/********** alerts **********/

func alertIDParam() mcp.ToolOption {
	return mcp.WithString("alert_id", mcp.Required(), mcp.Description("Alert definition id from list_alerts"))
}

func (t coralogixTools) listAlerts() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("list_alerts", true, mcp.WithDescription("List alert definitions with their priority, type and state.")),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := t.Alerts.List(ctx)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatAlerts(out)), nil
		},
	}
}

func (t coralogixTools) getAlert() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("get_alert", true, mcp.WithDescription("Get the full definition of one alert."), alertIDParam()),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := reqString(req, "alert_id")
			if err != nil {
				return nil, err
			}
			out, err := t.Alerts.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatAlert(out)), nil
		},
	}
}

func (t coralogixTools) setAlertActive() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("set_alert_active", false,
			mcp.WithDescription("Enable or disable an alert."),
			alertIDParam(),
			mcp.WithBoolean("active", mcp.Required(), mcp.Description("true to enable, false to disable")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := reqString(req, "alert_id")
			if err != nil {
				return nil, err
			}
			active, err := req.RequireBool("active")
			if err != nil {
				return nil, argErr("active", "required boolean")
			}
			if err := t.Alerts.SetActive(ctx, id, active); err != nil {
				return nil, err
			}
			state := "disabled"
			if active {
				state = "enabled"
			}
			return textResult(fmt.Sprintf("Alert %s %s.", id, state)), nil
		},
	}
}

/********** dashboards **********/

func (t coralogixTools) listDashboards() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("list_dashboards", true, mcp.WithDescription("List custom dashboards.")),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := t.Dashboards.List(ctx)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatDashboards(out)), nil
		},
	}
}

func (t coralogixTools) getDashboard() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("get_dashboard", true,
			mcp.WithDescription("Get a dashboard and the widgets it contains."),
			mcp.WithString("dashboard_id", mcp.Required(), mcp.Description("Dashboard id from list_dashboards")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := reqString(req, "dashboard_id")
			if err != nil {
				return nil, err
			}
			out, err := t.Dashboards.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatDashboard(out)), nil
		},
	}
}

/********** enrichments **********/

func (t coralogixTools) listEnrichments() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("list_enrichments", true, mcp.WithDescription("List enrichment rules (geo IP, suspicious IP, AWS, custom).")),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := t.Enrichments.List(ctx)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatEnrichments(out)), nil
		},
	}
}

func (t coralogixTools) listCustomEnrichments() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("list_custom_enrichments", true, mcp.WithDescription("List custom enrichment tables.")),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := t.Enrichments.ListCustom(ctx)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatCustomEnrichments(out)), nil
		},
	}
}

/********** usage **********/

var aggregates = map[string]string{
	"application": "AGGREGATE_BY_APPLICATION",
	"subsystem":   "AGGREGATE_BY_SUBSYSTEM",
	"pillar":      "AGGREGATE_BY_PILLAR",
	"priority":    "AGGREGATE_BY_PRIORITY",
}

func (t coralogixTools) getDataUsage() server.ServerTool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Show ingested data volume and units over a time range (default: last 7 days, daily)."),
		mcp.WithString("resolution", mcp.Description("Bucket size such as 1h or 1d"), mcp.DefaultString("1d")),
		mcp.WithString("aggregate", mcp.Description("Break usage down by a dimension"),
			mcp.Enum("application", "subsystem", "pillar", "priority")),
	}
	return server.ServerTool{
		Tool: newTool("get_data_usage", true, append(opts, timeRangeParams()...)...),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var q domain.UsageQuery
			var err error
			if q.From, q.To, err = timeRange(req, t.now()); err != nil {
				return nil, err
			}
			if q.Resolution = optString(req, "resolution"); q.Resolution != "" && !resolutionRe.MatchString(q.Resolution) {
				return nil, argErr("resolution", "%q is not a resolution such as 1h or 1d", q.Resolution)
			}
			if a := strings.ToLower(optString(req, "aggregate")); a != "" {
				q.Aggregate = aggregates[a]
			}
			out, err := t.Usage.DataUsage(ctx, q)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatDataUsage(out)), nil
		},
	}
}

func (t coralogixTools) listTCOPolicies() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("list_tco_policies", true,
			mcp.WithDescription("List TCO policies that route data to storage priorities."),
			mcp.WithString("source_type", mcp.Description("Policy source type"), mcp.Enum("logs", "spans"), mcp.DefaultString("logs")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			source := strings.ToLower(optString(req, "source_type"))
			if source == "" {
				source = "logs"
			}
			out, err := t.Usage.TCOPolicies(ctx, source)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatTCOPolicies(out)), nil
		},
	}
}
