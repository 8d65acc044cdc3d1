package app

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"mcp_gateway/internal/domain"
)

/********** log records **********/

var severityNames = map[string]string{
	"1": "DEBUG", "2": "VERBOSE", "3": "INFO", "4": "WARNING", "5": "ERROR", "6": "CRITICAL",
}

// userData message keys, in order of preference.
var messageKeys = []string{"message", "msg", "log", "text"}

func FormatLogRecords(res domain.QueryResult) string {
	if len(res.Records) == 0 {
		out := "No logs found for the given query and time range."
		if len(res.Warnings) > 0 {
			out += "\n\nWarnings:\n- " + strings.Join(res.Warnings, "\n- ")
		}
		return out
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d log %s:\n\n", len(res.Records), plural(len(res.Records), "record", "records"))
	for _, r := range res.Records {
		b.WriteString(FormatLogLine(r))
		b.WriteString("\n")
	}
	if len(res.Warnings) > 0 {
		b.WriteString("\nWarnings:\n- ")
		b.WriteString(strings.Join(res.Warnings, "\n- "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatLogLine renders one DataPrime result row as
// "[timestamp] SEVERITY app/subsystem: message".
func FormatLogLine(r map[string]any) string {
	meta := keyValues(r, "metadata")
	labels := keyValues(r, "labels")
	userData := rawUserData(r)

	ts := meta["timestamp"]
	sev := meta["severity"]
	if name, ok := severityNames[sev]; ok {
		sev = name
	}
	if sev == "" {
		sev = strings.ToUpper(gjson.Get(userData, "level").String())
	}
	if sev == "" {
		sev = "INFO"
	}
	source := joinNonEmpty("/", labels["applicationname"], labels["subsystemname"])
	if source == "" {
		source = "-"
	}
	return fmt.Sprintf("[%s] %s %s: %s", ts, strings.ToUpper(sev), source, logMessage(userData))
}

// rawUserData returns userData as JSON text; the API sends it as a string,
// older result rows carry it as an object.
func rawUserData(r map[string]any) string {
	switch v := r["userData"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func logMessage(userData string) string {
	if !gjson.Valid(userData) {
		return truncate(strings.TrimSpace(userData), 1000)
	}
	parsed := gjson.Parse(userData)
	if parsed.IsObject() {
		for _, k := range messageKeys {
			if v := parsed.Get(k); v.Exists() && v.String() != "" {
				return truncate(v.String(), 1000)
			}
		}
	}
	return truncate(parsed.Raw, 1000)
}

// keyValues flattens [{key, value}] pairs, lower-casing keys.
func keyValues(r map[string]any, path string) map[string]string {
	out := map[string]string{}
	for _, kv := range lookupItems(r, path) {
		if k := lookupStr(kv, "key"); k != "" {
			out[strings.ToLower(k)] = lookupStr(kv, "value")
		}
	}
	return out
}

/********** alerts **********/

func FormatAlerts(resp map[string]any) string {
	defs := lookupItems(resp, "alertDefs")
	if len(defs) == 0 {
		return "No alerts found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:\n", len(defs), plural(len(defs), "alert", "alerts"))
	for _, d := range defs {
		b.WriteString("- " + alertLine(d) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func alertLine(d map[string]any) string {
	state := "disabled"
	if v, _ := lookupAny(d, "alertDefProperties.enabled").(bool); v {
		state = "enabled"
	}
	return joinNonEmpty(" | ",
		fmt.Sprintf("%s [%s]", lookupStr(d, "alertDefProperties.name"), lookupStr(d, "id")),
		enumTail(lookupStr(d, "alertDefProperties.priority"), "ALERT_DEF_PRIORITY_"),
		enumTail(lookupStr(d, "alertDefProperties.type"), "ALERT_DEF_TYPE_"),
		state,
	)
}

func FormatAlert(resp map[string]any) string {
	d := lookupMap(resp, "alertDef")
	if d == nil {
		d = resp
	}
	if lookupStr(d, "id") == "" {
		return "No alerts found."
	}
	var b strings.Builder
	b.WriteString(alertLine(d) + "\n")
	if desc := lookupStr(d, "alertDefProperties.description"); desc != "" {
		fmt.Fprintf(&b, "Description: %s\n", desc)
	}
	for _, k := range []string{"createdTime", "updatedTime"} {
		if v := lookupStr(d, k); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	if props := lookupMap(d, "alertDefProperties"); props != nil {
		fmt.Fprintf(&b, "\nDefinition:\n%s\n", prettyJSON(props, 4000))
	}
	return strings.TrimRight(b.String(), "\n")
}

/********** dashboards **********/

func FormatDashboards(resp map[string]any) string {
	items := lookupItems(resp, "items")
	if len(items) == 0 {
		return "No dashboards found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:\n", len(items), plural(len(items), "dashboard", "dashboards"))
	for _, d := range items {
		fmt.Fprintf(&b, "- %s [%s]", lookupStr(d, "name"), lookupStr(d, "id"))
		if f := lookupStr(d, "folder.name"); f != "" {
			fmt.Fprintf(&b, " in %s", f)
		}
		if v, _ := lookupAny(d, "isDefault").(bool); v {
			b.WriteString(" (default)")
		}
		if u := lookupStr(d, "updateTime"); u != "" {
			fmt.Fprintf(&b, ", updated %s", u)
		}
		b.WriteString("\n")
		if desc := lookupStr(d, "description"); desc != "" {
			fmt.Fprintf(&b, "  %s\n", truncate(desc, 200))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatDashboard(resp map[string]any) string {
	d := lookupMap(resp, "dashboard")
	if d == nil {
		return "No dashboards found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dashboard %s\n", lookupStr(d, "name"))
	if desc := lookupStr(d, "description"); desc != "" {
		fmt.Fprintf(&b, "%s\n", desc)
	}
	widgets := 0
	for _, s := range lookupItems(d, "layout.sections") {
		for _, row := range lookupItems(s, "rows") {
			for _, w := range lookupItems(row, "widgets") {
				widgets++
				fmt.Fprintf(&b, "- %s (%s)\n", lookupStr(w, "title"), widgetKind(lookupMap(w, "definition")))
			}
		}
	}
	if widgets == 0 {
		b.WriteString("No widgets.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// widgetKind names the single key of a widget definition (lineChart, dataTable, ...).
func widgetKind(def map[string]any) string {
	if len(def) == 0 {
		return "unknown"
	}
	keys := make([]string, 0, len(def))
	for k := range def {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}

/********** enrichments **********/

func FormatEnrichments(resp map[string]any) string {
	items := lookupItems(resp, "enrichments")
	if len(items) == 0 {
		return "No enrichments found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:\n", len(items), plural(len(items), "enrichment", "enrichments"))
	for _, e := range items {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", lookupStr(e, "id"), lookupStr(e, "fieldName"), enrichmentType(lookupMap(e, "enrichmentType")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func enrichmentType(t map[string]any) string {
	switch {
	case t == nil:
		return "unknown"
	case lookupAny(t, "customEnrichment") != nil:
		return "custom #" + lookupStr(t, "customEnrichment.id")
	}
	return widgetKind(t)
}

func FormatCustomEnrichments(resp map[string]any) string {
	items := lookupItems(resp, "customEnrichments")
	if len(items) == 0 {
		return "No custom enrichments found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d custom %s:\n", len(items), plural(len(items), "enrichment", "enrichments"))
	for _, e := range items {
		fmt.Fprintf(&b, "- [%s] %s", lookupStr(e, "id"), lookupStr(e, "name"))
		if v := lookupStr(e, "version"); v != "" {
			fmt.Fprintf(&b, " v%s", v)
		}
		if d := lookupStr(e, "description"); d != "" {
			fmt.Fprintf(&b, ": %s", d)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

/********** usage **********/

func FormatDataUsage(entries []map[string]any) string {
	if len(entries) == 0 {
		return "No data usage records found."
	}
	var b strings.Builder
	var totalGB, totalUnits float64
	b.WriteString("Data usage:\n")
	for _, e := range entries {
		gb := getFloatFlexible(e, "sizeGb")
		units := getFloatFlexible(e, "units")
		line := "- " + lookupStr(e, "timestamp")
		if gb != nil {
			totalGB += *gb
			line += fmt.Sprintf(": %.3f GB", *gb)
		}
		if units != nil {
			totalUnits += *units
			line += fmt.Sprintf(", %.3f units", *units)
		}
		if dims := dimensionLabels(e); dims != "" {
			line += " (" + dims + ")"
		}
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "\nTotal: %.3f GB, %.3f units", totalGB, totalUnits)
	return b.String()
}

func dimensionLabels(e map[string]any) string {
	var parts []string
	for _, d := range lookupItems(e, "dimensions") {
		for k, v := range d {
			if s, ok := v.(string); ok && s != "" {
				parts = append(parts, k+"="+s)
			}
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func FormatTCOPolicies(resp map[string]any) string {
	items := lookupItems(resp, "policies")
	if len(items) == 0 {
		return "No TCO policies found."
	}
	sort.SliceStable(items, func(i, j int) bool {
		oi, oj := getFloatFlexible(items[i], "order"), getFloatFlexible(items[j], "order")
		return oi != nil && (oj == nil || *oi < *oj)
	})
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d TCO %s:\n", len(items), plural(len(items), "policy", "policies"))
	for _, p := range items {
		state := "disabled"
		if v, _ := lookupAny(p, "enabled").(bool); v {
			state = "enabled"
		}
		fmt.Fprintf(&b, "- %s [%s] priority %s, %s", lookupStr(p, "name"), lookupStr(p, "id"),
			strings.TrimPrefix(lookupStr(p, "priority"), "type_"), state)
		if rules := joinNonEmpty(", ", ruleText("app", lookupMap(p, "applicationRule")), ruleText("subsystem", lookupMap(p, "subsystemRule"))); rules != "" {
			fmt.Fprintf(&b, " (%s)", rules)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func ruleText(label string, rule map[string]any) string {
	if rule == nil {
		return ""
	}
	return fmt.Sprintf("%s %s %s", label, lookupStr(rule, "ruleTypeId"), lookupStr(rule, "name"))
}
