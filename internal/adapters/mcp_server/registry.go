package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"mcp_gateway/internal/adapters/observability"
	"mcp_gateway/internal/domain"
)

const auditTimeout = 2 * time.Second

type entry struct {
	group  string
	tool   server.ServerTool
	raw    json.RawMessage // published input schema
	schema *gojsonschema.Schema
}

// Registry owns the tool set of one MCP server. Every call, whether it comes
// through an MCP transport or through Call, runs the same pipeline: schema
// check, handler, error conversion, then metrics, log and audit.
type Registry struct {
	server  string
	audit   domain.AuditLog
	entries []*entry
	byName  map[string]*entry
	errs    []error
}

func NewRegistry(serverName string, audit domain.AuditLog) *Registry {
	return &Registry{server: serverName, audit: audit, byName: map[string]*entry{}}
}

func (r *Registry) Server() string { return r.server }

// Register adds tools under a group name. Problems (duplicate names, schemas
// that do not compile) are collected and reported by Validate.
func (r *Registry) Register(group string, tools ...server.ServerTool) {
	for _, t := range tools {
		name := t.Tool.Name
		if _, dup := r.byName[name]; dup {
			r.errs = append(r.errs, fmt.Errorf("tool %q registered twice", name))
			continue
		}
		e := &entry{group: group, tool: t}
		raw, err := inputSchema(t.Tool)
		if err == nil {
			e.raw = raw
			e.schema, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		}
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("tool %q: input schema: %w", name, err))
		}
		r.entries = append(r.entries, e)
		r.byName[name] = e
	}
}

func (r *Registry) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.tool.Tool)
	}
	return out
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.tool.Tool.Name)
	}
	return out
}

func (r *Registry) Group(name string) string {
	if e, ok := r.byName[name]; ok {
		return e.group
	}
	return ""
}

func (r *Registry) Lookup(name string) (mcp.Tool, bool) {
	e, ok := r.byName[name]
	if !ok {
		return mcp.Tool{}, false
	}
	return e.tool.Tool, true
}

// Validate checks every tool declaration: non-empty name and description,
// an object input schema with a required array, and required entries that
// name declared properties.
func (r *Registry) Validate() error {
	errs := append([]error(nil), r.errs...)
	for _, e := range r.entries {
		t := e.tool.Tool
		if strings.TrimSpace(t.Name) == "" {
			errs = append(errs, errors.New("tool with empty name"))
		}
		if strings.TrimSpace(t.Description) == "" {
			errs = append(errs, fmt.Errorf("tool %q: empty description", t.Name))
		}
		if t.InputSchema.Type != "object" {
			errs = append(errs, fmt.Errorf("tool %q: input schema type is %q, want object", t.Name, t.InputSchema.Type))
		}
		if e.raw != nil && !gjson.GetBytes(e.raw, "required").IsArray() {
			errs = append(errs, fmt.Errorf("tool %q: input schema has no required array", t.Name))
		}
		for _, req := range t.InputSchema.Required {
			if _, ok := t.InputSchema.Properties[req]; !ok {
				errs = append(errs, fmt.Errorf("tool %q: required %q is not a declared property", t.Name, req))
			}
		}
		if e.tool.Handler == nil {
			errs = append(errs, fmt.Errorf("tool %q: no handler", t.Name))
		}
	}
	return errors.Join(errs...)
}

// Attach adds the tools to an MCP server, routed through the registry.
func (r *Registry) Attach(s *server.MCPServer) {
	tools := make([]server.ServerTool, 0, len(r.entries))
	for _, e := range r.entries {
		tools = append(tools, server.ServerTool{
			Tool: e.published(),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return r.invoke(ctx, req), nil
			},
		})
	}
	s.AddTools(tools...)
}

// published is the tool as listed to clients: the same declaration with the
// input schema carried raw so an empty required list is kept.
func (e *entry) published() mcp.Tool {
	t := e.tool.Tool
	if e.raw != nil {
		t.InputSchema = mcp.ToolInputSchema{}
		t.RawInputSchema = e.raw
	}
	return t
}

// inputSchema renders the tool's input schema with "properties" and
// "required" always present.
func inputSchema(t mcp.Tool) (json.RawMessage, error) {
	if t.RawInputSchema != nil {
		return t.RawInputSchema, nil
	}
	m := map[string]any{
		"type":       t.InputSchema.Type,
		"properties": t.InputSchema.Properties,
		"required":   t.InputSchema.Required,
	}
	if t.InputSchema.Properties == nil {
		m["properties"] = map[string]any{}
	}
	if t.InputSchema.Required == nil {
		m["required"] = []string{}
	}
	if t.InputSchema.Defs != nil {
		m["$defs"] = t.InputSchema.Defs
	}
	return json.Marshal(m)
}

// Call runs a tool by name. It never returns nil; failures come back as
// error results whose text starts with "Error: ".
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return r.invoke(ctx, req)
}

func (r *Registry) invoke(ctx context.Context, req mcp.CallToolRequest) *mcp.CallToolResult {
	start := time.Now()
	name := req.Params.Name
	args := req.GetArguments()

	res := r.dispatch(ctx, req)

	dur := time.Since(start)
	label := name
	if _, ok := r.byName[name]; !ok {
		label = "unknown"
	}
	observability.ObserveTool(r.server, label, res.IsError, dur)

	ev := log.Info()
	if res.IsError {
		ev = log.Warn().Str("error", resultText(res))
	}
	ev.Str("server", r.server).Str("tool", name).Dur("duration", dur).Bool("is_error", res.IsError).Msg("tool_call")

	r.record(ctx, name, args, res, dur)
	return res
}

func (r *Registry) dispatch(ctx context.Context, req mcp.CallToolRequest) (res *mcp.CallToolResult) {
	e, ok := r.byName[req.Params.Name]
	if !ok {
		return errorResult(fmt.Errorf("unknown tool %q", req.Params.Name))
	}
	if err := checkArgs(e.schema, req.GetArguments()); err != nil {
		return errorResult(err)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Str("tool", req.Params.Name).Msg("tool handler panicked")
			res = errorResult(fmt.Errorf("internal error in %s", req.Params.Name))
		}
	}()
	out, err := e.tool.Handler(ctx, req)
	switch {
	case err != nil:
		return errorResult(err)
	case out == nil:
		return errorResult(fmt.Errorf("%s returned no result", req.Params.Name))
	}
	return out
}

// checkArgs validates arguments against the tool's input schema.
func checkArgs(schema *gojsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &ArgError{Msg: err.Error()}
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
	}
	sort.Strings(msgs)
	return &ArgError{Msg: strings.Join(msgs, "; ")}
}

func (r *Registry) record(ctx context.Context, name string, args map[string]any, res *mcp.CallToolResult, dur time.Duration) {
	if r.audit == nil {
		return
	}
	raw, err := json.Marshal(redactArgs(args))
	if err != nil {
		raw = []byte("null")
	}
	call := domain.ToolCall{
		ID:         uuid.NewString(),
		Server:     r.server,
		Tool:       name,
		Arguments:  raw,
		IsError:    res.IsError,
		DurationMS: dur.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if res.IsError {
		txt := resultText(res)
		call.ErrorText = &txt
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := r.audit.RecordCall(actx, call); err != nil {
		log.Warn().Err(err).Str("err_type", observability.LabelErr(err)).Str("tool", name).Msg("audit record failed")
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: " + err.Error())
}

func textResult(s string) *mcp.CallToolResult {
	return mcp.NewToolResultText(s)
}

// resultText concatenates the text parts of a result.
func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
