package mcpserver

import (
	"context"
	"io"
	stdlog "log"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

// unknownToolRoute receives tools/call requests for names the registry does
// not know. It is never listed.
const unknownToolRoute = "_unknown_tool"

// NewMCPServer builds the protocol server and attaches the registry's tools.
// Calls to unregistered names are rerouted to the registry so they come back
// as error results instead of JSON-RPC errors.
func NewMCPServer(r *Registry, version string) *server.MCPServer {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(r.rerouteUnknown)
	hooks.AddAfterListTools(func(_ context.Context, _ any, _ *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		if res == nil {
			return
		}
		kept := res.Tools[:0]
		for _, t := range res.Tools {
			if t.Name != unknownToolRoute {
				kept = append(kept, t)
			}
		}
		res.Tools = kept
	})

	s := server.NewMCPServer(
		r.Server()+"-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(hooks),
	)
	r.Attach(s)
	s.AddTool(mcp.NewTool(unknownToolRoute, mcp.WithDescription("internal")), r.handleUnknown)
	return s
}

// rerouteUnknown moves the requested name and arguments under the internal
// route when the name is not registered.
func (r *Registry) rerouteUnknown(_ context.Context, _ any, req *mcp.CallToolRequest) {
	if req == nil {
		return
	}
	if _, ok := r.byName[req.Params.Name]; ok {
		return
	}
	req.Params.Arguments = map[string]any{"tool": req.Params.Name, "arguments": req.Params.Arguments}
	req.Params.Name = unknownToolRoute
}

func (r *Registry) handleUnknown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orig := mcp.CallToolRequest{}
	orig.Params.Name = unknownToolRoute
	if w, ok := req.Params.Arguments.(map[string]any); ok {
		if name, ok := w["tool"].(string); ok {
			orig.Params.Name = name
		}
		orig.Params.Arguments = w["arguments"]
	}
	return r.invoke(ctx, orig), nil
}

// ServeStdio speaks MCP over the given streams until ctx is cancelled or
// the input is closed.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	std := server.NewStdioServer(s)
	std.SetErrorLogger(stdlog.New(log.Logger, "", 0))
	return std.Listen(ctx, in, out)
}

func StreamableHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}
