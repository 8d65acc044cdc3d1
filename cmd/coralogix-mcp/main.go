package main

import "mcp_gateway/internal/gateway"

func main() {
	gateway.Execute(gateway.NewCommand(gateway.Coralogix,
		"MCP tools for Coralogix logs, alerts, dashboards and usage", gateway.NewCoralogix))
}
