package main

import "mcp_gateway/internal/gateway"

func main() {
	gateway.Execute(gateway.NewCommand(gateway.Amadeus,
		"MCP tools for Amadeus flights, hotels and activities", gateway.NewAmadeus))
}
