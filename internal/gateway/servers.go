package gateway

import (
	"mcp_gateway/internal/adapters/amadeus"
	"mcp_gateway/internal/adapters/coralogix"
	mcpserver "mcp_gateway/internal/adapters/mcp_server"
	"mcp_gateway/internal/app"
	"mcp_gateway/internal/shared"
)

const (
	Amadeus   = "amadeus"
	Coralogix = "coralogix"
)

// Builder assembles the tool registry of one server.
type Builder func(cfg shared.Config, d *Deps) (*mcpserver.Registry, error)

func NewAmadeus(cfg shared.Config, d *Deps) (*mcpserver.Registry, error) {
	base := cfg.AmadeusBaseURL
	if base == "" {
		base = amadeus.BaseURLFor(cfg.AmadeusEnv)
	}
	c, err := amadeus.New(amadeus.Config{
		BaseURL:      base,
		ClientID:     cfg.AmadeusClientID,
		ClientSecret: cfg.AmadeusClientSecret,
		RPS:          cfg.VendorRPS,
		Timeout:      cfg.VendorTimeout,
	})
	if err != nil {
		return nil, err
	}
	r := mcpserver.NewRegistry(Amadeus, d.Audit)
	mcpserver.RegisterAmadeus(r, mcpserver.AmadeusServices{
		Flights:    app.NewFlightService(c),
		Locations:  app.NewLocationService(c, d.Cache, cfg.CacheTTL),
		Hotels:     app.NewHotelService(c),
		Activities: app.NewActivityService(c),
	})
	return r, r.Validate()
}

func NewCoralogix(cfg shared.Config, d *Deps) (*mcpserver.Registry, error) {
	base := cfg.CoralogixBaseURL
	if base == "" {
		base = coralogix.BaseURLFor(cfg.CoralogixDomain)
	}
	c, err := coralogix.New(coralogix.Config{
		BaseURL: base,
		APIKey:  cfg.CoralogixAPIKey,
		RPS:     cfg.VendorRPS,
		Timeout: cfg.VendorTimeout,
	})
	if err != nil {
		return nil, err
	}
	r := mcpserver.NewRegistry(Coralogix, d.Audit)
	mcpserver.RegisterCoralogix(r, mcpserver.CoralogixServices{
		Logs:        app.NewLogService(c),
		Alerts:      app.NewAlertService(c),
		Dashboards:  app.NewDashboardService(c, d.Cache, cfg.CacheTTL),
		Enrichments: app.NewEnrichmentService(c),
		Usage:       app.NewUsageService(c),
	})
	return r, r.Validate()
}
