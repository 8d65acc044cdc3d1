package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpserver "mcp_gateway/internal/adapters/http_server"
	mcpserver "mcp_gateway/internal/adapters/mcp_server"
	"mcp_gateway/internal/adapters/observability"
	"mcp_gateway/internal/shared"
)

const (
	Version         = "0.3.0"
	shutdownTimeout = 10 * time.Second
)

// Run serves reg on the configured transport until ctx is cancelled or the
// stdio input is closed.
func Run(ctx context.Context, cfg shared.Config, reg *mcpserver.Registry, d *Deps) error {
	metrics := observability.InitRegistry()
	s := mcpserver.NewMCPServer(reg, Version)

	g, ctx := errgroup.WithContext(ctx)

	if ms := observability.Serve(cfg.MetricsAddr, metrics); ms != nil {
		g.Go(func() error {
			<-ctx.Done()
			return shutdown(ms)
		})
	}

	switch cfg.Transport {
	case shared.TransportStdio:
		log.Info().Str("server", reg.Server()).Int("tools", len(reg.Names())).Msg("serving MCP on stdio")
		g.Go(func() error {
			err := mcpserver.ServeStdio(ctx, s, os.Stdin, os.Stdout)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err == nil {
				// input closed; stop the metrics listener too
				return errStdinClosed
			}
			return err
		})

	case shared.TransportHTTP:
		router := httpserver.New()
		router.Mount("/metrics", observability.MetricsHandler(metrics))
		router.MountHandlers(&httpserver.Handlers{
			Server: reg.Server(),
			MCP:    mcpserver.StreamableHandler(s),
			Audit:  d.Audit,
		})
		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router.Mux(), ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			log.Info().Str("server", reg.Server()).Str("addr", cfg.HTTPAddr).Int("tools", len(reg.Names())).Msg("serving MCP over streamable HTTP")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return shutdown(srv)
		})

	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", cfg.Transport, shared.TransportStdio, shared.TransportHTTP)
	}

	err := g.Wait()
	if errors.Is(err, errStdinClosed) {
		log.Info().Msg("stdin closed, exiting")
		return nil
	}
	return err
}

var errStdinClosed = errors.New("stdin closed")

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown %s: %w", srv.Addr, err)
	}
	return nil
}
