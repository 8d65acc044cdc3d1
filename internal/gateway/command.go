package gateway

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	mcpserver "mcp_gateway/internal/adapters/mcp_server"
	"mcp_gateway/internal/adapters/observability"
	"mcp_gateway/internal/shared"
)

// NewCommand returns the root command of one MCP server binary. Running it
// without a subcommand serves; "tools" prints the tool list.
func NewCommand(server, short string, build Builder) *cobra.Command {
	var transport, addr string

	loadConfig := func() shared.Config {
		cfg := shared.Load()
		if transport != "" {
			cfg.Transport = strings.ToLower(transport)
		}
		if addr != "" {
			cfg.HTTPAddr = addr
		}
		log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
		return cfg
	}

	serve := func(cmd *cobra.Command, _ []string) error {
		cfg := loadConfig()
		cfg.WarnMissing(server)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d, err := OpenDeps(ctx, cfg, server)
		if err != nil {
			return err
		}
		defer d.Close()

		reg, err := build(cfg, d)
		if err != nil {
			return fmt.Errorf("build %s tools: %w", server, err)
		}
		return Run(ctx, cfg, reg, d)
	}

	root := &cobra.Command{
		Use:           server + "-mcp",
		Short:         short,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVar(&transport, "transport", "", "MCP transport: stdio or http (default from MCP_TRANSPORT)")
	root.PersistentFlags().StringVar(&addr, "addr", "", "listen address for the http transport (default from HTTP_ADDR)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve MCP tools (default)",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})
	root.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "List the tools this server exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			reg, err := build(cfg, NoopDeps())
			if err != nil {
				return err
			}
			return PrintTools(cmd.OutOrStdout(), reg)
		},
	})
	return root
}

// PrintTools writes one "group  name  description" row per tool.
func PrintTools(w io.Writer, reg *mcpserver.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tTOOL\tDESCRIPTION")
	for _, t := range reg.Tools() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", reg.Group(t.Name), t.Name, t.Description)
	}
	return tw.Flush()
}

// Execute runs the command and logs a fatal error on failure.
func Execute(cmd *cobra.Command) {
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Str("cmd", cmd.Name()).Msg("exited with error")
	}
}
