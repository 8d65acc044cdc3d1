// Package gateway wires configuration, vendor clients, services and
// transports into a runnable MCP server. Both cmd entrypoints use it.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	redisad "mcp_gateway/internal/adapters/redis"
	"mcp_gateway/internal/domain"
	"mcp_gateway/internal/shared"
	mysqlrepo "mcp_gateway/internal/storage/mysql"
)

const pingTimeout = 5 * time.Second

// Deps are the optional stores shared by the services of one server.
type Deps struct {
	Cache   domain.Cache
	Audit   domain.AuditLog
	closers []func() error
}

// OpenDeps connects the cache and the audit store when configured. An
// unreachable Redis only disables caching; an unreachable audit database
// is an error.
func OpenDeps(ctx context.Context, cfg shared.Config, server string) (*Deps, error) {
	d := NoopDeps()

	if cfg.RedisAddr != "" {
		c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "mcpgw:"+server+":")
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := c.Ping(pctx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, caching disabled")
			_ = c.Close()
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache ok")
			d.Cache = c
			d.closers = append(d.closers, c.Close)
		}
	}

	if cfg.AuditDSN != "" {
		db, err := mysqlrepo.Open(cfg.AuditDSN)
		if err != nil {
			return nil, err
		}
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("audit db ping: %w", err)
		}
		if err := mysqlrepo.Migrate(pctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("audit db migrate: %w", err)
		}
		log.Info().Msg("audit database ok")
		d.Audit = mysqlrepo.New(db)
		d.closers = append(d.closers, db.Close)
	}
	return d, nil
}

// NoopDeps disables caching and auditing.
func NoopDeps() *Deps {
	return &Deps{Cache: redisad.Noop{}, Audit: mysqlrepo.Noop{}}
}

func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}
