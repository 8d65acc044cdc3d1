package mysql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"mcp_gateway/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const maxListLimit = 500

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// Open connects with parseTime and UTC forced on, whatever the DSN says.
func Open(dsn string) (*sql.DB, error) {
	cfg, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true
	conn, err := mysqldrv.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(conn)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Migrate applies the embedded migrations in file name order. They are
// idempotent, so running them on every start is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := migrations.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
	}
	return nil
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

var _ domain.AuditLog = (*Repo)(nil)

func (r *Repo) RecordCall(ctx context.Context, c domain.ToolCall) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertToolCallSQL,
		c.ID,
		c.Server,
		c.Tool,
		valJSON(c.Arguments),
		c.IsError,
		valStr(c.ErrorText),
		c.DurationMS,
		c.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) ListRecentCalls(ctx context.Context, server string, limit int) ([]domain.ToolCall, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	server = strings.ToLower(strings.TrimSpace(server))
	rows, err := r.db.QueryContext(ctx, listRecentCallsSQL, server, server, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ToolCall
	for rows.Next() {
		var (
			c       domain.ToolCall
			args    sql.NullString
			errText sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Server, &c.Tool, &args, &c.IsError, &errText, &c.DurationMS, &c.CreatedAt); err != nil {
			return nil, err
		}
		if args.Valid {
			c.Arguments = []byte(args.String)
		}
		if errText.Valid {
			s := errText.String
			c.ErrorText = &s
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Noop is the audit log used when no database is configured.
type Noop struct{}

func (Noop) RecordCall(context.Context, domain.ToolCall) error { return nil }

func (Noop) ListRecentCalls(context.Context, string, int) ([]domain.ToolCall, error) {
	return []domain.ToolCall{}, nil
}
