package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bankdash/postgres")

// maxStatementAttr bounds db.statement span attributes.
const maxStatementAttr = 256

// Options sizes the connection pool. Zero values take the defaults below.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 25
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = 5
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = 5 * time.Minute
	}
	return o
}

// querier is what repositories run statements through; DB and Tx both
// satisfy it, so a repository works the same inside a unit of work.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// conn is the untraced surface of *sql.DB and *sql.Tx.
type conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DB is a connection pool whose statements are traced.
type DB struct {
	*sql.DB
}

// New opens the pool and pings it once.
func New(connStr string, opts Options) (*DB, error) {
	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	opts = opts.withDefaults()
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &DB{DB: sqlDB}, nil
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return queryTraced(ctx, db.DB, query, args)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	return queryRowTraced(ctx, db.DB, query, args)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return execTraced(ctx, db.DB, query, args)
}

// Tx is an open transaction whose statements are traced.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return queryTraced(ctx, t.tx, query, args)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	return queryRowTraced(ctx, t.tx, query, args)
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return execTraced(ctx, t.tx, query, args)
}

func startStatement(ctx context.Context, query string) (context.Context, trace.Span) {
	verb := statementVerb(query)
	return tracer.Start(ctx, "postgres "+verb,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", verb),
			attribute.String("db.statement", redactStatement(query)),
		),
	)
}

func endStatement(span trace.Span, err error) {
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func queryTraced(ctx context.Context, c conn, query string, args []any) (*sql.Rows, error) {
	ctx, span := startStatement(ctx, query)
	rows, err := c.QueryContext(ctx, query, args...)
	endStatement(span, err)
	return rows, err
}

func execTraced(ctx context.Context, c conn, query string, args []any) (sql.Result, error) {
	ctx, span := startStatement(ctx, query)
	res, err := c.ExecContext(ctx, query, args...)
	endStatement(span, err)
	return res, err
}

// Row defers ending its span to Scan, where sql.Row reports errors.
type Row struct {
	row  *sql.Row
	span trace.Span
}

func queryRowTraced(ctx context.Context, c conn, query string, args []any) *Row {
	ctx, span := startStatement(ctx, query)
	return &Row{row: c.QueryRowContext(ctx, query, args...), span: span}
}

func (r *Row) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if r.span != nil {
		endStatement(r.span, err)
		r.span = nil
	}
	return err
}

func statementVerb(q string) string {
	if f := strings.Fields(q); len(f) > 0 {
		return strings.ToUpper(f[0])
	}
	return ""
}

// redactStatement masks quoted strings and numeric literals so account
// numbers and amounts never reach a trace backend. $n placeholders are
// kept.
func redactStatement(q string) string {
	var out strings.Builder
	out.Grow(len(q))
	inString := false
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case inString:
			if c != '\'' {
				continue
			}
			if i+1 < len(q) && q[i+1] == '\'' {
				i++
				continue
			}
			inString = false
		case c == '\'':
			inString = true
			out.WriteString("'?'")
		case isDigit(c) && (i == 0 || !isIdentByte(q[i-1])):
			for i+1 < len(q) && (isDigit(q[i+1]) || q[i+1] == '.') {
				i++
			}
			out.WriteByte('?')
		default:
			out.WriteByte(c)
		}
	}

	s := strings.Join(strings.Fields(out.String()), " ")
	if len(s) > maxStatementAttr {
		s = s[:maxStatementAttr] + "..."
	}
	return s
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentByte(c byte) bool {
	return isDigit(c) || c == '_' || c == '$' || (c|0x20 >= 'a' && c|0x20 <= 'z')
}
