package infra

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SQLExecutor defines the contract required by repositories for executing SQL queries.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

var markerRegexp = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// DefaultSlowQuery is the duration above which a statement logs at warn level.
const DefaultSlowQuery = 500 * time.Millisecond

// SQLRunner executes marker-tagged queries against the pool and logs each
// statement under its marker so slow or failing queries can be traced back
// to their constant in package sqlinline.
type SQLRunner struct {
	Pool      *pgxpool.Pool
	Logger    Logger
	SlowQuery time.Duration
}

func NewSQLRunner(pool *pgxpool.Pool, logger Logger) *SQLRunner {
	return &SQLRunner{Pool: pool, Logger: logger, SlowQuery: DefaultSlowQuery}
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	marker, trimmed, err := ExtractMarker(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	start := time.Now()
	tag, err := r.Pool.Exec(ctx, trimmed, args...)
	if err != nil {
		r.Logger.Error().Err(err).Str("sql", marker).Msg("sql exec failed")
		return tag, err
	}
	r.timing(marker, "exec", start).Int64("rows", tag.RowsAffected()).Msg("sql exec")
	return tag, nil
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	marker, trimmed, err := ExtractMarker(query)
	if err != nil {
		return errorRow{err: err}
	}
	return &loggingRow{row: r.Pool.QueryRow(ctx, trimmed, args...), runner: r, marker: marker, start: time.Now()}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	marker, trimmed, err := ExtractMarker(query)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := r.Pool.Query(ctx, trimmed, args...)
	if err != nil {
		r.Logger.Error().Err(err).Str("sql", marker).Msg("sql query failed")
		return nil, err
	}
	return &loggingRows{Rows: rows, runner: r, marker: marker, start: start}, nil
}

// timing starts a debug event, promoted to warn once the statement ran past SlowQuery.
func (r *SQLRunner) timing(marker, op string, start time.Time) *zerolog.Event {
	took := time.Since(start)
	event := r.Logger.Debug()
	if r.SlowQuery > 0 && took > r.SlowQuery {
		event = r.Logger.Warn().Bool("slow", true)
	}
	return event.Str("sql", marker).Str("op", op).Dur("took", took)
}

type loggingRow struct {
	row    pgx.Row
	runner *SQLRunner
	marker string
	start  time.Time
}

func (l *loggingRow) Scan(dest ...any) error {
	err := l.row.Scan(dest...)
	switch {
	case err == nil:
		l.runner.timing(l.marker, "query_row", l.start).Msg("sql query_row")
	case IsNoRows(err):
		l.runner.timing(l.marker, "query_row", l.start).Bool("empty", true).Msg("sql query_row")
	default:
		l.runner.Logger.Error().Err(err).Str("sql", l.marker).Msg("sql scan failed")
	}
	return err
}

// loggingRows reports the row count and total time when the result set closes.
type loggingRows struct {
	pgx.Rows
	runner *SQLRunner
	marker string
	start  time.Time
	count  int
	closed bool
}

func (l *loggingRows) Next() bool {
	if l.Rows.Next() {
		l.count++
		return true
	}
	return false
}

func (l *loggingRows) Close() {
	l.Rows.Close()
	if l.closed {
		return
	}
	l.closed = true
	if err := l.Rows.Err(); err != nil {
		l.runner.Logger.Error().Err(err).Str("sql", l.marker).Msg("sql rows failed")
		return
	}
	l.runner.timing(l.marker, "query", l.start).Int("rows", l.count).Msg("sql query")
}

type errorRow struct {
	err error
}

func (e errorRow) Scan(dest ...any) error {
	return e.err
}

// IsNoRows reports whether err signals an empty result set.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// ExtractMarker splits the leading `--sql <uuid>` line from a query.
func ExtractMarker(query string) (string, string, error) {
	trimmed := strings.TrimSpace(query)
	lines := strings.Split(trimmed, "\n")
	if len(lines) == 0 {
		return "", "", errors.New("empty query")
	}
	markerLine := strings.TrimSpace(lines[0])
	if !markerRegexp.MatchString(markerLine) {
		return "", "", errors.New("sql marker missing or invalid")
	}
	return strings.TrimSpace(strings.TrimPrefix(markerLine, "--sql ")), strings.Join(lines[1:], "\n"), nil
}

var _ SQLExecutor = (*SQLRunner)(nil)
