package repo

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type call struct {
	query string
	args  []any
}

// stubExecutor replays canned rows and command tags and records every call.
type stubExecutor struct {
	rows  [][]any
	tag   string
	err   error
	calls []call
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	if s.err != nil {
		return pgconn.CommandTag{}, s.err
	}
	return pgconn.NewCommandTag(s.tag), nil
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.calls = append(s.calls, call{query: query, args: args})
	if s.err != nil {
		return stubRow{err: s.err}
	}
	if len(s.rows) == 0 {
		return stubRow{err: pgx.ErrNoRows}
	}
	return stubRow{values: s.rows[0]}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	if s.err != nil {
		return nil, s.err
	}
	return &stubRows{rows: s.rows, idx: -1}, nil
}

func (s *stubExecutor) last() call {
	return s.calls[len(s.calls)-1]
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type stubRows struct {
	rows   [][]any
	idx    int
	closed bool
}

func (r *stubRows) Close()                                       { r.closed = true }
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return r.rows[r.idx], nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *stubRows) Scan(dest ...any) error {
	return assign(r.rows[r.idx], dest)
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: got %d dest for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return errors.New("scan: dest must be a non-nil pointer")
		}
		elem := target.Elem()
		if values[i] == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		if !v.Type().ConvertibleTo(elem.Type()) {
			return fmt.Errorf("scan: cannot assign %s to %s", v.Type(), elem.Type())
		}
		elem.Set(v.Convert(elem.Type()))
	}
	return nil
}
