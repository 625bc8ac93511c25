package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// queryer is the part of *sql.DB and *sql.Tx the engine uses.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// maxInsertParams keeps multi-row inserts under the postgres bind parameter limit.
var maxInsertParams = 30000

// SQLEngine runs queries on database/sql.
type SQLEngine struct {
	db      *sql.DB
	q       queryer
	tx      *sql.Tx
	dialect Dialect
	schema  *Schema
}

var _ Engine = (*SQLEngine)(nil)

// NewSQLEngine wraps an open database handle.
func NewSQLEngine(db *sql.DB, dialect Dialect, schema *Schema) *SQLEngine {
	return &SQLEngine{db: db, q: db, dialect: dialect, schema: schema}
}

func (e *SQLEngine) Schema() *Schema { return e.schema }

// Dialect reports the SQL flavour the engine renders.
func (e *SQLEngine) Dialect() Dialect { return e.dialect }

func (e *SQLEngine) builder() *sqlBuilder {
	return newSQLBuilder(e.dialect, e.schema)
}

func (e *SQLEngine) Ping(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return &UnknownRequestError{Err: err}
	}
	return nil
}

func (e *SQLEngine) Select(ctx context.Context, m *Model, q SelectQuery) ([]Row, error) {
	b := e.builder()
	raw, err := b.selectSQL(m, q)
	if err != nil {
		return nil, validationError(m.Name, "%v", err)
	}
	cols := q.Columns
	if cols == nil {
		cols = m.Columns()
	}
	query, args := b.query(raw)
	return e.queryRows(ctx, m, cols, query, args)
}

func (e *SQLEngine) Insert(ctx context.Context, m *Model, rows []Row, skipDuplicates bool) ([]Row, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := m.Columns()
	per := maxInsertParams / len(cols)
	if per < 1 {
		per = 1
	}
	if len(rows) <= per || e.tx != nil {
		return e.insertChunks(ctx, m, rows, per, skipDuplicates)
	}
	// several statements must commit or fail together
	var out []Row
	err := e.Tx(ctx, func(eng Engine) error {
		var err error
		out, err = eng.(*SQLEngine).insertChunks(ctx, m, rows, per, skipDuplicates)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *SQLEngine) insertChunks(ctx context.Context, m *Model, rows []Row, per int, skipDuplicates bool) ([]Row, error) {
	cols := m.Columns()
	var out []Row
	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}
		b := e.builder()
		query, args := b.query(b.insertSQL(m, rows[start:end], skipDuplicates))
		got, err := e.queryRows(ctx, m, cols, query, args)
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}
	return out, nil
}

func (e *SQLEngine) Update(ctx context.Context, m *Model, where Filter, data Row) ([]Row, error) {
	if len(data) == 0 {
		return e.Select(ctx, m, SelectQuery{Where: where})
	}
	b := e.builder()
	raw, err := b.updateSQL(m, where, data)
	if err != nil {
		return nil, validationError(m.Name, "%v", err)
	}
	query, args := b.query(raw)
	return e.queryRows(ctx, m, m.Columns(), query, args)
}

func (e *SQLEngine) Delete(ctx context.Context, m *Model, where Filter) ([]Row, error) {
	b := e.builder()
	raw, err := b.deleteSQL(m, where)
	if err != nil {
		return nil, validationError(m.Name, "%v", err)
	}
	query, args := b.query(raw)
	return e.queryRows(ctx, m, m.Columns(), query, args)
}

func (e *SQLEngine) Aggregate(ctx context.Context, m *Model, q AggregateQuery) (AggregateResult, error) {
	slots := aggSlots(m, q.Count, q.Min, q.Max, q.Sum, q.Avg)
	b := e.builder()
	raw, err := b.aggregateSQL(m, q, slots)
	if err != nil {
		return AggregateResult{}, validationError(m.Name, "%v", err)
	}
	query, args := b.query(raw)
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return AggregateResult{}, e.mapErr(m, err)
	}
	defer rows.Close()

	res := newAggregateResult(slots)
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return AggregateResult{}, e.mapErr(m, err)
		}
		return res, nil
	}
	n := len(slots)
	if n == 0 {
		n = 1
	}
	vals, err := scanAny(rows, n)
	if err != nil {
		return AggregateResult{}, e.mapErr(m, err)
	}
	for i, s := range slots {
		v, err := coerce(s.kind, vals[i])
		if err != nil {
			return AggregateResult{}, &UnknownRequestError{Model: m.Name, Err: err}
		}
		res.set(s, v)
	}
	return res, e.mapErr(m, rows.Err())
}

func (e *SQLEngine) GroupBy(ctx context.Context, m *Model, q GroupByArgs) ([]GroupRow, error) {
	slots := aggSlots(m, q.Count, q.Min, q.Max, q.Sum, q.Avg)
	b := e.builder()
	raw, err := b.groupBySQL(m, q, slots)
	if err != nil {
		return nil, validationError(m.Name, "%v", err)
	}
	query, args := b.query(raw)
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, e.mapErr(m, err)
	}
	defer rows.Close()

	var out []GroupRow
	for rows.Next() {
		vals, err := scanAny(rows, len(q.By)+len(slots))
		if err != nil {
			return nil, e.mapErr(m, err)
		}
		g := GroupRow{Keys: make(Row, len(q.By)), AggregateResult: newAggregateResult(slots)}
		for i, by := range q.By {
			f, _ := m.Field(by)
			v, err := coerce(f.Kind, vals[i])
			if err != nil {
				return nil, &UnknownRequestError{Model: m.Name, Err: err}
			}
			g.Keys[by] = v
		}
		for i, s := range slots {
			v, err := coerce(s.kind, vals[len(q.By)+i])
			if err != nil {
				return nil, &UnknownRequestError{Model: m.Name, Err: err}
			}
			g.set(s, v)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, e.mapErr(m, err)
	}
	return out, nil
}

// Tx begins a transaction unless the engine is already bound to one.
func (e *SQLEngine) Tx(ctx context.Context, fn func(Engine) error) error {
	if e.tx != nil {
		return fn(e)
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return &UnknownRequestError{Err: fmt.Errorf("begin tx: %w", err)}
	}
	defer tx.Rollback()

	bound := &SQLEngine{db: e.db, q: tx, tx: tx, dialect: e.dialect, schema: e.schema}
	if err := fn(bound); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return e.mapErr(nil, fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// queryRows reads every row before returning so a single-connection pool is never held open.
func (e *SQLEngine) queryRows(ctx context.Context, m *Model, cols []string, query string, args []any) ([]Row, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, e.mapErr(m, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		vals, err := scanAny(rows, len(cols))
		if err != nil {
			return nil, e.mapErr(m, err)
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			f, _ := m.Field(c)
			v, err := coerce(f.Kind, vals[i])
			if err != nil {
				return nil, &UnknownRequestError{Model: m.Name, Err: fmt.Errorf("column %s: %w", c, err)}
			}
			r[c] = v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, e.mapErr(m, err)
	}
	return out, nil
}

func scanAny(rows *sql.Rows, n int) ([]any, error) {
	vals := make([]any, n)
	ptrs := make([]any, n)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return vals, nil
}

var sqliteConstraintTarget = regexp.MustCompile(`UNIQUE constraint failed: ([\w.,\s]+)`)

// mapErr translates driver errors into the store taxonomy.
func (e *SQLEngine) mapErr(m *Model, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	model := ""
	if m != nil {
		model = m.Name
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		target := nonEmpty(pgErr.ColumnName)
		if target == nil {
			target = constraintColumns(m, pgErr.ConstraintName)
		}
		switch pgErr.Code {
		case "23505":
			return &KnownRequestError{Code: CodeUniqueViolation, Model: model, Target: target, Err: err}
		case "23503":
			return &KnownRequestError{Code: CodeForeignKeyViolation, Model: model, Target: target, Err: err}
		}
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &KnownRequestError{Code: CodeUniqueViolation, Model: model, Target: sqliteTargets(liteErr.Error()), Err: err}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &KnownRequestError{Code: CodeForeignKeyViolation, Model: model, Err: err}
		}
	}
	return &UnknownRequestError{Model: model, Err: err}
}

// sqliteTargets extracts column names from "UNIQUE constraint failed: users.email".
func sqliteTargets(msg string) []string {
	match := sqliteConstraintTarget.FindStringSubmatch(msg)
	if match == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(match[1], ",") {
		part = strings.TrimSpace(part)
		if i := strings.LastIndex(part, "."); i >= 0 {
			part = part[i+1:]
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// constraintColumns resolves a Postgres constraint name to the column it covers, so targets
// match what the memory and SQLite engines report. Names follow the default
// <table>_pkey and <table>_<column>_{key,fkey} patterns; anything else is returned as is.
func constraintColumns(m *Model, constraint string) []string {
	if m == nil || constraint == "" {
		return nonEmpty(constraint)
	}
	if constraint == m.Table+"_pkey" {
		return []string{ColumnID}
	}
	if rest, ok := strings.CutPrefix(constraint, m.Table+"_"); ok {
		for _, suffix := range []string{"_key", "_fkey"} {
			col, ok := strings.CutSuffix(rest, suffix)
			if !ok {
				continue
			}
			if _, isField := m.Field(col); isField {
				return []string{col}
			}
		}
	}
	return []string{constraint}
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
