package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect selects the SQL flavour of a SQLEngine.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the dialect names and their common aliases.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported dialect %q", s)
}

// rebind rewrites ? placeholders into $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// bindValue converts a canonical value into what the driver stores.
// SQLite keeps timestamps as fixed-width UTC text.
func (d Dialect) bindValue(v any) any {
	if d == SQLite {
		if t, ok := v.(time.Time); ok {
			return formatStorageTime(t)
		}
	}
	return v
}

// stringMatch renders contains/startsWith/endsWith for a non-empty pattern.
func (d Dialect) stringMatch(op Op, col, arg string) string {
	switch d {
	case Postgres:
		return col + " LIKE " + arg + ` ESCAPE '\'`
	default:
		switch op {
		case OpContains:
			return "instr(" + col + ", " + arg + ") > 0"
		case OpStartsWith:
			return "substr(" + col + ", 1, length(" + arg + ")) = " + arg
		default:
			return "substr(" + col + ", -length(" + arg + ")) = " + arg
		}
	}
}

// stringPattern returns the bound values stringMatch expects, in placeholder order.
func (d Dialect) stringPattern(op Op, s string) []any {
	if d == Postgres {
		esc := likeEscaper.Replace(s)
		switch op {
		case OpContains:
			return []any{"%" + esc + "%"}
		case OpStartsWith:
			return []any{esc + "%"}
		default:
			return []any{"%" + esc}
		}
	}
	if op == OpContains {
		return []any{s}
	}
	return []any{s, s}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (d Dialect) limit(take, skip int) string {
	var parts []string
	switch {
	case take > 0:
		parts = append(parts, "LIMIT "+strconv.Itoa(take))
	case skip > 0 && d == SQLite:
		parts = append(parts, "LIMIT -1")
	}
	if skip > 0 {
		parts = append(parts, "OFFSET "+strconv.Itoa(skip))
	}
	return strings.Join(parts, " ")
}

func (d Dialect) avg(expr string) string {
	if d == Postgres {
		return "CAST(AVG(" + expr + ") AS DOUBLE PRECISION)"
	}
	return "AVG(" + expr + ")"
}

func (d Dialect) lower(expr string) string {
	if d == Postgres {
		return "LOWER(CAST(" + expr + " AS TEXT))"
	}
	return "LOWER(" + expr + ")"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
