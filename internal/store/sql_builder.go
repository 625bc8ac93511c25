package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const rootAlias = "t0"

// sqlBuilder renders one statement and collects its arguments.
type sqlBuilder struct {
	dialect Dialect
	schema  *Schema
	args    []any
	aliases int
}

func newSQLBuilder(d Dialect, s *Schema) *sqlBuilder {
	return &sqlBuilder{dialect: d, schema: s}
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, b.dialect.bindValue(v))
	return "?"
}

func (b *sqlBuilder) nextAlias() string {
	b.aliases++
	return "t" + strconv.Itoa(b.aliases)
}

func (b *sqlBuilder) query(sql string) (string, []any) {
	return b.dialect.rebind(sql), b.args
}

func column(alias, name string) string {
	if alias == "" {
		return quoteIdent(name)
	}
	return alias + "." + quoteIdent(name)
}

func (b *sqlBuilder) where(m *Model, alias string, f Filter) (string, error) {
	switch x := f.(type) {
	case nil:
		return "1 = 1", nil
	case Cond:
		return b.cond(alias, x)
	case AndFilter:
		return b.join(m, alias, []Filter(x), " AND ", "1 = 1")
	case OrFilter:
		return b.join(m, alias, []Filter(x), " OR ", "1 = 0")
	case NotFilter:
		inner, err := b.where(m, alias, x.Filter)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case RelationFilter:
		return b.relation(m, alias, x)
	}
	return "", fmt.Errorf("unsupported filter %T", f)
}

func (b *sqlBuilder) join(m *Model, alias string, filters []Filter, sep, empty string) (string, error) {
	if len(filters) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		s, err := b.where(m, alias, f)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+s+")")
	}
	return strings.Join(parts, sep), nil
}

var comparators = map[Op]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
}

func (b *sqlBuilder) cond(alias string, c Cond) (string, error) {
	col := column(alias, c.Field)
	return b.compare(col, c.Op, c.Value, c.Fold)
}

// compare renders lhs <op> value for columns and aggregate expressions alike.
func (b *sqlBuilder) compare(lhs string, op Op, value any, fold bool) (string, error) {
	wrap := func(s string) string { return s }
	if fold {
		wrap = b.dialect.lower
	}
	switch op {
	case OpIsNull:
		return lhs + " IS NULL", nil
	case OpNotNull:
		return lhs + " IS NOT NULL", nil
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
		return wrap(lhs) + " " + comparators[op] + " " + wrap(b.bind(value)), nil
	case OpIn, OpNotIn:
		vals, _ := value.([]any)
		if len(vals) == 0 {
			if op == OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		ph := make([]string, len(vals))
		for i, v := range vals {
			ph[i] = wrap(b.bind(v))
		}
		kw := " IN ("
		if op == OpNotIn {
			kw = " NOT IN ("
		}
		return wrap(lhs) + kw + strings.Join(ph, ", ") + ")", nil
	case OpContains, OpStartsWith, OpEndsWith:
		s, _ := value.(string)
		if s == "" {
			return lhs + " IS NOT NULL", nil
		}
		pattern := b.dialect.stringPattern(op, s)
		arg := wrap(b.bind(pattern[0]))
		if len(pattern) == 2 {
			// the second placeholder repeats the same value
			b.args = append(b.args, pattern[1])
		}
		return b.dialect.stringMatch(op, wrap(lhs), arg), nil
	}
	return "", fmt.Errorf("unsupported operator %s", op)
}

func (b *sqlBuilder) relation(m *Model, alias string, rf RelationFilter) (string, error) {
	rel, ok := m.Relation(rf.Relation)
	if !ok {
		return "", fmt.Errorf("unknown relation %s.%s", m.Name, rf.Relation)
	}
	if rf.Quant == QuantEvery && rf.Where == nil {
		return "1 = 1", nil
	}
	target := b.schema.target(rel)
	a := b.nextAlias()
	clause := column(a, rel.Foreign) + " = " + column(alias, rel.Local)
	if rf.Where != nil {
		sub, err := b.where(target, a, rf.Where)
		if err != nil {
			return "", err
		}
		if rf.Quant == QuantEvery {
			clause += " AND NOT (" + sub + ")"
		} else {
			clause += " AND (" + sub + ")"
		}
	}
	exists := "EXISTS (SELECT 1 FROM " + quoteIdent(target.Table) + " AS " + a + " WHERE " + clause + ")"
	switch rf.Quant {
	case QuantSome, QuantIs:
		return exists, nil
	default:
		return "NOT " + exists, nil
	}
}

func orderTerm(expr string, desc bool) string {
	if desc {
		return expr + " DESC NULLS FIRST"
	}
	return expr + " ASC NULLS LAST"
}

func (b *sqlBuilder) orderBy(alias string, orders []Order) string {
	if len(orders) == 0 {
		return ""
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		parts[i] = orderTerm(column(alias, o.Field), o.Desc)
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func columnList(alias string, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = column(alias, c)
	}
	return strings.Join(parts, ", ")
}

// selectSQL renders a SELECT over the root alias without rebinding placeholders.
func (b *sqlBuilder) selectSQL(m *Model, q SelectQuery) (string, error) {
	cols := q.Columns
	if cols == nil {
		cols = m.Columns()
	}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columnList(rootAlias, cols))
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(m.Table))
	sb.WriteString(" AS " + rootAlias)
	if q.Where != nil {
		w, err := b.where(m, rootAlias, q.Where)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE " + w)
	}
	sb.WriteString(b.orderBy(rootAlias, q.OrderBy))
	if lim := b.dialect.limit(q.Take, q.Skip); lim != "" {
		sb.WriteString(" " + lim)
	}
	return sb.String(), nil
}

// idSubquery selects the ids matching where, for UPDATE and DELETE.
func (b *sqlBuilder) idSubquery(m *Model, where Filter) (string, error) {
	w, err := b.where(m, rootAlias, where)
	if err != nil {
		return "", err
	}
	return quoteIdent(ColumnID) + " IN (SELECT " + column(rootAlias, ColumnID) + " FROM " +
		quoteIdent(m.Table) + " AS " + rootAlias + " WHERE " + w + ")", nil
}

func (b *sqlBuilder) insertSQL(m *Model, rows []Row, skipDuplicates bool) string {
	cols := m.Columns()
	var sb strings.Builder
	sb.WriteString("INSERT INTO " + quoteIdent(m.Table) + " (" + columnList("", cols) + ") VALUES ")
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		ph := make([]string, len(cols))
		for j, c := range cols {
			ph[j] = b.bind(r[c])
		}
		sb.WriteString("(" + strings.Join(ph, ", ") + ")")
	}
	if skipDuplicates {
		sb.WriteString(" ON CONFLICT DO NOTHING")
	}
	sb.WriteString(" RETURNING " + columnList("", cols))
	return sb.String()
}

func (b *sqlBuilder) updateSQL(m *Model, where Filter, data Row) (string, error) {
	keys := sortedKeys(data)
	sets := make([]string, len(keys))
	for i, k := range keys {
		sets[i] = quoteIdent(k) + " = " + b.bind(data[k])
	}
	sql := "UPDATE " + quoteIdent(m.Table) + " SET " + strings.Join(sets, ", ")
	if where != nil {
		cond, err := b.idSubquery(m, where)
		if err != nil {
			return "", err
		}
		sql += " WHERE " + cond
	}
	return sql + " RETURNING " + columnList("", m.Columns()), nil
}

func (b *sqlBuilder) deleteSQL(m *Model, where Filter) (string, error) {
	sql := "DELETE FROM " + quoteIdent(m.Table)
	if where != nil {
		cond, err := b.idSubquery(m, where)
		if err != nil {
			return "", err
		}
		sql += " WHERE " + cond
	}
	return sql + " RETURNING " + columnList("", m.Columns()), nil
}

// aggSlot is one aggregate column of a result row.
type aggSlot struct {
	agg   Agg
	field string
	kind  Kind
}

func aggSlots(m *Model, count, min, max, sum, avg []string) []aggSlot {
	var out []aggSlot
	for _, c := range count {
		out = append(out, aggSlot{agg: AggCount, field: c, kind: KindInt})
	}
	add := func(agg Agg, cols []string) {
		for _, c := range cols {
			f, _ := m.Field(c)
			kind := f.Kind
			if agg == AggAvg {
				kind = KindFloat
			}
			out = append(out, aggSlot{agg: agg, field: c, kind: kind})
		}
	}
	add(AggMin, min)
	add(AggMax, max)
	add(AggSum, sum)
	add(AggAvg, avg)
	return out
}

func (b *sqlBuilder) aggExpr(alias string, agg Agg, field string) string {
	switch agg {
	case AggCount:
		if field == All {
			return "COUNT(*)"
		}
		return "COUNT(" + column(alias, field) + ")"
	case AggMin:
		return "MIN(" + column(alias, field) + ")"
	case AggMax:
		return "MAX(" + column(alias, field) + ")"
	case AggSum:
		return "SUM(" + column(alias, field) + ")"
	case AggAvg:
		return b.dialect.avg(column(alias, field))
	default:
		return column(alias, field)
	}
}

func (b *sqlBuilder) aggregateSQL(m *Model, q AggregateQuery, slots []aggSlot) (string, error) {
	need := map[string]bool{}
	var cols []string
	for _, s := range slots {
		if s.field != All && !need[s.field] {
			need[s.field] = true
			cols = append(cols, s.field)
		}
	}
	if len(cols) == 0 {
		cols = []string{ColumnID}
	}
	window := q.Window
	window.Columns = cols
	inner, err := b.selectSQL(m, window)
	if err != nil {
		return "", err
	}
	exprs := make([]string, len(slots))
	for i, s := range slots {
		exprs[i] = b.aggExpr("s", s.agg, s.field)
	}
	if len(exprs) == 0 {
		exprs = []string{"COUNT(*)"}
	}
	return "SELECT " + strings.Join(exprs, ", ") + " FROM (" + inner + ") AS s", nil
}

func (b *sqlBuilder) groupBySQL(m *Model, q GroupByArgs, slots []aggSlot) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + columnList(rootAlias, q.By))
	for _, s := range slots {
		sb.WriteString(", " + b.aggExpr(rootAlias, s.agg, s.field))
	}
	sb.WriteString(" FROM " + quoteIdent(m.Table) + " AS " + rootAlias)
	if q.Where != nil {
		w, err := b.where(m, rootAlias, q.Where)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE " + w)
	}
	sb.WriteString(" GROUP BY " + columnList(rootAlias, q.By))
	if len(q.Having) > 0 {
		parts := make([]string, 0, len(q.Having))
		for _, h := range q.Having {
			expr := b.aggExpr(rootAlias, h.Agg, h.Field)
			s, err := b.compare(expr, h.Op, h.Value, false)
			if err != nil {
				return "", err
			}
			parts = append(parts, "("+s+")")
		}
		sb.WriteString(" HAVING " + strings.Join(parts, " AND "))
	}
	terms := make([]string, 0, len(q.OrderBy)+len(q.By))
	for _, o := range q.OrderBy {
		terms = append(terms, orderTerm(b.aggExpr(rootAlias, o.Agg, o.Field), o.Desc))
	}
	if len(q.OrderBy) == 0 {
		for _, by := range q.By {
			terms = append(terms, orderTerm(column(rootAlias, by), false))
		}
	}
	sb.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	if lim := b.dialect.limit(q.Take, q.Skip); lim != "" {
		sb.WriteString(" " + lim)
	}
	return sb.String(), nil
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
