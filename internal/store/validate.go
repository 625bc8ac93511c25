package store

import (
	"sort"
)

// checker validates query arguments against a schema and coerces every value to its column kind.
type checker struct {
	schema *Schema
	issues *issues
}

func newChecker(s *Schema, m *Model) *checker {
	return &checker{schema: s, issues: newIssues(m.Name)}
}

func (c *checker) err() error { return c.issues.err() }

func (c *checker) filter(m *Model, f Filter) Filter {
	switch x := f.(type) {
	case nil:
		return nil
	case Cond:
		return c.cond(m, x)
	case AndFilter:
		out := make(AndFilter, 0, len(x))
		for _, sub := range x {
			if n := c.filter(m, sub); n != nil {
				out = append(out, n)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case OrFilter:
		out := make(OrFilter, 0, len(x))
		for _, sub := range x {
			n := c.filter(m, sub)
			if n == nil {
				return nil
			}
			out = append(out, n)
		}
		return out
	case NotFilter:
		inner := c.filter(m, x.Filter)
		if inner == nil {
			return OrFilter{}
		}
		return NotFilter{Filter: inner}
	case RelationFilter:
		rel, ok := m.Relation(x.Relation)
		if !ok {
			c.issues.add("%s: unknown relation %q", m.Name, x.Relation)
			return x
		}
		toMany := rel.Kind.toMany()
		switch x.Quant {
		case QuantSome, QuantEvery, QuantNone:
			if !toMany {
				c.issues.add("%s.%s: %s needs a to-many relation", m.Name, x.Relation, x.Quant)
			}
		case QuantIs, QuantIsNot:
			if toMany {
				c.issues.add("%s.%s: %s needs a to-one relation", m.Name, x.Relation, x.Quant)
			}
		default:
			c.issues.add("%s.%s: unknown quantifier %d", m.Name, x.Relation, int(x.Quant))
		}
		return RelationFilter{Relation: x.Relation, Quant: x.Quant, Where: c.filter(c.schema.target(rel), x.Where)}
	case *AndFilter:
		return c.filter(m, *x)
	case *OrFilter:
		return c.filter(m, *x)
	default:
		c.issues.add("%s: unsupported filter %T", m.Name, f)
		return nil
	}
}

func (c *checker) cond(m *Model, x Cond) Filter {
	field, ok := m.Field(x.Field)
	if !ok {
		c.issues.add("%s: unknown field %q", m.Name, x.Field)
		return x
	}
	if x.Op.stringOnly() && field.Kind != KindString {
		c.issues.add("%s.%s: %s needs a string column", m.Name, x.Field, x.Op)
		return x
	}
	if x.Fold && field.Kind != KindString {
		c.issues.add("%s.%s: case-insensitive mode needs a string column", m.Name, x.Field)
		return x
	}
	switch x.Op {
	case OpIsNull, OpNotNull:
		return Cond{Field: x.Field, Op: x.Op}
	case OpIn, OpNotIn:
		raw, ok := x.Value.([]any)
		if !ok {
			raw, ok = toAnySlice(x.Value)
		}
		if !ok {
			c.issues.add("%s.%s: %s needs a list", m.Name, x.Field, x.Op)
			return x
		}
		vals := make([]any, 0, len(raw))
		for _, r := range raw {
			v, err := coerce(field.Kind, r)
			if err != nil {
				c.issues.add("%s.%s: %v", m.Name, x.Field, err)
				continue
			}
			vals = append(vals, v)
		}
		return Cond{Field: x.Field, Op: x.Op, Value: vals, Fold: x.Fold}
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpContains, OpStartsWith, OpEndsWith:
		v, err := coerce(field.Kind, x.Value)
		if err != nil {
			c.issues.add("%s.%s: %v", m.Name, x.Field, err)
			return x
		}
		if v == nil {
			switch x.Op {
			case OpEq:
				return Cond{Field: x.Field, Op: OpIsNull}
			case OpNe:
				return Cond{Field: x.Field, Op: OpNotNull}
			}
			c.issues.add("%s.%s: %s does not accept null", m.Name, x.Field, x.Op)
			return x
		}
		return Cond{Field: x.Field, Op: x.Op, Value: v, Fold: x.Fold}
	default:
		c.issues.add("%s.%s: unknown operator %d", m.Name, x.Field, int(x.Op))
		return x
	}
}

func toAnySlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

func (c *checker) window(skip, take int) {
	if skip < 0 {
		c.issues.add("skip must not be negative, got %d", skip)
	}
	if take < 0 {
		c.issues.add("take must not be negative, got %d", take)
	}
}

func (c *checker) columns(m *Model, what string, cols []string) {
	for _, col := range cols {
		if _, ok := m.Field(col); !ok {
			c.issues.add("%s: unknown %s field %q", m.Name, what, col)
		}
	}
}

func (c *checker) orders(m *Model, orders []Order) {
	for _, o := range orders {
		if _, ok := m.Field(o.Field); !ok {
			c.issues.add("%s: unknown orderBy field %q", m.Name, o.Field)
		}
	}
}

func (c *checker) includes(m *Model, incs []Include) []Include {
	if len(incs) == 0 {
		return nil
	}
	out := make([]Include, 0, len(incs))
	for _, inc := range incs {
		rel, ok := m.Relation(inc.Relation)
		if !ok {
			c.issues.add("%s: unknown include %q", m.Name, inc.Relation)
			continue
		}
		target := c.schema.target(rel)
		c.window(inc.Skip, inc.Take)
		c.orders(target, inc.OrderBy)
		out = append(out, Include{
			Relation: inc.Relation,
			Where:    c.filter(target, inc.Where),
			OrderBy:  inc.OrderBy,
			Skip:     inc.Skip,
			Take:     inc.Take,
			Include:  c.includes(target, inc.Include),
		})
	}
	return out
}

// cursor coerces the cursor values and requires at least one unique column among them.
func (c *checker) cursor(m *Model, cur map[string]any) Row {
	if cur == nil {
		return nil
	}
	out := make(Row, len(cur))
	hasUnique := false
	for col, raw := range cur {
		field, ok := m.Field(col)
		if !ok {
			c.issues.add("%s: unknown cursor field %q", m.Name, col)
			continue
		}
		v, err := coerce(field.Kind, raw)
		if err != nil || v == nil {
			c.issues.add("%s: cursor field %q needs a non-null %s", m.Name, col, field.Kind)
			continue
		}
		if m.isUnique(col) {
			hasUnique = true
		}
		out[col] = v
	}
	if !hasUnique {
		c.issues.add("%s: cursor must name a unique field", m.Name)
	}
	return out
}

// uniqueWhere requires an equality on id or a unique column at the top level of where.
func (c *checker) uniqueWhere(m *Model, where Filter) {
	if hasUniqueEq(m, where) {
		return
	}
	c.issues.add("%s: where must select a unique field (one of %v) with an equality", m.Name, m.UniqueColumns())
}

func hasUniqueEq(m *Model, f Filter) bool {
	switch x := f.(type) {
	case Cond:
		return x.Op == OpEq && !x.Fold && x.Value != nil && m.isUnique(x.Field)
	case AndFilter:
		for _, sub := range x {
			if hasUniqueEq(m, sub) {
				return true
			}
		}
	}
	return false
}

// data coerces a partial column map. On create, required columns must be present.
func (c *checker) data(m *Model, data map[string]any, create bool) Row {
	out := make(Row, len(data))
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, col := range keys {
		field, ok := m.Field(col)
		if !ok {
			c.issues.add("%s: unknown data field %q", m.Name, col)
			continue
		}
		v, err := coerce(field.Kind, data[col])
		if err != nil {
			c.issues.add("%s.%s: %v", m.Name, col, err)
			continue
		}
		if v == nil && !field.Nullable {
			if create && (field.Default != nil || isAutoColumn(col)) {
				continue
			}
			c.issues.add("%s.%s: must not be null", m.Name, col)
			continue
		}
		out[col] = v
	}
	if create {
		for _, field := range m.Fields {
			if _, present := out[field.Name]; present || field.Nullable || field.Default != nil || isAutoColumn(field.Name) {
				continue
			}
			c.issues.add("%s.%s: is required", m.Name, field.Name)
		}
	}
	return out
}

func isAutoColumn(col string) bool {
	return col == ColumnID || col == ColumnCreatedAt || col == ColumnUpdatedAt
}

// groupBy validates grouping arguments. Plain orderBy and having fields must be grouped.
func (c *checker) groupBy(m *Model, q GroupByArgs) GroupByArgs {
	if len(q.By) == 0 {
		c.issues.add("%s: groupBy needs at least one by field", m.Name)
	}
	c.columns(m, "by", q.By)
	c.aggregates(m, q.Count, q.Min, q.Max, q.Sum, q.Avg)
	c.window(q.Skip, q.Take)
	grouped := make(map[string]bool, len(q.By))
	for _, b := range q.By {
		grouped[b] = true
	}
	out := q
	out.Where = c.filter(m, q.Where)
	for _, o := range q.OrderBy {
		c.aggTarget(m, o.Agg, o.Field, grouped)
	}
	out.Having = make([]Having, 0, len(q.Having))
	for _, h := range q.Having {
		kind, ok := c.aggTarget(m, h.Agg, h.Field, grouped)
		if !ok {
			continue
		}
		switch h.Op {
		case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
			v, err := coerce(kind, h.Value)
			if err != nil {
				c.issues.add("%s: having %s(%s): %v", m.Name, h.Agg, h.Field, err)
				continue
			}
			if v == nil {
				op := OpIsNull
				if h.Op == OpNe {
					op = OpNotNull
				} else if h.Op != OpEq {
					c.issues.add("%s: having %s(%s): %s does not accept null", m.Name, h.Agg, h.Field, h.Op)
					continue
				}
				h = Having{Agg: h.Agg, Field: h.Field, Op: op}
			} else {
				h.Value = v
			}
		case OpIn, OpNotIn:
			raw, ok := h.Value.([]any)
			if !ok {
				raw, ok = toAnySlice(h.Value)
			}
			if !ok {
				c.issues.add("%s: having %s(%s): %s needs a list", m.Name, h.Agg, h.Field, h.Op)
				continue
			}
			vals := make([]any, 0, len(raw))
			for _, r := range raw {
				v, err := coerce(kind, r)
				if err != nil {
					c.issues.add("%s: having %s(%s): %v", m.Name, h.Agg, h.Field, err)
					continue
				}
				vals = append(vals, v)
			}
			h.Value = vals
		case OpIsNull, OpNotNull:
			h.Value = nil
		default:
			c.issues.add("%s: having does not support %s", m.Name, h.Op)
			continue
		}
		out.Having = append(out.Having, h)
	}
	return out
}

// aggTarget checks an aggregate reference and returns the kind of the value it yields.
func (c *checker) aggTarget(m *Model, agg Agg, field string, grouped map[string]bool) (Kind, bool) {
	if agg == AggCount && field == All {
		return KindInt, true
	}
	f, ok := m.Field(field)
	if !ok {
		c.issues.add("%s: unknown %s field %q", m.Name, agg, field)
		return 0, false
	}
	switch agg {
	case AggField:
		if !grouped[field] {
			c.issues.add("%s: field %q must be in by to be used outside an aggregate", m.Name, field)
			return 0, false
		}
		return f.Kind, true
	case AggCount:
		return KindInt, true
	case AggMin, AggMax:
		return f.Kind, true
	case AggSum:
		if !f.Kind.numeric() {
			c.issues.add("%s: _sum needs a numeric field, %q is %s", m.Name, field, f.Kind)
			return 0, false
		}
		return f.Kind, true
	case AggAvg:
		if !f.Kind.numeric() {
			c.issues.add("%s: _avg needs a numeric field, %q is %s", m.Name, field, f.Kind)
			return 0, false
		}
		return KindFloat, true
	}
	c.issues.add("%s: unknown aggregate %d", m.Name, int(agg))
	return 0, false
}

func (c *checker) aggregates(m *Model, count, min, max, sum, avg []string) {
	for _, col := range count {
		if col == All {
			continue
		}
		if _, ok := m.Field(col); !ok {
			c.issues.add("%s: unknown _count field %q", m.Name, col)
		}
	}
	c.columns(m, "_min", min)
	c.columns(m, "_max", max)
	for _, col := range append(append([]string{}, sum...), avg...) {
		f, ok := m.Field(col)
		if !ok {
			c.issues.add("%s: unknown aggregate field %q", m.Name, col)
			continue
		}
		if !f.Kind.numeric() {
			c.issues.add("%s: _sum/_avg need a numeric field, %q is %s", m.Name, col, f.Kind)
		}
	}
}
