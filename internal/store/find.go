package store

import "context"

// findSpec is a validated read request.
type findSpec struct {
	where    Filter
	orderBy  []Order
	skip     int
	take     int
	cursor   Row
	distinct []string
	selected []string
	include  []Include
}

func (c *Client) findRows(ctx context.Context, eng Engine, m *Model, spec findSpec) ([]Row, error) {
	where := spec.where
	orders := spec.orderBy
	if spec.cursor != nil {
		found, err := eng.Select(ctx, m, SelectQuery{Where: equalities(spec.cursor), Take: 1})
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return []Row{}, nil
		}
		orders = withIDTiebreak(orders)
		where = And(where, cursorFilter(orders, found[0]))
	}

	q := SelectQuery{Where: where, OrderBy: orders, Columns: projection(m, spec)}
	if len(spec.distinct) == 0 {
		q.Skip, q.Take = spec.skip, spec.take
	}
	rows, err := eng.Select(ctx, m, q)
	if err != nil {
		return nil, err
	}
	if len(spec.distinct) > 0 {
		rows = window(distinctRows(rows, spec.distinct), spec.skip, spec.take)
	}
	if err := c.loadIncludes(ctx, eng, m, rows, spec.include); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

func equalities(values Row) Filter {
	parts := make([]Filter, 0, len(values))
	for _, col := range sortedKeys(values) {
		parts = append(parts, Eq(col, values[col]))
	}
	return And(parts...)
}

func withIDTiebreak(orders []Order) []Order {
	for _, o := range orders {
		if o.Field == ColumnID {
			return orders
		}
	}
	out := make([]Order, 0, len(orders)+1)
	out = append(out, orders...)
	return append(out, Asc(ColumnID))
}

// cursorFilter matches the cursor row and every row after it in the given ordering.
// The ordering must end in a unique column.
func cursorFilter(orders []Order, cur Row) Filter {
	terms := make([]Filter, 0, len(orders)+1)
	prefix := make([]Filter, 0, len(orders))
	for _, o := range orders {
		v := cur[o.Field]
		if after := afterValue(o, v); after != nil {
			terms = append(terms, And(append(append([]Filter{}, prefix...), after)...))
		}
		prefix = append(prefix, Eq(o.Field, v))
	}
	terms = append(terms, And(prefix...))
	return Or(terms...)
}

// afterValue matches values sorting strictly after v. NULLs sort last ascending, first descending.
func afterValue(o Order, v any) Filter {
	switch {
	case !o.Desc && v != nil:
		return Or(Cond{Field: o.Field, Op: OpGt, Value: v}, IsNull(o.Field))
	case !o.Desc:
		return nil
	case v != nil:
		return Cond{Field: o.Field, Op: OpLt, Value: v}
	default:
		return NotNull(o.Field)
	}
}

// projection lists the columns a read needs. nil selects every column.
func projection(m *Model, spec findSpec) []string {
	if spec.selected == nil {
		return nil
	}
	need := map[string]bool{ColumnID: true}
	for _, c := range spec.selected {
		need[c] = true
	}
	for _, c := range spec.distinct {
		need[c] = true
	}
	for _, inc := range spec.include {
		if rel, ok := m.Relation(inc.Relation); ok {
			need[rel.Local] = true
		}
	}
	out := make([]string, 0, len(need))
	for _, f := range m.Fields {
		if need[f.Name] {
			out = append(out, f.Name)
		}
	}
	return out
}

func distinctRows(rows []Row, cols []string) []Row {
	seen := make(map[string]bool, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		key := ""
		for _, c := range cols {
			key += keyOf(r[c]) + "\x1f"
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// loadIncludes attaches related rows under each include's relation name.
func (c *Client) loadIncludes(ctx context.Context, eng Engine, m *Model, rows []Row, incs []Include) error {
	for _, inc := range incs {
		rel, ok := m.Relation(inc.Relation)
		if !ok {
			return validationError(m.Name, "unknown include %q", inc.Relation)
		}
		target := c.schema.target(rel)

		var keys []any
		seen := map[string]bool{}
		for _, r := range rows {
			v := r[rel.Local]
			if v == nil || seen[keyOf(v)] {
				continue
			}
			seen[keyOf(v)] = true
			keys = append(keys, v)
		}

		grouped := map[string][]Row{}
		if len(keys) > 0 {
			children, err := eng.Select(ctx, target, SelectQuery{
				Where:   And(Cond{Field: rel.Foreign, Op: OpIn, Value: keys}, inc.Where),
				OrderBy: inc.OrderBy,
			})
			if err != nil {
				return err
			}
			if err := c.loadIncludes(ctx, eng, target, children, inc.Include); err != nil {
				return err
			}
			for _, ch := range children {
				k := keyOf(ch[rel.Foreign])
				grouped[k] = append(grouped[k], ch)
			}
		}

		for _, r := range rows {
			var list []Row
			if v := r[rel.Local]; v != nil {
				list = grouped[keyOf(v)]
			}
			if rel.Kind.toMany() {
				r[inc.Relation] = append([]Row{}, window(list, inc.Skip, inc.Take)...)
				continue
			}
			if len(list) > 0 {
				r[inc.Relation] = list[0]
			} else {
				r[inc.Relation] = nil
			}
		}
	}
	return nil
}
