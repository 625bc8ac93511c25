package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryEngine keeps every table in process memory. Rows stored in a table are never
// mutated in place: writes replace them, so a snapshot only copies the table slices.
type MemoryEngine struct {
	schema *Schema
	mu     *sync.RWMutex
	state  *memState
	inTx   bool
}

type memState struct {
	tables map[string][]Row
}

var _ Engine = (*MemoryEngine)(nil)

// NewMemoryEngine creates an empty in-memory database for schema.
func NewMemoryEngine(schema *Schema) *MemoryEngine {
	st := &memState{tables: make(map[string][]Row)}
	for _, m := range schema.Models() {
		st.tables[m.Name] = nil
	}
	return &MemoryEngine{schema: schema, mu: &sync.RWMutex{}, state: st}
}

func (s *memState) clone() *memState {
	out := &memState{tables: make(map[string][]Row, len(s.tables))}
	for name, rows := range s.tables {
		out.tables[name] = append([]Row(nil), rows...)
	}
	return out
}

func (e *MemoryEngine) Schema() *Schema { return e.schema }

func (e *MemoryEngine) Ping(ctx context.Context) error { return ctx.Err() }

func (e *MemoryEngine) read(ctx context.Context, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.inTx {
		e.mu.RLock()
		defer e.mu.RUnlock()
	}
	return fn(e.state)
}

// write applies fn to a copy of the state and publishes it only when fn succeeds.
func (e *MemoryEngine) write(ctx context.Context, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.inTx {
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	next := e.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	e.state.tables = next.tables
	return nil
}

func (e *MemoryEngine) evaluator(st *memState) evaluator {
	return evaluator{schema: e.schema, tables: st.tables}
}

func (e *MemoryEngine) filter(st *memState, m *Model, where Filter) []Row {
	ev := e.evaluator(st)
	var out []Row
	for _, r := range st.tables[m.Name] {
		if ev.match(m, r, where) {
			out = append(out, r)
		}
	}
	return out
}

func sortRows(rows []Row, orders []Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c := compareNullable(rows[i][o.Field], rows[j][o.Field])
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func window[T any](rows []T, skip, take int) []T {
	if skip >= len(rows) {
		return nil
	}
	rows = rows[skip:]
	if take > 0 && take < len(rows) {
		rows = rows[:take]
	}
	return rows
}

func (e *MemoryEngine) selectRows(st *memState, m *Model, q SelectQuery) []Row {
	rows := e.filter(st, m, q.Where)
	sortRows(rows, q.OrderBy)
	return window(rows, q.Skip, q.Take)
}

func (e *MemoryEngine) Select(ctx context.Context, m *Model, q SelectQuery) ([]Row, error) {
	var out []Row
	err := e.read(ctx, func(st *memState) error {
		for _, r := range e.selectRows(st, m, q) {
			out = append(out, r.project(q.Columns))
		}
		return nil
	})
	return out, err
}

func (e *MemoryEngine) Insert(ctx context.Context, m *Model, rows []Row, skipDuplicates bool) ([]Row, error) {
	var out []Row
	err := e.write(ctx, func(st *memState) error {
		table := st.tables[m.Name]
		for _, r := range rows {
			r = r.project(m.Columns())
			if col := uniqueConflict(m, table, r, -1); col != "" {
				if skipDuplicates {
					continue
				}
				return uniqueViolation(m.Name, col)
			}
			if col := e.missingParent(st, m, r); col != "" {
				return foreignKeyViolation(m.Name, col)
			}
			table = append(table, r)
			out = append(out, r.clone())
		}
		st.tables[m.Name] = table
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *MemoryEngine) Update(ctx context.Context, m *Model, where Filter, data Row) ([]Row, error) {
	var out []Row
	err := e.write(ctx, func(st *memState) error {
		table := st.tables[m.Name]
		ev := e.evaluator(st)
		var idx []int
		for i, r := range table {
			if ev.match(m, r, where) {
				idx = append(idx, i)
			}
		}
		for _, i := range idx {
			prev := table[i]
			next := prev.clone()
			for k, v := range data {
				next[k] = v
			}
			table[i] = next
			if col := uniqueConflict(m, table, next, i); col != "" {
				return uniqueViolation(m.Name, col)
			}
			if col := e.missingParent(st, m, next); col != "" {
				return foreignKeyViolation(m.Name, col)
			}
			for _, ref := range e.schema.referencing(m.Name) {
				key := ref.Relation.Foreign
				if prev[key] == nil || compareNullable(prev[key], next[key]) == 0 {
					continue
				}
				if len(childrenOf(st, ref, []Row{prev})) > 0 {
					return foreignKeyViolation(ref.Child.Name, ref.Relation.Local)
				}
			}
			out = append(out, next.clone())
		}
		st.tables[m.Name] = table
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *MemoryEngine) Delete(ctx context.Context, m *Model, where Filter) ([]Row, error) {
	var out []Row
	err := e.write(ctx, func(st *memState) error {
		matched := e.filter(st, m, where)
		if err := e.deleteRows(st, m, matched); err != nil {
			return err
		}
		for _, r := range matched {
			out = append(out, r.clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// deleteRows removes rows from m's table and applies each referencing relation's OnDelete action.
func (e *MemoryEngine) deleteRows(st *memState, m *Model, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	gone := make(map[string]bool, len(rows))
	for _, r := range rows {
		gone[keyOf(r[ColumnID])] = true
	}
	kept := st.tables[m.Name][:0:0]
	for _, r := range st.tables[m.Name] {
		if !gone[keyOf(r[ColumnID])] {
			kept = append(kept, r)
		}
	}
	st.tables[m.Name] = kept

	for _, ref := range e.schema.referencing(m.Name) {
		children := childrenOf(st, ref, rows)
		if len(children) == 0 {
			continue
		}
		switch ref.Relation.OnDelete {
		case Restrict:
			return foreignKeyViolation(ref.Child.Name, ref.Relation.Local)
		case SetNull:
			orphan := make(map[string]bool, len(children))
			for _, c := range children {
				orphan[keyOf(c[ColumnID])] = true
			}
			table := st.tables[ref.Child.Name]
			for i, r := range table {
				if orphan[keyOf(r[ColumnID])] {
					next := r.clone()
					next[ref.Relation.Local] = nil
					table[i] = next
				}
			}
		default:
			if err := e.deleteRows(st, ref.Child, children); err != nil {
				return err
			}
		}
	}
	return nil
}

// childrenOf returns the rows of ref.Child whose foreign key points at one of parents.
func childrenOf(st *memState, ref reference, parents []Row) []Row {
	keys := make(map[string]bool, len(parents))
	for _, p := range parents {
		if v := p[ref.Relation.Foreign]; v != nil {
			keys[keyOf(v)] = true
		}
	}
	var out []Row
	for _, r := range st.tables[ref.Child.Name] {
		if v := r[ref.Relation.Local]; v != nil && keys[keyOf(v)] {
			out = append(out, r)
		}
	}
	return out
}

// uniqueConflict returns the first unique column of r already taken in table, skipping index self.
func uniqueConflict(m *Model, table []Row, r Row, self int) string {
	for _, col := range m.UniqueColumns() {
		v := r[col]
		if v == nil {
			continue
		}
		for i, other := range table {
			if i == self {
				continue
			}
			if ov := other[col]; ov != nil && compare(ov, v) == 0 {
				return col
			}
		}
	}
	return ""
}

// missingParent returns the first foreign key column of r that references no existing row.
func (e *MemoryEngine) missingParent(st *memState, m *Model, r Row) string {
	for _, rel := range m.Relations {
		if rel.Kind != BelongsTo {
			continue
		}
		v := r[rel.Local]
		if v == nil {
			continue
		}
		found := false
		for _, p := range st.tables[rel.Target] {
			if pv := p[rel.Foreign]; pv != nil && compare(pv, v) == 0 {
				found = true
				break
			}
		}
		if !found {
			return rel.Local
		}
	}
	return ""
}

func (e *MemoryEngine) Aggregate(ctx context.Context, m *Model, q AggregateQuery) (AggregateResult, error) {
	var res AggregateResult
	err := e.read(ctx, func(st *memState) error {
		rows := e.selectRows(st, m, q.Window)
		res = aggregateRows(rows, aggSlots(m, q.Count, q.Min, q.Max, q.Sum, q.Avg))
		return nil
	})
	return res, err
}

type memGroup struct {
	keys Row
	rows []Row
}

func (e *MemoryEngine) GroupBy(ctx context.Context, m *Model, q GroupByArgs) ([]GroupRow, error) {
	var out []GroupRow
	err := e.read(ctx, func(st *memState) error {
		var groups []*memGroup
		index := map[string]*memGroup{}
		for _, r := range e.filter(st, m, q.Where) {
			key := ""
			for _, by := range q.By {
				key += keyOf(r[by]) + "\x1f"
			}
			g, ok := index[key]
			if !ok {
				g = &memGroup{keys: r.project(q.By)}
				index[key] = g
				groups = append(groups, g)
			}
			g.rows = append(g.rows, r)
		}

		kept := groups[:0]
		for _, g := range groups {
			ok := true
			for _, h := range q.Having {
				if evalCond(computeAgg(g.rows, h.Agg, h.Field), h.Op, h.Value, false) != triTrue {
					ok = false
					break
				}
			}
			if ok {
				kept = append(kept, g)
			}
		}

		orders := q.OrderBy
		if len(orders) == 0 {
			for _, by := range q.By {
				orders = append(orders, GroupOrder{Field: by})
			}
		}
		sort.SliceStable(kept, func(i, j int) bool {
			for _, o := range orders {
				c := compareNullable(computeAgg(kept[i].rows, o.Agg, o.Field), computeAgg(kept[j].rows, o.Agg, o.Field))
				if o.Desc {
					c = -c
				}
				if c != 0 {
					return c < 0
				}
			}
			return false
		})

		slots := aggSlots(m, q.Count, q.Min, q.Max, q.Sum, q.Avg)
		for _, g := range window(kept, q.Skip, q.Take) {
			out = append(out, GroupRow{Keys: g.keys, AggregateResult: aggregateRows(g.rows, slots)})
		}
		return nil
	})
	return out, err
}

// Tx serialises transactions: fn runs on a private snapshot that replaces the shared
// state only when fn returns nil.
func (e *MemoryEngine) Tx(ctx context.Context, fn func(Engine) error) error {
	if e.inTx {
		return fn(e)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.state.clone()
	bound := &MemoryEngine{schema: e.schema, mu: e.mu, state: snapshot, inTx: true}
	if err := fn(bound); err != nil {
		return err
	}
	e.state.tables = snapshot.tables
	return nil
}
