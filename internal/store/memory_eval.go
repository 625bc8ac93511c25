package store

import "strings"

// tri is a SQL truth value.
type tri int8

const (
	triFalse tri = iota
	triUnknown
	triTrue
)

func triOf(b bool) tri {
	if b {
		return triTrue
	}
	return triFalse
}

func (t tri) not() tri {
	switch t {
	case triTrue:
		return triFalse
	case triFalse:
		return triTrue
	}
	return triUnknown
}

// evaluator applies filters to in-memory rows.
type evaluator struct {
	schema *Schema
	tables map[string][]Row
}

func (ev evaluator) match(m *Model, row Row, f Filter) bool {
	return ev.eval(m, row, f) == triTrue
}

func (ev evaluator) eval(m *Model, row Row, f Filter) tri {
	switch x := f.(type) {
	case nil:
		return triTrue
	case Cond:
		return evalCond(row[x.Field], x.Op, x.Value, x.Fold)
	case AndFilter:
		out := triTrue
		for _, sub := range x {
			switch ev.eval(m, row, sub) {
			case triFalse:
				return triFalse
			case triUnknown:
				out = triUnknown
			}
		}
		return out
	case OrFilter:
		out := triFalse
		for _, sub := range x {
			switch ev.eval(m, row, sub) {
			case triTrue:
				return triTrue
			case triUnknown:
				out = triUnknown
			}
		}
		return out
	case NotFilter:
		return ev.eval(m, row, x.Filter).not()
	case RelationFilter:
		return ev.evalRelation(m, row, x)
	}
	return triFalse
}

func (ev evaluator) related(m *Model, row Row, rel Relation) ([]Row, *Model) {
	target := ev.schema.target(rel)
	key := row[rel.Local]
	if key == nil {
		return nil, target
	}
	var out []Row
	for _, r := range ev.tables[target.Name] {
		if v := r[rel.Foreign]; v != nil && compare(v, key) == 0 {
			out = append(out, r)
		}
	}
	return out, target
}

func (ev evaluator) evalRelation(m *Model, row Row, rf RelationFilter) tri {
	rel, ok := m.Relation(rf.Relation)
	if !ok {
		return triFalse
	}
	children, target := ev.related(m, row, rel)
	switch rf.Quant {
	case QuantSome, QuantIs:
		for _, c := range children {
			if ev.eval(target, c, rf.Where) == triTrue {
				return triTrue
			}
		}
		return triFalse
	case QuantEvery:
		for _, c := range children {
			if ev.eval(target, c, rf.Where) == triFalse {
				return triFalse
			}
		}
		return triTrue
	default:
		for _, c := range children {
			if ev.eval(target, c, rf.Where) == triTrue {
				return triFalse
			}
		}
		return triTrue
	}
}

// evalCond compares a column value with SQL NULL semantics.
func evalCond(v any, op Op, want any, fold bool) tri {
	switch op {
	case OpIsNull:
		return triOf(v == nil)
	case OpNotNull:
		return triOf(v != nil)
	case OpIn, OpNotIn:
		vals, _ := want.([]any)
		if len(vals) == 0 {
			return triOf(op == OpNotIn)
		}
		if v == nil {
			return triUnknown
		}
		res := triFalse
		for _, x := range vals {
			if x == nil {
				res = triUnknown
				continue
			}
			if compareFold(v, x, fold) == 0 {
				res = triTrue
				break
			}
		}
		if op == OpNotIn {
			return res.not()
		}
		return res
	}
	if v == nil || want == nil {
		return triUnknown
	}
	switch op {
	case OpEq:
		return triOf(compareFold(v, want, fold) == 0)
	case OpNe:
		return triOf(compareFold(v, want, fold) != 0)
	case OpLt:
		return triOf(compareFold(v, want, fold) < 0)
	case OpLte:
		return triOf(compareFold(v, want, fold) <= 0)
	case OpGt:
		return triOf(compareFold(v, want, fold) > 0)
	case OpGte:
		return triOf(compareFold(v, want, fold) >= 0)
	}
	s, _ := v.(string)
	p, _ := want.(string)
	if fold {
		s, p = strings.ToLower(s), strings.ToLower(p)
	}
	switch op {
	case OpContains:
		return triOf(strings.Contains(s, p))
	case OpStartsWith:
		return triOf(strings.HasPrefix(s, p))
	case OpEndsWith:
		return triOf(strings.HasSuffix(s, p))
	}
	return triFalse
}

func compareFold(a, b any, fold bool) int {
	if fold {
		as, aok := a.(string)
		bs, bok := b.(string)
		if aok && bok {
			return strings.Compare(strings.ToLower(as), strings.ToLower(bs))
		}
	}
	return compare(a, b)
}
