package store

// Filter is a boolean condition over the rows of one model.
// A nil Filter matches every row.
type Filter interface {
	isFilter()
}

// Op is a scalar comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpIn
	OpNotIn
	OpLt
	OpLte
	OpGt
	OpGte
	OpContains
	OpStartsWith
	OpEndsWith
	OpIsNull
	OpNotNull
)

var opNames = map[Op]string{
	OpEq:         "equals",
	OpNe:         "not",
	OpIn:         "in",
	OpNotIn:      "notIn",
	OpLt:         "lt",
	OpLte:        "lte",
	OpGt:         "gt",
	OpGte:        "gte",
	OpContains:   "contains",
	OpStartsWith: "startsWith",
	OpEndsWith:   "endsWith",
	OpIsNull:     "isNull",
	OpNotNull:    "notNull",
}

func (o Op) String() string { return opNames[o] }

func (o Op) stringOnly() bool {
	return o == OpContains || o == OpStartsWith || o == OpEndsWith
}

// Cond compares one column with a value. Fold makes string comparisons case-insensitive.
type Cond struct {
	Field string
	Op    Op
	Value any
	Fold  bool
}

// AndFilter matches when every element matches. An empty AndFilter matches every row.
type AndFilter []Filter

// OrFilter matches when any element matches. An empty OrFilter matches no row.
type OrFilter []Filter

// NotFilter negates its operand.
type NotFilter struct {
	Filter Filter
}

// Quantifier selects how a relation filter treats the related rows.
type Quantifier int

const (
	QuantSome Quantifier = iota
	QuantEvery
	QuantNone
	QuantIs
	QuantIsNot
)

func (q Quantifier) String() string {
	switch q {
	case QuantSome:
		return "some"
	case QuantEvery:
		return "every"
	case QuantNone:
		return "none"
	case QuantIs:
		return "is"
	default:
		return "isNot"
	}
}

// RelationFilter matches rows by the rows of a related model.
type RelationFilter struct {
	Relation string
	Quant    Quantifier
	Where    Filter
}

func (Cond) isFilter()           {}
func (AndFilter) isFilter()      {}
func (OrFilter) isFilter()       {}
func (NotFilter) isFilter()      {}
func (RelationFilter) isFilter() {}

// Eq matches field = value. Eq(field, nil) matches NULL.
func Eq(field string, value any) Filter {
	if deref(value) == nil {
		return Cond{Field: field, Op: OpIsNull}
	}
	return Cond{Field: field, Op: OpEq, Value: value}
}

// EqFold is a case-insensitive Eq.
func EqFold(field string, value string) Filter {
	return Cond{Field: field, Op: OpEq, Value: value, Fold: true}
}

// Ne matches field <> value. NULL columns never match. Ne(field, nil) matches NOT NULL.
func Ne(field string, value any) Filter {
	if deref(value) == nil {
		return Cond{Field: field, Op: OpNotNull}
	}
	return Cond{Field: field, Op: OpNe, Value: value}
}

func In(field string, values ...any) Filter {
	return Cond{Field: field, Op: OpIn, Value: values}
}

func NotIn(field string, values ...any) Filter {
	return Cond{Field: field, Op: OpNotIn, Value: values}
}

func Lt(field string, value any) Filter  { return Cond{Field: field, Op: OpLt, Value: value} }
func Lte(field string, value any) Filter { return Cond{Field: field, Op: OpLte, Value: value} }
func Gt(field string, value any) Filter  { return Cond{Field: field, Op: OpGt, Value: value} }
func Gte(field string, value any) Filter { return Cond{Field: field, Op: OpGte, Value: value} }

func Contains(field, sub string) Filter {
	return Cond{Field: field, Op: OpContains, Value: sub}
}

func ContainsFold(field, sub string) Filter {
	return Cond{Field: field, Op: OpContains, Value: sub, Fold: true}
}

func StartsWith(field, prefix string) Filter {
	return Cond{Field: field, Op: OpStartsWith, Value: prefix}
}

func StartsWithFold(field, prefix string) Filter {
	return Cond{Field: field, Op: OpStartsWith, Value: prefix, Fold: true}
}

func EndsWith(field, suffix string) Filter {
	return Cond{Field: field, Op: OpEndsWith, Value: suffix}
}

func EndsWithFold(field, suffix string) Filter {
	return Cond{Field: field, Op: OpEndsWith, Value: suffix, Fold: true}
}

func IsNull(field string) Filter  { return Cond{Field: field, Op: OpIsNull} }
func NotNull(field string) Filter { return Cond{Field: field, Op: OpNotNull} }

// And combines filters, dropping nil operands.
func And(filters ...Filter) Filter {
	out := make(AndFilter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			out = append(out, f)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// Or matches when any operand matches. Or() matches nothing.
func Or(filters ...Filter) Filter {
	out := make(OrFilter, 0, len(filters))
	for _, f := range filters {
		if f == nil {
			// a nil operand matches everything
			return nil
		}
		out = append(out, f)
	}
	return out
}

func Not(f Filter) Filter { return NotFilter{Filter: f} }

// Some matches rows with at least one related row matching where.
func Some(relation string, where Filter) Filter {
	return RelationFilter{Relation: relation, Quant: QuantSome, Where: where}
}

// Every matches rows whose related rows all match where, including rows with none.
func Every(relation string, where Filter) Filter {
	return RelationFilter{Relation: relation, Quant: QuantEvery, Where: where}
}

// None matches rows with no related row matching where.
func None(relation string, where Filter) Filter {
	return RelationFilter{Relation: relation, Quant: QuantNone, Where: where}
}

// Is matches rows whose to-one related row exists and matches where.
func Is(relation string, where Filter) Filter {
	return RelationFilter{Relation: relation, Quant: QuantIs, Where: where}
}

// IsNot matches rows whose to-one related row is absent or does not match where.
func IsNot(relation string, where Filter) Filter {
	return RelationFilter{Relation: relation, Quant: QuantIsNot, Where: where}
}

// Order sorts by one column. NULLs sort last ascending and first descending.
type Order struct {
	Field string
	Desc  bool
}

func Asc(field string) Order  { return Order{Field: field} }
func Desc(field string) Order { return Order{Field: field, Desc: true} }
