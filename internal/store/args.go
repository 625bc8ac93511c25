package store

// All selects COUNT(*) in aggregate counts.
const All = "_all"

// Include loads a relation into each returned row.
type Include struct {
	Relation string
	Where    Filter
	OrderBy  []Order
	Skip     int
	Take     int
	Include  []Include
}

// With is a shorthand for an unfiltered Include.
func With(relation string, nested ...Include) Include {
	return Include{Relation: relation, Include: nested}
}

// FindArgs are the arguments of FindMany and FindFirst. Take 0 means no limit.
type FindArgs struct {
	Where    Filter
	OrderBy  []Order
	Skip     int
	Take     int
	Cursor   map[string]any
	Distinct []string
	Select   []string
	Include  []Include
}

// FindUniqueArgs identify one row by id or a unique column.
type FindUniqueArgs struct {
	Where   Filter
	Select  []string
	Include []Include
}

// Data is a partial set of column values.
type Data map[string]any

// UpdateArgs update one row identified by a unique where.
type UpdateArgs struct {
	Where   Filter
	Data    Data
	Include []Include
}

// UpsertArgs create Create when no row matches Where, otherwise apply Update.
type UpsertArgs[T any] struct {
	Where   Filter
	Create  T
	Update  Data
	Include []Include
}

// CountArgs count rows in a window.
type CountArgs struct {
	Where Filter
	Skip  int
	Take  int
}

// AggregateArgs compute aggregates over a window of rows.
// Count may name All for COUNT(*). Sum and Avg accept numeric columns only.
type AggregateArgs struct {
	Where   Filter
	OrderBy []Order
	Skip    int
	Take    int
	Count   []string
	Min     []string
	Max     []string
	Sum     []string
	Avg     []string
}

// AggregateResult holds the requested aggregates keyed by column.
type AggregateResult struct {
	Count map[string]int64 `json:"_count,omitempty"`
	Min   map[string]any   `json:"_min,omitempty"`
	Max   map[string]any   `json:"_max,omitempty"`
	Sum   map[string]any   `json:"_sum,omitempty"`
	Avg   map[string]any   `json:"_avg,omitempty"`
}

// Agg selects a per-group value in having and orderBy clauses.
type Agg int

const (
	// AggField is the plain grouping column.
	AggField Agg = iota
	AggCount
	AggMin
	AggMax
	AggSum
	AggAvg
)

func (a Agg) String() string {
	switch a {
	case AggCount:
		return "_count"
	case AggMin:
		return "_min"
	case AggMax:
		return "_max"
	case AggSum:
		return "_sum"
	case AggAvg:
		return "_avg"
	default:
		return "field"
	}
}

// Having filters groups by an aggregate or a grouping column.
// Op is limited to comparisons, In/NotIn and the null checks.
type Having struct {
	Agg   Agg
	Field string
	Op    Op
	Value any
}

// GroupOrder sorts groups by a grouping column or an aggregate.
type GroupOrder struct {
	Agg   Agg
	Field string
	Desc  bool
}

// GroupByArgs group rows by columns.
type GroupByArgs struct {
	By      []string
	Where   Filter
	Having  []Having
	OrderBy []GroupOrder
	Skip    int
	Take    int
	Count   []string
	Min     []string
	Max     []string
	Sum     []string
	Avg     []string
}

// GroupRow is one group: its key columns and the requested aggregates.
type GroupRow struct {
	Keys Row `json:"keys"`
	AggregateResult
}

// SelectQuery is what an engine needs to read rows of one model. Columns nil means all.
type SelectQuery struct {
	Where   Filter
	OrderBy []Order
	Skip    int
	Take    int
	Columns []string
}

// AggregateQuery computes aggregates over the rows a SelectQuery window yields.
type AggregateQuery struct {
	Window SelectQuery
	Count  []string
	Min    []string
	Max    []string
	Sum    []string
	Avg    []string
}
