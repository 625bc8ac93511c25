package store

import "context"

// Engine executes row-level operations for a schema.
// Filters and rows reaching an engine have been validated and coerced by the client.
type Engine interface {
	Schema() *Schema
	Select(ctx context.Context, m *Model, q SelectQuery) ([]Row, error)
	// Insert returns the inserted rows. With skipDuplicates, rows violating a unique
	// constraint are dropped silently.
	Insert(ctx context.Context, m *Model, rows []Row, skipDuplicates bool) ([]Row, error)
	// Update applies data to every matching row and returns the rows after the change.
	Update(ctx context.Context, m *Model, where Filter, data Row) ([]Row, error)
	// Delete removes every matching row, applying referential actions, and returns the removed rows.
	Delete(ctx context.Context, m *Model, where Filter) ([]Row, error)
	Aggregate(ctx context.Context, m *Model, q AggregateQuery) (AggregateResult, error)
	GroupBy(ctx context.Context, m *Model, q GroupByArgs) ([]GroupRow, error)
	// Tx runs fn against a transaction-bound engine. Nested calls reuse the open transaction.
	Tx(ctx context.Context, fn func(Engine) error) error
	Ping(ctx context.Context) error
}
