package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	stamps := func(fields ...Field) []Field {
		out := append([]Field{{Name: ColumnID, Kind: KindString}}, fields...)
		return append(out, Field{Name: ColumnCreatedAt, Kind: KindTime}, Field{Name: ColumnUpdatedAt, Kind: KindTime})
	}
	return MustSchema(
		&Model{
			Name:  "Author",
			Table: "authors",
			Fields: stamps(
				Field{Name: "email", Kind: KindString, Unique: true},
				Field{Name: "name", Kind: KindString, Nullable: true},
				Field{Name: "age", Kind: KindInt, Nullable: true},
			),
			Relations: []Relation{
				{Name: "posts", Kind: HasMany, Target: "Post", Local: ColumnID, Foreign: "author_id"},
				{Name: "profile", Kind: HasOne, Target: "Profile", Local: ColumnID, Foreign: "author_id"},
			},
		},
		&Model{
			Name:  "Profile",
			Table: "profiles",
			Fields: stamps(
				Field{Name: "author_id", Kind: KindString, Nullable: true, Unique: true},
				Field{Name: "bio", Kind: KindString, Nullable: true},
			),
			Relations: []Relation{
				{Name: "author", Kind: BelongsTo, Target: "Author", Local: "author_id", Foreign: ColumnID, OnDelete: SetNull},
			},
		},
		&Model{
			Name:  "Post",
			Table: "posts",
			Fields: stamps(
				Field{Name: "author_id", Kind: KindString},
				Field{Name: "title", Kind: KindString},
				Field{Name: "score", Kind: KindFloat, Nullable: true},
				Field{Name: "published", Kind: KindBool, Default: false},
				Field{Name: "position", Kind: KindInt, Default: 0},
			),
			Relations: []Relation{
				{Name: "author", Kind: BelongsTo, Target: "Author", Local: "author_id", Foreign: ColumnID, OnDelete: Cascade},
			},
		},
	)
}

const testSQLiteDDL = `
CREATE TABLE authors (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT,
	age INTEGER,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE profiles (
	id TEXT PRIMARY KEY,
	author_id TEXT UNIQUE REFERENCES authors(id) ON DELETE SET NULL,
	bio TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE posts (
	id TEXT PRIMARY KEY,
	author_id TEXT NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	score REAL,
	published INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// sequence hands out ordered ids and a clock that ticks one second per call.
type sequence struct {
	mu  sync.Mutex
	n   int
	now time.Time
}

func newSequence() *sequence {
	return &sequence{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *sequence) id() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%04d", s.n)
}

func (s *sequence) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(time.Second)
	return s.now
}

func openSQLite(t *testing.T, schema *Schema) *SQLEngine {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	for _, stmt := range strings.Split(testSQLiteDDL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	return NewSQLEngine(db, SQLite, schema)
}

// eachEngine runs fn against a fresh client on every engine.
func eachEngine(t *testing.T, fn func(t *testing.T, c *Client)) {
	engines := []struct {
		name string
		open func(t *testing.T) Engine
	}{
		{"memory", func(t *testing.T) Engine { return NewMemoryEngine(testSchema()) }},
		{"sqlite", func(t *testing.T) Engine { return openSQLite(t, testSchema()) }},
	}
	for _, e := range engines {
		t.Run(e.name, func(t *testing.T) {
			seq := newSequence()
			c := NewClient(e.open(t), WithIDGenerator(seq.id), WithClock(seq.clock))
			fn(t, c)
		})
	}
}

func delegateFor(t *testing.T, c *Client, model string) *Delegate[Row] {
	t.Helper()
	d, ok := c.Rows(model)
	require.True(t, ok, "model %s", model)
	return d
}

func mustCreate(t *testing.T, d *Delegate[Row], r Row) Row {
	t.Helper()
	out, err := d.Create(context.Background(), r)
	require.NoError(t, err)
	return out
}

func ids(rs []Row) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String(ColumnID)
	}
	return out
}

func colValues[T any](rs []Row, col string) []T {
	out := make([]T, len(rs))
	for i, r := range rs {
		v, _ := r[col].(T)
		out[i] = v
	}
	return out
}

// seedAuthors creates ann (30), bob (40) and cyd (no age).
func seedAuthors(t *testing.T, c *Client) (ann, bob, cyd Row) {
	t.Helper()
	authors := delegateFor(t, c, "Author")
	ann = mustCreate(t, authors, Row{"email": "ann@example.com", "name": "Ann", "age": 30})
	bob = mustCreate(t, authors, Row{"email": "bob@example.com", "name": "Bob", "age": 40})
	cyd = mustCreate(t, authors, Row{"email": "cyd@example.com"})
	return ann, bob, cyd
}
