package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	return out
}

func TestParseWhere(t *testing.T) {
	s := testSchema()
	authors, _ := s.Model("Author")

	f, err := ParseWhere(s, authors, decodeJSON(t, `{
		"email": {"contains": "EX", "mode": "insensitive"},
		"age": null,
		"OR": [{"name": "Ann"}, {"name": {"not": null}}],
		"posts": {"some": {"title": {"startsWith": "a"}}},
		"profile": {"bio": "hi"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, AndFilter{
		Or(Eq("name", "Ann"), NotNull("name")),
		IsNull("age"),
		Cond{Field: "email", Op: OpContains, Value: "EX", Fold: true},
		RelationFilter{Relation: "posts", Quant: QuantSome, Where: Cond{Field: "title", Op: OpStartsWith, Value: "a"}},
		Is("profile", Eq("bio", "hi")),
	}, f)

	_, err = ParseWhere(s, authors, decodeJSON(t, `{"nope": 1, "posts": {"title": "x"}, "email": {"like": "x"}}`))
	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues(), 3)
}

func TestParseFindArgs(t *testing.T) {
	s := testSchema()
	authors, _ := s.Model("Author")

	args, err := ParseFindArgs(s, authors, decodeJSON(t, `{
		"where": {"age": {"gte": 18}},
		"orderBy": [{"age": "desc"}, {"email": "asc"}],
		"skip": 1,
		"take": 2,
		"cursor": {"id": "a1"},
		"distinct": ["name"],
		"select": {"email": true, "name": false, "posts": {"take": 1, "orderBy": {"position": "asc"}}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, Cond{Field: "age", Op: OpGte, Value: 18.0}, args.Where)
	assert.Equal(t, []Order{Desc("age"), Asc("email")}, args.OrderBy)
	assert.Equal(t, 1, args.Skip)
	assert.Equal(t, 2, args.Take)
	assert.Equal(t, map[string]any{"id": "a1"}, args.Cursor)
	assert.Equal(t, []string{"name"}, args.Distinct)
	assert.Equal(t, []string{"email"}, args.Select)
	require.Len(t, args.Include, 1)
	assert.Equal(t, "posts", args.Include[0].Relation)
	assert.Equal(t, 1, args.Include[0].Take)
	assert.Equal(t, []Order{Asc("position")}, args.Include[0].OrderBy)

	_, err = ParseOrderBy(map[string]any{"age": "sideways"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestExecuteRunsEveryOperation(t *testing.T) {
	ctx := context.Background()
	seq := newSequence()
	c := NewClient(NewMemoryEngine(testSchema()), WithIDGenerator(seq.id), WithClock(seq.clock))

	run := func(model, op, body string) any {
		t.Helper()
		out, err := Execute(ctx, c, model, op, []byte(body))
		require.NoError(t, err, "%s.%s", model, op)
		return out
	}

	created := run("Author", "create", `{"data": {"email": "ann@example.com", "name": "Ann", "age": 30}}`).(Row)
	assert.Equal(t, int64(30), created["age"])
	annID := created.String(ColumnID)

	assert.Equal(t, map[string]int64{"count": 2}, run("Post", "createMany", `{"data": [
		{"author_id": "`+annID+`", "title": "one", "score": 1},
		{"author_id": "`+annID+`", "title": "two", "score": 3}
	]}`))
	returned := run("Author", "createManyAndReturn", `{"data": [{"email": "bob@example.com"}]}`).([]Row)
	require.Len(t, returned, 1)

	found := run("Author", "findUnique", `{"where": {"email": "ann@example.com"}, "include": {"posts": {"orderBy": {"title": "desc"}}}}`).(Row)
	assert.Len(t, found["posts"], 2)

	first := run("Post", "findFirst", `{"where": {"author": {"is": {"email": "ann@example.com"}}}, "orderBy": {"title": "asc"}}`).(Row)
	assert.Equal(t, "one", first["title"])

	many := run("Author", "findMany", `{"where": {"posts": {"none": {}}}}`).([]Row)
	require.Len(t, many, 1)
	assert.Equal(t, "bob@example.com", many[0]["email"])

	updated := run("Author", "update", `{"where": {"id": "`+annID+`"}, "data": {"name": "Annie"}}`).(Row)
	assert.Equal(t, "Annie", updated["name"])

	assert.Equal(t, map[string]int64{"count": 2}, run("Post", "updateMany", `{"where": {"author_id": "`+annID+`"}, "data": {"published": true}}`))
	changed := run("Post", "updateManyAndReturn", `{"where": {"title": "two"}, "data": {"position": 5}}`).([]Row)
	require.Len(t, changed, 1)

	upserted := run("Author", "upsert", `{"where": {"email": "cyd@example.com"}, "create": {"email": "cyd@example.com"}, "update": {"name": "x"}}`).(Row)
	assert.Nil(t, upserted["name"])

	assert.Equal(t, int64(3), run("Author", "count", `{}`))

	agg := run("Post", "aggregate", `{"_count": true, "_sum": {"score": true}, "_max": ["position"]}`).(AggregateResult)
	assert.Equal(t, int64(2), agg.CountOf(All))
	assert.Equal(t, 4.0, agg.Sum["score"])
	assert.Equal(t, int64(5), agg.Max["position"])

	groups := run("Post", "groupBy", `{"by": ["author_id"], "_count": {"_all": true}, "having": {"score": {"_sum": {"gt": 1}}}, "orderBy": {"_count": {"author_id": "desc"}}}`).([]GroupRow)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(2), groups[0].CountOf(All))

	deleted := run("Post", "delete", `{"where": {"id": "`+first.String(ColumnID)+`"}}`).(Row)
	assert.Equal(t, "one", deleted["title"])
	assert.Equal(t, int64(1), run("Post", "count", `{}`))
}

func TestExecuteRejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	c := NewClient(NewMemoryEngine(testSchema()))

	_, err := Execute(ctx, c, "Comment", "findMany", nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = Execute(ctx, c, "Author", "truncate", nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = Execute(ctx, c, "Author", "findMany", []byte(`{"where": `))
	require.ErrorIs(t, err, ErrValidation)

	_, err = Execute(ctx, c, "Author", "findUnique", []byte(`{"where": {"email": "nobody@example.com"}}`))
	require.ErrorIs(t, err, ErrNotFound)

	out, err := Execute(ctx, c, "Author", "deleteMany", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"count": 0}, out)
}
