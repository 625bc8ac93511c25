package store

import (
	"context"
	"fmt"
	"time"
)

// Codec converts between a model struct and its row.
// Encode emits columns only. Decode must tolerate missing columns and reads loaded
// relations from the row's relation keys.
type Codec[T any] struct {
	Encode func(T) Row
	Decode func(Row) (T, error)
}

// Delegate exposes the query operations of one model.
type Delegate[T any] struct {
	client *Client
	model  *Model
	codec  Codec[T]
}

// NewDelegate binds a codec to the named model of c's schema. It panics on an unknown model.
func NewDelegate[T any](c *Client, model string, codec Codec[T]) *Delegate[T] {
	m, ok := c.schema.Model(model)
	if !ok {
		panic(fmt.Sprintf("store: unknown model %q", model))
	}
	return &Delegate[T]{client: c, model: m, codec: codec}
}

// Model returns the delegate's model metadata.
func (d *Delegate[T]) Model() *Model { return d.model }

func (d *Delegate[T]) track(op string, start time.Time, errp *error) {
	d.client.observe(d.model.Name, op, start, *errp)
}

func (d *Delegate[T]) checker() *checker {
	return newChecker(d.client.schema, d.model)
}

func (d *Delegate[T]) decode(r Row) (T, error) {
	v, err := d.codec.Decode(r)
	if err != nil {
		var zero T
		return zero, &UnknownRequestError{Model: d.model.Name, Err: fmt.Errorf("decode: %w", err)}
	}
	return v, nil
}

func (d *Delegate[T]) decodeAll(rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := d.decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FindUnique returns the row selected by an id or unique-column equality.
func (d *Delegate[T]) FindUnique(ctx context.Context, args FindUniqueArgs) (out T, err error) {
	defer d.track("findUnique", time.Now(), &err)
	c := d.checker()
	where := c.filter(d.model, args.Where)
	c.uniqueWhere(d.model, where)
	c.columns(d.model, "select", args.Select)
	incs := c.includes(d.model, args.Include)
	if err = c.err(); err != nil {
		return out, err
	}
	rows, err := d.client.findRows(ctx, d.client.engine, d.model, findSpec{
		where: where, take: 1, selected: args.Select, include: incs,
	})
	if err != nil {
		return out, err
	}
	if len(rows) == 0 {
		return out, notFound(d.model.Name)
	}
	return d.decode(rows[0])
}

// FindFirst returns the first row FindMany would return.
func (d *Delegate[T]) FindFirst(ctx context.Context, args FindArgs) (out T, err error) {
	defer d.track("findFirst", time.Now(), &err)
	args.Take = 1
	spec, err := d.findSpec(args)
	if err != nil {
		return out, err
	}
	rows, err := d.client.findRows(ctx, d.client.engine, d.model, spec)
	if err != nil {
		return out, err
	}
	if len(rows) == 0 {
		return out, notFound(d.model.Name)
	}
	return d.decode(rows[0])
}

// FindMany returns every row matching args.
func (d *Delegate[T]) FindMany(ctx context.Context, args FindArgs) (out []T, err error) {
	defer d.track("findMany", time.Now(), &err)
	spec, err := d.findSpec(args)
	if err != nil {
		return nil, err
	}
	rows, err := d.client.findRows(ctx, d.client.engine, d.model, spec)
	if err != nil {
		return nil, err
	}
	return d.decodeAll(rows)
}

func (d *Delegate[T]) findSpec(args FindArgs) (findSpec, error) {
	c := d.checker()
	spec := findSpec{
		where:    c.filter(d.model, args.Where),
		orderBy:  args.OrderBy,
		skip:     args.Skip,
		take:     args.Take,
		cursor:   c.cursor(d.model, args.Cursor),
		distinct: args.Distinct,
		selected: args.Select,
		include:  c.includes(d.model, args.Include),
	}
	c.orders(d.model, args.OrderBy)
	c.window(args.Skip, args.Take)
	c.columns(d.model, "select", args.Select)
	c.columns(d.model, "distinct", args.Distinct)
	return spec, c.err()
}

// prepareCreate validates an encoded record and fills the client-maintained columns.
func (d *Delegate[T]) prepareCreate(c *checker, raw Row, now time.Time) Row {
	cleaned := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, isRel := d.model.Relation(k); isRel {
			continue
		}
		switch k {
		case ColumnID:
			if s, ok := v.(string); ok && s == "" {
				continue
			}
		case ColumnCreatedAt, ColumnUpdatedAt:
			if t, ok := v.(time.Time); ok && t.IsZero() {
				continue
			}
		}
		cleaned[k] = v
	}
	row := c.data(d.model, cleaned, true)
	if row[ColumnID] == nil {
		row[ColumnID] = d.client.newID()
	}
	created, updated := d.model.hasTimestamps()
	if created && row[ColumnCreatedAt] == nil {
		row[ColumnCreatedAt] = now
	}
	if updated && row[ColumnUpdatedAt] == nil {
		row[ColumnUpdatedAt] = now
	}
	for _, f := range d.model.Fields {
		if f.Default != nil && row[f.Name] == nil {
			if v, err := coerce(f.Kind, f.Default); err == nil {
				row[f.Name] = v
			}
		}
	}
	return row
}

func (d *Delegate[T]) touch(data Row) {
	if _, updated := d.model.hasTimestamps(); updated {
		if _, set := data[ColumnUpdatedAt]; !set {
			data[ColumnUpdatedAt] = d.client.timestamp()
		}
	}
}

// Create inserts one record and returns it with the requested relations loaded.
func (d *Delegate[T]) Create(ctx context.Context, rec T, include ...Include) (out T, err error) {
	defer d.track("create", time.Now(), &err)
	c := d.checker()
	row := d.prepareCreate(c, d.codec.Encode(rec), d.client.timestamp())
	incs := c.includes(d.model, include)
	if err = c.err(); err != nil {
		return out, err
	}
	eng := d.client.engine
	inserted, err := eng.Insert(ctx, d.model, []Row{row}, false)
	if err != nil {
		return out, err
	}
	if len(inserted) == 0 {
		return out, &UnknownRequestError{Model: d.model.Name, Err: fmt.Errorf("insert returned no row")}
	}
	if err = d.client.loadIncludes(ctx, eng, d.model, inserted[:1], incs); err != nil {
		return out, err
	}
	return d.decode(inserted[0])
}

func (d *Delegate[T]) prepareMany(recs []T) ([]Row, error) {
	c := d.checker()
	now := d.client.timestamp()
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, d.prepareCreate(c, d.codec.Encode(rec), now))
	}
	return rows, c.err()
}

// CreateMany inserts records in one statement and returns how many were inserted.
// With skipDuplicates, records hitting a unique constraint are skipped.
func (d *Delegate[T]) CreateMany(ctx context.Context, recs []T, skipDuplicates bool) (n int64, err error) {
	defer d.track("createMany", time.Now(), &err)
	rows, err := d.prepareMany(recs)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	inserted, err := d.client.engine.Insert(ctx, d.model, rows, skipDuplicates)
	if err != nil {
		return 0, err
	}
	return int64(len(inserted)), nil
}

// CreateManyAndReturn is CreateMany returning the inserted records.
func (d *Delegate[T]) CreateManyAndReturn(ctx context.Context, recs []T) (out []T, err error) {
	defer d.track("createManyAndReturn", time.Now(), &err)
	rows, err := d.prepareMany(recs)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []T{}, nil
	}
	inserted, err := d.client.engine.Insert(ctx, d.model, rows, false)
	if err != nil {
		return nil, err
	}
	return d.decodeAll(inserted)
}

// Update changes the row selected by a unique where. A missing row is a not-found error.
func (d *Delegate[T]) Update(ctx context.Context, args UpdateArgs) (out T, err error) {
	defer d.track("update", time.Now(), &err)
	c := d.checker()
	where := c.filter(d.model, args.Where)
	c.uniqueWhere(d.model, where)
	data := c.data(d.model, args.Data, false)
	incs := c.includes(d.model, args.Include)
	if err = c.err(); err != nil {
		return out, err
	}
	d.touch(data)

	var row Row
	err = d.client.engine.Tx(ctx, func(eng Engine) error {
		found, err := eng.Select(ctx, d.model, SelectQuery{Where: where, Take: 1, Columns: []string{ColumnID}})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return notFound(d.model.Name)
		}
		updated, err := eng.Update(ctx, d.model, Eq(ColumnID, found[0][ColumnID]), data)
		if err != nil {
			return err
		}
		if len(updated) == 0 {
			return notFound(d.model.Name)
		}
		row = updated[0]
		return d.client.loadIncludes(ctx, eng, d.model, []Row{row}, incs)
	})
	if err != nil {
		return out, err
	}
	return d.decode(row)
}

func (d *Delegate[T]) updateRows(ctx context.Context, where Filter, data Data) ([]Row, error) {
	c := d.checker()
	w := c.filter(d.model, where)
	row := c.data(d.model, data, false)
	if err := c.err(); err != nil {
		return nil, err
	}
	d.touch(row)
	return d.client.engine.Update(ctx, d.model, w, row)
}

// UpdateMany applies data to every matching row and returns the count.
func (d *Delegate[T]) UpdateMany(ctx context.Context, where Filter, data Data) (n int64, err error) {
	defer d.track("updateMany", time.Now(), &err)
	rows, err := d.updateRows(ctx, where, data)
	return int64(len(rows)), err
}

// UpdateManyAndReturn is UpdateMany returning the updated records.
func (d *Delegate[T]) UpdateManyAndReturn(ctx context.Context, where Filter, data Data) (out []T, err error) {
	defer d.track("updateManyAndReturn", time.Now(), &err)
	rows, err := d.updateRows(ctx, where, data)
	if err != nil {
		return nil, err
	}
	return d.decodeAll(rows)
}

// Upsert updates the row selected by a unique where, or creates args.Create when there is none.
func (d *Delegate[T]) Upsert(ctx context.Context, args UpsertArgs[T]) (out T, err error) {
	defer d.track("upsert", time.Now(), &err)
	c := d.checker()
	where := c.filter(d.model, args.Where)
	c.uniqueWhere(d.model, where)
	now := d.client.timestamp()
	create := d.prepareCreate(c, d.codec.Encode(args.Create), now)
	data := c.data(d.model, args.Update, false)
	incs := c.includes(d.model, args.Include)
	if err = c.err(); err != nil {
		return out, err
	}
	d.touch(data)

	var row Row
	err = d.client.engine.Tx(ctx, func(eng Engine) error {
		found, err := eng.Select(ctx, d.model, SelectQuery{Where: where, Take: 1, Columns: []string{ColumnID}})
		if err != nil {
			return err
		}
		var rows []Row
		if len(found) == 0 {
			rows, err = eng.Insert(ctx, d.model, []Row{create}, false)
		} else {
			rows, err = eng.Update(ctx, d.model, Eq(ColumnID, found[0][ColumnID]), data)
		}
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound(d.model.Name)
		}
		row = rows[0]
		return d.client.loadIncludes(ctx, eng, d.model, []Row{row}, incs)
	})
	if err != nil {
		return out, err
	}
	return d.decode(row)
}

// Delete removes the row selected by a unique where and returns it as it was,
// relations included.
func (d *Delegate[T]) Delete(ctx context.Context, args FindUniqueArgs) (out T, err error) {
	defer d.track("delete", time.Now(), &err)
	c := d.checker()
	where := c.filter(d.model, args.Where)
	c.uniqueWhere(d.model, where)
	c.columns(d.model, "select", args.Select)
	incs := c.includes(d.model, args.Include)
	if err = c.err(); err != nil {
		return out, err
	}

	var row Row
	err = d.client.engine.Tx(ctx, func(eng Engine) error {
		found, err := d.client.findRows(ctx, eng, d.model, findSpec{
			where: where, take: 1, selected: args.Select, include: incs,
		})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return notFound(d.model.Name)
		}
		row = found[0]
		_, err = eng.Delete(ctx, d.model, Eq(ColumnID, row[ColumnID]))
		return err
	})
	if err != nil {
		return out, err
	}
	return d.decode(row)
}

// DeleteMany removes every matching row and returns the count.
func (d *Delegate[T]) DeleteMany(ctx context.Context, where Filter) (n int64, err error) {
	defer d.track("deleteMany", time.Now(), &err)
	c := d.checker()
	w := c.filter(d.model, where)
	if err = c.err(); err != nil {
		return 0, err
	}
	rows, err := d.client.engine.Delete(ctx, d.model, w)
	return int64(len(rows)), err
}

// Count returns the number of rows in the window.
func (d *Delegate[T]) Count(ctx context.Context, args CountArgs) (n int64, err error) {
	defer d.track("count", time.Now(), &err)
	c := d.checker()
	where := c.filter(d.model, args.Where)
	c.window(args.Skip, args.Take)
	if err = c.err(); err != nil {
		return 0, err
	}
	res, err := d.client.engine.Aggregate(ctx, d.model, AggregateQuery{
		Window: SelectQuery{Where: where, Skip: args.Skip, Take: args.Take},
		Count:  []string{All},
	})
	if err != nil {
		return 0, err
	}
	return res.Count[All], nil
}

// Aggregate computes the requested aggregates over the window.
func (d *Delegate[T]) Aggregate(ctx context.Context, args AggregateArgs) (res AggregateResult, err error) {
	defer d.track("aggregate", time.Now(), &err)
	c := d.checker()
	where := c.filter(d.model, args.Where)
	c.orders(d.model, args.OrderBy)
	c.window(args.Skip, args.Take)
	c.aggregates(d.model, args.Count, args.Min, args.Max, args.Sum, args.Avg)
	if err = c.err(); err != nil {
		return res, err
	}
	return d.client.engine.Aggregate(ctx, d.model, AggregateQuery{
		Window: SelectQuery{Where: where, OrderBy: args.OrderBy, Skip: args.Skip, Take: args.Take},
		Count:  args.Count,
		Min:    args.Min,
		Max:    args.Max,
		Sum:    args.Sum,
		Avg:    args.Avg,
	})
}

// GroupBy groups rows by columns and computes the requested aggregates per group.
func (d *Delegate[T]) GroupBy(ctx context.Context, args GroupByArgs) (out []GroupRow, err error) {
	defer d.track("groupBy", time.Now(), &err)
	c := d.checker()
	q := c.groupBy(d.model, args)
	if err = c.err(); err != nil {
		return nil, err
	}
	out, err = d.client.engine.GroupBy(ctx, d.model, q)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []GroupRow{}
	}
	return out, nil
}
