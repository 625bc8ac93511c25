package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Observer is notified after every delegate operation.
type Observer func(model, op string, d time.Duration, err error)

// Client binds an engine to the clock, id generator and observer shared by its delegates.
type Client struct {
	engine   Engine
	schema   *Schema
	observer Observer
	now      func() time.Time
	newID    func() string
}

// Option configures a Client.
type Option func(*Client)

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(c *Client) { c.newID = gen }
}

// NewClient creates a client over engine.
func NewClient(engine Engine, opts ...Option) *Client {
	c := &Client{
		engine: engine,
		schema: engine.Schema(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Schema() *Schema { return c.schema }

func (c *Client) Engine() Engine { return c.engine }

// Ping checks that the engine can serve queries.
func (c *Client) Ping(ctx context.Context) error {
	return c.engine.Ping(ctx)
}

// Tx runs fn with a client bound to one transaction. Any error from fn rolls it back.
func (c *Client) Tx(ctx context.Context, fn func(tx *Client) error) error {
	return c.engine.Tx(ctx, func(eng Engine) error {
		return fn(c.bind(eng))
	})
}

func (c *Client) bind(eng Engine) *Client {
	cp := *c
	cp.engine = eng
	return &cp
}

func (c *Client) timestamp() time.Time {
	return normalizeTime(c.now())
}

func (c *Client) observe(model, op string, start time.Time, err error) {
	if c.observer != nil {
		c.observer(model, op, time.Since(start), err)
	}
}

// Rows returns an untyped delegate for the named model.
func (c *Client) Rows(model string) (*Delegate[Row], bool) {
	m, ok := c.schema.Model(model)
	if !ok {
		return nil, false
	}
	return &Delegate[Row]{client: c, model: m, codec: RowCodec}, true
}

// RowCodec passes rows through unchanged.
var RowCodec = Codec[Row]{
	Encode: func(r Row) Row { return r },
	Decode: func(r Row) (Row, error) { return r, nil },
}
