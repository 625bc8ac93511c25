package store

import (
	"fmt"
	"sort"
)

// Kind is the scalar type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) numeric() bool { return k == KindInt || k == KindFloat }

// Column names maintained by the client.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

// Field describes one column of a model.
type Field struct {
	Name     string
	Kind     Kind
	Nullable bool
	Unique   bool
	// Default marks columns the client fills when a create leaves them empty.
	Default any
}

// RelationKind is the cardinality of a relation seen from its owning model.
type RelationKind int

const (
	HasMany RelationKind = iota
	HasOne
	BelongsTo
)

func (k RelationKind) toMany() bool { return k == HasMany }

// Action is the referential action applied to children when a parent row is deleted.
type Action int

const (
	Cascade Action = iota
	SetNull
	Restrict
)

// Relation links a model to a target model through a pair of columns.
// Local is a column of the owning model, Foreign a column of the target.
// For BelongsTo, Local holds the foreign key and OnDelete applies to the owning model's rows.
type Relation struct {
	Name     string
	Kind     RelationKind
	Target   string
	Local    string
	Foreign  string
	OnDelete Action
}

// Model is the metadata of one table.
type Model struct {
	Name      string
	Table     string
	Fields    []Field
	Relations []Relation

	fields    map[string]int
	relations map[string]int
}

// Field looks up a column by name.
func (m *Model) Field(name string) (Field, bool) {
	i, ok := m.fields[name]
	if !ok {
		return Field{}, false
	}
	return m.Fields[i], true
}

// Relation looks up a relation by name.
func (m *Model) Relation(name string) (Relation, bool) {
	i, ok := m.relations[name]
	if !ok {
		return Relation{}, false
	}
	return m.Relations[i], true
}

// Columns returns every column name in declaration order.
func (m *Model) Columns() []string {
	out := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		out[i] = f.Name
	}
	return out
}

// UniqueColumns returns id followed by the columns with a unique constraint.
func (m *Model) UniqueColumns() []string {
	out := []string{ColumnID}
	for _, f := range m.Fields {
		if f.Unique && f.Name != ColumnID {
			out = append(out, f.Name)
		}
	}
	return out
}

func (m *Model) isUnique(col string) bool {
	if col == ColumnID {
		return true
	}
	f, ok := m.Field(col)
	return ok && f.Unique
}

func (m *Model) hasTimestamps() (created, updated bool) {
	_, created = m.fields[ColumnCreatedAt]
	_, updated = m.fields[ColumnUpdatedAt]
	return created, updated
}

// reference is a BelongsTo relation on Child pointing at some parent model.
type reference struct {
	Child    *Model
	Relation Relation
}

// Schema is a validated set of models.
type Schema struct {
	models map[string]*Model
	order  []string
	refs   map[string][]reference
}

// NewSchema indexes and validates the given models.
func NewSchema(models ...*Model) (*Schema, error) {
	s := &Schema{
		models: make(map[string]*Model, len(models)),
		refs:   make(map[string][]reference),
	}
	for _, m := range models {
		if m.Name == "" || m.Table == "" {
			return nil, fmt.Errorf("model %q: name and table are required", m.Name)
		}
		if _, dup := s.models[m.Name]; dup {
			return nil, fmt.Errorf("model %q declared twice", m.Name)
		}
		m.fields = make(map[string]int, len(m.Fields))
		for i, f := range m.Fields {
			if _, dup := m.fields[f.Name]; dup {
				return nil, fmt.Errorf("model %q: field %q declared twice", m.Name, f.Name)
			}
			m.fields[f.Name] = i
		}
		if _, ok := m.fields[ColumnID]; !ok {
			return nil, fmt.Errorf("model %q: missing %q field", m.Name, ColumnID)
		}
		m.relations = make(map[string]int, len(m.Relations))
		for i, r := range m.Relations {
			if _, clash := m.fields[r.Name]; clash {
				return nil, fmt.Errorf("model %q: relation %q shadows a field", m.Name, r.Name)
			}
			m.relations[r.Name] = i
		}
		s.models[m.Name] = m
		s.order = append(s.order, m.Name)
	}
	for _, m := range models {
		for _, r := range m.Relations {
			target, ok := s.models[r.Target]
			if !ok {
				return nil, fmt.Errorf("model %q: relation %q targets unknown model %q", m.Name, r.Name, r.Target)
			}
			if _, ok := m.Field(r.Local); !ok {
				return nil, fmt.Errorf("model %q: relation %q: unknown local field %q", m.Name, r.Name, r.Local)
			}
			if _, ok := target.Field(r.Foreign); !ok {
				return nil, fmt.Errorf("model %q: relation %q: unknown foreign field %q", m.Name, r.Name, r.Foreign)
			}
			if r.Kind == BelongsTo {
				s.refs[r.Target] = append(s.refs[r.Target], reference{Child: m, Relation: r})
			}
		}
	}
	sort.Strings(s.order)
	return s, nil
}

// MustSchema is NewSchema that panics on error.
func MustSchema(models ...*Model) *Schema {
	s, err := NewSchema(models...)
	if err != nil {
		panic(err)
	}
	return s
}

// Model returns the model registered under name.
func (s *Schema) Model(name string) (*Model, bool) {
	m, ok := s.models[name]
	return m, ok
}

// Models returns all models sorted by name.
func (s *Schema) Models() []*Model {
	out := make([]*Model, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.models[name])
	}
	return out
}

func (s *Schema) target(r Relation) *Model {
	return s.models[r.Target]
}

// referencing lists the BelongsTo relations whose target is the named model.
func (s *Schema) referencing(model string) []reference {
	return s.refs[model]
}
