package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParseWhere decodes a Prisma-style where object:
//
//	{"email": {"contains": "x", "mode": "insensitive"}, "OR": [...], "works": {"some": {...}}}
func ParseWhere(s *Schema, m *Model, raw map[string]any) (Filter, error) {
	p := parser{schema: s, issues: newIssues(m.Name)}
	f := p.where(m, raw)
	return f, p.issues.err()
}

// ParseOrderBy decodes {"field": "asc"} or a list of such objects.
func ParseOrderBy(raw any) ([]Order, error) {
	p := parser{issues: newIssues("")}
	out := p.orderBy(raw)
	return out, p.issues.err()
}

// ParseFindArgs decodes the arguments of findMany/findFirst.
func ParseFindArgs(s *Schema, m *Model, raw map[string]any) (FindArgs, error) {
	p := parser{schema: s, issues: newIssues(m.Name)}
	args := p.findArgs(m, raw)
	return args, p.issues.err()
}

type parser struct {
	schema *Schema
	issues *issues
}

func (p *parser) where(m *Model, raw map[string]any) Filter {
	if raw == nil {
		return nil
	}
	parts := make([]Filter, 0, len(raw))
	for _, key := range sortedMapKeys(raw) {
		val := raw[key]
		switch key {
		case "AND":
			parts = append(parts, And(p.whereList(m, val)...))
		case "OR":
			list, ok := val.([]any)
			if !ok {
				p.issues.add("OR needs a list")
				continue
			}
			subs := make([]Filter, 0, len(list))
			for _, item := range list {
				obj, ok := item.(map[string]any)
				if !ok {
					p.issues.add("OR items must be objects")
					continue
				}
				subs = append(subs, p.where(m, obj))
			}
			parts = append(parts, Or(subs...))
		case "NOT":
			for _, sub := range p.whereList(m, val) {
				parts = append(parts, Not(sub))
			}
		default:
			if rel, ok := m.Relation(key); ok {
				parts = append(parts, p.relation(m, rel, val))
				continue
			}
			if _, ok := m.Field(key); !ok {
				p.issues.add("%s: unknown field %q", m.Name, key)
				continue
			}
			parts = append(parts, p.field(key, val))
		}
	}
	return And(parts...)
}

func (p *parser) whereList(m *Model, val any) []Filter {
	switch x := val.(type) {
	case map[string]any:
		return []Filter{p.where(m, x)}
	case []any:
		out := make([]Filter, 0, len(x))
		for _, item := range x {
			obj, ok := item.(map[string]any)
			if !ok {
				p.issues.add("AND/NOT items must be objects")
				continue
			}
			out = append(out, p.where(m, obj))
		}
		return out
	}
	p.issues.add("AND/NOT need an object or a list")
	return nil
}

var scalarOps = map[string]Op{
	"equals":     OpEq,
	"in":         OpIn,
	"notIn":      OpNotIn,
	"lt":         OpLt,
	"lte":        OpLte,
	"gt":         OpGt,
	"gte":        OpGte,
	"contains":   OpContains,
	"startsWith": OpStartsWith,
	"endsWith":   OpEndsWith,
}

// field decodes a scalar filter: a bare value means equals.
func (p *parser) field(name string, val any) Filter {
	obj, ok := val.(map[string]any)
	if !ok {
		return Eq(name, val)
	}
	fold := false
	if mode, ok := obj["mode"]; ok {
		switch mode {
		case "insensitive":
			fold = true
		case "default":
		default:
			p.issues.add("%s: unknown mode %v", name, mode)
		}
	}
	parts := make([]Filter, 0, len(obj))
	for _, key := range sortedMapKeys(obj) {
		v := obj[key]
		switch key {
		case "mode":
			continue
		case "not":
			if nested, ok := v.(map[string]any); ok {
				if _, hasMode := nested["mode"]; !hasMode && fold {
					nested = withMode(nested)
				}
				parts = append(parts, Not(p.field(name, nested)))
				continue
			}
			if v == nil {
				parts = append(parts, NotNull(name))
				continue
			}
			parts = append(parts, Cond{Field: name, Op: OpNe, Value: v, Fold: fold})
		default:
			op, ok := scalarOps[key]
			if !ok {
				p.issues.add("%s: unknown operator %q", name, key)
				continue
			}
			if op == OpEq && v == nil {
				parts = append(parts, IsNull(name))
				continue
			}
			parts = append(parts, Cond{Field: name, Op: op, Value: v, Fold: fold})
		}
	}
	return And(parts...)
}

func withMode(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		out[k] = v
	}
	out["mode"] = "insensitive"
	return out
}

func (p *parser) relation(m *Model, rel Relation, val any) Filter {
	target := p.schema.target(rel)
	if val == nil {
		if rel.Kind.toMany() {
			p.issues.add("%s.%s: a to-many relation filter cannot be null", m.Name, rel.Name)
			return nil
		}
		return IsNot(rel.Name, nil)
	}
	obj, ok := val.(map[string]any)
	if !ok {
		p.issues.add("%s.%s: relation filter must be an object", m.Name, rel.Name)
		return nil
	}
	quants := map[string]Quantifier{"some": QuantSome, "every": QuantEvery, "none": QuantNone, "is": QuantIs, "isNot": QuantIsNot}
	var parts []Filter
	used := false
	for _, key := range sortedMapKeys(obj) {
		q, ok := quants[key]
		if !ok {
			continue
		}
		used = true
		sub := obj[key]
		if sub == nil {
			// is: null means the related row is absent, isNot: null that it exists.
			switch q {
			case QuantIs:
				parts = append(parts, IsNot(rel.Name, nil))
			case QuantIsNot:
				parts = append(parts, Is(rel.Name, nil))
			default:
				p.issues.add("%s.%s: %s cannot be null", m.Name, rel.Name, key)
			}
			continue
		}
		subObj, ok := sub.(map[string]any)
		if !ok {
			p.issues.add("%s.%s.%s must be an object", m.Name, rel.Name, key)
			continue
		}
		parts = append(parts, RelationFilter{Relation: rel.Name, Quant: q, Where: p.where(target, subObj)})
	}
	if !used {
		// shorthand for to-one relations: {"user": {"email": "x"}}
		if rel.Kind.toMany() {
			p.issues.add("%s.%s: expected some, every or none", m.Name, rel.Name)
			return nil
		}
		return Is(rel.Name, p.where(target, obj))
	}
	return And(parts...)
}

func (p *parser) orderBy(raw any) []Order {
	switch x := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make([]Order, 0, len(x))
		for _, k := range sortedMapKeys(x) {
			out = append(out, p.direction(k, x[k]))
		}
		return out
	case []any:
		var out []Order
		for _, item := range x {
			out = append(out, p.orderBy(item)...)
		}
		return out
	}
	p.issues.add("orderBy must be an object or a list")
	return nil
}

func (p *parser) direction(field string, v any) Order {
	switch strings.ToLower(fmt.Sprint(v)) {
	case "asc":
		return Asc(field)
	case "desc":
		return Desc(field)
	}
	p.issues.add("orderBy %s: direction must be asc or desc", field)
	return Asc(field)
}

func (p *parser) intArg(raw map[string]any, key string) int {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0
	}
	n, err := coerce(KindInt, v)
	if err != nil {
		p.issues.add("%s must be an integer", key)
		return 0
	}
	return int(n.(int64))
}

func (p *parser) fieldList(raw any, what string) []string {
	switch x := raw.(type) {
	case nil:
		return nil
	case string:
		return []string{x}
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				p.issues.add("%s must list field names", what)
				continue
			}
			out = append(out, s)
		}
		return out
	case map[string]any:
		var out []string
		for _, k := range sortedMapKeys(x) {
			if b, _ := x[k].(bool); b {
				out = append(out, k)
			}
		}
		return out
	}
	p.issues.add("%s must be a field list", what)
	return nil
}

func (p *parser) object(raw map[string]any, key string) map[string]any {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		p.issues.add("%s must be an object", key)
		return nil
	}
	return obj
}

func (p *parser) findArgs(m *Model, raw map[string]any) FindArgs {
	args := FindArgs{
		Where:    p.where(m, p.object(raw, "where")),
		OrderBy:  p.orderBy(raw["orderBy"]),
		Skip:     p.intArg(raw, "skip"),
		Take:     p.intArg(raw, "take"),
		Cursor:   p.object(raw, "cursor"),
		Distinct: p.fieldList(raw["distinct"], "distinct"),
		Include:  p.includes(m, p.object(raw, "include")),
	}
	if sel := p.object(raw, "select"); sel != nil {
		args.Select = []string{}
		for _, k := range sortedMapKeys(sel) {
			switch v := sel[k].(type) {
			case bool:
				if !v {
					continue
				}
				if _, isRel := m.Relation(k); isRel {
					args.Include = append(args.Include, Include{Relation: k})
					continue
				}
				args.Select = append(args.Select, k)
			case map[string]any:
				args.Include = append(args.Include, p.include(m, k, v))
			}
		}
	}
	return args
}

func (p *parser) includes(m *Model, raw map[string]any) []Include {
	var out []Include
	for _, k := range sortedMapKeys(raw) {
		switch v := raw[k].(type) {
		case bool:
			if v {
				out = append(out, Include{Relation: k})
			}
		case map[string]any:
			out = append(out, p.include(m, k, v))
		default:
			p.issues.add("include %s must be true or an object", k)
		}
	}
	return out
}

func (p *parser) include(m *Model, name string, raw map[string]any) Include {
	inc := Include{Relation: name}
	rel, ok := m.Relation(name)
	if !ok {
		p.issues.add("%s: unknown relation %q", m.Name, name)
		return inc
	}
	target := p.schema.target(rel)
	inc.Where = p.where(target, p.object(raw, "where"))
	inc.OrderBy = p.orderBy(raw["orderBy"])
	inc.Skip = p.intArg(raw, "skip")
	inc.Take = p.intArg(raw, "take")
	inc.Include = p.includes(target, p.object(raw, "include"))
	if sel := p.object(raw, "select"); sel != nil {
		for _, k := range sortedMapKeys(sel) {
			if _, isRel := target.Relation(k); !isRel {
				continue
			}
			switch v := sel[k].(type) {
			case bool:
				if v {
					inc.Include = append(inc.Include, Include{Relation: k})
				}
			case map[string]any:
				inc.Include = append(inc.Include, p.include(target, k, v))
			}
		}
	}
	return inc
}

func (p *parser) uniqueArgs(m *Model, raw map[string]any) FindUniqueArgs {
	full := p.findArgs(m, raw)
	return FindUniqueArgs{Where: full.Where, Select: full.Select, Include: full.Include}
}

// aggregateFields reads {"_count": {"_all": true, "email": true}} style selections.
func (p *parser) aggregateFields(raw map[string]any, key string) []string {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	if b, ok := v.(bool); ok {
		if b && key == "_count" {
			return []string{All}
		}
		return nil
	}
	return p.fieldList(v, key)
}

func (p *parser) having(m *Model, raw map[string]any) []Having {
	var out []Having
	aggs := map[string]Agg{"_count": AggCount, "_min": AggMin, "_max": AggMax, "_sum": AggSum, "_avg": AggAvg}
	for _, field := range sortedMapKeys(raw) {
		obj, ok := raw[field].(map[string]any)
		if !ok {
			out = append(out, Having{Agg: AggField, Field: field, Op: OpEq, Value: raw[field]})
			continue
		}
		for _, key := range sortedMapKeys(obj) {
			if agg, ok := aggs[key]; ok {
				cond, ok := obj[key].(map[string]any)
				if !ok {
					p.issues.add("having %s.%s must be an object", field, key)
					continue
				}
				out = append(out, p.havingOps(agg, field, cond)...)
				continue
			}
			out = append(out, p.havingOps(AggField, field, map[string]any{key: obj[key]})...)
		}
	}
	return out
}

func (p *parser) havingOps(agg Agg, field string, cond map[string]any) []Having {
	var out []Having
	for _, key := range sortedMapKeys(cond) {
		v := cond[key]
		if key == "not" {
			out = append(out, Having{Agg: agg, Field: field, Op: OpNe, Value: v})
			continue
		}
		op, ok := scalarOps[key]
		if !ok || op.stringOnly() {
			p.issues.add("having %s: unsupported operator %q", field, key)
			continue
		}
		out = append(out, Having{Agg: agg, Field: field, Op: op, Value: v})
	}
	return out
}

func (p *parser) groupOrder(raw any) []GroupOrder {
	aggs := map[string]Agg{"_count": AggCount, "_min": AggMin, "_max": AggMax, "_sum": AggSum, "_avg": AggAvg}
	var out []GroupOrder
	var walk func(v any)
	walk = func(v any) {
		switch x := v.(type) {
		case []any:
			for _, item := range x {
				walk(item)
			}
		case map[string]any:
			for _, k := range sortedMapKeys(x) {
				if agg, ok := aggs[k]; ok {
					inner, ok := x[k].(map[string]any)
					if !ok {
						p.issues.add("orderBy %s must be an object", k)
						continue
					}
					for _, f := range sortedMapKeys(inner) {
						o := p.direction(f, inner[f])
						out = append(out, GroupOrder{Agg: agg, Field: f, Desc: o.Desc})
					}
					continue
				}
				o := p.direction(k, x[k])
				out = append(out, GroupOrder{Field: k, Desc: o.Desc})
			}
		case nil:
		default:
			p.issues.add("orderBy must be an object or a list")
		}
	}
	walk(raw)
	return out
}

// Execute runs one delegate operation decoded from a JSON body and returns a JSON-ready result.
func Execute(ctx context.Context, c *Client, model, op string, body []byte) (any, error) {
	d, ok := c.Rows(model)
	if !ok {
		return nil, validationError(model, "unknown model %q", model)
	}
	raw := map[string]any{}
	if len(strings.TrimSpace(string(body))) > 0 {
		dec := json.NewDecoder(strings.NewReader(string(body)))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, validationError(model, "invalid JSON body: %v", err)
		}
	}
	m := d.Model()
	p := parser{schema: c.schema, issues: newIssues(m.Name)}

	var run func() (any, error)
	switch op {
	case "findUnique":
		args := p.uniqueArgs(m, raw)
		run = func() (any, error) { return d.FindUnique(ctx, args) }
	case "findFirst":
		args := p.findArgs(m, raw)
		run = func() (any, error) { return d.FindFirst(ctx, args) }
	case "findMany":
		args := p.findArgs(m, raw)
		run = func() (any, error) { return d.FindMany(ctx, args) }
	case "create":
		data := Row(p.object(raw, "data"))
		incs := p.includes(m, p.object(raw, "include"))
		run = func() (any, error) { return d.Create(ctx, data, incs...) }
	case "createMany", "createManyAndReturn":
		var rows []Row
		list, _ := raw["data"].([]any)
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				p.issues.add("data items must be objects")
				continue
			}
			rows = append(rows, Row(obj))
		}
		skip, _ := raw["skipDuplicates"].(bool)
		if op == "createMany" {
			run = func() (any, error) {
				n, err := d.CreateMany(ctx, rows, skip)
				return map[string]int64{"count": n}, err
			}
		} else {
			run = func() (any, error) { return d.CreateManyAndReturn(ctx, rows) }
		}
	case "update":
		u := p.uniqueArgs(m, raw)
		args := UpdateArgs{Where: u.Where, Data: Data(p.object(raw, "data")), Include: u.Include}
		run = func() (any, error) { return d.Update(ctx, args) }
	case "updateMany", "updateManyAndReturn":
		where := p.where(m, p.object(raw, "where"))
		data := Data(p.object(raw, "data"))
		if op == "updateMany" {
			run = func() (any, error) {
				n, err := d.UpdateMany(ctx, where, data)
				return map[string]int64{"count": n}, err
			}
		} else {
			run = func() (any, error) { return d.UpdateManyAndReturn(ctx, where, data) }
		}
	case "upsert":
		u := p.uniqueArgs(m, raw)
		args := UpsertArgs[Row]{
			Where:   u.Where,
			Create:  Row(p.object(raw, "create")),
			Update:  Data(p.object(raw, "update")),
			Include: u.Include,
		}
		run = func() (any, error) { return d.Upsert(ctx, args) }
	case "delete":
		args := p.uniqueArgs(m, raw)
		run = func() (any, error) { return d.Delete(ctx, args) }
	case "deleteMany":
		where := p.where(m, p.object(raw, "where"))
		run = func() (any, error) {
			n, err := d.DeleteMany(ctx, where)
			return map[string]int64{"count": n}, err
		}
	case "count":
		args := CountArgs{Where: p.where(m, p.object(raw, "where")), Skip: p.intArg(raw, "skip"), Take: p.intArg(raw, "take")}
		run = func() (any, error) { return d.Count(ctx, args) }
	case "aggregate":
		args := AggregateArgs{
			Where:   p.where(m, p.object(raw, "where")),
			OrderBy: p.orderBy(raw["orderBy"]),
			Skip:    p.intArg(raw, "skip"),
			Take:    p.intArg(raw, "take"),
			Count:   p.aggregateFields(raw, "_count"),
			Min:     p.aggregateFields(raw, "_min"),
			Max:     p.aggregateFields(raw, "_max"),
			Sum:     p.aggregateFields(raw, "_sum"),
			Avg:     p.aggregateFields(raw, "_avg"),
		}
		run = func() (any, error) { return d.Aggregate(ctx, args) }
	case "groupBy":
		args := GroupByArgs{
			By:      p.fieldList(raw["by"], "by"),
			Where:   p.where(m, p.object(raw, "where")),
			Having:  p.having(m, p.object(raw, "having")),
			OrderBy: p.groupOrder(raw["orderBy"]),
			Skip:    p.intArg(raw, "skip"),
			Take:    p.intArg(raw, "take"),
			Count:   p.aggregateFields(raw, "_count"),
			Min:     p.aggregateFields(raw, "_min"),
			Max:     p.aggregateFields(raw, "_max"),
			Sum:     p.aggregateFields(raw, "_sum"),
			Avg:     p.aggregateFields(raw, "_avg"),
		}
		run = func() (any, error) { return d.GroupBy(ctx, args) }
	default:
		return nil, validationError(model, "unknown operation %q", op)
	}
	if err := p.issues.err(); err != nil {
		return nil, err
	}
	return run()
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
