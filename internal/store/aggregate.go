package store

func newAggregateResult(slots []aggSlot) AggregateResult {
	var res AggregateResult
	for _, s := range slots {
		switch s.agg {
		case AggCount:
			if res.Count == nil {
				res.Count = map[string]int64{}
			}
			res.Count[s.field] = 0
		case AggMin:
			if res.Min == nil {
				res.Min = map[string]any{}
			}
			res.Min[s.field] = nil
		case AggMax:
			if res.Max == nil {
				res.Max = map[string]any{}
			}
			res.Max[s.field] = nil
		case AggSum:
			if res.Sum == nil {
				res.Sum = map[string]any{}
			}
			res.Sum[s.field] = nil
		case AggAvg:
			if res.Avg == nil {
				res.Avg = map[string]any{}
			}
			res.Avg[s.field] = nil
		}
	}
	return res
}

func (r *AggregateResult) set(s aggSlot, v any) {
	switch s.agg {
	case AggCount:
		n, _ := v.(int64)
		r.Count[s.field] = n
	case AggMin:
		r.Min[s.field] = v
	case AggMax:
		r.Max[s.field] = v
	case AggSum:
		r.Sum[s.field] = v
	case AggAvg:
		r.Avg[s.field] = v
	}
}

// CountOf returns the count for a column, or All.
func (r AggregateResult) CountOf(field string) int64 { return r.Count[field] }

// computeAgg evaluates one aggregate over rows in memory with SQL semantics:
// NULLs are ignored and an empty input yields NULL for everything but COUNT.
func computeAgg(rows []Row, agg Agg, field string) any {
	switch agg {
	case AggCount:
		if field == All {
			return int64(len(rows))
		}
		var n int64
		for _, r := range rows {
			if r[field] != nil {
				n++
			}
		}
		return n
	case AggMin, AggMax:
		var best any
		for _, r := range rows {
			v := r[field]
			if v == nil {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			c := compare(v, best)
			if (agg == AggMin && c < 0) || (agg == AggMax && c > 0) {
				best = v
			}
		}
		return best
	case AggSum, AggAvg:
		var (
			isum  int64
			fsum  float64
			float bool
			n     int
		)
		for _, r := range rows {
			switch v := r[field].(type) {
			case int64:
				isum += v
				fsum += float64(v)
				n++
			case float64:
				fsum += v
				float = true
				n++
			}
		}
		if n == 0 {
			return nil
		}
		if agg == AggAvg {
			return fsum / float64(n)
		}
		if float {
			return fsum
		}
		return isum
	}
	if len(rows) == 0 {
		return nil
	}
	return rows[0][field]
}

func aggregateRows(rows []Row, slots []aggSlot) AggregateResult {
	res := newAggregateResult(slots)
	for _, s := range slots {
		res.set(s, computeAgg(rows, s.agg, s.field))
	}
	return res
}
