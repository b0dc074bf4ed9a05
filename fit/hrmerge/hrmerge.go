// Package hrmerge implements the hr_mesg expansion and record join spec.md
// §4.11 describes: compressed heart-rate history samples carried in
// hr_mesg messages are expanded into one timestamped sample each, then
// joined onto record messages by nearest-predecessor timestamp.
//
// It operates on plain map[string]any records rather than fit.Message, so
// it has no dependency on package fit; fit.Message's underlying type is
// map[string]any, so the two convert for free at the call site.
package hrmerge

// Record is one decoded message, keyed by field name.
type Record = map[string]any

// ExpandHeartRates turns a stream of hr_mesg messages into one record per
// heart-rate sample. Each hr_mesg carries a base timestamp (either a full
// "timestamp" field or an "event_timestamp" resync point, scaled to
// fractional seconds) plus zero or more "event_timestamp_12" deltas, each
// 1/256s since the previous sample (spec.md §4.11).
func ExpandHeartRates(hrMesgs []Record) []Record {
	var out []Record
	var running float64
	have := false

	for _, m := range hrMesgs {
		if ts, ok := toFloat(m["timestamp"]); ok {
			running = ts
			have = true
		}
		if ets, ok := toFloat(m["event_timestamp"]); ok {
			running = ets
			have = true
		}
		if !have {
			continue
		}

		deltas := toFloatSlice(m["event_timestamp_12"])
		if len(deltas) == 0 {
			if m["filtered_bpm"] != nil {
				out = append(out, Record{"timestamp": running, "heart_rate": m["filtered_bpm"]})
			}
			continue
		}
		for _, d := range deltas {
			running += d / 256.0
			out = append(out, Record{"timestamp": running, "heart_rate": m["filtered_bpm"]})
		}
	}
	return out
}

// MergeInto fills each record's "heart_rate" field from the nearest
// hr sample whose timestamp does not exceed the record's own, when the
// record does not already carry one.
func MergeInto(hrMesgs, recordMesgs []Record) {
	for _, rec := range recordMesgs {
		if rec["heart_rate"] != nil {
			continue
		}
		rts, ok := toFloat(rec["timestamp"])
		if !ok {
			continue
		}

		var best Record
		var bestTS float64
		found := false
		for _, hr := range hrMesgs {
			hts, ok := toFloat(hr["timestamp"])
			if !ok || hts > rts {
				continue
			}
			if !found || hts > bestTS {
				best, bestTS, found = hr, hts, true
			}
		}
		if found {
			rec["heart_rate"] = best["heart_rate"]
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toFloatSlice(v any) []float64 {
	arr, ok := v.([]any)
	if !ok {
		if f, ok := toFloat(v); ok {
			return []float64{f}
		}
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, e := range arr {
		if f, ok := toFloat(e); ok {
			out = append(out, f)
		}
	}
	return out
}
