package fit

import (
	"math"
	"strconv"
	"time"

	"github.com/go-fitdecode/fitdecode/fit/profile"
)

// fitEpochSeconds is the offset between the Unix epoch and the FIT epoch
// (1989-12-31T00:00:00Z), spec.md §4.8's "timestamp conversion": date_time
// fields are stored on the wire as seconds since the FIT epoch.
const fitEpochSeconds = 631065600

// applyScalarTransforms implements spec.md §4.8's "Scalar transforms" over
// every field expansion left untouched: date_time fields gain the FIT
// epoch offset, enum fields are optionally stringified, and everything
// else undoes its profile scale/offset. Fields already resolved by
// component expansion are skipped; they were transformed inline as each
// bit-unpacked value was produced.
func (d *Decoder) applyScalarTransforms(wm *workingMessage) {
	for _, name := range wm.order {
		wf := wm.fields[name]
		if wf.isExpandedField {
			continue
		}
		typeName, scale, offset, _, _, ok := fieldSourceProfile(wm, name)
		if !ok {
			continue
		}
		wf.value = applyScalar(wf.rawValue, typeName, scale, offset,
			d.opts.ConvertTypesToStrings, d.opts.ApplyScaleAndOffset, d.opts.ConvertDatetimesToDates)
	}
}

func applyScalar(raw any, typeName string, scale, offset []float64, stringify, applyScale, convertDates bool) any {
	if arr, ok := raw.([]any); ok {
		out := make([]any, len(arr))
		for i, e := range arr {
			out[i] = transformScalar(e, typeName, scale, offset, i, stringify, applyScale, convertDates)
		}
		return out
	}
	return transformScalar(raw, typeName, scale, offset, 0, stringify, applyScale, convertDates)
}

func transformScalar(raw any, typeName string, scale, offset []float64, idx int, stringify, applyScale, convertDates bool) any {
	if raw == nil {
		return nil
	}

	if typeName == "date_time" {
		iv, ok := toInt64(raw)
		if !ok {
			return raw
		}
		adjusted := iv + fitEpochSeconds
		if !convertDates {
			return adjusted
		}
		return time.Unix(adjusted, 0).UTC()
	}

	if names, ok := profile.Types[typeName]; ok {
		iv, ok := toInt64(raw)
		if ok {
			if stringify {
				if name, ok := names[iv]; ok {
					return name
				}
			}
			return iv
		}
	}

	if !applyScale {
		return raw
	}

	// A components-bearing field's own raw value is never itself a scaled
	// physical quantity — only its expanded targets are (spec.md §4.8);
	// the reference decoder (original_source/garmin_fit_sdk/decoder.py)
	// bypasses scaling entirely whenever the profile declares more than
	// one scale/offset entry, which is exactly the components case.
	if len(scale) > 1 || len(offset) > 1 {
		return raw
	}

	s := scaleAt(scale, idx)
	o := offsetAt(offset, idx)
	if s == 1 && o == 0 {
		return raw
	}
	fv, ok := toFloat64(raw)
	if !ok {
		return raw
	}
	physical := fv/s - o
	if isIntegral(physical) {
		return int64(math.Round(physical))
	}
	return physical
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
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

// cleanMessage flattens a workingMessage's fields into the final Message
// shape (spec.md §4.8, "Cleaning"): one value per field name (Message is a
// map, so field order is not kept), plus any developer fields under their
// registry assignment key (spec.md §4.9).
func cleanMessage(wm *workingMessage) Message {
	msg := Message{}
	for _, name := range wm.order {
		msg[name] = wm.fields[name].value
	}
	for devDataIndex, byKey := range wm.devFields {
		for key, v := range byKey {
			msg.setDeveloperField(strconv.Itoa(int(devDataIndex)), strconv.Itoa(key), v)
		}
	}
	return msg
}
