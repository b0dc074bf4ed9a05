package fit

import (
	"math"

	"github.com/go-fitdecode/fitdecode/fit/profile"
)

// applyProfile runs the full profile application pass of spec.md §4.8 over
// wm: sub-field selection, then component expansion, then scalar
// transforms, in that order, followed by cleaning to the final flattened
// Message shape.
func (d *Decoder) applyProfile(wm *workingMessage) Message {
	var expandQueue []string

	if d.opts.ExpandSubFields {
		expandQueue = append(expandQueue, d.applySubFields(wm)...)
	}
	// Fields the field reader itself flagged for expansion (has_components
	// on a base field) join the same worklist (spec.md §4.8: "seeded by
	// the field reader and by sub-field selection").
	for _, name := range wm.order {
		if wm.fields[name].needsExpansion && !wm.fields[name].isSubField {
			expandQueue = append(expandQueue, name)
		}
	}

	if d.opts.ExpandComponents {
		d.expandComponents(wm, expandQueue)
	}

	d.applyScalarTransforms(wm)

	return cleanMessage(wm)
}

// applySubFields implements spec.md §4.8's "Sub-field selection": for each
// field with a non-empty sub_fields list, the first sub-field whose map
// has any matching (reference_field_name, raw_value) pair is adopted under
// its own name as a deep copy of the base field. It returns the names of
// newly-adopted sub-fields that themselves need component expansion.
func (d *Decoder) applySubFields(wm *workingMessage) []string {
	var queued []string

	// Snapshot: iterating wm.order while appending new fields must not
	// visit the newly-added sub-fields as base fields.
	base := append([]string(nil), wm.order...)

	for _, name := range base {
		wf := wm.fields[name]
		if !wf.needsSubFields {
			continue
		}
		fprof := wm.fieldsByName[name]
		if fprof == nil {
			continue
		}
		for i := range fprof.SubFields {
			sub := &fprof.SubFields[i]
			if !subFieldMatches(wm, sub) {
				continue
			}
			newWF := &workingField{
				fieldDefNum: wf.fieldDefNum,
				rawValue:    deepCopyValue(wf.rawValue),
				value:       deepCopyValue(wf.rawValue),
				isSubField:  true,
			}
			if sub.HasComponents() {
				newWF.needsExpansion = true
				queued = append(queued, sub.Name)
			}
			wm.set(sub.Name, newWF)
			if wm.subFieldProfiles == nil {
				wm.subFieldProfiles = map[string]*profile.SubField{}
			}
			wm.subFieldProfiles[sub.Name] = sub
			break // first match wins (spec.md §9, Open Question ii: OR semantics).
		}
	}
	return queued
}

func subFieldMatches(wm *workingMessage, sub *profile.SubField) bool {
	for _, c := range sub.Map {
		ref, ok := wm.fields[c.ReferenceFieldName]
		if !ok {
			continue
		}
		if rawEqualsInt(ref.rawValue, c.RawValue) {
			return true
		}
	}
	return false
}

func rawEqualsInt(v any, want int64) bool {
	switch n := v.(type) {
	case int64:
		return n == want
	case uint64:
		return int64(n) == want
	case float64:
		return n == float64(want)
	}
	return false
}

func deepCopyValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		copy(out, x)
		return out
	case []byte:
		out := make([]byte, len(x))
		copy(out, x)
		return out
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	default:
		return v
	}
}

// fieldSourceProfile resolves the (type, scale, offset, components, bits) tuple
// that drives a field's component expansion: the sub-field profile if the
// field was adopted via sub-field selection, otherwise its base field
// profile.
func fieldSourceProfile(wm *workingMessage, name string) (typeName string, scale, offset []float64, components, bits []uint8, ok bool) {
	wf := wm.fields[name]
	if wf.isSubField {
		sub := wm.subFieldProfiles[name]
		if sub == nil {
			return "", nil, nil, nil, nil, false
		}
		return sub.Type, sub.Scale, sub.Offset, sub.Components, sub.Bits, true
	}
	fprof := wm.fieldsByName[name]
	if fprof == nil {
		return "", nil, nil, nil, nil, false
	}
	return fprof.Type, fprof.Scale, fprof.Offset, fprof.Components, fprof.Bits, true
}

// expandComponents implements spec.md §4.8's "Component expansion": a
// FIFO worklist (not recursion, per spec.md §9, "implement as a worklist
// ... to bound stack use and to allow accumulators to observe fields in
// source order") of fields to bit-unpack into their target fields.
func (d *Decoder) expandComponents(wm *workingMessage, queue []string) {
	touched := map[string]bool{}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		typeName, srcScale, srcOffset, components, bits, ok := fieldSourceProfile(wm, name)
		if !ok || len(components) == 0 {
			continue
		}
		baseType, ok := profile.BaseTypeForFieldType(typeName)
		if !ok {
			continue
		}

		wf := wm.fields[name]
		lanes, allInvalid := toLanes(wf.rawValue, baseType)
		if allInvalid {
			continue
		}
		laneBits := baseTypeBitWidth(baseType)
		br := newBitReaderLanes(lanes, laneBits)

		for i, targetFieldID := range components {
			bitWidth := int(bitAt(bits, i))
			if br.bitsAvailable() >= bitWidth {
				targetFprof := wm.prof.Fields[targetFieldID]
				if targetFprof == nil {
					// Consume the bits even if we cannot resolve a
					// target, so later components stay aligned.
					if _, err := br.readBits(bitWidth); err != nil {
						break
					}
					continue
				}

				raw, err := br.readBits(bitWidth)
				if err != nil {
					break
				}

				if targetFprof.IsAccumulated {
					raw = d.accum.accumulate(accumulatorKey{wm.globalMesgNum, targetFprof.Num}, raw, bitWidth)
				}

				physical := float64(raw)
				sScale := scaleAt(srcScale, i)
				sOffset := offsetAt(srcOffset, i)
				if sScale != 1 {
					physical /= sScale
				}
				physical -= sOffset
				if isIntegral(physical) {
					physical = math.Round(physical)
				}

				tScale := scaleAt(targetFprof.Scale, 0)
				tOffset := offsetAt(targetFprof.Offset, 0)
				rawForTarget := int64((physical + tOffset) * tScale)

				targetWF, exists := wm.fields[targetFprof.Name]
				if !exists || !targetWF.isExpandedField {
					targetWF = &workingField{
						fieldDefNum:     targetFieldID,
						rawValue:        []any{},
						value:           []any{},
						isExpandedField: true,
					}
					wm.set(targetFprof.Name, targetWF)
				}
				touched[targetFprof.Name] = true

				targetWF.rawValue = append(targetWF.rawValue.([]any), rawForTarget)

				targetBaseType, _ := profile.BaseTypeForFieldType(targetFprof.Type)
				if targetIsInvalidSentinel(targetBaseType, rawForTarget) {
					targetWF.value = append(targetWF.value.([]any), nil)
				} else {
					display := displayValue(targetFprof.Type, physical, d.opts.ConvertTypesToStrings)
					targetWF.value = append(targetWF.value.([]any), display)
				}

				if targetFprof.HasComponents() {
					queue = append(queue, targetFprof.Name)
				}
			}
		}
	}

	for name := range touched {
		wf := wm.fields[name]
		wf.rawValue = collapseSingleton(wf.rawValue)
		wf.value = collapseSingleton(wf.value)
	}
}

func bitAt(bits []uint8, i int) uint8 {
	if i < len(bits) {
		return bits[i]
	}
	if len(bits) > 0 {
		return bits[len(bits)-1]
	}
	return 0
}

func scaleAt(scale []float64, i int) float64 {
	switch {
	case len(scale) == 0:
		return 1
	case len(scale) == 1:
		return scale[0]
	case i < len(scale):
		return scale[i]
	default:
		return 1
	}
}

func offsetAt(offset []float64, i int) float64 {
	switch {
	case len(offset) == 0:
		return 0
	case len(offset) == 1:
		return offset[0]
	case i < len(offset):
		return offset[i]
	default:
		return 0
	}
}

func isIntegral(f float64) bool {
	return f == math.Trunc(f)
}

func baseTypeBitWidth(bt profile.BaseType) int {
	info, ok := baseTypeTable[BaseType(bt)]
	if !ok {
		return 8
	}
	return info.size * 8
}

// toLanes converts a decoded field's raw value into unsigned lanes for the
// bit-reader, and reports whether every lane is the base type's invalid
// sentinel (spec.md §4.8 step 2: "If the raw value is wholly invalid for
// that base type, skip").
func toLanes(v any, bt profile.BaseType) ([]uint64, bool) {
	info, ok := baseTypeTable[BaseType(bt)]
	if !ok {
		return nil, true
	}
	switch x := v.(type) {
	case nil:
		return nil, true
	case []any:
		lanes := make([]uint64, 0, len(x))
		allInvalid := true
		for _, e := range x {
			u, ok := toUint64(e)
			if !ok {
				continue
			}
			if u != info.sentinel {
				allInvalid = false
			}
			lanes = append(lanes, u)
		}
		return lanes, allInvalid
	default:
		u, ok := toUint64(v)
		if !ok {
			return nil, true
		}
		return []uint64{u}, u == info.sentinel
	}
}

func targetIsInvalidSentinel(bt profile.BaseType, raw int64) bool {
	info, ok := baseTypeTable[BaseType(bt)]
	if !ok {
		return false
	}
	return uint64(raw) == info.sentinel
}

func displayValue(typeName string, physical float64, stringify bool) any {
	if stringify {
		if names, ok := profile.Types[typeName]; ok {
			if name, ok := names[int64(math.Round(physical))]; ok {
				return name
			}
		}
	}
	if isIntegral(physical) {
		return int64(physical)
	}
	return physical
}

func collapseSingleton(v any) any {
	if s, ok := v.([]any); ok && len(s) == 1 {
		return s[0]
	}
	return v
}
