package fit

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-fitdecode/fitdecode/fit/profile"
)

// workingField is the transient per-field record spec.md §3 describes:
// "a record {raw_field_value, field_value, field_definition_number,
// flags}". rawValue and value start out equal; applySubFields,
// expandComponents, and applyScalarTransforms may diverge them before
// cleanMessage flattens the field back down to one value.
type workingField struct {
	fieldDefNum     uint8
	rawValue        any
	value           any
	isSubField      bool
	isExpandedField bool
	needsSubFields  bool
	needsExpansion  bool
}

// workingMessage is the in-progress decode of one data record, before
// profile application (sub-field selection, component expansion, scalar
// transforms) and final cleaning.
type workingMessage struct {
	globalMesgNum    uint16
	prof             *profile.Message
	fields           map[string]*workingField
	fieldsByName     map[string]*profile.Field
	subFieldProfiles map[string]*profile.SubField
	order            []string
	devFields        map[uint8]map[int]any // devDataIndex -> registry key -> value
}

func newWorkingMessage(prof *profile.Message) *workingMessage {
	return &workingMessage{
		globalMesgNum: prof.GlobalMesgNum,
		prof:          prof,
		fields:        map[string]*workingField{},
		fieldsByName:  map[string]*profile.Field{},
	}
}

func (wm *workingMessage) set(name string, wf *workingField) {
	if _, exists := wm.fields[name]; !exists {
		wm.order = append(wm.order, name)
	}
	wm.fields[name] = wf
}

// readDataFields reads exactly def.messageSize bytes from data and parses
// them into wm according to def's read layout (spec.md §4.7).
func (d *Decoder) readDataFields(def *localMesgDef, data []byte, wm *workingMessage) error {
	offset := 0
	for _, fd := range def.fieldDefs {
		chunk := data[offset : offset+fd.size]
		offset += fd.size

		fprof := def.prof.Fields[fd.fieldID]
		var fieldName string
		if fprof != nil {
			fieldName = fprof.Name
		} else {
			fieldName = numericFieldKey(fd.fieldID)
		}

		value := decodeRawField(fd.baseType, fd.numElements, chunk, def.endian, fprof != nil && fprof.HasComponents())
		if value == nil {
			continue
		}

		wf := &workingField{fieldDefNum: fd.fieldID, rawValue: value, value: value}
		if fprof != nil {
			wm.fieldsByName[fieldName] = fprof
			if len(fprof.SubFields) > 0 {
				wf.needsSubFields = true
			}
			if fprof.HasComponents() {
				wf.needsExpansion = true
			}
			if fprof.IsAccumulated && !fprof.HasComponents() {
				d.primeAccumulator(def.globalMesgNum, fprof, value)
			}
		}
		wm.set(fieldName, wf)
	}
	return nil
}

func (d *Decoder) primeAccumulator(globalMesgNum uint16, fprof *profile.Field, value any) {
	iv, ok := toUint64(value)
	if !ok {
		return
	}
	d.accum.create(accumulatorKey{globalMesgNum, fprof.Num}, iv)
}

func numericFieldKey(fieldID uint8) string {
	return "field_" + strconv.Itoa(int(fieldID))
}

// decodeRawField turns a raw byte chunk into a value or an ordered slice of
// values, per the element/array/string rules of spec.md §4.7.
func decodeRawField(bt BaseType, numElements int, chunk []byte, endian binary.ByteOrder, hasComponents bool) any {
	info, _ := bt.info()

	if bt == BaseTypeString {
		return decodeStringField(chunk)
	}

	if bt == BaseTypeByte && numElements > 1 {
		allInvalid := true
		for _, b := range chunk {
			if b != 0xFF {
				allInvalid = false
				break
			}
		}
		if allInvalid {
			return nil
		}
		out := make([]byte, len(chunk))
		copy(out, chunk)
		return out
	}

	elemSize := info.size
	if numElements == 1 {
		raw, invalid := readScalarElement(bt, chunk[:elemSize], endian, info)
		if invalid && !hasComponents {
			return nil
		}
		return raw
	}

	values := make([]any, numElements)
	allInvalid := true
	for i := 0; i < numElements; i++ {
		elemChunk := chunk[i*elemSize : (i+1)*elemSize]
		raw, invalid := readScalarElement(bt, elemChunk, endian, info)
		if invalid {
			// Invalids are preserved verbatim when the field has
			// components, so bit-expansion can still inspect them
			// (spec.md §4.7).
			if hasComponents {
				values[i] = raw
			} else {
				values[i] = nil
			}
			continue
		}
		values[i] = raw
		allInvalid = false
	}
	if allInvalid && !hasComponents {
		return nil
	}
	return values
}

// readScalarElement reads one base-type element and reports whether it
// equals the invalid sentinel.
func readScalarElement(bt BaseType, b []byte, endian binary.ByteOrder, info baseTypeInfo) (any, bool) {
	switch info.size {
	case 1:
		v := b[0]
		invalid := uint64(v) == info.sentinel
		if info.signed {
			return int64(int8(v)), invalid
		}
		return int64(v), invalid
	case 2:
		v := endian.Uint16(b)
		invalid := uint64(v) == info.sentinel
		if info.signed {
			return int64(int16(v)), invalid
		}
		return int64(v), invalid
	case 4:
		v := endian.Uint32(b)
		invalid := uint64(v) == info.sentinel
		if info.float {
			return float64(math.Float32frombits(v)), invalid
		}
		if info.signed {
			return int64(int32(v)), invalid
		}
		return int64(v), invalid
	case 8:
		v := endian.Uint64(b)
		invalid := v == info.sentinel
		if info.float {
			return math.Float64frombits(v), invalid
		}
		if info.signed {
			return int64(v), invalid
		}
		return int64(v), invalid
	}
	return nil, true
}

// decodeStringField converts a NUL-terminated (or NUL-separated) byte
// buffer into a string or, if it holds more than one NUL-delimited run, an
// ordered slice of strings (spec.md §6, "Strings").
func decodeStringField(chunk []byte) any {
	parts := bytes.Split(chunk, []byte{0})
	// A single trailing empty element after the last NUL is not a string.
	if len(parts) > 0 && len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return nil
	}
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = sanitizeUTF8(p)
	}
	if len(strs) == 1 {
		if strs[0] == "" {
			return nil
		}
		return strs[0]
	}
	return strs
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the Unicode
// replacement character, then trims any replacement characters left at the
// string's boundaries (spec.md §6, "Strings").
func sanitizeUTF8(b []byte) string {
	s := strings.ToValidUTF8(string(b), string(utf8.RuneError))
	return strings.Trim(s, string(utf8.RuneError))
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case int64:
		return uint64(n), true
	case uint64:
		return n, true
	case float64:
		return uint64(n), true
	}
	return 0, false
}
