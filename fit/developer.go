package fit

import "github.com/go-fitdecode/fitdecode/fit/unitscale"

// fieldDescription is one entry of a developer_data_id's field catalog,
// registered by a field_description message (spec.md §4.9).
type fieldDescription struct {
	fieldDefinitionNumber uint8
	baseType              BaseType
	name                  string
	lin                   unitscale.Linear
	units                 string
	key                   int // position in the output sequence; the developer_fields map key.
}

// developerDataEntry is one developer_data_index's registration (spec.md
// §4.9, developer_data_id).
type developerDataEntry struct {
	developerID        []byte
	applicationID      []byte
	manufacturerID     uint16
	applicationVersion uint32
	byFieldDefNum      map[uint8]*fieldDescription
}

// developerRegistry tracks developer_data_id and field_description
// messages for the lifetime of one Decode call (spec.md §4.9, C10).
type developerRegistry struct {
	entries map[uint8]*developerDataEntry
	nextKey int
}

func newDeveloperRegistry() *developerRegistry {
	return &developerRegistry{entries: map[uint8]*developerDataEntry{}}
}

// registerDeveloperDataID processes a decoded developer_data_id message.
// Index 0xFF is ignored (spec.md §4.9).
func (r *developerRegistry) registerDeveloperDataID(msg Message) {
	idx, ok := uint8Field(msg, "developer_data_index")
	if !ok || idx == 0xFF {
		return
	}
	entry := &developerDataEntry{byFieldDefNum: map[uint8]*fieldDescription{}}
	if b, ok := msg["developer_id"].([]byte); ok {
		entry.developerID = b
	}
	if b, ok := msg["application_id"].([]byte); ok {
		entry.applicationID = b
	}
	if v, ok := uint16Field(msg, "manufacturer_id"); ok {
		entry.manufacturerID = v
	}
	if v, ok := uint32Field(msg, "application_version"); ok {
		entry.applicationVersion = v
	}
	r.entries[idx] = entry
}

// registerFieldDescription processes a decoded field_description message,
// appending it to its developer_data_index's catalog.
func (r *developerRegistry) registerFieldDescription(msg Message) {
	idx, ok := uint8Field(msg, "developer_data_index")
	if !ok {
		return
	}
	entry, ok := r.entries[idx]
	if !ok {
		entry = &developerDataEntry{byFieldDefNum: map[uint8]*fieldDescription{}}
		r.entries[idx] = entry
	}

	fieldDefNum, _ := uint8Field(msg, "field_definition_number")
	baseTypeID, _ := uint8Field(msg, "fit_base_type_id")
	name, _ := msg["field_name"].(string)
	scale, _ := floatField(msg, "scale")
	offset, _ := floatField(msg, "offset")
	units, _ := msg["units"].(string)

	fd := &fieldDescription{
		fieldDefinitionNumber: fieldDefNum,
		baseType:              BaseType(baseTypeID),
		name:                  name,
		lin:                   unitscale.NewLinear(scale, offset),
		units:                 units,
		key:                   r.nextKey,
	}
	r.nextKey++
	entry.byFieldDefNum[fieldDefNum] = fd
}

// resolve looks up the field description for (devDataIndex,
// fieldDefinitionNumber), the join spec.md §4.9 requires before a
// developer field's bytes can be decoded.
func (r *developerRegistry) resolve(devDataIndex, fieldDefNum uint8) (*fieldDescription, bool) {
	entry, ok := r.entries[devDataIndex]
	if !ok {
		return nil, false
	}
	fd, ok := entry.byFieldDefNum[fieldDefNum]
	return fd, ok
}

func uint8Field(m Message, name string) (uint8, bool) {
	switch v := m[name].(type) {
	case uint8:
		return v, true
	case int64:
		return uint8(v), true
	case float64:
		return uint8(v), true
	}
	return 0, false
}

func uint16Field(m Message, name string) (uint16, bool) {
	switch v := m[name].(type) {
	case uint16:
		return v, true
	case int64:
		return uint16(v), true
	case float64:
		return uint16(v), true
	}
	return 0, false
}

func uint32Field(m Message, name string) (uint32, bool) {
	switch v := m[name].(type) {
	case uint32:
		return v, true
	case int64:
		return uint32(v), true
	case float64:
		return uint32(v), true
	}
	return 0, false
}

func floatField(m Message, name string) (float64, bool) {
	switch v := m[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case uint8:
		return float64(v), true
	}
	return 0, false
}
