package profile

import "strconv"

// numToKey implements "messages_key = str(num)" from spec.md §4.6 for
// global message numbers with no known name.
func numToKey(globalMesgNum uint16) string {
	return strconv.FormatUint(uint64(globalMesgNum), 10)
}

// Global message numbers for the messages this catalog carries. Names and
// numbers mirror the Garmin Profile.xlsx message catalog (see
// original_source/garmin_fit_sdk for the reference decoder that consumes
// the full table); this package ships a hand-curated subset sufficient to
// exercise every decode path spec.md describes.
const (
	MesgNumFileID           uint16 = 0
	MesgNumRecord           uint16 = 20
	MesgNumEvent            uint16 = 21
	MesgNumDeviceInfo       uint16 = 23
	MesgNumHR               uint16 = 132
	MesgNumFieldDescription uint16 = 206
	MesgNumDeveloperDataID  uint16 = 207
)

// Types holds enum-to-name tables, keyed by field type name then by raw
// integer value (spec.md §4.8, "Profile.types[field_type][str(raw)]").
var Types = map[string]map[int64]string{
	"file": {
		4: "activity",
	},
	"manufacturer": {
		1: "garmin",
	},
	"event": {
		0:  "timer",
		24: "rider_position_change",
	},
	"event_type": {
		0: "start",
		1: "stop",
	},
	"rider_position": {
		0: "seated",
		1: "standing",
		2: "transition",
	},
}

// Messages is the global-message-number-keyed catalog itself.
var Messages = map[uint16]*Message{
	MesgNumFileID: {
		GlobalMesgNum: MesgNumFileID,
		Name:          "file_id",
		Fields: map[uint8]*Field{
			0: {Num: 0, Name: "type", Type: "file"},
			1: {Num: 1, Name: "manufacturer", Type: "manufacturer"},
			2: {Num: 2, Name: "product_name", Type: "string"},
			4: {Num: 4, Name: "time_created", Type: "date_time"},
		},
	},
	MesgNumRecord: {
		GlobalMesgNum: MesgNumRecord,
		Name:          "record",
		Fields: map[uint8]*Field{
			253: {Num: 253, Name: "timestamp", Type: "date_time"},
			3:   {Num: 3, Name: "heart_rate", Type: "uint8", Scale: []float64{1}, Offset: []float64{0}},
			19: {
				Num: 19, Name: "cycles", Type: "uint8",
				Scale: []float64{1}, Offset: []float64{0},
				Components: []uint8{21}, Bits: []uint8{8},
			},
			21: {Num: 21, Name: "total_cycles", Type: "uint32", Scale: []float64{1}, Offset: []float64{0}, IsAccumulated: true},
			160: {
				Num: 160, Name: "left_power_phase", Type: "uint8",
				Scale: []float64{0.7111111}, Offset: []float64{0},
			},
		},
	},
	MesgNumEvent: {
		GlobalMesgNum: MesgNumEvent,
		Name:          "event",
		Fields: map[uint8]*Field{
			253: {Num: 253, Name: "timestamp", Type: "date_time"},
			0:   {Num: 0, Name: "event", Type: "event"},
			1:   {Num: 1, Name: "event_type", Type: "event_type"},
			3: {
				Num: 3, Name: "data", Type: "uint32",
				SubFields: []SubField{
					{
						Name: "rider_position", Type: "rider_position",
						Map: []SubFieldCase{{ReferenceFieldName: "event", RawValue: 24}},
					},
				},
			},
		},
	},
	MesgNumHR: {
		GlobalMesgNum: MesgNumHR,
		Name:          "hr_mesg",
		Fields: map[uint8]*Field{
			253: {Num: 253, Name: "timestamp", Type: "date_time"},
			6:   {Num: 6, Name: "filtered_bpm", Type: "uint8"},
			7:   {Num: 7, Name: "event_timestamp", Type: "uint32", Scale: []float64{1024}, Offset: []float64{0}},
			9:   {Num: 9, Name: "event_timestamp_12", Type: "uint16"},
		},
	},
	MesgNumDeveloperDataID: {
		GlobalMesgNum: MesgNumDeveloperDataID,
		Name:          "developer_data_id",
		Fields: map[uint8]*Field{
			0: {Num: 0, Name: "developer_id", Type: "byte"},
			1: {Num: 1, Name: "application_id", Type: "byte"},
			3: {Num: 3, Name: "manufacturer_id", Type: "uint16"},
			4: {Num: 4, Name: "developer_data_index", Type: "uint8"},
			5: {Num: 5, Name: "application_version", Type: "uint32"},
		},
	},
	MesgNumFieldDescription: {
		GlobalMesgNum: MesgNumFieldDescription,
		Name:          "field_description",
		Fields: map[uint8]*Field{
			0: {Num: 0, Name: "developer_data_index", Type: "uint8"},
			1: {Num: 1, Name: "field_definition_number", Type: "uint8"},
			2: {Num: 2, Name: "fit_base_type_id", Type: "uint8"},
			3: {Num: 3, Name: "field_name", Type: "string"},
			6: {Num: 6, Name: "scale", Type: "uint8"},
			7: {Num: 7, Name: "offset", Type: "sint8"},
			8: {Num: 8, Name: "units", Type: "string"},
		},
	},
}
