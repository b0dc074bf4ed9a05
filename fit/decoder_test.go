package fit

import (
	"errors"
	"testing"
	"time"

	"github.com/go-fitdecode/fitdecode/fit/profile"
)

func TestDecodeFileID(t *testing.T) {
	def := definitionRecord(0, 0 /* file_id */, [][3]byte{
		{0, 1, byte(BaseTypeEnum)},
		{1, 2, byte(BaseTypeUint16)},
		{2, 10, byte(BaseTypeString)},
		{4, 4, byte(BaseTypeUint32)},
	})

	payload := []byte{4}                                  // type = activity
	payload = append(payload, le16(1)...)                 // manufacturer = garmin
	payload = append(payload, []byte("abcdefghi\x00")...) // product_name
	payload = append(payload, le32(368934400)...)         // time_created (raw, pre-epoch)
	data := dataRecord(0, payload)

	file := buildFitFile(append(def, data...))

	// spec.md §8 S2 is stated against convert_datetimes_to_dates=false, so
	// time_created comes back as the epoch-adjusted plain int64.
	opts := DefaultOptions()
	opts.ConvertDatetimesToDates = false

	d := New(file)
	messages, errs := d.Decode(opts, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	got := messages["file_id"]
	if len(got) != 1 {
		t.Fatalf("got %d file_id messages, want 1", len(got))
	}
	msg := got[0]

	want := Message{
		"type":         "activity",
		"manufacturer": "garmin",
		"product_name": "abcdefghi",
		"time_created": int64(1000000000),
	}
	for k, v := range want {
		if msg[k] != v {
			t.Errorf("field %q = %#v, want %#v", k, msg[k], v)
		}
	}
}

func TestDecodeFileIDConvertDatetimesToDates(t *testing.T) {
	def := definitionRecord(0, 0, [][3]byte{
		{4, 4, byte(BaseTypeUint32)},
	})
	data := dataRecord(0, le32(368934400))
	file := buildFitFile(append(def, data...))

	d := New(file)
	messages, errs := d.Decode(DefaultOptions(), nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	got := messages["file_id"][0]["time_created"]
	ts, ok := got.(time.Time)
	if !ok {
		t.Fatalf("time_created type = %T, want time.Time", got)
	}
	want := time.Unix(1000000000, 0).UTC()
	if !ts.Equal(want) {
		t.Errorf("time_created = %v, want %v", ts, want)
	}
}

func TestDecodeRecordComponentExpansion(t *testing.T) {
	def := definitionRecord(0, 20 /* record */, [][3]byte{
		{253, 4, byte(BaseTypeUint32)},
		{19, 1, byte(BaseTypeUint8)},
	})

	var records []byte
	cycles := []byte{250, 2, 10}
	for i, c := range cycles {
		payload := le32(uint32(1000 + i))
		payload = append(payload, c)
		records = append(records, dataRecord(0, payload)...)
	}

	file := buildFitFile(append(def, records...))

	d := New(file)
	messages, errs := d.Decode(DefaultOptions(), nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	got := messages["record"]
	if len(got) != 3 {
		t.Fatalf("got %d record messages, want 3", len(got))
	}

	wantTotal := []int64{250, 258, 266}
	for i, msg := range got {
		if msg["cycles"] != int64(cycles[i]) {
			t.Errorf("record %d cycles = %#v, want %d", i, msg["cycles"], cycles[i])
		}
		if msg["total_cycles"] != wantTotal[i] {
			t.Errorf("record %d total_cycles = %#v, want %d", i, msg["total_cycles"], wantTotal[i])
		}
	}
}

func TestDecodeRecordScale(t *testing.T) {
	def := definitionRecord(0, 20, [][3]byte{
		{160, 1, byte(BaseTypeUint8)},
	})
	data := dataRecord(0, []byte{240})
	file := buildFitFile(append(def, data...))

	d := New(file)
	messages, errs := d.Decode(DefaultOptions(), nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	got := messages["record"][0]["left_power_phase"]
	gotF, ok := got.(float64)
	if !ok {
		t.Fatalf("left_power_phase type = %T, want float64", got)
	}
	want := 337.5000052734376
	if diff := gotF - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("left_power_phase = %v, want %v", gotF, want)
	}
}

func TestDecodeRecordScaleDisabled(t *testing.T) {
	def := definitionRecord(0, 20, [][3]byte{
		{160, 1, byte(BaseTypeUint8)},
	})
	data := dataRecord(0, []byte{240})
	file := buildFitFile(append(def, data...))

	opts := DefaultOptions()
	opts.ApplyScaleAndOffset = false
	opts.MergeHeartRate = false // merging requires ApplyScaleAndOffset

	d := New(file)
	messages, errs := d.Decode(opts, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	got := messages["record"][0]["left_power_phase"]
	if got != int64(240) {
		t.Errorf("left_power_phase = %#v, want raw 240", got)
	}
}

func TestDecodeEventSubField(t *testing.T) {
	def := definitionRecord(0, 21 /* event */, [][3]byte{
		{0, 1, byte(BaseTypeEnum)},
		{3, 4, byte(BaseTypeUint32)},
	})
	data := dataRecord(0, append([]byte{24}, le32(1)...))
	file := buildFitFile(append(def, data...))

	d := New(file)
	messages, errs := d.Decode(DefaultOptions(), nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	msg := messages["event"][0]
	if msg["event"] != "rider_position_change" {
		t.Errorf(`event = %#v, want "rider_position_change"`, msg["event"])
	}
	if msg["rider_position"] != "standing" {
		t.Errorf(`rider_position = %#v, want "standing"`, msg["rider_position"])
	}
}

func TestDecodeUnknownLocalMesgNum(t *testing.T) {
	file := buildFitFile(dataRecord(3, []byte{1, 2, 3}))
	d := New(file)
	_, errs := d.Decode(DefaultOptions(), nil)
	if len(errs) == 0 {
		t.Fatal("expected an error decoding a data record with no prior definition")
	}
}

func TestDecodeCrcMismatch(t *testing.T) {
	file := buildFitFile(definitionRecord(0, 0, nil))
	file[len(file)-1] ^= 0xFF // corrupt the trailing CRC

	d := New(file)
	_, errs := d.Decode(DefaultOptions(), nil)
	found := false
	for _, err := range errs {
		if err == ErrCrcMismatch {
			found = true
		}
	}
	if !found {
		t.Errorf("errs = %v, want ErrCrcMismatch", errs)
	}
}

func TestDecodeCrcCheckDisabled(t *testing.T) {
	file := buildFitFile(definitionRecord(0, 0, nil))
	file[len(file)-1] ^= 0xFF // corrupt the trailing CRC

	opts := DefaultOptions()
	opts.EnableCrcCheck = false

	d := New(file)
	_, errs := d.Decode(opts, nil)
	if len(errs) != 0 {
		t.Errorf("errs = %v, want none with enable_crc_check=false", errs)
	}
}

func TestCheckIntegrity(t *testing.T) {
	file := buildFitFile(definitionRecord(0, 0, nil))
	d := New(file)
	if !d.CheckIntegrity() {
		t.Error("CheckIntegrity() = false on an untampered file")
	}

	file[len(file)-1] ^= 0xFF
	d2 := New(file)
	if d2.CheckIntegrity() {
		t.Error("CheckIntegrity() = true on a corrupted trailing CRC")
	}
}

func TestIsFit(t *testing.T) {
	file := buildFitFile(definitionRecord(0, 0, nil))
	if !New(file).IsFit() {
		t.Error("IsFit() = false on a well-formed header")
	}
	if New([]byte("not a fit file")).IsFit() {
		t.Error("IsFit() = true on garbage input")
	}
}

func TestMessagesGroupedByName(t *testing.T) {
	def := definitionRecord(0, 0, [][3]byte{{0, 1, byte(BaseTypeEnum)}})
	data := dataRecord(0, []byte{4})
	file := buildFitFile(append(def, data...))

	d := New(file)
	messages, _ := d.Decode(DefaultOptions(), nil)

	if _, ok := messages["record"]; ok {
		t.Error(`messages["record"] present, want only "file_id"`)
	}
	got := messages["file_id"]
	if len(got) != 1 || got[0]["type"] != "activity" {
		t.Errorf(`messages["file_id"] = %#v, want one message with type "activity"`, got)
	}
}

// TestDecodeMinimalFile exercises spec.md §8 S1's 16-byte minimum FIT
// file: a bare 14-byte header (profile version 2187, header CRC 0x488D)
// and a trailing 2-byte file CRC, no records at all.
func TestDecodeMinimalFile(t *testing.T) {
	file := []byte{
		0x0E, 0x20, 0x8B, 0x08, 0x00, 0x00, 0x00, 0x00,
		0x2E, 0x46, 0x49, 0x54, 0x8D, 0x48, 0x00, 0x00,
	}

	d := New(file)
	if !d.IsFit() {
		t.Fatal("IsFit() = false on the minimum 16-byte file")
	}
	if !d.CheckIntegrity() {
		t.Fatal("CheckIntegrity() = false on the minimum 16-byte file")
	}

	messages, errs := d.Decode(DefaultOptions(), nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(messages) != 0 {
		t.Errorf("messages = %#v, want none", messages)
	}
}

// TestDecodeCompressedTimestampUnsupported exercises spec.md §8 S7: a
// record header with bit 7 set (compressed timestamp) is a fatal,
// unsupported condition.
func TestDecodeCompressedTimestampUnsupported(t *testing.T) {
	def := definitionRecord(0, 20, [][3]byte{{253, 4, byte(BaseTypeUint32)}})
	records := append([]byte{}, def...)
	records = append(records, 0x80) // compressed-timestamp header byte

	file := buildFitFile(records)
	d := New(file)
	_, errs := d.Decode(DefaultOptions(), nil)

	found := false
	for _, err := range errs {
		if err == ErrCompressedTimestampUnsupported {
			found = true
		}
	}
	if !found {
		t.Errorf("errs = %v, want ErrCompressedTimestampUnsupported", errs)
	}
}

// TestDecodeDeveloperFieldWithoutDescription exercises spec.md §8 S8: a
// developer field slot referencing a developer_data_index with no matching
// field_description. The orphan bytes are skipped and decoding otherwise
// completes cleanly.
func TestDecodeDeveloperFieldWithoutDescription(t *testing.T) {
	baseDef := definitionRecordWithDevFields(0, 0 /* file_id */, [][3]byte{
		{0, 1, byte(BaseTypeEnum)},
	}, [][3]byte{
		{10, 1, 3}, // field_definition_number=10, size=1, developer_data_index=3 (never registered)
	})
	baseData := dataRecord(0, []byte{4, 99}) // type=activity, orphan dev byte

	file := buildFitFile(append(baseDef, baseData...))

	d := New(file)
	messages, errs := d.Decode(DefaultOptions(), nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	got := messages["file_id"]
	if len(got) != 1 || got[0]["type"] != "activity" {
		t.Errorf(`messages["file_id"] = %#v, want one message with type "activity"`, got)
	}
	if got[0].developerFields() != nil {
		t.Errorf("developer_fields = %#v, want none for an unregistered developer_data_index", got[0].developerFields())
	}
}

// TestDecodeDeveloperFieldWithDescription exercises the full developer_data_id
// → field_description → data-record pipeline, and confirms developer fields
// land under a nested map keyed first by developer_data_index and then by
// registry assignment key (spec.md §3, §4.9).
func TestDecodeDeveloperFieldWithDescription(t *testing.T) {
	devDataIDDef := definitionRecord(1, profile.MesgNumDeveloperDataID, [][3]byte{
		{4, 1, byte(BaseTypeUint8)}, // developer_data_index
	})
	devDataIDData := dataRecord(1, []byte{3})

	fieldDescDef := definitionRecord(2, profile.MesgNumFieldDescription, [][3]byte{
		{0, 1, byte(BaseTypeUint8)},  // developer_data_index
		{1, 1, byte(BaseTypeUint8)},  // field_definition_number
		{2, 1, byte(BaseTypeUint8)},  // fit_base_type_id
		{3, 3, byte(BaseTypeString)}, // field_name
		{6, 1, byte(BaseTypeUint8)},  // scale
		{7, 1, byte(BaseTypeSint8)},  // offset
	})
	fieldDescData := dataRecord(2, append([]byte{3, 10, byte(BaseTypeUint8)}, 'a', 'b', 0, 2, 5))

	baseDef := definitionRecordWithDevFields(0, 0 /* file_id */, [][3]byte{
		{0, 1, byte(BaseTypeEnum)},
	}, [][3]byte{
		{10, 1, 3}, // field_definition_number=10, size=1, developer_data_index=3
	})
	baseData := dataRecord(0, []byte{4, 20})

	var records []byte
	records = append(records, devDataIDDef...)
	records = append(records, devDataIDData...)
	records = append(records, fieldDescDef...)
	records = append(records, fieldDescData...)
	records = append(records, baseDef...)
	records = append(records, baseData...)

	file := buildFitFile(records)

	d := New(file)
	messages, errs := d.Decode(DefaultOptions(), nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	msg := messages["file_id"][0]
	df := msg.developerFields()
	if df == nil {
		t.Fatalf("developer_fields = nil, want entries for devDataIndex 3")
	}
	byKey, ok := df["3"]
	if !ok {
		t.Fatalf("developer_fields missing devDataIndex 3: %#v", df)
	}
	if byKey["0"] != int64(20) {
		t.Errorf(`developer_fields["3"]["0"] = %#v, want 20`, byKey["0"])
	}
}

// TestDecodeModeSkipHeader exercises DecodeModeSkipHeader: the leading
// header has already been stripped by the caller, but the trailing 2-byte
// CRC is still present.
func TestDecodeModeSkipHeader(t *testing.T) {
	def := definitionRecord(0, 0, [][3]byte{{0, 1, byte(BaseTypeEnum)}})
	data := dataRecord(0, []byte{4})
	file := buildFitFile(append(def, data...))

	hdr, err := readFileHeader(newStream(file))
	if err != nil {
		t.Fatalf("readFileHeader: %v", err)
	}
	stripped := file[hdr.HeaderSize:]

	opts := DefaultOptions()
	opts.DecodeMode = DecodeModeSkipHeader
	// The stored trailing CRC covers header+records, but a CRC tap
	// attached post-strip can only see records; skip the check rather
	// than require the caller to re-derive the header's contribution.
	opts.EnableCrcCheck = false

	d := New(stripped)
	messages, errs := d.Decode(opts, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	got := messages["file_id"]
	if len(got) != 1 || got[0]["type"] != "activity" {
		t.Errorf(`messages["file_id"] = %#v, want one message with type "activity"`, got)
	}
}

// TestDecodeModeDataOnly exercises DecodeModeDataOnly: neither a header nor
// a trailing CRC is present, so no CRC-related error can ever occur.
func TestDecodeModeDataOnly(t *testing.T) {
	def := definitionRecord(0, 0, [][3]byte{{0, 1, byte(BaseTypeEnum)}})
	data := dataRecord(0, []byte{4})
	records := append(def, data...)

	opts := DefaultOptions()
	opts.DecodeMode = DecodeModeDataOnly

	d := New(records)
	messages, errs := d.Decode(opts, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	got := messages["file_id"]
	if len(got) != 1 || got[0]["type"] != "activity" {
		t.Errorf(`messages["file_id"] = %#v, want one message with type "activity"`, got)
	}
}

// TestDecodeMergeHeartRateRequiresPrerequisites exercises spec.md §4.10's
// merge_heart_rates validation: requesting it without apply_scale_and_offset
// and expand_components must raise ErrInvalidOptions immediately.
func TestDecodeMergeHeartRateRequiresPrerequisites(t *testing.T) {
	file := buildFitFile(definitionRecord(0, 0, nil))

	opts := DefaultOptions()
	opts.ApplyScaleAndOffset = false

	d := New(file)
	messages, errs := d.Decode(opts, nil)
	if len(messages) != 0 {
		t.Errorf("messages = %#v, want none", messages)
	}
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly one error", errs)
	}
	if got := errs[0]; !errors.Is(got, ErrInvalidOptions) {
		t.Fatalf("errs[0] = %v, want ErrInvalidOptions", got)
	}
}
