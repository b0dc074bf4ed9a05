package fit

import (
	"encoding/binary"

	"github.com/go-fitdecode/fitdecode/fit/hrmerge"
	"github.com/go-fitdecode/fitdecode/fit/profile"
)

// RecordListener is called once per decoded message, in stream order,
// before the post-pass merges (spec.md §4.10, §4.11).
type RecordListener func(mesgName string, msg Message)

// DecodeMode selects how the Record Walker treats the leading header and
// trailing CRC of the stream (spec.md §4.5(a), §4.10).
type DecodeMode int

const (
	// DecodeModeNormal requires a valid header and verifies the trailing
	// CRC of every concatenated sub-file (subject to EnableCrcCheck).
	DecodeModeNormal DecodeMode = iota
	// DecodeModeSkipHeader treats the whole stream as a single sub-file
	// whose leading header has already been stripped (e.g. by a caller
	// resuming a partial transfer), but whose trailing 2-byte CRC is
	// still present.
	DecodeModeSkipHeader
	// DecodeModeDataOnly treats the whole stream as bare records: no
	// header, no trailing CRC. Always zero CRC-related errors.
	DecodeModeDataOnly
)

// Options controls how far profile application goes (spec.md §4.8, §4.9,
// §4.10, §4.11, Open Questions).
type Options struct {
	// ApplyScaleAndOffset enables §4.8's scalar scale/offset transform.
	// Off, a numeric field's raw wire value passes straight through.
	ApplyScaleAndOffset bool
	// ConvertDatetimesToDates controls the representation of a
	// date_time-typed field's value: FIT_EPOCH_S + raw is always applied
	// (spec.md §4.8), but on, the result is a time.Time; off, it is a
	// plain int64 of Unix-epoch seconds.
	ConvertDatetimesToDates bool
	// EnableCrcCheck attaches a CRC tap and treats a trailing CRC
	// mismatch as fatal. Off, no CRC tap is attached and no CRC is
	// checked at all (spec.md §4.10).
	EnableCrcCheck bool
	// ExpandSubFields enables sub-field selection (spec.md §4.8).
	ExpandSubFields bool
	// ExpandComponents enables bit-level component expansion (spec.md
	// §4.8). Disabling it also disables sub-field component expansion.
	ExpandComponents bool
	// ConvertTypesToStrings stringifies enum-typed fields using the
	// profile's name tables instead of leaving them as raw integers.
	ConvertTypesToStrings bool
	// ApplyDeveloperFieldScale applies a developer field's own
	// scale/offset (from its field_description) the same way a static
	// profile field's scale/offset is applied (spec.md §9, Open Question
	// iii). Off by default: most developer fields in the wild carry
	// scale 1 / offset 0, and the reference decoders disagree on whether
	// this should happen automatically.
	ApplyDeveloperFieldScale bool
	// MergeHeartRate runs the hr_mesg → record merge pass (spec.md
	// §4.11) when the decoded file contains hr_mesg messages. Requires
	// ApplyScaleAndOffset and ExpandComponents (spec.md §4.10); Decode
	// raises ErrInvalidOptions immediately if either is off.
	MergeHeartRate bool
	// DecodeMode selects header/CRC handling (spec.md §4.5(a)).
	DecodeMode DecodeMode
	// StopOnError turns recoverable per-record errors (spec.md §7) into
	// a fatal abort of the whole Decode call.
	StopOnError bool
}

// DefaultOptions returns the options spec.md's scenarios assume.
func DefaultOptions() Options {
	return Options{
		ApplyScaleAndOffset:     true,
		ConvertDatetimesToDates: true,
		EnableCrcCheck:          true,
		ExpandSubFields:         true,
		ExpandComponents:        true,
		ConvertTypesToStrings:   true,
		MergeHeartRate:          true,
		DecodeMode:              DecodeModeNormal,
	}
}

// Decoder decodes one FIT byte stream, which may hold several concatenated
// sub-files (spec.md §4.1, §5).
type Decoder struct {
	s           *stream
	opts        Options
	accum       *accumulator
	devReg      *developerRegistry
	defs        [maxLocalMesgs]*localMesgDef
	numMessages uint32
	header      FileHeader
}

// New wraps data as a Decoder. The whole file must already be resident in
// memory; spec.md §5 treats a FIT file as a fully-available byte sequence,
// not a stream that arrives incrementally.
func New(data []byte) *Decoder {
	return &Decoder{s: newStream(data)}
}

// IsFit reports whether the stream begins with a well-formed FIT header,
// without consuming it for a subsequent Decode.
func (d *Decoder) IsFit() bool {
	s := newStream(d.s.buf)
	_, err := readFileHeader(s)
	return err == nil
}

// GetNumMessages returns the number of messages produced by the most
// recent Decode call.
func (d *Decoder) GetNumMessages() uint32 { return d.numMessages }

// CheckIntegrity verifies every sub-file's trailing CRC-16 (and header
// CRC-16, where present) without decoding any data records.
func (d *Decoder) CheckIntegrity() bool {
	s := newStream(d.s.buf)
	for s.remaining() > 0 {
		start := s.position()
		hdr, err := readFileHeader(s)
		if err != nil {
			return false
		}
		if hdr.hasHeaderCRC {
			want := hdr.HeaderCRC
			got := calculateCRC16(s.buf[start : start+int(hdr.HeaderSize)-2])
			if want != 0 && want != got {
				return false
			}
		}
		total := start + hdr.FileTotalSize()
		if total+2 > len(s.buf) {
			return false
		}
		got := calculateCRC16(s.buf[start:total])
		want := binary.LittleEndian.Uint16(s.buf[total : total+2])
		if got != want {
			return false
		}
		s.seek(total + 2)
	}
	return true
}

// ReadFileHeader parses and returns the first sub-file's header.
func (d *Decoder) ReadFileHeader() (FileHeader, error) {
	s := newStream(d.s.buf)
	return readFileHeader(s)
}

// Decode walks every sub-file in the stream, applies the profile to each
// data record, invokes listener (if non-nil) in stream order, and returns
// every message grouped by name along with the errors encountered along
// the way (spec.md §7, §8).
func (d *Decoder) Decode(opts Options, listener RecordListener) (Messages, []error) {
	if opts.MergeHeartRate && !(opts.ApplyScaleAndOffset && opts.ExpandComponents) {
		return Messages{}, []error{wrap("merge_heart_rates requires apply_scale_and_offset and expand_components", ErrInvalidOptions)}
	}

	d.opts = opts
	d.accum = newAccumulator()
	d.devReg = newDeveloperRegistry()
	d.numMessages = 0
	for i := range d.defs {
		d.defs[i] = nil
	}

	out := Messages{}
	var errs []error
	var hrMesgs []Message

	emit := func(name string, msg Message) {
		if name == "hr_mesg" {
			hrMesgs = append(hrMesgs, msg)
		}
		if listener != nil {
			listener(name, msg)
		}
	}

	s := newStream(d.s.buf)
	d.s = s

	switch opts.DecodeMode {
	case DecodeModeDataOnly:
		// spec.md §4.5(a): no header, no trailing CRC to verify.
		errs = append(errs, d.decodeSubFile(len(s.buf), out, emit)...)

	case DecodeModeSkipHeader:
		// The header has already been stripped; the trailing 2-byte CRC
		// is still present.
		if len(s.buf) < 2 {
			errs = append(errs, wrap("reading CRC trailer", ErrEndOfStream))
			break
		}
		end := len(s.buf) - 2
		if opts.EnableCrcCheck {
			s.attachCRC(&crc16{})
		}
		errs = append(errs, d.decodeSubFile(end, out, emit)...)
		if opts.EnableCrcCheck {
			got := s.tap.current()
			want := binary.LittleEndian.Uint16(s.buf[end : end+2])
			if got != want {
				errs = append(errs, ErrCrcMismatch)
			}
		}
		s.seek(end + 2)

	default: // DecodeModeNormal
		for s.remaining() > 0 {
			start := s.position()

			// Attach the CRC tap before the header is read: spec.md §3
			// Invariant 6 / §4.5(d) defines the trailing CRC as
			// covering every byte from the start of the header through
			// the last data byte, so the header itself must feed the
			// tap too.
			if opts.EnableCrcCheck {
				s.attachCRC(&crc16{})
			}

			hdr, err := readFileHeader(s)
			if err != nil {
				errs = append(errs, err)
				break
			}
			d.header = hdr

			end := start + hdr.FileTotalSize()
			if end > len(s.buf) {
				errs = append(errs, wrap("sub-file", ErrEndOfStream))
				break
			}

			subErrs := d.decodeSubFile(end, out, emit)
			errs = append(errs, subErrs...)
			// A fatal record error leaves the sub-file unfinished; the
			// remaining sub-files are not attempted (see errors.go).
			if len(subErrs) > 0 && (opts.StopOnError || s.position() < end) {
				break
			}

			if end+2 > len(s.buf) {
				errs = append(errs, wrap("reading CRC trailer", ErrEndOfStream))
				break
			}
			if opts.EnableCrcCheck {
				got := s.tap.current()
				want := binary.LittleEndian.Uint16(s.buf[end : end+2])
				if got != want {
					errs = append(errs, ErrCrcMismatch)
				}
			}
			s.seek(end + 2)
		}
	}

	if opts.MergeHeartRate && len(hrMesgs) > 0 {
		mergeHeartRate(hrMesgs, out)
	}

	return out, errs
}

// mergeHeartRate bridges fit.Message (whose underlying type is
// map[string]any) to the plain-map API of fit/hrmerge.
func mergeHeartRate(hrMesgs []Message, out Messages) {
	hm := make([]hrmerge.Record, len(hrMesgs))
	for i, m := range hrMesgs {
		hm[i] = map[string]any(m)
	}
	expanded := hrmerge.ExpandHeartRates(hm)

	records := out["record"]
	rm := make([]hrmerge.Record, len(records))
	for i, m := range records {
		rm[i] = map[string]any(m)
	}
	hrmerge.MergeInto(expanded, rm)
}

// decodeSubFile reads data/definition records until the stream reaches
// end, the byte offset of the sub-file's trailing CRC.
func (d *Decoder) decodeSubFile(end int, out Messages, emit func(string, Message)) []error {
	var errs []error
	for d.s.position() < end {
		hdrByte, err := d.s.readByte()
		if err != nil {
			errs = append(errs, err)
			return errs
		}

		if hdrByte&0x80 != 0 {
			errs = append(errs, ErrCompressedTimestampUnsupported)
			return errs
		}

		if hdrByte&0x40 != 0 {
			localMesgNum, def, err := d.readDefinition(hdrByte)
			if err != nil {
				errs = append(errs, err)
				return errs
			}
			d.defs[localMesgNum] = def
			continue
		}

		localMesgNum := hdrByte & 0x0F
		def := d.defs[localMesgNum]
		if def == nil {
			errs = append(errs, ErrUnknownLocalMesgNum)
			return errs
		}

		payload, err := d.s.readBytes(def.messageSize + def.developerDataSize)
		if err != nil {
			errs = append(errs, err)
			return errs
		}

		wm := newWorkingMessage(def.prof)
		if err := d.readDataFields(def, payload[:def.messageSize], wm); err != nil {
			errs = append(errs, err)
			continue
		}
		if len(def.devFieldDefs) > 0 {
			d.readDeveloperFields(def, payload[def.messageSize:], wm)
		}

		msg := d.applyProfile(wm)
		d.numMessages++

		switch def.globalMesgNum {
		case profile.MesgNumDeveloperDataID:
			d.devReg.registerDeveloperDataID(msg)
		case profile.MesgNumFieldDescription:
			d.devReg.registerFieldDescription(msg)
		}

		out.append(def.prof.Name, msg)
		emit(def.prof.Name, msg)
	}
	return errs
}

// readDeveloperFields decodes a data record's developer-field section
// (spec.md §4.9): each slot is joined against the developer registry by
// (developer_data_index, field_definition_number) before it can be
// decoded, since only the registry knows its FIT base type.
func (d *Decoder) readDeveloperFields(def *localMesgDef, data []byte, wm *workingMessage) {
	offset := 0
	for _, dfd := range def.devFieldDefs {
		chunk := data[offset : offset+dfd.size]
		offset += dfd.size

		fd, ok := d.devReg.resolve(dfd.devDataIndex, dfd.fieldDefNum)
		if !ok {
			continue
		}
		info, ok := fd.baseType.info()
		if !ok {
			continue
		}
		numElements := 1
		if info.size > 0 {
			numElements = len(chunk) / info.size
		}
		if numElements < 1 {
			continue
		}

		value := decodeRawField(fd.baseType, numElements, chunk, def.endian, false)
		if value == nil {
			continue
		}
		if d.opts.ApplyDeveloperFieldScale && (fd.lin.Scale != 1 || fd.lin.Offset != 0) {
			value = applyScalar(value, "", []float64{fd.lin.Scale}, []float64{fd.lin.Offset}, false, true, false)
		}

		if wm.devFields == nil {
			wm.devFields = map[uint8]map[int]any{}
		}
		if wm.devFields[dfd.devDataIndex] == nil {
			wm.devFields[dfd.devDataIndex] = map[int]any{}
		}
		wm.devFields[dfd.devDataIndex][fd.key] = value
	}
}
