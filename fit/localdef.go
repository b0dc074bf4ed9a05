package fit

import (
	"encoding/binary"

	"github.com/go-fitdecode/fitdecode/fit/profile"
)

const maxLocalMesgs = 16

// fieldDef is one base-field slot of a definition record (spec.md §3,
// LocalMesgDef.field_defs).
type fieldDef struct {
	fieldID     uint8
	size        int
	baseType    BaseType
	numElements int
}

// devFieldDef is one developer-field slot of a definition record.
type devFieldDef struct {
	fieldDefNum  uint8
	size         int
	devDataIndex uint8
}

// localMesgDef is a live local message definition (spec.md §3,
// LocalMesgDef): up to 16 of these are live at a time, replaced wholesale
// whenever a new definition record reuses their local id.
type localMesgDef struct {
	globalMesgNum     uint16
	endian            binary.ByteOrder
	fieldDefs         []fieldDef
	devFieldDefs      []devFieldDef
	messageSize       int
	developerDataSize int
	prof              *profile.Message
}

// readDefinition parses a definition record (spec.md §4.6) and returns the
// localMesgDef it describes, along with the local message number it is
// destined for.
func (d *Decoder) readDefinition(hdr byte) (uint8, *localMesgDef, error) {
	localMesgNum := hdr & 0x0F
	hasDevData := hdr&0x20 != 0

	if _, err := d.s.readByte(); err != nil { // reserved
		return 0, nil, wrap("reading definition", err)
	}
	archByte, err := d.s.readByte()
	if err != nil {
		return 0, nil, wrap("reading definition", err)
	}
	endian := binary.ByteOrder(binary.LittleEndian)
	if archByte != 0 {
		endian = binary.BigEndian
	}

	globalMesgNum, err := d.s.readU16(endian)
	if err != nil {
		return 0, nil, wrap("reading definition", err)
	}

	numFields, err := d.s.readByte()
	if err != nil {
		return 0, nil, wrap("reading definition", err)
	}

	def := &localMesgDef{globalMesgNum: globalMesgNum, endian: endian}
	for i := 0; i < int(numFields); i++ {
		triple, err := d.s.readBytes(3)
		if err != nil {
			return 0, nil, wrap("reading field definition", err)
		}
		fieldID, size, rawBaseType := triple[0], int(triple[1]), BaseType(triple[2])

		baseType := rawBaseType
		if !baseType.IsValid() {
			return 0, nil, wrap("reading field definition", ErrUnknownBaseType)
		}
		elemSize := baseType.Size()
		numElements := 1
		if size%elemSize != 0 {
			// spec.md §3 Invariant 3 / §4.6: coerce to UINT8, matching
			// the reference decoder (garmin_fit_sdk/decoder.py,
			// FIT.BASE_TYPE['UINT8']) rather than BYTE — the two base
			// types take different invalid-handling paths once the
			// field is read (fieldreader.go), so the distinction
			// matters, not just the element size.
			baseType = BaseTypeUint8
			elemSize = baseType.Size()
		}
		numElements = size / elemSize

		def.fieldDefs = append(def.fieldDefs, fieldDef{
			fieldID:     fieldID,
			size:        size,
			baseType:    baseType,
			numElements: numElements,
		})
		def.messageSize += size
	}

	if hasDevData {
		numDevFields, err := d.s.readByte()
		if err != nil {
			return 0, nil, wrap("reading developer field definitions", err)
		}
		for i := 0; i < int(numDevFields); i++ {
			triple, err := d.s.readBytes(3)
			if err != nil {
				return 0, nil, wrap("reading developer field definition", err)
			}
			def.devFieldDefs = append(def.devFieldDefs, devFieldDef{
				fieldDefNum:  triple[0],
				size:         int(triple[1]),
				devDataIndex: triple[2],
			})
			def.developerDataSize += int(triple[1])
		}
	}

	def.prof = profile.Lookup(globalMesgNum)
	return localMesgNum, def, nil
}
