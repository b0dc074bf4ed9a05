package fit

import "encoding/binary"

// FileHeader is a sub-file's 12- or 14-byte leading header (spec.md §3).
type FileHeader struct {
	HeaderSize     uint8
	ProtocolVerion uint8 // encoded as high-nibble.low-nibble; see ProtocolVersionMajor/Minor
	ProfileVersion uint16
	DataSize       uint32
	DataType       [4]byte
	HeaderCRC      uint16 // only meaningful when HeaderSize == 14
	hasHeaderCRC   bool
}

// ProtocolVersionMajor and ProtocolVersionMinor split the packed
// protocol-version byte.
func (h FileHeader) ProtocolVersionMajor() uint8 { return h.ProtocolVerion >> 4 }
func (h FileHeader) ProtocolVersionMinor() uint8 { return h.ProtocolVerion & 0x0F }

// FileTotalSize is header_size + data_size (spec.md §3, "Derived").
func (h FileHeader) FileTotalSize() int {
	return int(h.HeaderSize) + int(h.DataSize)
}

// IsFIT reports whether DataType is the ".FIT" magic.
func (h FileHeader) IsFIT() bool {
	return h.DataType == [4]byte{'.', 'F', 'I', 'T'}
}

func readFileHeader(s *stream) (FileHeader, error) {
	var h FileHeader
	sizeByte, err := s.peekByte()
	if err != nil {
		return h, wrap("reading header size", err)
	}
	if sizeByte != 12 && sizeByte != 14 {
		return h, wrap("reading header", ErrNotAFitFile)
	}

	raw, err := s.readBytes(int(sizeByte))
	if err != nil {
		return h, wrap("reading header", err)
	}

	h.HeaderSize = raw[0]
	h.ProtocolVerion = raw[1]
	h.ProfileVersion = binary.LittleEndian.Uint16(raw[2:4])
	h.DataSize = binary.LittleEndian.Uint32(raw[4:8])
	copy(h.DataType[:], raw[8:12])
	if !h.IsFIT() {
		return h, wrap("reading header", ErrNotAFitFile)
	}
	if h.HeaderSize == 14 {
		h.HeaderCRC = binary.LittleEndian.Uint16(raw[12:14])
		h.hasHeaderCRC = true
	}
	return h, nil
}
