package fit

import "encoding/binary"

// stream is a random-access byte source of known length, holding the
// entire FIT file (or the remaining sub-files of it) in memory. Unlike the
// teacher's bufferedSectionReader, which buffers incremental reads off
// disk, stream operates directly on a resident []byte: spec.md §5 treats
// the byte source as "synchronous and fully available," so there is
// nothing to buffer.
//
// A crc tap may be attached; every read (but not a peek) feeds the
// consumed bytes into it, mirroring spec.md §4.1's "A CRC tap may be
// attached."
type stream struct {
	buf []byte
	pos int
	tap *crc16
}

func newStream(buf []byte) *stream {
	return &stream{buf: buf}
}

func (s *stream) length() int { return len(s.buf) }

func (s *stream) position() int { return s.pos }

func (s *stream) attachCRC(tap *crc16) { s.tap = tap }

func (s *stream) seek(p int) {
	s.pos = p
}

func (s *stream) remaining() int {
	return len(s.buf) - s.pos
}

func (s *stream) peekBytes(n int) ([]byte, error) {
	if s.pos+n > len(s.buf) {
		return nil, ErrEndOfStream
	}
	return s.buf[s.pos : s.pos+n], nil
}

func (s *stream) peekByte() (byte, error) {
	b, err := s.peekBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *stream) readBytes(n int) ([]byte, error) {
	b, err := s.peekBytes(n)
	if err != nil {
		return nil, err
	}
	s.pos += n
	if s.tap != nil {
		s.tap.addBytes(b)
	}
	return b, nil
}

func (s *stream) readByte() (byte, error) {
	b, err := s.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *stream) readU16(order binary.ByteOrder) (uint16, error) {
	b, err := s.readBytes(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

func (s *stream) readU32(order binary.ByteOrder) (uint32, error) {
	b, err := s.readBytes(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (s *stream) readU64(order binary.ByteOrder) (uint64, error) {
	b, err := s.readBytes(8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

// readString returns the raw n bytes of a fixed-size string field,
// unmodified; callers decode and split it (spec.md §6, "Strings").
func (s *stream) readString(n int) ([]byte, error) {
	return s.readBytes(n)
}

// slice returns a read-only window into the stream without disturbing the
// current position, used for field decoding once a data record's bytes
// have already been bulk-read into the cursor's past.
func (s *stream) slice(start, n int) ([]byte, error) {
	if start+n > len(s.buf) {
		return nil, ErrEndOfStream
	}
	return s.buf[start : start+n], nil
}
