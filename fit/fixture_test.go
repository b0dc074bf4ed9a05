package fit

// Test fixtures: hand-assembled FIT byte streams exercising the decode
// pipeline end-to-end, since no production .fit sample ships with this
// repo's test data.

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// buildFitFile wraps records (definition and data records, concatenated)
// in a 12-byte header and a trailing CRC-16, producing one complete
// sub-file.
func buildFitFile(records []byte) []byte {
	header := make([]byte, 12)
	header[0] = 12
	header[1] = 0x10 // protocol 1.0
	copy(header[2:4], le16(100))
	copy(header[4:8], le32(uint32(len(records))))
	copy(header[8:12], []byte(".FIT"))

	body := append(header, records...)
	crc := calculateCRC16(body)
	return append(body, byte(crc), byte(crc>>8))
}

// definitionRecord assembles a normal-header definition record with the
// given local/global message numbers and (fieldID, size, baseType)
// triples, little-endian architecture.
func definitionRecord(localMesgNum uint8, globalMesgNum uint16, fields [][3]byte) []byte {
	var rec []byte
	rec = append(rec, 0x40|localMesgNum)
	rec = append(rec, 0x00) // reserved
	rec = append(rec, 0x00) // architecture: little-endian
	rec = append(rec, le16(globalMesgNum)...)
	rec = append(rec, byte(len(fields)))
	for _, f := range fields {
		rec = append(rec, f[0], f[1], f[2])
	}
	return rec
}

// dataRecord assembles a normal-header data record.
func dataRecord(localMesgNum uint8, payload []byte) []byte {
	rec := []byte{localMesgNum & 0x0F}
	return append(rec, payload...)
}

// definitionRecordWithDevFields is definitionRecord plus a developer-field
// section (spec.md §4.6, §4.9): devFields are (field_definition_number,
// size, developer_data_index) triples.
func definitionRecordWithDevFields(localMesgNum uint8, globalMesgNum uint16, fields, devFields [][3]byte) []byte {
	var rec []byte
	rec = append(rec, 0x40|0x20|localMesgNum)
	rec = append(rec, 0x00) // reserved
	rec = append(rec, 0x00) // architecture: little-endian
	rec = append(rec, le16(globalMesgNum)...)
	rec = append(rec, byte(len(fields)))
	for _, f := range fields {
		rec = append(rec, f[0], f[1], f[2])
	}
	rec = append(rec, byte(len(devFields)))
	for _, f := range devFields {
		rec = append(rec, f[0], f[1], f[2])
	}
	return rec
}
