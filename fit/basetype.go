package fit

// BaseType identifies one of the FIT format's 17 primitive on-wire element
// types. The numeric value is the byte code used in definition records
// (spec.md §6), not a sequential index: bit 7 (0x80) is the endian-ability
// flag (set on every multi-byte type) and bits 0-4 are the type number,
// mirrored from the C SDK's fit_base_type_t.
type BaseType uint8

const (
	BaseTypeEnum    BaseType = 0x00
	BaseTypeSint8   BaseType = 0x01
	BaseTypeUint8   BaseType = 0x02
	BaseTypeSint16  BaseType = 0x83
	BaseTypeUint16  BaseType = 0x84
	BaseTypeSint32  BaseType = 0x85
	BaseTypeUint32  BaseType = 0x86
	BaseTypeString  BaseType = 0x07
	BaseTypeFloat32 BaseType = 0x88
	BaseTypeFloat64 BaseType = 0x89
	BaseTypeUint8z  BaseType = 0x0A
	BaseTypeUint16z BaseType = 0x8B
	BaseTypeUint32z BaseType = 0x8C
	BaseTypeByte    BaseType = 0x0D
	BaseTypeSint64  BaseType = 0x8E
	BaseTypeUint64  BaseType = 0x8F
	BaseTypeUint64z BaseType = 0x90
)

// baseTypeInfo describes the on-wire shape of a BaseType: its element size
// in bytes, whether it is a signed integer, and its invalid sentinel (the
// all-ones pattern for unsigned kinds, the max-positive pattern for signed
// kinds, and 0 for the "z" variants and strings; byte uses 0xFF).
type baseTypeInfo struct {
	size     int
	signed   bool
	sentinel uint64
	float    bool
}

var baseTypeTable = map[BaseType]baseTypeInfo{
	BaseTypeEnum:    {size: 1, sentinel: 0xFF},
	BaseTypeSint8:   {size: 1, signed: true, sentinel: 0x7F},
	BaseTypeUint8:   {size: 1, sentinel: 0xFF},
	BaseTypeSint16:  {size: 2, signed: true, sentinel: 0x7FFF},
	BaseTypeUint16:  {size: 2, sentinel: 0xFFFF},
	BaseTypeSint32:  {size: 4, signed: true, sentinel: 0x7FFFFFFF},
	BaseTypeUint32:  {size: 4, sentinel: 0xFFFFFFFF},
	BaseTypeString:  {size: 1, sentinel: 0x00},
	BaseTypeFloat32: {size: 4, float: true, sentinel: 0xFFFFFFFF},
	BaseTypeFloat64: {size: 8, float: true, sentinel: 0xFFFFFFFFFFFFFFFF},
	BaseTypeUint8z:  {size: 1, sentinel: 0x00},
	BaseTypeUint16z: {size: 2, sentinel: 0x00},
	BaseTypeUint32z: {size: 4, sentinel: 0x00},
	BaseTypeByte:    {size: 1, sentinel: 0xFF},
	BaseTypeSint64:  {size: 8, signed: true, sentinel: 0x7FFFFFFFFFFFFFFF},
	BaseTypeUint64:  {size: 8, sentinel: 0xFFFFFFFFFFFFFFFF},
	BaseTypeUint64z: {size: 8, sentinel: 0x00},
}

func (bt BaseType) info() (baseTypeInfo, bool) {
	info, ok := baseTypeTable[bt]
	return info, ok
}

// Size returns the element size in bytes, or 0 if bt is unknown.
func (bt BaseType) Size() int {
	info, ok := bt.info()
	if !ok {
		return 0
	}
	return info.size
}

// IsValid reports whether bt is one of the 17 recognized base types.
func (bt BaseType) IsValid() bool {
	_, ok := bt.info()
	return ok
}
