// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profile is the FIT message catalog: the static, read-only tables
// that map a global message number and field-definition number to a name,
// a type, and the profile-driven transforms (scale, offset, components,
// bits, sub-fields) spec.md §3 calls FieldProfile.
//
// spec.md §1 names the profile tables an external collaborator — "the
// static profile tables (catalog of global message ids, field names,
// types, scales, components)" — generated, in the reference Garmin SDK,
// from a proprietary spreadsheet. This package is a concrete, hand-curated
// instance of that collaborator covering the message types exercised by
// this repo's tests and CLIs, laid out the way the teacher repository lays
// out its own static, generated tables (perffile/format.go's const blocks
// and doc comments citing the C header each constant mirrors) — here one
// comment on the message-number constants points at Profile.xlsx instead;
// the table entries themselves carry no citations.
package profile

// BaseType mirrors fit.BaseType without importing the fit package (which
// imports profile), keeping the dependency direction single-way.
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

// SubFieldCase is one (reference_field_name, raw_value) pair from a
// sub-field's map (spec.md §3, FieldProfile.sub_fields[].map).
type SubFieldCase struct {
	ReferenceFieldName string
	RawValue           int64
}

// SubField is one alternative name/type/components a base field can
// resolve to, selected when any of its Map cases matches the current
// message (spec.md §4.8, "Sub-field selection").
type SubField struct {
	Name       string
	Type       string
	Scale      []float64
	Offset     []float64
	Components []uint8
	Bits       []uint8
	Map        []SubFieldCase
}

func (sf SubField) HasComponents() bool { return len(sf.Components) > 0 }

// Field is one (global_mesg_num, field_definition_number) entry of the
// catalog (spec.md §3, FieldProfile).
type Field struct {
	Num           uint8
	Name          string
	Type          string
	Scale         []float64
	Offset        []float64
	Components    []uint8
	Bits          []uint8
	IsAccumulated bool
	SubFields     []SubField
}

func (f Field) HasComponents() bool { return len(f.Components) > 0 }

// Message is one global_mesg_num entry of the catalog (spec.md §3,
// LocalMesgDef's "bound to a profile entry").
type Message struct {
	GlobalMesgNum uint16
	Name          string
	Fields        map[uint8]*Field
}

// Stub synthesizes the profile entry for an unrecognized global message
// number (spec.md §4.6: "If absent, synthesize a profile stub { name =
// str(num), messages_key = str(num), fields = {} }").
func Stub(globalMesgNum uint16) *Message {
	name := numToKey(globalMesgNum)
	return &Message{GlobalMesgNum: globalMesgNum, Name: name, Fields: map[uint8]*Field{}}
}

// Lookup returns the catalog entry for globalMesgNum, or a synthesized
// stub if it is not a known message.
func Lookup(globalMesgNum uint16) *Message {
	if m, ok := Messages[globalMesgNum]; ok {
		return m
	}
	return Stub(globalMesgNum)
}

// BaseTypeForFieldType implements FIELD_TYPE_TO_BASE_TYPE from spec.md
// §4.8 step 1: base primitive type names map to themselves, and any named
// enum type (a key of Types) maps to the enum base type, since every FIT
// enum is wire-encoded as a single enum byte. Any other name (date_time,
// for one) is reported as not found.
func BaseTypeForFieldType(typeName string) (BaseType, bool) {
	if bt, ok := primitiveFieldTypes[typeName]; ok {
		return bt, true
	}
	if _, ok := Types[typeName]; ok {
		return BaseTypeEnum, true
	}
	return 0, false
}

var primitiveFieldTypes = map[string]BaseType{
	"enum":    BaseTypeEnum,
	"sint8":   BaseTypeSint8,
	"uint8":   BaseTypeUint8,
	"sint16":  BaseTypeSint16,
	"uint16":  BaseTypeUint16,
	"sint32":  BaseTypeSint32,
	"uint32":  BaseTypeUint32,
	"string":  BaseTypeString,
	"float32": BaseTypeFloat32,
	"float64": BaseTypeFloat64,
	"uint8z":  BaseTypeUint8z,
	"uint16z": BaseTypeUint16z,
	"uint32z": BaseTypeUint32z,
	"byte":    BaseTypeByte,
	"sint64":  BaseTypeSint64,
	"uint64":  BaseTypeUint64,
	"uint64z": BaseTypeUint64z,
}
