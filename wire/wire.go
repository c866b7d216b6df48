// Package wire implements the bit-level primitives of the binary wire
// format: tagged header bytes, length fields, and the little-endian
// payload encodings for every wire family. It has no knowledge of
// schemas or values; codec drives it.
package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

// Tag is the 3-bit wire family carried in the high bits of every
// primary header byte.
type Tag byte

const (
	TagNumeric Tag = 0b000
	TagString  Tag = 0b001
	TagObject  Tag = 0b010
	TagDate    Tag = 0b011
	TagArray   Tag = 0b100
	TagUnion   Tag = 0b101
	TagMap     Tag = 0b110
	tagReserved Tag = 0b111
)

// header byte layout: top 3 bits are the Tag, low 5 bits are family-specific.
func makeHeader(t Tag, low byte) byte {
	return byte(t)<<5 | (low & 0x1F)
}

func TagOf(b byte) Tag {
	return Tag(b >> 5)
}

var (
	ErrReservedLengthForm = errors.New("wire: reserved length form")
	ErrTruncated          = errors.New("wire: truncated payload")
	ErrStringTooLong      = errors.New("wire: string exceeds 2^20 bytes")
	ErrBadUTF8            = errors.New("wire: invalid utf-8 bytes")
	ErrUnionIndexRange    = errors.New("wire: union index out of range")
)

///////////////////////////////////////////////////////////////////////////////
// Numeric

type NumericSubtype byte

const (
	SubI8        NumericSubtype = 0x0
	SubF64       NumericSubtype = 0x1
	SubI16       NumericSubtype = 0x2
	SubI32       NumericSubtype = 0x3
	SubBigIntI64 NumericSubtype = 0x4
	SubI64       NumericSubtype = 0x5
	SubNaN       NumericSubtype = 0x6
	SubPosInf    NumericSubtype = 0x7
	SubNegInf    NumericSubtype = 0x8
	SubTrue      NumericSubtype = 0x9
	SubFalse     NumericSubtype = 0xA
)

// NumericHeader builds the single header byte for a numeric value:
// tag in bits 7-5, one padding bit, subtype in the low 4 bits.
func NumericHeader(sub NumericSubtype) byte {
	return makeHeader(TagNumeric, byte(sub)&0x0F)
}

func NumericSubtypeOf(b byte) NumericSubtype {
	return NumericSubtype(b & 0x0F)
}

// ClassifyInt picks the narrowest integer subtype that exactly
// represents n.
func ClassifyInt(n int64) NumericSubtype {
	switch {
	case n >= math.MinInt8 && n <= math.MaxInt8:
		return SubI8
	case n >= math.MinInt16 && n <= math.MaxInt16:
		return SubI16
	case n >= math.MinInt32 && n <= math.MaxInt32:
		return SubI32
	default:
		return SubI64
	}
}

// FloatClass distinguishes the three non-finite special values from an
// ordinary finite float64 that carries an f64 payload on the wire.
type FloatClass byte

const (
	FloatFinite FloatClass = iota
	FloatNaN
	FloatPosInf
	FloatNegInf
)

// ClassifyFloat reports which special value f is, or FloatFinite if it
// should be written as an f64 payload.
func ClassifyFloat(f float64) FloatClass {
	switch {
	case math.IsNaN(f):
		return FloatNaN
	case math.IsInf(f, 1):
		return FloatPosInf
	case math.IsInf(f, -1):
		return FloatNegInf
	default:
		return FloatFinite
	}
}

// IsSafeInteger reports whether n is within JavaScript-style safe
// integer range (2^53-1); values outside this still encode as i64
// but the encoder should raise a diagnostic.
func IsSafeInteger(n int64) bool {
	const maxSafe = 1<<53 - 1
	return n >= -maxSafe && n <= maxSafe
}

func PutI8(buf []byte, v int8) []byte   { return append(buf, byte(v)) }
func PutI16(buf []byte, v int16) []byte { return binary.LittleEndian.AppendUint16(buf, uint16(v)) }
func PutI32(buf []byte, v int32) []byte { return binary.LittleEndian.AppendUint32(buf, uint32(v)) }
func PutI64(buf []byte, v int64) []byte { return binary.LittleEndian.AppendUint64(buf, uint64(v)) }
func PutF64(buf []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
}

func GetI8(b []byte) int8   { return int8(b[0]) }
func GetI16(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) }
func GetI32(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) }
func GetI64(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) }
func GetF64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// PayloadSize returns the number of payload bytes following the header
// byte for a given numeric subtype.
func PayloadSize(sub NumericSubtype) int {
	switch sub {
	case SubI8:
		return 1
	case SubI16:
		return 2
	case SubI32:
		return 4
	case SubF64, SubBigIntI64, SubI64:
		return 8
	default:
		return 0
	}
}

///////////////////////////////////////////////////////////////////////////////
// String

const MaxStringBytes = 1 << 20

// StringHeader builds the 2 or 3 header bytes for a UTF-8 string of
// byteLen bytes. Short form (< 4096 bytes) is 2 bytes total; long form
// (< 2^20 bytes) is 3 bytes total.
func StringHeader(byteLen int) ([]byte, error) {
	if byteLen < 0 || byteLen >= MaxStringBytes {
		return nil, ErrStringTooLong
	}
	if byteLen < 1<<12 {
		b0 := makeHeader(TagString, byte((byteLen>>8)&0x0F))
		b1 := byte(byteLen & 0xFF)
		return []byte{b0, b1}, nil
	}
	b0 := makeHeader(TagString, 0x10|byte((byteLen>>16)&0x0F))
	b1 := byte((byteLen >> 8) & 0xFF)
	b2 := byte(byteLen & 0xFF)
	return []byte{b0, b1, b2}, nil
}

// StringLength parses the length-form flag (bit 4 of b0) and returns
// the decoded length plus the number of header bytes consumed
// (including b0), reading further bytes from rest as needed.
func StringLength(b0 byte, rest []byte) (length int, headerLen int, err error) {
	longForm := b0&0x10 != 0
	if !longForm {
		if len(rest) < 1 {
			return 0, 0, ErrTruncated
		}
		length = int(b0&0x0F)<<8 | int(rest[0])
		return length, 2, nil
	}
	if len(rest) < 2 {
		return 0, 0, ErrTruncated
	}
	length = int(b0&0x0F)<<16 | int(rest[0])<<8 | int(rest[1])
	return length, 3, nil
}

///////////////////////////////////////////////////////////////////////////////
// Date

// DateHeader is a single header byte (low 5 bits padding).
func DateHeader() byte {
	return makeHeader(TagDate, 0)
}

///////////////////////////////////////////////////////////////////////////////
// Object / null / undefined

type ObjectSubtag byte

const (
	ObjectBody            ObjectSubtag = 0b00
	ObjectNull            ObjectSubtag = 0b01
	ObjectUndefined       ObjectSubtag = 0b10
	ObjectAbsentOptional  ObjectSubtag = 0b11
)

// AbsentOptionalMarker is the 1-byte sentinel documented in the
// GLOSSARY: tag 010, subtag 11, remaining bits zero -> 0x4C.
const AbsentOptionalMarker = byte(TagObject)<<5 | byte(ObjectAbsentOptional)<<2

func ObjectHeader(sub ObjectSubtag) byte {
	return makeHeader(TagObject, byte(sub)<<2)
}

func ObjectSubtagOf(b byte) ObjectSubtag {
	return ObjectSubtag((b >> 2) & 0x03)
}

///////////////////////////////////////////////////////////////////////////////
// Array / tuple / set

type LengthForm byte

const (
	LenForm3Bit  LengthForm = 0b00
	LenForm11Bit LengthForm = 0b01
	LenForm19Bit LengthForm = 0b10
	lenFormReserved LengthForm = 0b11
)

const (
	MaxLen3Bit  = 1 << 3
	MaxLen11Bit = 1 << 11
	MaxLen19Bit = 1 << 19
)

// ArrayHeader builds the header bytes for a sequence of the given
// length, selecting the narrowest length form.
func ArrayHeader(length int) ([]byte, error) {
	switch {
	case length < MaxLen3Bit:
		return []byte{makeHeader(TagArray, byte(LenForm3Bit)<<3|byte(length))}, nil
	case length < MaxLen11Bit:
		b0 := makeHeader(TagArray, byte(LenForm11Bit)<<3|byte((length>>8)&0x07))
		return []byte{b0, byte(length & 0xFF)}, nil
	case length < MaxLen19Bit:
		b0 := makeHeader(TagArray, byte(LenForm19Bit)<<3|byte((length>>16)&0x07))
		return []byte{b0, byte((length >> 8) & 0xFF), byte(length & 0xFF)}, nil
	default:
		return nil, errors.New("wire: sequence length exceeds 2^19-1")
	}
}

// ArrayLength decodes the length-form bits and returns the length and
// number of header bytes consumed, reading from rest as needed.
func ArrayLength(b0 byte, rest []byte) (length int, headerLen int, err error) {
	form := LengthForm((b0 >> 3) & 0x03)
	switch form {
	case LenForm3Bit:
		return int(b0 & 0x07), 1, nil
	case LenForm11Bit:
		if len(rest) < 1 {
			return 0, 0, ErrTruncated
		}
		return int(b0&0x07)<<8 | int(rest[0]), 2, nil
	case LenForm19Bit:
		if len(rest) < 2 {
			return 0, 0, ErrTruncated
		}
		return int(b0&0x07)<<16 | int(rest[0])<<8 | int(rest[1]), 3, nil
	default:
		return 0, 0, ErrReservedLengthForm
	}
}

///////////////////////////////////////////////////////////////////////////////
// Union

const MaxUnionOptions = 32

// UnionHeader builds the single header byte for the chosen option
// index (0..31).
func UnionHeader(index int) (byte, error) {
	if index < 0 || index >= MaxUnionOptions {
		return 0, ErrUnionIndexRange
	}
	return makeHeader(TagUnion, byte(index)), nil
}

func UnionIndex(b0 byte) int {
	return int(b0 & 0x1F)
}

///////////////////////////////////////////////////////////////////////////////
// Map / record

const (
	MaxMapLen11Bit = 1 << 11
	MaxMapLen19Bit = 1 << 19
)

// MapHeader builds the 2 or 3 header bytes for a keyed container of
// the given pair count. isMap selects bit 4 (1 = keyed map, 0 =
// string-keyed record).
func MapHeader(isMap bool, length int) ([]byte, error) {
	var kindBit byte
	if isMap {
		kindBit = 1 << 4
	}
	switch {
	case length < MaxMapLen11Bit:
		b0 := makeHeader(TagMap, kindBit|byte((length>>8)&0x07))
		return []byte{b0, byte(length & 0xFF)}, nil
	case length < MaxMapLen19Bit:
		b0 := makeHeader(TagMap, kindBit|1<<3|byte((length>>16)&0x07))
		return []byte{b0, byte((length >> 8) & 0xFF), byte(length & 0xFF)}, nil
	default:
		return nil, errors.New("wire: map/record length exceeds 2^19-1")
	}
}

// MapKindAndLength decodes a map/record header.
func MapKindAndLength(b0 byte, rest []byte) (isMap bool, length int, headerLen int, err error) {
	isMap = b0&0x10 != 0
	longForm := b0&0x08 != 0
	if !longForm {
		if len(rest) < 1 {
			return false, 0, 0, ErrTruncated
		}
		length = int(b0&0x07)<<8 | int(rest[0])
		return isMap, length, 2, nil
	}
	if len(rest) < 2 {
		return false, 0, 0, ErrTruncated
	}
	length = int(b0&0x07)<<16 | int(rest[0])<<8 | int(rest[1])
	return isMap, length, 3, nil
}
