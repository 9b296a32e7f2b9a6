package bounded

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
)

// Codec stores values of T in a fixed number of bytes. Collections keep their elements in a
// provider in this encoded form, so every slot of a collection has the same size.
type Codec[T any] interface {
	// Size returns the number of bytes every encoded value occupies
	Size() int
	// Encode writes value into dst, which is exactly Size bytes long. It fails when value does
	// not fit in Size bytes.
	Encode(dst []byte, value T) error
	// Decode reads a value from src, which is exactly Size bytes long
	Decode(src []byte) T
}

type fixedCodec[T any] struct {
	size   int
	encode func(dst []byte, value T)
	decode func(src []byte) T
}

func (c fixedCodec[T]) Size() int { return c.size }

func (c fixedCodec[T]) Encode(dst []byte, value T) error {
	c.encode(dst, value)
	return nil
}

func (c fixedCodec[T]) Decode(src []byte) T { return c.decode(src) }

// Uint8 encodes a uint8 in one byte
func Uint8() Codec[uint8] {
	return fixedCodec[uint8]{
		size:   1,
		encode: func(dst []byte, value uint8) { dst[0] = value },
		decode: func(src []byte) uint8 { return src[0] },
	}
}

// Uint16 encodes a uint16 in two little-endian bytes
func Uint16() Codec[uint16] {
	return fixedCodec[uint16]{
		size:   2,
		encode: func(dst []byte, value uint16) { binary.LittleEndian.PutUint16(dst, value) },
		decode: binary.LittleEndian.Uint16,
	}
}

// Uint32 encodes a uint32 in four little-endian bytes
func Uint32() Codec[uint32] {
	return fixedCodec[uint32]{
		size:   4,
		encode: func(dst []byte, value uint32) { binary.LittleEndian.PutUint32(dst, value) },
		decode: binary.LittleEndian.Uint32,
	}
}

// Uint64 encodes a uint64 in eight little-endian bytes
func Uint64() Codec[uint64] {
	return fixedCodec[uint64]{
		size:   8,
		encode: func(dst []byte, value uint64) { binary.LittleEndian.PutUint64(dst, value) },
		decode: binary.LittleEndian.Uint64,
	}
}

func Int8() Codec[int8] {
	return fixedCodec[int8]{
		size:   1,
		encode: func(dst []byte, value int8) { dst[0] = byte(value) },
		decode: func(src []byte) int8 { return int8(src[0]) },
	}
}

func Int16() Codec[int16] {
	return fixedCodec[int16]{
		size:   2,
		encode: func(dst []byte, value int16) { binary.LittleEndian.PutUint16(dst, uint16(value)) },
		decode: func(src []byte) int16 { return int16(binary.LittleEndian.Uint16(src)) },
	}
}

func Int32() Codec[int32] {
	return fixedCodec[int32]{
		size:   4,
		encode: func(dst []byte, value int32) { binary.LittleEndian.PutUint32(dst, uint32(value)) },
		decode: func(src []byte) int32 { return int32(binary.LittleEndian.Uint32(src)) },
	}
}

func Int64() Codec[int64] {
	return fixedCodec[int64]{
		size:   8,
		encode: func(dst []byte, value int64) { binary.LittleEndian.PutUint64(dst, uint64(value)) },
		decode: func(src []byte) int64 { return int64(binary.LittleEndian.Uint64(src)) },
	}
}

// Int encodes an int in eight bytes regardless of platform word size
func Int() Codec[int] {
	return fixedCodec[int]{
		size:   8,
		encode: func(dst []byte, value int) { binary.LittleEndian.PutUint64(dst, uint64(value)) },
		decode: func(src []byte) int { return int(binary.LittleEndian.Uint64(src)) },
	}
}

func Float32() Codec[float32] {
	return fixedCodec[float32]{
		size:   4,
		encode: func(dst []byte, value float32) { binary.LittleEndian.PutUint32(dst, math.Float32bits(value)) },
		decode: func(src []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(src)) },
	}
}

func Float64() Codec[float64] {
	return fixedCodec[float64]{
		size:   8,
		encode: func(dst []byte, value float64) { binary.LittleEndian.PutUint64(dst, math.Float64bits(value)) },
		decode: func(src []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(src)) },
	}
}

func Bool() Codec[bool] {
	return fixedCodec[bool]{
		size: 1,
		encode: func(dst []byte, value bool) {
			dst[0] = 0
			if value {
				dst[0] = 1
			}
		},
		decode: func(src []byte) bool { return src[0] != 0 },
	}
}

type unitCodec struct{}

func (unitCodec) Size() int                           { return 0 }
func (unitCodec) Encode(dst []byte, _ struct{}) error { return nil }
func (unitCodec) Decode(src []byte) struct{}          { return struct{}{} }

type bytesCodec struct {
	length int
}

// FixedBytes encodes byte slices of at most length bytes, behind a two-byte length prefix.
// Decoded slices are fresh copies.
func FixedBytes(length int) Codec[[]byte] {
	return bytesCodec{length: length}
}

func (c bytesCodec) Size() int { return 2 + c.length }

func (c bytesCodec) Encode(dst []byte, value []byte) error {
	if len(value) > c.length || len(value) > math.MaxUint16 {
		return errors.Wrapf(memutils.ErrInvalidSize, "%d bytes do not fit in a %d byte slot", len(value), c.length)
	}

	binary.LittleEndian.PutUint16(dst, uint16(len(value)))
	n := copy(dst[2:], value)
	clear(dst[2+n:])
	return nil
}

func (c bytesCodec) Decode(src []byte) []byte {
	length := int(binary.LittleEndian.Uint16(src))
	if length > c.length {
		length = c.length
	}

	out := make([]byte, length)
	copy(out, src[2:])
	return out
}

type stringCodec struct {
	bytes bytesCodec
}

// FixedString encodes UTF-8 strings of at most length bytes, behind a two-byte length prefix
func FixedString(length int) Codec[string] {
	return stringCodec{bytes: bytesCodec{length: length}}
}

func (c stringCodec) Size() int { return c.bytes.Size() }

func (c stringCodec) Encode(dst []byte, value string) error {
	if !utf8.ValidString(value) {
		return errors.WithStack(ErrInvalidUTF8)
	}
	return c.bytes.Encode(dst, []byte(value))
}

func (c stringCodec) Decode(src []byte) string {
	return string(c.bytes.Decode(src))
}

// Field is one member of a struct encoded by StructCodec
type Field[T any] struct {
	size   int
	encode func(dst []byte, value *T) error
	decode func(src []byte, value *T)
}

// FieldOf describes a struct member by its codec and accessors
func FieldOf[T, F any](codec Codec[F], get func(value *T) F, set func(value *T, field F)) Field[T] {
	return Field[T]{
		size: codec.Size(),
		encode: func(dst []byte, value *T) error {
			return codec.Encode(dst, get(value))
		},
		decode: func(src []byte, value *T) {
			set(value, codec.Decode(src))
		},
	}
}

type structCodec[T any] struct {
	fields []Field[T]
	size   int
}

// StructCodec encodes T as the concatenation of its fields, in the order given
func StructCodec[T any](fields ...Field[T]) Codec[T] {
	size := 0
	for _, field := range fields {
		size += field.size
	}

	return structCodec[T]{fields: fields, size: size}
}

func (c structCodec[T]) Size() int { return c.size }

func (c structCodec[T]) Encode(dst []byte, value T) error {
	offset := 0
	for _, field := range c.fields {
		err := field.encode(dst[offset:offset+field.size], &value)
		if err != nil {
			return err
		}
		offset += field.size
	}
	return nil
}

func (c structCodec[T]) Decode(src []byte) T {
	var value T
	offset := 0
	for _, field := range c.fields {
		field.decode(src[offset:offset+field.size], &value)
		offset += field.size
	}
	return value
}
