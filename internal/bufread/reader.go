// Package bufread decodes typed little-endian numeric arrays from raw byte
// buffers.
//
// It is the only place in jxf that indexes into externally supplied bytes.
// Every offset and length is checked against the buffer before any access,
// and all size arithmetic is arranged so that it cannot overflow for any
// int64 input.
package bufread

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedReference is returned when a layout addresses bytes outside
// the buffer or its length does not divide into whole elements.
var ErrMalformedReference = errors.New("jxf: malformed binary reference")

// ComponentType identifies the scalar type stored in a buffer.
type ComponentType uint8

const (
	// Invalid is the zero ComponentType and never decodes.
	Invalid ComponentType = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
)

var componentNames = [...]string{
	Invalid: "",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Float32: "float32",
	Float64: "float64",
}

// String returns the wire name of the component type.
func (c ComponentType) String() string {
	if int(c) < len(componentNames) {
		return componentNames[c]
	}
	return ""
}

// Size returns the size of one component in bytes, or 0 for Invalid.
func (c ComponentType) Size() int {
	switch c {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// ParseComponentType maps a wire name to its ComponentType.
func ParseComponentType(name string) (ComponentType, bool) {
	for i, n := range componentNames {
		if i != int(Invalid) && n == name {
			return ComponentType(i), true
		}
	}
	return Invalid, false
}

// Layout describes where an array lives in a buffer and how it is typed.
type Layout struct {
	Offset     int64
	Length     int64
	Type       ComponentType
	Components int
}

// Check verifies the layout's internal consistency without a buffer:
// non-negative offset, positive length, a known component type, at least
// one component, and a length that is a whole number of elements.
func (l Layout) Check() error {
	size := int64(l.Type.Size())
	switch {
	case size == 0:
		return fmt.Errorf("%w: unknown component type %q", ErrMalformedReference, l.Type)
	case l.Offset < 0:
		return fmt.Errorf("%w: negative byteOffset %d", ErrMalformedReference, l.Offset)
	case l.Length <= 0:
		return fmt.Errorf("%w: byteLength %d must be positive", ErrMalformedReference, l.Length)
	case l.Components < 1:
		return fmt.Errorf("%w: components %d must be at least 1", ErrMalformedReference, l.Components)
	case int64(l.Components) > l.Length/size:
		// stride would exceed the length; also keeps the multiply below in range
		return fmt.Errorf("%w: byteLength %d is shorter than one %d-component %s element",
			ErrMalformedReference, l.Length, l.Components, l.Type)
	}
	stride := int64(l.Components) * size
	if l.Length%stride != 0 {
		return fmt.Errorf("%w: byteLength %d is not a multiple of element size %d",
			ErrMalformedReference, l.Length, stride)
	}
	return nil
}

// ElementCount returns the number of logical elements described by the
// layout. It returns 0 when Check fails.
func (l Layout) ElementCount() int {
	if l.Check() != nil {
		return 0
	}
	return int(l.Length / (int64(l.Components) * int64(l.Type.Size())))
}

// Read decodes the elements described by l from data.
// The result is flat: element i occupies values [i*Components, (i+1)*Components).
// Every supported component type converts to float64 without loss.
func Read(data []byte, l Layout) ([]float64, error) {
	if err := l.Check(); err != nil {
		return nil, err
	}
	n := int64(len(data))
	if l.Offset > n || l.Length > n-l.Offset {
		return nil, fmt.Errorf("%w: byteOffset %d + byteLength %d exceeds buffer of %d bytes",
			ErrMalformedReference, l.Offset, l.Length, n)
	}

	src := data[l.Offset : l.Offset+l.Length]
	size := l.Type.Size()
	out := make([]float64, len(src)/size)
	for i := range out {
		out[i] = decode(l.Type, src[i*size:(i+1)*size])
	}
	return out, nil
}

// decode converts one little-endian scalar. b has exactly t.Size() bytes.
func decode(t ComponentType, b []byte) float64 {
	switch t {
	case Int8:
		return float64(int8(b[0]))
	case Uint8:
		return float64(b[0])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(b))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(b))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return 0
	}
}
