package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Tensor is an immutable named tensor value: raw little-endian bytes plus
// shape and element type. Once a tensor has been published into a committed
// graph snapshot its buffer must never be written again; "modifying" a
// tensor means building a new one. The typed accessors therefore copy out
// and the constructors copy in.
type Tensor struct {
	name  string
	shape Shape
	dtype DataType
	data  []byte
}

// New creates a tensor from raw bytes. The buffer length must match
// shape.NumElements() * dtype.Size(); the bytes are copied.
func New(name string, shape Shape, dtype DataType, data []byte) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor %q: invalid shape: %w", name, err)
	}
	if dtype == Invalid {
		return nil, fmt.Errorf("tensor %q: invalid data type", name)
	}
	want := shape.NumElements() * dtype.Size()
	if len(data) != want {
		return nil, fmt.Errorf("tensor %q: buffer is %d bytes, shape %v of %s needs %d",
			name, len(data), shape, dtype, want)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Tensor{name: name, shape: shape.Clone(), dtype: dtype, data: buf}, nil
}

// FromFloat32 creates a float32 tensor from a value slice.
func FromFloat32(name string, shape Shape, values []float32) (*Tensor, error) {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return New(name, shape, Float32, buf)
}

// FromInt8 creates an int8 tensor from a value slice.
func FromInt8(name string, shape Shape, values []int8) (*Tensor, error) {
	buf := make([]byte, len(values))
	for i, v := range values {
		buf[i] = byte(v)
	}
	return New(name, shape, Int8, buf)
}

// FromFloat16 creates a float16 tensor from float32 values, rounding each
// element to the nearest representable half-precision value.
func FromFloat16(name string, shape Shape, values []float32) (*Tensor, error) {
	buf := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], Float16Bits(v))
	}
	return New(name, shape, Float16, buf)
}

// Name returns the tensor's unique name.
func (t *Tensor) Name() string { return t.name }

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() Shape { return t.shape.Clone() }

// DType returns the tensor's element type.
func (t *Tensor) DType() DataType { return t.dtype }

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int { return t.shape.NumElements() }

// ByteSize returns the buffer size in bytes.
func (t *Tensor) ByteSize() int { return len(t.data) }

// Data returns a copy of the raw bytes.
func (t *Tensor) Data() []byte {
	buf := make([]byte, len(t.data))
	copy(buf, t.data)
	return buf
}

// WithName returns a tensor sharing this tensor's buffer under a new name.
// Safe because buffers are immutable.
func (t *Tensor) WithName(name string) *Tensor {
	return &Tensor{name: name, shape: t.shape, dtype: t.dtype, data: t.data}
}

// Float32s decodes the buffer as []float32.
// Returns an error if the tensor's dtype is not Float32.
func (t *Tensor) Float32s() ([]float32, error) {
	if t.dtype != Float32 {
		return nil, fmt.Errorf("tensor %q is %s, not float32", t.name, t.dtype)
	}
	out := make([]float32, t.NumElements())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.data[i*4:]))
	}
	return out, nil
}

// Int64s decodes the buffer as []int64.
// Returns an error if the tensor's dtype is not Int64.
func (t *Tensor) Int64s() ([]int64, error) {
	if t.dtype != Int64 {
		return nil, fmt.Errorf("tensor %q is %s, not int64", t.name, t.dtype)
	}
	out := make([]int64, t.NumElements())
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(t.data[i*8:]))
	}
	return out, nil
}

// Float16Bits converts a float32 to IEEE 754 half-precision bits with
// round-to-nearest-even. Out-of-range values saturate to infinity.
func Float16Bits(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case exp >= 0x1f: // Overflow or Inf/NaN
		if bits&0x7fffffff > 0x7f800000 {
			return sign | 0x7e00 // NaN
		}
		return sign | 0x7c00 // Inf
	case exp <= 0: // Subnormal or zero
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		half := uint16(mant >> shift)
		if mant>>(shift-1)&1 != 0 { // round half up
			half++
		}
		return sign | half
	default:
		half := sign | uint16(exp)<<10 | uint16(mant>>13)
		if mant&0x1fff > 0x1000 || (mant&0x1fff == 0x1000 && half&1 != 0) {
			half++ // round to nearest even
		}
		return half
	}
}

// Float16From converts IEEE 754 half-precision bits to float32.
func Float16From(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h >> 10 & 0x1f)
	mant := uint32(h & 0x3ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: normalize
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x3ff
		return math.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
	case 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	default:
		return math.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
	}
}
