// Package tensor provides the tensor value and store types for the Sculpt
// graph editing engine.
package tensor

// DataType represents runtime type information for tensors.
type DataType int

// Supported tensor element types. The set mirrors the ONNX element types a
// structural editor has to carry; float16 and int8 exist for quantized
// weights, not for arithmetic. The zero value is Invalid so an unset or
// unrecognized element type is never mistaken for float32.
const (
	Invalid DataType = iota
	Float32
	Float64
	Float16
	Int8
	Int32
	Int64
	Uint8
	Bool
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Float16:
		return 2
	case Int8, Uint8, Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case Int8:
		return "int8"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	default:
		return "invalid"
	}
}
