package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Supported IR version range. Files outside this range fail with
// ErrUnsupportedVersion rather than being silently misread.
const (
	minIRVersion = 3
	maxIRVersion = 11
)

// Parse decodes a model file from bytes.
func Parse(data []byte) (*ModelProto, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	d := &decoder{data: data}
	model, err := d.readModel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if model.Graph == nil {
		return nil, fmt.Errorf("%w: model has no graph", ErrMalformed)
	}
	if model.IRVersion < minIRVersion || model.IRVersion > maxIRVersion {
		return nil, fmt.Errorf("%w: IR version %d (supported: %d-%d)",
			ErrUnsupportedVersion, model.IRVersion, minIRVersion, maxIRVersion)
	}
	return model, nil
}

// decoder implements a minimal protobuf wire format reader.
type decoder struct {
	data []byte
	pos  int
}

// Protobuf wire types.
const (
	wireVarint = 0 // int32, int64, bool, enum
	wire64Bit  = 1 // fixed64, double
	wireBytes  = 2 // string, bytes, embedded messages, packed repeated
	wire32Bit  = 5 // fixed32, float
)

func (d *decoder) readModel() (*ModelProto, error) {
	m := &ModelProto{}
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return nil, err
		}
		switch fieldNum {
		case fieldModelIRVersion:
			m.IRVersion, err = d.readVarint()
		case fieldModelProducerName:
			m.ProducerName, err = d.readString()
		case fieldModelProducerVersion:
			m.ProducerVersion, err = d.readString()
		case fieldModelDomain:
			m.Domain, err = d.readString()
		case fieldModelVersion:
			m.ModelVersion, err = d.readVarint()
		case fieldModelDocString:
			m.DocString, err = d.readString()
		case fieldModelGraph:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				m.Graph, err = sub.readGraph()
			}
		case fieldModelOpsetImport:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				var opset OperatorSetID
				if opset, err = sub.readOperatorSetID(); err == nil {
					m.OpsetImport = append(m.OpsetImport, opset)
				}
			}
		case fieldModelMetadataProps:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				var entry StringStringEntry
				if entry, err = sub.readStringStringEntry(); err == nil {
					m.MetadataProps = append(m.MetadataProps, entry)
				}
			}
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (d *decoder) readGraph() (*GraphProto, error) {
	g := &GraphProto{}
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return nil, err
		}
		switch fieldNum {
		case fieldGraphNode:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				var node NodeProto
				if node, err = sub.readNode(); err == nil {
					g.Nodes = append(g.Nodes, node)
				}
			}
		case fieldGraphName:
			g.Name, err = d.readString()
		case fieldGraphInitializer:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				var t TensorProto
				if t, err = sub.readTensor(); err == nil {
					g.Initializers = append(g.Initializers, t)
				}
			}
		case fieldGraphDocString:
			g.DocString, err = d.readString()
		case fieldGraphInput:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				var vi ValueInfoProto
				if vi, err = sub.readValueInfo(); err == nil {
					g.Inputs = append(g.Inputs, vi)
				}
			}
		case fieldGraphOutput:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				var vi ValueInfoProto
				if vi, err = sub.readValueInfo(); err == nil {
					g.Outputs = append(g.Outputs, vi)
				}
			}
		case fieldGraphValueInfo:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				var vi ValueInfoProto
				if vi, err = sub.readValueInfo(); err == nil {
					g.ValueInfo = append(g.ValueInfo, vi)
				}
			}
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (d *decoder) readNode() (NodeProto, error) {
	var n NodeProto
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return n, err
		}
		switch fieldNum {
		case fieldNodeInput:
			var s string
			if s, err = d.readString(); err == nil {
				n.Inputs = append(n.Inputs, s)
			}
		case fieldNodeOutput:
			var s string
			if s, err = d.readString(); err == nil {
				n.Outputs = append(n.Outputs, s)
			}
		case fieldNodeName:
			n.Name, err = d.readString()
		case fieldNodeOpType:
			n.OpType, err = d.readString()
		case fieldNodeAttribute:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				var attr AttributeProto
				if attr, err = sub.readAttribute(); err == nil {
					n.Attributes = append(n.Attributes, attr)
				}
			}
		case fieldNodeDocString:
			n.DocString, err = d.readString()
		case fieldNodeDomain:
			n.Domain, err = d.readString()
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (d *decoder) readTensor() (TensorProto, error) {
	var t TensorProto
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return t, err
		}
		switch fieldNum {
		case fieldTensorDims:
			if wireType == wireBytes { // packed repeated
				t.Dims, err = d.readPackedVarints(t.Dims)
			} else {
				var v int64
				if v, err = d.readVarint(); err == nil {
					t.Dims = append(t.Dims, v)
				}
			}
		case fieldTensorDataType:
			t.DataType, err = d.readInt32()
		case fieldTensorFloatData:
			if wireType == wireBytes { // packed repeated
				var data []byte
				if data, err = d.readBytes(); err == nil {
					for i := 0; i+4 <= len(data); i += 4 {
						bits := binary.LittleEndian.Uint32(data[i:])
						t.FloatData = append(t.FloatData, math.Float32frombits(bits))
					}
				}
			} else {
				var f float32
				if f, err = d.readFloat32(); err == nil {
					t.FloatData = append(t.FloatData, f)
				}
			}
		case fieldTensorInt32Data:
			if wireType == wireBytes {
				var v []int64
				if v, err = d.readPackedVarints(nil); err == nil {
					for _, x := range v {
						t.Int32Data = append(t.Int32Data, int32(x))
					}
				}
			} else {
				var v int64
				if v, err = d.readVarint(); err == nil {
					t.Int32Data = append(t.Int32Data, int32(v))
				}
			}
		case fieldTensorInt64Data:
			if wireType == wireBytes {
				t.Int64Data, err = d.readPackedVarints(t.Int64Data)
			} else {
				var v int64
				if v, err = d.readVarint(); err == nil {
					t.Int64Data = append(t.Int64Data, v)
				}
			}
		case fieldTensorName:
			t.Name, err = d.readString()
		case fieldTensorRawData:
			var data []byte
			if data, err = d.readBytes(); err == nil {
				t.RawData = append([]byte(nil), data...)
			}
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return t, err
		}
	}
	return t, nil
}

func (d *decoder) readValueInfo() (ValueInfoProto, error) {
	var vi ValueInfoProto
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return vi, err
		}
		switch fieldNum {
		case fieldValueInfoName:
			vi.Name, err = d.readString()
		case fieldValueInfoType:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				vi.Type, err = sub.readType()
			}
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return vi, err
		}
	}
	return vi, nil
}

func (d *decoder) readType() (*TypeProto, error) {
	t := &TypeProto{}
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return nil, err
		}
		switch fieldNum {
		case fieldTypeTensorType:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				t.TensorType, err = sub.readTensorType()
			}
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (d *decoder) readTensorType() (*TensorTypeProto, error) {
	t := &TensorTypeProto{}
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return nil, err
		}
		switch fieldNum {
		case fieldTensorTypeElem:
			t.ElemType, err = d.readInt32()
		case fieldTensorTypeShape:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				t.Shape, err = sub.readShape()
			}
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (d *decoder) readShape() (*TensorShapeProto, error) {
	s := &TensorShapeProto{}
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return nil, err
		}
		switch fieldNum {
		case fieldShapeDim:
			var sub *decoder
			if sub, err = d.readSub(); err == nil {
				var dim DimensionProto
				if dim, err = sub.readDimension(); err == nil {
					s.Dims = append(s.Dims, dim)
				}
			}
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (d *decoder) readDimension() (DimensionProto, error) {
	var dim DimensionProto
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return dim, err
		}
		switch fieldNum {
		case fieldDimValue:
			dim.DimValue, err = d.readVarint()
		case fieldDimParam:
			dim.DimParam, err = d.readString()
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return dim, err
		}
	}
	return dim, nil
}

func (d *decoder) readAttribute() (AttributeProto, error) {
	var a AttributeProto
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return a, err
		}
		switch fieldNum {
		case fieldAttrName:
			a.Name, err = d.readString()
		case fieldAttrF:
			a.F, err = d.readFloat32()
		case fieldAttrI:
			a.I, err = d.readVarint()
		case fieldAttrS:
			var data []byte
			if data, err = d.readBytes(); err == nil {
				a.S = append([]byte(nil), data...)
			}
		case fieldAttrFloats:
			if wireType == wireBytes { // packed
				var data []byte
				if data, err = d.readBytes(); err == nil {
					for i := 0; i+4 <= len(data); i += 4 {
						bits := binary.LittleEndian.Uint32(data[i:])
						a.Floats = append(a.Floats, math.Float32frombits(bits))
					}
				}
			} else {
				var f float32
				if f, err = d.readFloat32(); err == nil {
					a.Floats = append(a.Floats, f)
				}
			}
		case fieldAttrInts:
			if wireType == wireBytes { // packed
				a.Ints, err = d.readPackedVarints(a.Ints)
			} else {
				var v int64
				if v, err = d.readVarint(); err == nil {
					a.Ints = append(a.Ints, v)
				}
			}
		case fieldAttrStrings:
			var data []byte
			if data, err = d.readBytes(); err == nil {
				a.Strings = append(a.Strings, append([]byte(nil), data...))
			}
		case fieldAttrType:
			a.Type, err = d.readInt32()
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return a, err
		}
	}
	return a, nil
}

func (d *decoder) readOperatorSetID() (OperatorSetID, error) {
	var o OperatorSetID
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return o, err
		}
		switch fieldNum {
		case fieldOpsetDomain:
			o.Domain, err = d.readString()
		case fieldOpsetVersion:
			o.Version, err = d.readVarint()
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return o, err
		}
	}
	return o, nil
}

func (d *decoder) readStringStringEntry() (StringStringEntry, error) {
	var e StringStringEntry
	for d.pos < len(d.data) {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return e, err
		}
		switch fieldNum {
		case fieldEntryKey:
			e.Key, err = d.readString()
		case fieldEntryValue:
			e.Value, err = d.readString()
		default:
			err = d.skipField(wireType)
		}
		if err != nil {
			return e, err
		}
	}
	return e, nil
}

// readTag reads a protobuf field tag.
func (d *decoder) readTag() (fieldNum, wireType int, err error) {
	tag, err := d.readVarint()
	if err != nil {
		return 0, 0, err
	}
	return int(tag >> 3), int(tag & 0x7), nil
}

// readVarint reads a varint-encoded int64.
func (d *decoder) readVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if d.pos >= len(d.data) {
			return 0, io.ErrUnexpectedEOF
		}
		b := d.data[d.pos]
		d.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil
}

// readInt32 reads a varint-encoded int32.
func (d *decoder) readInt32() (int32, error) {
	v, err := d.readVarint()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// readBytes reads a length-delimited byte slice, aliasing the input buffer.
func (d *decoder) readBytes() ([]byte, error) {
	length, err := d.readVarint()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.New("negative length")
	}
	end := d.pos + int(length)
	if end > len(d.data) || end < d.pos {
		return nil, io.ErrUnexpectedEOF
	}
	result := d.data[d.pos:end]
	d.pos = end
	return result, nil
}

// readString reads a length-delimited string.
func (d *decoder) readString() (string, error) {
	data, err := d.readBytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readSub reads a length-delimited sub-message into its own decoder.
func (d *decoder) readSub() (*decoder, error) {
	data, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	return &decoder{data: data}, nil
}

// readPackedVarints reads a packed repeated varint field, appending to dst.
func (d *decoder) readPackedVarints(dst []int64) ([]int64, error) {
	data, err := d.readBytes()
	if err != nil {
		return dst, err
	}
	sub := &decoder{data: data}
	for sub.pos < len(sub.data) {
		v, err := sub.readVarint()
		if err != nil {
			return dst, err
		}
		dst = append(dst, v)
	}
	return dst, nil
}

// readFloat32 reads a 32-bit float.
func (d *decoder) readFloat32() (float32, error) {
	if d.pos+4 > len(d.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return math.Float32frombits(bits), nil
}

// skipField skips a field based on wire type.
func (d *decoder) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := d.readVarint()
		return err
	case wire64Bit:
		if d.pos+8 > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		d.pos += 8
		return nil
	case wireBytes:
		_, err := d.readBytes()
		return err
	case wire32Bit:
		if d.pos+4 > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		d.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}
