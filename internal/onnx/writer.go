package onnx

import (
	"encoding/binary"
	"math"
)

// Write serializes a model to protobuf bytes. Output is canonical for this
// writer (fields in field-number order, legacy typed data fields normalized
// to raw data by the graph conversion), so byte-exact round trips with
// arbitrary producers are not guaranteed; isomorphic round trips are.
func Write(m *ModelProto) []byte {
	var e encoder
	e.writeVarintField(fieldModelIRVersion, m.IRVersion)
	e.writeStringField(fieldModelProducerName, m.ProducerName)
	e.writeStringField(fieldModelProducerVersion, m.ProducerVersion)
	e.writeStringField(fieldModelDomain, m.Domain)
	e.writeVarintField(fieldModelVersion, m.ModelVersion)
	e.writeStringField(fieldModelDocString, m.DocString)
	if m.Graph != nil {
		e.writeMessageField(fieldModelGraph, writeGraph(m.Graph))
	}
	for _, opset := range m.OpsetImport {
		e.writeMessageField(fieldModelOpsetImport, writeOperatorSetID(opset))
	}
	for _, entry := range m.MetadataProps {
		e.writeMessageField(fieldModelMetadataProps, writeStringStringEntry(entry))
	}
	return e.buf
}

func writeGraph(g *GraphProto) []byte {
	var e encoder
	for i := range g.Nodes {
		e.writeMessageField(fieldGraphNode, writeNode(&g.Nodes[i]))
	}
	e.writeStringField(fieldGraphName, g.Name)
	for i := range g.Initializers {
		e.writeMessageField(fieldGraphInitializer, writeTensor(&g.Initializers[i]))
	}
	e.writeStringField(fieldGraphDocString, g.DocString)
	for i := range g.Inputs {
		e.writeMessageField(fieldGraphInput, writeValueInfo(&g.Inputs[i]))
	}
	for i := range g.Outputs {
		e.writeMessageField(fieldGraphOutput, writeValueInfo(&g.Outputs[i]))
	}
	for i := range g.ValueInfo {
		e.writeMessageField(fieldGraphValueInfo, writeValueInfo(&g.ValueInfo[i]))
	}
	return e.buf
}

func writeNode(n *NodeProto) []byte {
	var e encoder
	for _, in := range n.Inputs {
		e.writeStringFieldAlways(fieldNodeInput, in)
	}
	for _, out := range n.Outputs {
		e.writeStringFieldAlways(fieldNodeOutput, out)
	}
	e.writeStringField(fieldNodeName, n.Name)
	e.writeStringField(fieldNodeOpType, n.OpType)
	for i := range n.Attributes {
		e.writeMessageField(fieldNodeAttribute, writeAttribute(&n.Attributes[i]))
	}
	e.writeStringField(fieldNodeDocString, n.DocString)
	e.writeStringField(fieldNodeDomain, n.Domain)
	return e.buf
}

func writeTensor(t *TensorProto) []byte {
	var e encoder
	if len(t.Dims) > 0 {
		e.writePackedVarints(fieldTensorDims, t.Dims)
	}
	e.writeVarintField(fieldTensorDataType, int64(t.DataType))
	if len(t.FloatData) > 0 {
		e.writePackedFloats(fieldTensorFloatData, t.FloatData)
	}
	if len(t.Int32Data) > 0 {
		ints := make([]int64, len(t.Int32Data))
		for i, v := range t.Int32Data {
			ints[i] = int64(v)
		}
		e.writePackedVarints(fieldTensorInt32Data, ints)
	}
	if len(t.Int64Data) > 0 {
		e.writePackedVarints(fieldTensorInt64Data, t.Int64Data)
	}
	e.writeStringField(fieldTensorName, t.Name)
	if t.RawData != nil {
		e.writeBytesField(fieldTensorRawData, t.RawData)
	}
	return e.buf
}

func writeValueInfo(vi *ValueInfoProto) []byte {
	var e encoder
	e.writeStringField(fieldValueInfoName, vi.Name)
	if vi.Type != nil && vi.Type.TensorType != nil {
		var te encoder
		te.writeMessageField(fieldTypeTensorType, writeTensorType(vi.Type.TensorType))
		e.writeMessageField(fieldValueInfoType, te.buf)
	}
	return e.buf
}

func writeTensorType(t *TensorTypeProto) []byte {
	var e encoder
	e.writeVarintField(fieldTensorTypeElem, int64(t.ElemType))
	if t.Shape != nil {
		var se encoder
		for _, dim := range t.Shape.Dims {
			se.writeMessageField(fieldShapeDim, writeDimension(dim))
		}
		e.writeMessageField(fieldTensorTypeShape, se.buf)
	}
	return e.buf
}

func writeDimension(d DimensionProto) []byte {
	var e encoder
	if d.DimParam != "" {
		e.writeStringField(fieldDimParam, d.DimParam)
	} else {
		e.writeVarintField(fieldDimValue, d.DimValue)
	}
	return e.buf
}

func writeAttribute(a *AttributeProto) []byte {
	var e encoder
	e.writeStringField(fieldAttrName, a.Name)
	switch a.Type {
	case AttributeProtoFloat:
		e.writeFloat32Field(fieldAttrF, a.F)
	case AttributeProtoInt:
		e.writeVarintField(fieldAttrI, a.I)
	case AttributeProtoString:
		e.writeBytesField(fieldAttrS, a.S)
	case AttributeProtoFloats:
		e.writePackedFloats(fieldAttrFloats, a.Floats)
	case AttributeProtoInts:
		e.writePackedVarints(fieldAttrInts, a.Ints)
	case AttributeProtoStrings:
		for _, s := range a.Strings {
			e.writeBytesField(fieldAttrStrings, s)
		}
	}
	e.writeVarintField(fieldAttrType, int64(a.Type))
	return e.buf
}

func writeOperatorSetID(o OperatorSetID) []byte {
	var e encoder
	e.writeStringField(fieldOpsetDomain, o.Domain)
	e.writeVarintField(fieldOpsetVersion, o.Version)
	return e.buf
}

func writeStringStringEntry(s StringStringEntry) []byte {
	var e encoder
	e.writeStringField(fieldEntryKey, s.Key)
	e.writeStringField(fieldEntryValue, s.Value)
	return e.buf
}

// encoder builds protobuf wire bytes. Zero-valued scalar and string fields
// are omitted, matching proto3 encoding conventions; repeated fields inside
// messages (node inputs) are always written to preserve positions.
type encoder struct {
	buf []byte
}

func (e *encoder) writeTag(fieldNum, wireType int) {
	e.writeRawVarint(uint64(fieldNum)<<3 | uint64(wireType))
}

func (e *encoder) writeRawVarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

// writeVarintField writes a varint field, omitting zero values.
func (e *encoder) writeVarintField(fieldNum int, v int64) {
	if v == 0 {
		return
	}
	e.writeTag(fieldNum, wireVarint)
	e.writeRawVarint(uint64(v))
}

// writeStringField writes a string field, omitting empty strings.
func (e *encoder) writeStringField(fieldNum int, s string) {
	if s == "" {
		return
	}
	e.writeStringFieldAlways(fieldNum, s)
}

// writeStringFieldAlways writes a string field even when empty. Needed for
// repeated string fields where "" marks an omitted optional input and the
// position matters.
func (e *encoder) writeStringFieldAlways(fieldNum int, s string) {
	e.writeTag(fieldNum, wireBytes)
	e.writeRawVarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// writeBytesField writes a length-delimited bytes field.
func (e *encoder) writeBytesField(fieldNum int, b []byte) {
	e.writeTag(fieldNum, wireBytes)
	e.writeRawVarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// writeMessageField writes an embedded message.
func (e *encoder) writeMessageField(fieldNum int, msg []byte) {
	e.writeBytesField(fieldNum, msg)
}

// writeFloat32Field writes a fixed 32-bit float field.
func (e *encoder) writeFloat32Field(fieldNum int, f float32) {
	e.writeTag(fieldNum, wire32Bit)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(f))
}

// writePackedVarints writes a packed repeated varint field.
func (e *encoder) writePackedVarints(fieldNum int, vs []int64) {
	var packed encoder
	for _, v := range vs {
		packed.writeRawVarint(uint64(v))
	}
	e.writeBytesField(fieldNum, packed.buf)
}

// writePackedFloats writes a packed repeated float field.
func (e *encoder) writePackedFloats(fieldNum int, fs []float32) {
	var packed encoder
	for _, f := range fs {
		packed.buf = binary.LittleEndian.AppendUint32(packed.buf, math.Float32bits(f))
	}
	e.writeBytesField(fieldNum, packed.buf)
}
