package onnx

import (
	"github.com/sculpt-ml/sculpt/internal/graph"
	"github.com/sculpt-ml/sculpt/internal/tensor"
)

// EncodeModel serializes a graph model and its tensor store back to model
// file bytes.
func EncodeModel(m *graph.Model) []byte {
	return Write(toProto(m))
}

// ParseModel is the full parse pipeline: bytes -> wire messages -> graph
// model.
func ParseModel(data []byte) (*graph.Model, error) {
	proto, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Decode(proto)
}

// toProto converts a graph model to wire messages. Tensors are always
// written as raw data; legacy typed fields are never produced.
func toProto(m *graph.Model) *ModelProto {
	meta := m.Meta()
	p := &ModelProto{
		IRVersion:       meta.IRVersion,
		ProducerName:    meta.ProducerName,
		ProducerVersion: meta.ProducerVersion,
		Domain:          meta.Domain,
		DocString:       meta.DocString,
		Graph: &GraphProto{
			Name: meta.GraphName,
		},
	}
	if meta.OpsetVersion != 0 {
		p.OpsetImport = append(p.OpsetImport, OperatorSetID{Version: meta.OpsetVersion})
	}

	for _, n := range m.Nodes() {
		p.Graph.Nodes = append(p.Graph.Nodes, nodeToProto(n))
	}
	for _, vi := range m.Inputs() {
		p.Graph.Inputs = append(p.Graph.Inputs, valueInfoToProto(vi))
	}
	for _, vi := range m.Outputs() {
		p.Graph.Outputs = append(p.Graph.Outputs, valueInfoToProto(vi))
	}

	store := m.Store()
	for _, name := range store.Names() {
		t, _ := store.Get(name)
		p.Graph.Initializers = append(p.Graph.Initializers, tensorToProto(t))
	}
	return p
}

func nodeToProto(n *graph.Node) NodeProto {
	p := NodeProto{
		Name:    n.Name,
		OpType:  n.OpType,
		Domain:  n.Domain,
		Inputs:  append([]string(nil), n.Inputs...),
		Outputs: append([]string(nil), n.Outputs...),
	}
	for i := range n.Attrs {
		p.Attributes = append(p.Attributes, attrToProto(&n.Attrs[i]))
	}
	return p
}

func attrToProto(a *graph.Attr) AttributeProto {
	p := AttributeProto{Name: a.Name}
	switch a.Kind {
	case graph.AttrFloat:
		p.Type = AttributeProtoFloat
		p.F = a.F
	case graph.AttrInt:
		p.Type = AttributeProtoInt
		p.I = a.I
	case graph.AttrString:
		p.Type = AttributeProtoString
		p.S = []byte(a.S)
	case graph.AttrFloats:
		p.Type = AttributeProtoFloats
		p.Floats = append([]float32(nil), a.Floats...)
	case graph.AttrInts:
		p.Type = AttributeProtoInts
		p.Ints = append([]int64(nil), a.Ints...)
	case graph.AttrStrings:
		p.Type = AttributeProtoStrings
		for _, s := range a.Strings {
			p.Strings = append(p.Strings, []byte(s))
		}
	}
	return p
}

func tensorToProto(t *tensor.Tensor) TensorProto {
	shape := t.Shape()
	dims := make([]int64, len(shape))
	for i, d := range shape {
		dims[i] = int64(d)
	}
	return TensorProto{
		Name:     t.Name(),
		DataType: dataTypeToProto(t.DType()),
		Dims:     dims,
		RawData:  t.Data(),
	}
}

func valueInfoToProto(vi graph.ValueInfo) ValueInfoProto {
	p := ValueInfoProto{Name: vi.Name}
	tt := &TensorTypeProto{ElemType: dataTypeToProto(vi.Elem)}
	if len(vi.Dims) > 0 {
		tt.Shape = &TensorShapeProto{}
		for _, d := range vi.Dims {
			tt.Shape.Dims = append(tt.Shape.Dims, DimensionProto{DimValue: d.Value, DimParam: d.Param})
		}
	}
	p.Type = &TypeProto{TensorType: tt}
	return p
}

// dataTypeToProto maps a tensor DataType to the ONNX element type.
func dataTypeToProto(dt tensor.DataType) int32 {
	switch dt {
	case tensor.Float32:
		return TensorProtoFloat
	case tensor.Float64:
		return TensorProtoDouble
	case tensor.Float16:
		return TensorProtoFloat16
	case tensor.Int8:
		return TensorProtoInt8
	case tensor.Int32:
		return TensorProtoInt32
	case tensor.Int64:
		return TensorProtoInt64
	case tensor.Uint8:
		return TensorProtoUint8
	case tensor.Bool:
		return TensorProtoBool
	default:
		return TensorProtoUndefined
	}
}
