package onnx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sculpt-ml/sculpt/internal/graph"
	"github.com/sculpt-ml/sculpt/internal/tensor"
)

// Decode converts a parsed model file into the graph model and its tensor
// store. Node ids are assigned from the first output name, falling back to
// the node name, then to the node's position, the same scheme the graph
// keeps stable across edits.
func Decode(p *ModelProto) (*graph.Model, error) {
	g := p.Graph
	if g == nil {
		return nil, fmt.Errorf("%w: model has no graph", ErrMalformed)
	}

	meta := graph.Meta{
		IRVersion:       p.IRVersion,
		ProducerName:    p.ProducerName,
		ProducerVersion: p.ProducerVersion,
		Domain:          p.Domain,
		GraphName:       g.Name,
		DocString:       p.DocString,
	}
	for _, opset := range p.OpsetImport {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			meta.OpsetVersion = opset.Version
			break
		}
	}

	store := tensor.NewStore()
	for i := range g.Initializers {
		t, err := tensorFromProto(&g.Initializers[i])
		if err != nil {
			return nil, fmt.Errorf("%w: initializer %q: %v", ErrMalformed, g.Initializers[i].Name, err)
		}
		store.Put(t)
	}

	// Graph inputs are the declared inputs minus initializers; older
	// exporters list weights in both places.
	var inputs []graph.ValueInfo
	for i := range g.Inputs {
		if store.Has(g.Inputs[i].Name) {
			continue
		}
		inputs = append(inputs, valueInfoFromProto(&g.Inputs[i]))
	}
	var outputs []graph.ValueInfo
	for i := range g.Outputs {
		outputs = append(outputs, valueInfoFromProto(&g.Outputs[i]))
	}

	nodes := make([]*graph.Node, 0, len(g.Nodes))
	for i := range g.Nodes {
		nodes = append(nodes, nodeFromProto(&g.Nodes[i], i))
	}

	return graph.New(meta, nodes, inputs, outputs, store), nil
}

// nodeFromProto converts one node, assigning its stable id.
func nodeFromProto(p *NodeProto, index int) *graph.Node {
	id := ""
	for _, out := range p.Outputs {
		if out != "" {
			id = out
			break
		}
	}
	if id == "" {
		id = p.Name
	}
	if id == "" {
		id = fmt.Sprintf("node_%d", index)
	}

	n := &graph.Node{
		ID:      id,
		Name:    p.Name,
		OpType:  p.OpType,
		Domain:  p.Domain,
		Inputs:  append([]string(nil), p.Inputs...),
		Outputs: append([]string(nil), p.Outputs...),
	}
	for i := range p.Attributes {
		if a, ok := attrFromProto(&p.Attributes[i]); ok {
			n.Attrs = append(n.Attrs, a)
		}
	}
	return n
}

// attrFromProto converts an attribute. Tensor- and graph-valued attributes
// are not carried; they report ok=false.
func attrFromProto(p *AttributeProto) (graph.Attr, bool) {
	a := graph.Attr{Name: p.Name}
	switch p.Type {
	case AttributeProtoFloat:
		a.Kind = graph.AttrFloat
		a.F = p.F
	case AttributeProtoInt:
		a.Kind = graph.AttrInt
		a.I = p.I
	case AttributeProtoString:
		a.Kind = graph.AttrString
		a.S = string(p.S)
	case AttributeProtoFloats:
		a.Kind = graph.AttrFloats
		a.Floats = append([]float32(nil), p.Floats...)
	case AttributeProtoInts:
		a.Kind = graph.AttrInts
		a.Ints = append([]int64(nil), p.Ints...)
	case AttributeProtoStrings:
		a.Kind = graph.AttrStrings
		for _, s := range p.Strings {
			a.Strings = append(a.Strings, string(s))
		}
	default:
		return graph.Attr{}, false
	}
	return a, true
}

// tensorFromProto builds a tensor from an initializer, normalizing the
// legacy typed data fields to raw little-endian bytes.
func tensorFromProto(p *TensorProto) (*tensor.Tensor, error) {
	dtype, err := dataTypeFromProto(p.DataType)
	if err != nil {
		return nil, err
	}
	shape := make(tensor.Shape, len(p.Dims))
	for i, d := range p.Dims {
		shape[i] = int(d)
	}

	var data []byte
	switch {
	case p.RawData != nil:
		data = p.RawData
	case len(p.FloatData) > 0:
		data = make([]byte, len(p.FloatData)*4)
		for i, v := range p.FloatData {
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
		}
	case len(p.Int32Data) > 0:
		data = make([]byte, len(p.Int32Data)*dtype.Size())
		for i, v := range p.Int32Data {
			switch dtype.Size() {
			case 4:
				binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
			case 2:
				binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
			case 1:
				data[i] = byte(v)
			}
		}
	case len(p.Int64Data) > 0:
		data = make([]byte, len(p.Int64Data)*8)
		for i, v := range p.Int64Data {
			binary.LittleEndian.PutUint64(data[i*8:], uint64(v))
		}
	default:
		data = make([]byte, shape.NumElements()*dtype.Size())
	}

	return tensor.New(p.Name, shape, dtype, data)
}

// valueInfoFromProto converts an input/output specification.
func valueInfoFromProto(p *ValueInfoProto) graph.ValueInfo {
	vi := graph.ValueInfo{Name: p.Name}
	if p.Type == nil || p.Type.TensorType == nil {
		return vi
	}
	tt := p.Type.TensorType
	// Unrecognized element types stay tensor.Invalid; the writer maps that
	// back to the undefined wire value.
	if dt, err := dataTypeFromProto(tt.ElemType); err == nil {
		vi.Elem = dt
	}
	if tt.Shape != nil {
		for _, d := range tt.Shape.Dims {
			vi.Dims = append(vi.Dims, graph.Dim{Value: d.DimValue, Param: d.DimParam})
		}
	}
	return vi
}

// dataTypeFromProto maps an ONNX element type to the tensor DataType.
func dataTypeFromProto(t int32) (tensor.DataType, error) {
	switch t {
	case TensorProtoFloat:
		return tensor.Float32, nil
	case TensorProtoDouble:
		return tensor.Float64, nil
	case TensorProtoFloat16:
		return tensor.Float16, nil
	case TensorProtoInt8:
		return tensor.Int8, nil
	case TensorProtoInt32:
		return tensor.Int32, nil
	case TensorProtoInt64:
		return tensor.Int64, nil
	case TensorProtoUint8:
		return tensor.Uint8, nil
	case TensorProtoBool:
		return tensor.Bool, nil
	default:
		return 0, fmt.Errorf("unsupported element type %d", t)
	}
}
