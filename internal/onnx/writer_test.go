package onnx

import (
	"bytes"
	"testing"
)

// TestWriteParseRoundTrip writes a model and parses it back, checking the
// wire cycle preserves every field the editor carries.
func TestWriteParseRoundTrip(t *testing.T) {
	src := &ModelProto{
		IRVersion:       8,
		ProducerName:    "sculpt",
		ProducerVersion: "0.1.0",
		OpsetImport:     []OperatorSetID{{Domain: "", Version: 17}},
		Graph: &GraphProto{
			Name: "roundtrip",
			Nodes: []NodeProto{
				{
					Name:    "conv0",
					OpType:  "Conv",
					Inputs:  []string{"X", "W"},
					Outputs: []string{"conv_out"},
					Attributes: []AttributeProto{
						{Name: "kernel_shape", Type: AttributeProtoInts, Ints: []int64{3, 3}},
						{Name: "group", Type: AttributeProtoInt, I: 1},
					},
				},
				{
					Name:    "relu0",
					OpType:  "Relu",
					Inputs:  []string{"conv_out"},
					Outputs: []string{"Y"},
				},
			},
			Inputs:  []ValueInfoProto{simpleValueInfo("X", TensorProtoFloat, 1, 3, 8, 8)},
			Outputs: []ValueInfoProto{simpleValueInfo("Y", TensorProtoFloat, 1, 3, 6, 6)},
			Initializers: []TensorProto{
				{
					Name:     "W",
					DataType: TensorProtoFloat,
					Dims:     []int64{3, 3, 3, 3},
					RawData:  make([]byte, 3*3*3*3*4),
				},
			},
		},
	}

	got, err := Parse(Write(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got.IRVersion != src.IRVersion {
		t.Errorf("IRVersion: got %d, want %d", got.IRVersion, src.IRVersion)
	}
	if got.ProducerName != src.ProducerName || got.ProducerVersion != src.ProducerVersion {
		t.Errorf("Producer: got %q/%q", got.ProducerName, got.ProducerVersion)
	}
	if len(got.OpsetImport) != 1 || got.OpsetImport[0].Version != 17 {
		t.Errorf("OpsetImport: got %v", got.OpsetImport)
	}
	if got.Graph.Name != "roundtrip" {
		t.Errorf("Graph name: got %q", got.Graph.Name)
	}
	if len(got.Graph.Nodes) != 2 {
		t.Fatalf("Nodes: got %d, want 2", len(got.Graph.Nodes))
	}

	conv := got.Graph.Nodes[0]
	if conv.OpType != "Conv" || conv.Name != "conv0" {
		t.Errorf("Node 0: got %q/%q", conv.OpType, conv.Name)
	}
	if len(conv.Inputs) != 2 || conv.Inputs[1] != "W" {
		t.Errorf("Node 0 inputs: got %v", conv.Inputs)
	}
	if len(conv.Attributes) != 2 {
		t.Fatalf("Node 0 attributes: got %d, want 2", len(conv.Attributes))
	}
	ks := conv.Attributes[0]
	if ks.Name != "kernel_shape" || ks.Type != AttributeProtoInts {
		t.Errorf("Attribute 0: got %q type %d", ks.Name, ks.Type)
	}
	if len(ks.Ints) != 2 || ks.Ints[0] != 3 || ks.Ints[1] != 3 {
		t.Errorf("kernel_shape: got %v", ks.Ints)
	}
	if conv.Attributes[1].I != 1 {
		t.Errorf("group: got %d", conv.Attributes[1].I)
	}

	if len(got.Graph.Initializers) != 1 {
		t.Fatalf("Initializers: got %d, want 1", len(got.Graph.Initializers))
	}
	w := got.Graph.Initializers[0]
	if w.Name != "W" || len(w.RawData) != 3*3*3*3*4 {
		t.Errorf("Initializer: got %q with %d bytes", w.Name, len(w.RawData))
	}
}

// TestWriteEmptyInputPositions verifies optional (empty) node inputs keep
// their position on the wire. ONNX uses "" to skip an optional input.
func TestWriteEmptyInputPositions(t *testing.T) {
	src := &ModelProto{
		IRVersion: 8,
		Graph: &GraphProto{
			Nodes: []NodeProto{
				{
					OpType:  "Clip",
					Inputs:  []string{"X", "", "max_val"},
					Outputs: []string{"Y"},
				},
			},
			Inputs:  []ValueInfoProto{simpleValueInfo("X", TensorProtoFloat, 4)},
			Outputs: []ValueInfoProto{simpleValueInfo("Y", TensorProtoFloat, 4)},
		},
	}

	got, err := Parse(Write(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	in := got.Graph.Nodes[0].Inputs
	if len(in) != 3 || in[0] != "X" || in[1] != "" || in[2] != "max_val" {
		t.Errorf("Inputs lost positions: got %v", in)
	}
}

// TestWriteDimParam verifies symbolic dimensions survive the round trip.
func TestWriteDimParam(t *testing.T) {
	src := &ModelProto{
		IRVersion: 8,
		Graph: &GraphProto{
			Nodes: []NodeProto{
				{OpType: "Identity", Inputs: []string{"X"}, Outputs: []string{"Y"}},
			},
			Inputs: []ValueInfoProto{{
				Name: "X",
				Type: &TypeProto{TensorType: &TensorTypeProto{
					ElemType: TensorProtoFloat,
					Shape: &TensorShapeProto{Dims: []DimensionProto{
						{DimParam: "batch"},
						{DimValue: 128},
					}},
				}},
			}},
			Outputs: []ValueInfoProto{simpleValueInfo("Y", TensorProtoFloat, 128)},
		},
	}

	got, err := Parse(Write(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	dims := got.Graph.Inputs[0].Type.TensorType.Shape.Dims
	if len(dims) != 2 {
		t.Fatalf("Dims: got %d, want 2", len(dims))
	}
	if dims[0].DimParam != "batch" {
		t.Errorf("Dim 0: got %q, want symbolic 'batch'", dims[0].DimParam)
	}
	if dims[1].DimValue != 128 {
		t.Errorf("Dim 1: got %d, want 128", dims[1].DimValue)
	}
}

// TestWriteDeterministic verifies encoding the same message twice yields
// identical bytes. Digests depend on this.
func TestWriteDeterministic(t *testing.T) {
	src, err := Parse(buildGemmModel())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !bytes.Equal(Write(src), Write(src)) {
		t.Error("Write is not deterministic")
	}
}

func simpleValueInfo(name string, dtype int32, dims ...int64) ValueInfoProto {
	shape := &TensorShapeProto{}
	for _, d := range dims {
		shape.Dims = append(shape.Dims, DimensionProto{DimValue: d})
	}
	return ValueInfoProto{
		Name: name,
		Type: &TypeProto{TensorType: &TensorTypeProto{ElemType: dtype, Shape: shape}},
	}
}
