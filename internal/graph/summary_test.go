package graph

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeChain(t *testing.T) {
	m := chainModel(t)
	s := m.Summarize()

	assert.Equal(t, 3, s.NodeCount)
	assert.Equal(t, int64(32), s.ParamCount)
	assert.Equal(t, int64(32*4), s.TotalBytes)
	assert.Equal(t, []string{"input"}, s.Inputs)
	assert.Equal(t, []string{"output"}, s.Outputs)

	require.Len(t, s.Nodes, 3)
	conv := s.Nodes[0]
	assert.Equal(t, "a_out", conv.ID)
	assert.Equal(t, int64(16), conv.Params)
	assert.Equal(t, []int{4, 4}, conv.WeightShape)

	relu := s.Nodes[1]
	assert.Equal(t, int64(0), relu.Params)
	assert.Nil(t, relu.WeightShape)

	// Derived edges: a_out -> b_out -> output. Weight reads are not edges.
	require.Len(t, s.Edges, 2)
	assert.Equal(t, EdgeSummary{Source: "a_out", Target: "b_out", Tensor: "a_out"}, s.Edges[0])
	assert.Equal(t, EdgeSummary{Source: "b_out", Target: "output", Tensor: "b_out"}, s.Edges[1])

	require.Len(t, s.Stages, 1)
	assert.Equal(t, "Block 1: Activation, Convolution", s.Stages[0].Label)
	assert.Equal(t, []string{"a_out", "b_out", "output"}, s.Stages[0].Children)
}

func TestSummarizeStageBlocks(t *testing.T) {
	var nodes []*Node
	prev := "input"
	for i := 0; i < 25; i++ {
		out := fmt.Sprintf("t%d", i)
		nodes = append(nodes, &Node{
			ID: out, OpType: "Relu", Inputs: []string{prev}, Outputs: []string{out},
		})
		prev = out
	}
	m := New(Meta{}, nodes, []ValueInfo{{Name: "input"}}, []ValueInfo{{Name: prev}}, nil)
	require.NoError(t, m.Validate())

	s := m.Summarize()
	require.Len(t, s.Stages, 3)
	assert.Len(t, s.Stages[0].Children, 10)
	assert.Len(t, s.Stages[1].Children, 10)
	assert.Len(t, s.Stages[2].Children, 5)
	assert.Equal(t, "stage_1", s.Stages[1].ID)
	assert.Equal(t, "stage_2", s.Nodes[24].Stage)
}

func TestSummarizeAttrs(t *testing.T) {
	m := chainModel(t)
	a, err := m.FindNode("a_out")
	require.NoError(t, err)
	a.Attrs = append(a.Attrs,
		Attr{Name: "kernel_shape", Kind: AttrInts, Ints: []int64{3, 3}},
		Attr{Name: "auto_pad", Kind: AttrString, S: "VALID"},
	)

	s := m.Summarize()
	attrs := s.Nodes[0].Attrs
	require.NotNil(t, attrs)
	assert.Equal(t, []int64{3, 3}, attrs["kernel_shape"])
	assert.Equal(t, "VALID", attrs["auto_pad"])
}

// The summary is what gets rendered remotely; it must serialize cleanly and
// never include tensor payloads.
func TestSummarizeJSON(t *testing.T) {
	data, err := json.Marshal(chainModel(t).Summarize())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "nodes")
	assert.Contains(t, decoded, "stages")
	assert.NotContains(t, string(data), "rawData")
}

func TestOpCategory(t *testing.T) {
	cases := map[string]string{
		"Conv":              "Convolution",
		"ConvTranspose":     "Convolution",
		"Relu":              "Activation",
		"LeakyRelu":         "Activation",
		"MaxPool":           "Pooling",
		"BatchNormalization": "Normalization",
		"Gemm":              "Linear",
		"MatMul":            "Linear",
		"Concat":            "Other",
	}
	for op, want := range cases {
		assert.Equal(t, want, opCategory(op), op)
	}
}
