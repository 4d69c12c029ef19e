package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sculpt-ml/sculpt/internal/graph"
)

func TestBuildPrune(t *testing.T) {
	fn, desc, err := Build(Params{Kind: KindPrune, Ratio: 0.3})
	require.NoError(t, err)
	require.NotNil(t, fn)
	assert.Equal(t, "prune 30% by magnitude", desc)

	out, err := fn(gemmModel(t))
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestBuildQuantizeDefaultsToInt8(t *testing.T) {
	_, desc, err := Build(Params{Kind: KindQuantize})
	require.NoError(t, err)
	assert.Equal(t, "quantize weights to int8", desc)

	_, desc, err = Build(Params{Kind: KindQuantize, Mode: ModeFloat16})
	require.NoError(t, err)
	assert.Equal(t, "quantize weights to float16", desc)
}

func TestBuildRemoveNode(t *testing.T) {
	fn, desc, err := Build(Params{Kind: KindRemoveNode, NodeID: "hidden", Bypass: true})
	require.NoError(t, err)
	assert.Equal(t, "remove node hidden", desc)

	// hidden has two inputs; bypass must reject it.
	_, err = fn(gemmModel(t))
	assert.ErrorIs(t, err, graph.ErrDanglingConsumer)

	fn, _, err = Build(Params{Kind: KindRemoveNode, NodeID: "output", Bypass: true})
	require.NoError(t, err)
	out, err := fn(gemmModel(t))
	require.NoError(t, err)
	assert.Equal(t, 1, out.NodeCount())
}

func TestBuildRejectsBadParams(t *testing.T) {
	cases := []Params{
		{},                                    // no kind
		{Kind: "explode"},                     // unknown kind
		{Kind: KindPrune},                     // ratio missing
		{Kind: KindPrune, Ratio: 1.0},         // ratio out of range
		{Kind: KindPrune, Ratio: -0.1},        // negative ratio
		{Kind: KindQuantize, Mode: "int4096"}, // unknown mode
		{Kind: KindRemoveNode},                // node id missing
	}
	for _, p := range cases {
		_, _, err := Build(p)
		assert.ErrorIs(t, err, ErrInvalidParams, "params %+v", p)
	}
}
