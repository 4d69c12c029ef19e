package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sculpt-ml/sculpt/internal/graph"
	"github.com/sculpt-ml/sculpt/internal/tensor"
)

// gemmModel builds input -> gemm (hidden) -> relu (output) with a single
// 4x4 float32 weight of distinct magnitudes 0.1 .. 1.6.
func gemmModel(t *testing.T) *graph.Model {
	t.Helper()

	vals := make([]float32, 16)
	for i := range vals {
		vals[i] = float32(i+1) * 0.1
	}
	w, err := tensor.FromFloat32("w", tensor.Shape{4, 4}, vals)
	require.NoError(t, err)
	store := tensor.NewStore()
	store.Put(w)

	nodes := []*graph.Node{
		{ID: "hidden", OpType: "Gemm", Inputs: []string{"input", "w"}, Outputs: []string{"hidden"}},
		{ID: "output", OpType: "Relu", Inputs: []string{"hidden"}, Outputs: []string{"output"}},
	}
	m := graph.New(graph.Meta{IRVersion: 8}, nodes,
		[]graph.ValueInfo{{Name: "input"}},
		[]graph.ValueInfo{{Name: "output"}}, store)
	require.NoError(t, m.Validate())
	return m
}

func sparsity(t *testing.T, m *graph.Model, name string) float64 {
	t.Helper()
	w, ok := m.Store().Get(name)
	require.True(t, ok)
	vs, err := w.Float32s()
	require.NoError(t, err)
	zeros := 0
	for _, v := range vs {
		if v == 0 {
			zeros++
		}
	}
	return float64(zeros) / float64(len(vs))
}

func TestMagnitudePrune(t *testing.T) {
	m := gemmModel(t)

	out, err := MagnitudePrune(0.5)(m)
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	// The 8 smallest magnitudes go to zero, the rest survive unchanged.
	assert.Equal(t, 0.5, sparsity(t, out, "w"))
	vs, err := mustTensor(t, out, "w").Float32s()
	require.NoError(t, err)
	assert.Equal(t, float32(0), vs[0])
	assert.InDelta(t, 1.6, vs[15], 1e-6)

	// Shape and wiring unchanged.
	assert.True(t, mustTensor(t, out, "w").Shape().Equal(tensor.Shape{4, 4}))
	assert.Equal(t, m.NodeCount(), out.NodeCount())

	// Source model untouched.
	assert.Equal(t, 0.0, sparsity(t, m, "w"))
}

func TestMagnitudePruneGlobalThreshold(t *testing.T) {
	// Two prunable weights with disjoint magnitude ranges: the global
	// threshold should wipe the small tensor and spare the large one.
	small := make([]float32, 4)
	large := make([]float32, 4)
	for i := range small {
		small[i] = 0.01 * float32(i+1)
		large[i] = 10 * float32(i+1)
	}
	ws, err := tensor.FromFloat32("w_small", tensor.Shape{2, 2}, small)
	require.NoError(t, err)
	wl, err := tensor.FromFloat32("w_large", tensor.Shape{2, 2}, large)
	require.NoError(t, err)
	store := tensor.NewStore()
	store.Put(ws)
	store.Put(wl)

	nodes := []*graph.Node{
		{ID: "a", OpType: "MatMul", Inputs: []string{"input", "w_small"}, Outputs: []string{"a"}},
		{ID: "b", OpType: "MatMul", Inputs: []string{"a", "w_large"}, Outputs: []string{"b"}},
	}
	m := graph.New(graph.Meta{IRVersion: 8}, nodes,
		[]graph.ValueInfo{{Name: "input"}},
		[]graph.ValueInfo{{Name: "b"}}, store)
	require.NoError(t, m.Validate())

	out, err := MagnitudePrune(0.5)(m)
	require.NoError(t, err)

	assert.Equal(t, 1.0, sparsity(t, out, "w_small"))
	assert.Equal(t, 0.0, sparsity(t, out, "w_large"))
}

func TestPruneSkipsNonPrunableOps(t *testing.T) {
	// The same weight wired into a non-prunable op only: nothing to do.
	w, err := tensor.FromFloat32("w", tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	store := tensor.NewStore()
	store.Put(w)

	nodes := []*graph.Node{
		{ID: "y", OpType: "Add", Inputs: []string{"input", "w"}, Outputs: []string{"y"}},
	}
	m := graph.New(graph.Meta{IRVersion: 8}, nodes,
		[]graph.ValueInfo{{Name: "input"}},
		[]graph.ValueInfo{{Name: "y"}}, store)
	require.NoError(t, m.Validate())

	_, err = MagnitudePrune(0.5)(m)
	assert.ErrorIs(t, err, ErrNoPrunableWeights)
}

func TestPruneSkipsVectorWeights(t *testing.T) {
	// A 1-D bias on a prunable op does not count as a weight.
	b, err := tensor.FromFloat32("bias", tensor.Shape{4}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	store := tensor.NewStore()
	store.Put(b)

	nodes := []*graph.Node{
		{ID: "y", OpType: "Gemm", Inputs: []string{"input", "bias"}, Outputs: []string{"y"}},
	}
	m := graph.New(graph.Meta{IRVersion: 8}, nodes,
		[]graph.ValueInfo{{Name: "input"}},
		[]graph.ValueInfo{{Name: "y"}}, store)
	require.NoError(t, m.Validate())

	_, err = MagnitudePrune(0.5)(m)
	assert.ErrorIs(t, err, ErrNoPrunableWeights)
}

func mustTensor(t *testing.T, m *graph.Model, name string) *tensor.Tensor {
	t.Helper()
	tt, ok := m.Store().Get(name)
	require.True(t, ok)
	return tt
}
