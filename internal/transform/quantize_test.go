package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sculpt-ml/sculpt/internal/graph"
	"github.com/sculpt-ml/sculpt/internal/tensor"
)

func TestQuantizeInt8(t *testing.T) {
	m := gemmModel(t)

	out, err := Quantize(ModeInt8)(m)
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	q := mustTensor(t, out, "w")
	assert.Equal(t, tensor.Int8, q.DType())
	assert.True(t, q.Shape().Equal(tensor.Shape{4, 4}))
	assert.Equal(t, 16, q.ByteSize())

	// Symmetric scale: max |w| = 1.6 maps to 127, w[0] = 0.1 to round(
	// 0.1 * 127 / 1.6) = 8.
	data := q.Data()
	assert.Equal(t, byte(127), data[15])
	assert.Equal(t, byte(8), data[0])

	// The source model still has the float weight.
	assert.Equal(t, tensor.Float32, mustTensor(t, m, "w").DType())
}

func TestQuantizeInt8ZeroTensor(t *testing.T) {
	w, err := tensor.FromFloat32("w", tensor.Shape{2, 2}, make([]float32, 4))
	require.NoError(t, err)
	store := tensor.NewStore()
	store.Put(w)
	nodes := []*graph.Node{
		{ID: "y", OpType: "Gemm", Inputs: []string{"input", "w"}, Outputs: []string{"y"}},
	}
	m := graph.New(graph.Meta{IRVersion: 8}, nodes,
		[]graph.ValueInfo{{Name: "input"}},
		[]graph.ValueInfo{{Name: "y"}}, store)
	require.NoError(t, m.Validate())

	// All-zero weight must not divide by zero.
	out, err := Quantize(ModeInt8)(m)
	require.NoError(t, err)
	for _, b := range mustTensor(t, out, "w").Data() {
		assert.Equal(t, byte(0), b)
	}
}

func TestQuantizeFloat16(t *testing.T) {
	m := gemmModel(t)

	out, err := Quantize(ModeFloat16)(m)
	require.NoError(t, err)

	h := mustTensor(t, out, "w")
	assert.Equal(t, tensor.Float16, h.DType())
	assert.Equal(t, 32, h.ByteSize()) // half of 64

	// Values survive within half precision.
	data := h.Data()
	for i := 0; i < 16; i++ {
		bits := uint16(data[i*2]) | uint16(data[i*2+1])<<8
		got := tensor.Float16From(bits)
		assert.InDelta(t, float64(i+1)*0.1, float64(got), 1e-3)
	}
}

func TestQuantizeSkipsNonFloatAndVectors(t *testing.T) {
	// An int64 shape tensor and a 1-D bias are left alone; with nothing
	// else, the transform reports no work.
	shapeT, err := tensor.New("shape", tensor.Shape{2}, tensor.Int64, make([]byte, 16))
	require.NoError(t, err)
	bias, err := tensor.FromFloat32("bias", tensor.Shape{4}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	store := tensor.NewStore()
	store.Put(shapeT)
	store.Put(bias)

	nodes := []*graph.Node{
		{ID: "y", OpType: "Reshape", Inputs: []string{"input", "shape"}, Outputs: []string{"y"}},
		{ID: "z", OpType: "Add", Inputs: []string{"y", "bias"}, Outputs: []string{"z"}},
	}
	m := graph.New(graph.Meta{IRVersion: 8}, nodes,
		[]graph.ValueInfo{{Name: "input"}},
		[]graph.ValueInfo{{Name: "z"}}, store)
	require.NoError(t, m.Validate())

	_, err = Quantize(ModeInt8)(m)
	assert.ErrorIs(t, err, ErrNoQuantizableWeights)
}

func TestQuantizeAlreadyQuantized(t *testing.T) {
	m := gemmModel(t)
	once, err := Quantize(ModeInt8)(m)
	require.NoError(t, err)

	// A second pass finds no float32 weights left.
	_, err = Quantize(ModeInt8)(once)
	assert.ErrorIs(t, err, ErrNoQuantizableWeights)
}
