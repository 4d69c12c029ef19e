package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/sculpt-ml/sculpt/internal/engine"
	"github.com/sculpt-ml/sculpt/internal/graph"
	"github.com/sculpt-ml/sculpt/internal/tensor"
)

// Quantization modes.
const (
	ModeInt8    = "int8"
	ModeFloat16 = "float16"
)

// ErrNoQuantizableWeights is returned when the model has no float32 weight
// tensors to quantize.
var ErrNoQuantizableWeights = errors.New("no quantizable weights found")

// Quantize returns a transform that converts every float32 weight tensor
// (>= 2 dims) to the target representation.
//
// int8 is symmetric per-tensor quantization: scale = max|w| / 127, elements
// rounded and clamped to [-127, 127]. The scale is not stored back into the
// graph; consumers that need dequantization recover it from the tensor's
// own maximum.
//
// float16 halves storage with round-to-nearest-even conversion.
func Quantize(mode string) engine.Transform {
	return func(m *graph.Model) (*graph.Model, error) {
		out := m
		converted := 0
		for _, name := range m.Store().Names() {
			t, _ := m.Store().Get(name)
			if t.DType() != tensor.Float32 || len(t.Shape()) < 2 {
				continue
			}
			vs, err := t.Float32s()
			if err != nil {
				return nil, err
			}

			var nt *tensor.Tensor
			switch mode {
			case ModeInt8:
				nt, err = quantizeInt8(name, t.Shape(), vs)
			case ModeFloat16:
				nt, err = tensor.FromFloat16(name, t.Shape(), vs)
			default:
				return nil, fmt.Errorf("unknown quantization mode %q", mode)
			}
			if err != nil {
				return nil, err
			}

			out, err = out.ReplaceTensor(name, nt)
			if err != nil {
				return nil, err
			}
			converted++
		}
		if converted == 0 {
			return nil, ErrNoQuantizableWeights
		}
		return out, nil
	}
}

// quantizeInt8 performs symmetric per-tensor int8 quantization.
func quantizeInt8(name string, shape tensor.Shape, vs []float32) (*tensor.Tensor, error) {
	var maxAbs float64
	for _, v := range vs {
		if a := math.Abs(float64(v)); a > maxAbs {
			maxAbs = a
		}
	}
	scale := maxAbs / 127
	if scale == 0 {
		scale = 1
	}

	q := make([]int8, len(vs))
	for i, v := range vs {
		r := math.Round(float64(v) / scale)
		if r > 127 {
			r = 127
		} else if r < -127 {
			r = -127
		}
		q[i] = int8(r)
	}
	return tensor.FromInt8(name, shape, q)
}
