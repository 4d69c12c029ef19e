package transform

import (
	"errors"
	"math"
	"sort"

	"github.com/sculpt-ml/sculpt/internal/engine"
	"github.com/sculpt-ml/sculpt/internal/graph"
	"github.com/sculpt-ml/sculpt/internal/tensor"
)

// ErrNoPrunableWeights is returned when the model has no float32 weight
// tensors feeding a prunable operator.
var ErrNoPrunableWeights = errors.New("no prunable weights found")

// prunableOps are the operator types whose weights take part in magnitude
// pruning.
var prunableOps = map[string]bool{
	"Conv":   true,
	"Gemm":   true,
	"MatMul": true,
}

// MagnitudePrune returns a transform implementing global unstructured
// magnitude pruning: collect every float32 weight (>= 2 dims) feeding a
// prunable operator, find the global magnitude threshold for the requested
// ratio, and zero all elements below it. Shapes and wiring are unchanged;
// this is a purely numeric edit expressed through ReplaceTensor so the old
// snapshots keep their own buffers.
func MagnitudePrune(ratio float64) engine.Transform {
	return func(m *graph.Model) (*graph.Model, error) {
		weights := prunableWeights(m)
		if len(weights) == 0 {
			return nil, ErrNoPrunableWeights
		}

		var all []float32
		values := make(map[string][]float32, len(weights))
		for _, name := range weights {
			t, _ := m.Store().Get(name)
			vs, err := t.Float32s()
			if err != nil {
				return nil, err
			}
			values[name] = vs
			for _, v := range vs {
				all = append(all, float32(math.Abs(float64(v))))
			}
		}

		// Global threshold: the k-th smallest magnitude.
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
		k := int(float64(len(all)) * ratio)
		if k >= len(all) {
			k = len(all) - 1
		}
		threshold := all[k]

		out := m
		for _, name := range weights {
			vs := values[name]
			masked := make([]float32, len(vs))
			for i, v := range vs {
				if float32(math.Abs(float64(v))) >= threshold {
					masked[i] = v
				}
			}
			t, _ := m.Store().Get(name)
			nt, err := tensor.FromFloat32(name, t.Shape(), masked)
			if err != nil {
				return nil, err
			}
			out, err = out.ReplaceTensor(name, nt)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	}
}

// prunableWeights returns the names of weight tensors eligible for
// pruning, deduplicated, in store order.
func prunableWeights(m *graph.Model) []string {
	eligible := make(map[string]bool)
	for _, n := range m.Nodes() {
		if !prunableOps[n.OpType] {
			continue
		}
		for _, in := range n.Inputs {
			t, ok := m.Store().Get(in)
			if !ok {
				continue
			}
			if t.DType() == tensor.Float32 && len(t.Shape()) >= 2 {
				eligible[in] = true
				break // one weight per node, matching the magnitude heuristic
			}
		}
	}
	var out []string
	for _, name := range m.Store().Names() {
		if eligible[name] {
			out = append(out, name)
		}
	}
	return out
}
