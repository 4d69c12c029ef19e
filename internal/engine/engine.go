// Package engine applies named edit operations to a session's graph with
// transactional commit semantics: a transform either produces a validated
// candidate that becomes the current graph, or the session is left exactly
// as it was.
package engine

import (
	"errors"
	"fmt"

	"github.com/sculpt-ml/sculpt/internal/graph"
	"github.com/sculpt-ml/sculpt/internal/session"
	"github.com/sculpt-ml/sculpt/internal/tensor"
)

var (
	// ErrInvalidGraph is returned when a transform's candidate fails
	// validation. The wrapped detail names the structural problem.
	ErrInvalidGraph = errors.New("transform produced an invalid graph")

	// ErrTransformFailed is returned when the transform itself errors or
	// panics. The underlying cause is attached.
	ErrTransformFailed = errors.New("transform failed")
)

// Transform computes a candidate model from the current one. It must be a
// pure function of its input: build new nodes and tensors, never mutate
// the model it was given.
type Transform func(*graph.Model) (*graph.Model, error)

// Stats reports the effect of a committed edit, measured from the old and
// new tensor stores rather than trusted from the transform. Sparsity is the
// fraction of zero elements across float32 tensors; it is what makes a
// pruning edit visible, since zeroing changes neither counts nor bytes.
type Stats struct {
	ParamsBefore   int64   `json:"paramsBefore"`
	ParamsAfter    int64   `json:"paramsAfter"`
	BytesBefore    int64   `json:"bytesBefore"`
	BytesAfter     int64   `json:"bytesAfter"`
	NodesBefore    int     `json:"nodesBefore"`
	NodesAfter     int     `json:"nodesAfter"`
	SparsityBefore float64 `json:"sparsityBefore"`
	SparsityAfter  float64 `json:"sparsityAfter"`
}

// Result is a committed edit: the new current model and its stats.
type Result struct {
	Model *graph.Model
	Stats Stats
}

// Apply runs one edit operation against the session under its lock.
//
// Sequence: snapshot the current model, run the transform, validate the
// candidate, push the old model onto the undo stack, install the candidate.
// Any failure before the final step leaves the session's current model and
// history depth untouched; a caller never observes a partially applied
// edit. The lock is released on every exit path.
func Apply(s *session.Session, description string, fn Transform) (*Result, error) {
	s.Lock()
	defer s.Unlock()

	old := s.Model()
	candidate, err := runTransform(fn, old)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, fmt.Errorf("%w: transform returned no model", ErrTransformFailed)
	}
	if err := candidate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}

	stats := Stats{
		ParamsBefore:   old.Store().ParamCount(),
		ParamsAfter:    candidate.Store().ParamCount(),
		BytesBefore:    old.Store().TotalBytes(),
		BytesAfter:     candidate.Store().TotalBytes(),
		NodesBefore:    old.NodeCount(),
		NodesAfter:     candidate.NodeCount(),
		SparsityBefore: sparsity(old.Store()),
		SparsityAfter:  sparsity(candidate.Store()),
	}

	s.History().Push(old, description)
	s.SetModel(candidate)
	return &Result{Model: candidate, Stats: stats}, nil
}

// sparsity measures the fraction of zero elements across float32 tensors.
func sparsity(st *tensor.Store) float64 {
	var total, zeros int
	for _, name := range st.Names() {
		t, _ := st.Get(name)
		vs, err := t.Float32s()
		if err != nil {
			continue
		}
		total += len(vs)
		for _, v := range vs {
			if v == 0 {
				zeros++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(zeros) / float64(total)
}

// runTransform invokes the transform, converting errors and panics into
// ErrTransformFailed with the cause attached.
func runTransform(fn Transform, m *graph.Model) (out *graph.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: panic: %v", ErrTransformFailed, r)
		}
	}()
	out, err = fn(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransformFailed, err)
	}
	return out, nil
}
