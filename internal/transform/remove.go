package transform

import (
	"github.com/sculpt-ml/sculpt/internal/engine"
	"github.com/sculpt-ml/sculpt/internal/graph"
)

// RemoveNode returns a transform that removes one node under the graph's
// bypass-or-reject policy. With bypass, a single-input/single-output node
// is cut out of the wire and its consumers relinked upstream; without it,
// only dead-end nodes can go.
func RemoveNode(id string, bypass bool) engine.Transform {
	return func(m *graph.Model) (*graph.Model, error) {
		return m.RemoveNode(id, bypass)
	}
}
