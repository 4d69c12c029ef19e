package graph

import (
	"fmt"

	"github.com/sculpt-ml/sculpt/internal/tensor"
)

// RemoveNode returns a new model with the node removed. The receiver is
// never mutated.
//
// Removal is safe in exactly two situations:
//
//   - the node is a dead end: nothing consumes any of its outputs and no
//     graph output is bound to them;
//   - bypass is requested and the node is a pass-through candidate (exactly
//     one input, exactly one output), in which case every consumer of the
//     output, and any graph output bound to it, is relinked to the node's
//     input.
//
// Anything else is rejected with ErrDanglingConsumer. Multi-output nodes
// with live consumers are always rejected; the engine never guesses which
// output maps to which input.
func (m *Model) RemoveNode(id string, bypass bool) (*Model, error) {
	node, err := m.FindNode(id)
	if err != nil {
		return nil, err
	}

	var liveOutputs []string
	for _, out := range node.Outputs {
		if out == "" {
			continue
		}
		if len(m.consumersExcept(out, id)) > 0 || m.isGraphOutput(out) {
			liveOutputs = append(liveOutputs, out)
		}
	}

	if len(liveOutputs) == 0 {
		c := m.Clone()
		c.dropNode(id)
		c.sweepOrphans(node)
		return c, nil
	}

	if !bypass {
		return nil, fmt.Errorf("%w: node %q output(s) %v are still consumed (pass bypass to relink)",
			ErrDanglingConsumer, id, liveOutputs)
	}
	if len(node.Inputs) != 1 || len(node.Outputs) != 1 {
		return nil, fmt.Errorf("%w: node %q has %d input(s) and %d output(s); bypass requires exactly one of each",
			ErrDanglingConsumer, id, len(node.Inputs), len(node.Outputs))
	}

	upstream := node.Inputs[0]
	removed := node.Outputs[0]

	c := m.Clone()
	for _, n := range c.nodes {
		if n.ID == id {
			continue
		}
		for i, in := range n.Inputs {
			if in == removed {
				n.Inputs[i] = upstream
			}
		}
	}
	for i := range c.outputs {
		if c.outputs[i].Name == removed {
			c.outputs[i].Name = upstream
		}
	}
	c.dropNode(id)
	c.sweepOrphans(node)
	return c, nil
}

// ReplaceTensor returns a new model whose store holds newTensor under name,
// leaving topology untouched. Used by pruning and quantization to swap
// weight data (and possibly dtype or shape).
//
// If the shape changes, consumers are scanned for integer-array attributes
// equal to the old shape (a Reshape target baked into an attribute, a
// hard-coded kernel_shape). A hit fails with ErrShapeMismatch. This is
// best-effort attribute scanning, not shape inference.
func (m *Model) ReplaceTensor(name string, newTensor *tensor.Tensor) (*Model, error) {
	old, ok := m.store.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTensorNotFound, name)
	}
	if newTensor.Name() != name {
		newTensor = newTensor.WithName(name)
	}

	oldShape := old.Shape()
	if !oldShape.Equal(newTensor.Shape()) {
		for _, consumer := range m.ConsumersOf(name) {
			if attr := shapeBoundAttr(consumer, oldShape); attr != "" {
				return nil, fmt.Errorf("%w: node %q attribute %q is bound to the old shape %v",
					ErrShapeMismatch, consumer.ID, attr, oldShape)
			}
		}
	}

	c := m.Clone()
	c.store.Put(newTensor)
	return c, nil
}

// shapeBoundAttr returns the name of an integer-array attribute of n whose
// value equals shape, or "" if none does.
func shapeBoundAttr(n *Node, shape tensor.Shape) string {
	for i := range n.Attrs {
		a := &n.Attrs[i]
		if a.Kind != AttrInts || len(a.Ints) != len(shape) {
			continue
		}
		match := len(shape) > 0
		for j, d := range a.Ints {
			if int(d) != shape[j] {
				match = false
				break
			}
		}
		if match {
			return a.Name
		}
	}
	return ""
}

// consumersExcept returns consumers of tensorName, excluding the node with
// the given id.
func (m *Model) consumersExcept(tensorName, exceptID string) []*Node {
	var out []*Node
	for _, n := range m.ConsumersOf(tensorName) {
		if n.ID != exceptID {
			out = append(out, n)
		}
	}
	return out
}

// dropNode removes the node with the given id from the node list in place.
// Callers operate on a clone.
func (m *Model) dropNode(id string) {
	for i, n := range m.nodes {
		if n.ID == id {
			m.nodes = append(m.nodes[:i], m.nodes[i+1:]...)
			return
		}
	}
}

// sweepOrphans deletes initializers that were consumed only by the removed
// node, so weights do not outlive the operator that used them.
func (m *Model) sweepOrphans(removed *Node) {
	for _, in := range removed.Inputs {
		if in == "" || !m.store.Has(in) {
			continue
		}
		if m.isGraphInput(in) || m.isGraphOutput(in) {
			continue
		}
		if len(m.ConsumersOf(in)) == 0 {
			_ = m.store.Delete(in)
		}
	}
}
