package graph

import (
	"fmt"

	"github.com/sculpt-ml/sculpt/internal/tensor"
)

// Node is one operator in the computation graph. The id is unique within
// the model and stable across edits for as long as the node exists. OpType
// is an open string tag (the ONNX operator vocabulary is open); semantics
// for known operators live with the callers, not here.
type Node struct {
	ID      string
	Name    string // original node name from the file, may be empty
	OpType  string
	Domain  string
	Inputs  []string // ordered input names; "" marks an omitted optional input
	Outputs []string // ordered output names
	Attrs   []Attr
}

// Attr returns the attribute with the given name, or false if absent.
func (n *Node) Attr(name string) (*Attr, bool) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			return &n.Attrs[i], true
		}
	}
	return nil, false
}

// clone copies the node. Input/output slices are copied because edits relink
// them; attributes are shared (immutable by convention).
func (n *Node) clone() *Node {
	c := &Node{
		ID:      n.ID,
		Name:    n.Name,
		OpType:  n.OpType,
		Domain:  n.Domain,
		Inputs:  make([]string, len(n.Inputs)),
		Outputs: make([]string, len(n.Outputs)),
		Attrs:   n.Attrs,
	}
	copy(c.Inputs, n.Inputs)
	copy(c.Outputs, n.Outputs)
	return c
}

// Dim is one dimension of a value's shape: a concrete size, or a symbolic
// parameter name for dynamic dimensions (e.g. "batch_size").
type Dim struct {
	Value int64
	Param string
}

// ValueInfo describes a graph-level input or output.
type ValueInfo struct {
	Name string
	Elem tensor.DataType
	Dims []Dim
}

// Meta carries the model-level fields needed to re-serialize a graph the
// way it arrived.
type Meta struct {
	IRVersion       int64
	OpsetVersion    int64
	ProducerName    string
	ProducerVersion string
	Domain          string
	GraphName       string
	DocString       string
}

// Model is the canonical in-memory representation of one computation
// graph: operator nodes, graph-level inputs/outputs, and the owning tensor
// store. Edges are not stored; they are derived from name matching on
// demand so there is no bookkeeping to drift.
//
// Models are copy-on-write at node-list granularity: every edit returns a
// new Model and leaves the receiver untouched, which is what makes history
// snapshots safe to keep while the current graph moves on.
type Model struct {
	meta    Meta
	nodes   []*Node
	inputs  []ValueInfo
	outputs []ValueInfo
	store   *tensor.Store
}

// New assembles a model. The node slice is taken over by the model.
func New(meta Meta, nodes []*Node, inputs, outputs []ValueInfo, store *tensor.Store) *Model {
	if store == nil {
		store = tensor.NewStore()
	}
	return &Model{meta: meta, nodes: nodes, inputs: inputs, outputs: outputs, store: store}
}

// Meta returns the model-level metadata.
func (m *Model) Meta() Meta { return m.meta }

// Nodes returns the nodes in file order. The slice is a copy; the nodes are
// shared and must not be mutated.
func (m *Model) Nodes() []*Node {
	out := make([]*Node, len(m.nodes))
	copy(out, m.nodes)
	return out
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int { return len(m.nodes) }

// Inputs returns the graph-level inputs (initializers excluded).
func (m *Model) Inputs() []ValueInfo {
	out := make([]ValueInfo, len(m.inputs))
	copy(out, m.inputs)
	return out
}

// Outputs returns the graph-level outputs.
func (m *Model) Outputs() []ValueInfo {
	out := make([]ValueInfo, len(m.outputs))
	copy(out, m.outputs)
	return out
}

// Store returns the owning tensor store. Callers must treat published
// tensors as immutable; a transform that wants different bytes builds a new
// tensor and goes through ReplaceTensor.
func (m *Model) Store() *tensor.Store { return m.store }

// FindNode returns the node with the given id.
func (m *Model) FindNode(id string) (*Node, error) {
	for _, n := range m.nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
}

// Clone returns a deep copy of the model's topology. Tensors are shared
// through a cloned store (they are immutable).
func (m *Model) Clone() *Model {
	nodes := make([]*Node, len(m.nodes))
	for i, n := range m.nodes {
		nodes[i] = n.clone()
	}
	inputs := make([]ValueInfo, len(m.inputs))
	copy(inputs, m.inputs)
	outputs := make([]ValueInfo, len(m.outputs))
	copy(outputs, m.outputs)
	return &Model{
		meta:    m.meta,
		nodes:   nodes,
		inputs:  inputs,
		outputs: outputs,
		store:   m.store.Clone(),
	}
}

// isGraphInput reports whether name is a graph-level input.
func (m *Model) isGraphInput(name string) bool {
	for _, in := range m.inputs {
		if in.Name == name {
			return true
		}
	}
	return false
}

// isGraphOutput reports whether name is a graph-level output.
func (m *Model) isGraphOutput(name string) bool {
	for _, out := range m.outputs {
		if out.Name == name {
			return true
		}
	}
	return false
}
