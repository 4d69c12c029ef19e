package graph

import "errors"

// Structural error conditions surfaced by graph operations. Callers match
// with errors.Is; the returned errors wrap these with detail.
var (
	// ErrNodeNotFound is returned when a node id does not exist in the model.
	ErrNodeNotFound = errors.New("node not found")

	// ErrTensorNotFound is returned when a named tensor is not in the store.
	ErrTensorNotFound = errors.New("tensor not found")

	// ErrDanglingConsumer is returned when removing a node would leave a
	// consumer's input referencing the removed node's output.
	ErrDanglingConsumer = errors.New("removal would leave dangling consumers")

	// ErrShapeMismatch is returned when a tensor replacement conflicts with
	// shape expectations of downstream nodes.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrCycle is returned by Validate when the graph is not a DAG.
	ErrCycle = errors.New("graph contains a cycle")

	// ErrDanglingReference is returned by Validate when a node or graph
	// output references a name nothing produces.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrDuplicateName is returned by Validate when a node id or output
	// name is claimed twice.
	ErrDuplicateName = errors.New("duplicate name")
)
