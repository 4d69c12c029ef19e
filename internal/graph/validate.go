package graph

import "fmt"

// Validate runs the full consistency check: unique node ids, unique
// producers, no dangling references, acyclicity. Every candidate model must
// pass Validate before it is committed as a session's current graph.
func (m *Model) Validate() error {
	ids := make(map[string]bool, len(m.nodes))
	produced := make(map[string]string) // tensor name -> producing node id
	for _, n := range m.nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node with empty id", ErrDuplicateName)
		}
		if ids[n.ID] {
			return fmt.Errorf("%w: node id %q", ErrDuplicateName, n.ID)
		}
		ids[n.ID] = true
		for _, out := range n.Outputs {
			if out == "" {
				continue
			}
			if prev, ok := produced[out]; ok {
				return fmt.Errorf("%w: %q produced by both %q and %q", ErrDuplicateName, out, prev, n.ID)
			}
			if m.store.Has(out) {
				return fmt.Errorf("%w: node %q produces initializer %q", ErrDuplicateName, n.ID, out)
			}
			if m.isGraphInput(out) {
				return fmt.Errorf("%w: node %q produces graph input %q", ErrDuplicateName, n.ID, out)
			}
			produced[out] = n.ID
		}
	}

	for _, n := range m.nodes {
		for _, in := range n.Inputs {
			if in == "" { // omitted optional input
				continue
			}
			if !m.resolvable(in, produced) {
				return fmt.Errorf("%w: input %q of node %q", ErrDanglingReference, in, n.ID)
			}
		}
	}
	for _, out := range m.outputs {
		if !m.resolvable(out.Name, produced) {
			return fmt.Errorf("%w: graph output %q", ErrDanglingReference, out.Name)
		}
	}

	return m.checkAcyclic(produced)
}

// resolvable reports whether a name is a graph input, an initializer, or a
// node output.
func (m *Model) resolvable(name string, produced map[string]string) bool {
	if _, ok := produced[name]; ok {
		return true
	}
	return m.store.Has(name) || m.isGraphInput(name)
}

// checkAcyclic runs Kahn's algorithm over node-to-node dependencies. If the
// queue drains before every node is scheduled, the remainder is cyclic.
func (m *Model) checkAcyclic(produced map[string]string) error {
	indegree := make(map[string]int, len(m.nodes))
	dependents := make(map[string][]string)
	for _, n := range m.nodes {
		indegree[n.ID] += 0
		for _, in := range n.Inputs {
			producer, ok := produced[in]
			if !ok {
				continue
			}
			indegree[n.ID]++
			dependents[producer] = append(dependents[producer], n.ID)
		}
	}

	queue := make([]string, 0, len(m.nodes))
	for _, n := range m.nodes {
		if indegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	scheduled := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		scheduled++
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if scheduled != len(m.nodes) {
		var stuck []string
		for id, d := range indegree {
			if d > 0 {
				stuck = append(stuck, id)
			}
		}
		return fmt.Errorf("%w: involving node(s) %v", ErrCycle, stuck)
	}
	return nil
}
