package graph

// Topology queries. Edges are implicit: an edge exists where one node's
// output name appears in another node's input list. Everything here is
// recomputed from the node list on demand.

// ProducerOf returns the node producing tensorName, or nil if the name is a
// graph input or an initializer (nothing produces it).
func (m *Model) ProducerOf(tensorName string) *Node {
	for _, n := range m.nodes {
		for _, out := range n.Outputs {
			if out == tensorName {
				return n
			}
		}
	}
	return nil
}

// ConsumersOf returns every node that lists tensorName as an input, in file
// order.
func (m *Model) ConsumersOf(tensorName string) []*Node {
	var out []*Node
	for _, n := range m.nodes {
		for _, in := range n.Inputs {
			if in == tensorName {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// Reachable reports whether toID is downstream of fromID, following
// output-to-input name matches. A node is not considered reachable from
// itself unless the graph has a cycle back to it.
func (m *Model) Reachable(fromID, toID string) bool {
	from, err := m.FindNode(fromID)
	if err != nil {
		return false
	}
	consumers := make(map[string][]*Node)
	for _, n := range m.nodes {
		for _, in := range n.Inputs {
			consumers[in] = append(consumers[in], n)
		}
	}

	seen := make(map[string]bool)
	queue := []*Node{from}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, out := range n.Outputs {
			for _, c := range consumers[out] {
				if c.ID == toID {
					return true
				}
				if !seen[c.ID] {
					seen[c.ID] = true
					queue = append(queue, c)
				}
			}
		}
	}
	return false
}

// outputIndex maps each produced tensor name to its producing node.
func (m *Model) outputIndex() map[string]*Node {
	idx := make(map[string]*Node)
	for _, n := range m.nodes {
		for _, out := range n.Outputs {
			if out != "" {
				idx[out] = n
			}
		}
	}
	return idx
}
