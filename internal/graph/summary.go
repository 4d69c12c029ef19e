package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Summary is the serializable projection of a model handed to rendering
// layers. It carries node and edge lists, per-node statistics, and a coarse
// stage grouping for overview rendering. Raw tensor bytes never appear here.
type Summary struct {
	Nodes      []NodeSummary  `json:"nodes"`
	Edges      []EdgeSummary  `json:"edges"`
	Stages     []StageSummary `json:"stages"`
	Inputs     []string       `json:"inputs"`
	Outputs    []string       `json:"outputs"`
	NodeCount  int            `json:"nodeCount"`
	ParamCount int64          `json:"paramCount"`
	TotalBytes int64          `json:"totalBytes"`
}

// NodeSummary describes one node for display.
type NodeSummary struct {
	ID          string         `json:"id"`
	OpType      string         `json:"opType"`
	Inputs      []string       `json:"inputs"`
	Outputs     []string       `json:"outputs"`
	Attrs       map[string]any `json:"attrs,omitempty"`
	Params      int64          `json:"params"`
	WeightShape []int          `json:"weightShape,omitempty"`
	Stage       string         `json:"stage,omitempty"`
}

// EdgeSummary is one derived node-to-node edge.
type EdgeSummary struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Tensor string `json:"tensor"`
}

// StageSummary groups consecutive nodes into a labelled block for overview
// rendering of deep models.
type StageSummary struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Children []string `json:"children"`
}

// stageSize is how many consecutive nodes form one overview block.
const stageSize = 10

// Summarize builds the display projection of the model.
func (m *Model) Summarize() *Summary {
	s := &Summary{
		NodeCount:  len(m.nodes),
		ParamCount: m.store.ParamCount(),
		TotalBytes: m.store.TotalBytes(),
	}
	for _, in := range m.inputs {
		s.Inputs = append(s.Inputs, in.Name)
	}
	for _, out := range m.outputs {
		s.Outputs = append(s.Outputs, out.Name)
	}

	producers := m.outputIndex()
	stageCats := make(map[int]map[string]bool)

	for i, n := range m.nodes {
		ns := NodeSummary{
			ID:      n.ID,
			OpType:  n.OpType,
			Inputs:  append([]string(nil), n.Inputs...),
			Outputs: append([]string(nil), n.Outputs...),
		}
		if len(n.Attrs) > 0 {
			ns.Attrs = make(map[string]any, len(n.Attrs))
			for j := range n.Attrs {
				ns.Attrs[n.Attrs[j].Name] = n.Attrs[j].Value()
			}
		}
		for _, in := range n.Inputs {
			t, ok := m.store.Get(in)
			if !ok {
				continue
			}
			ns.Params += int64(t.NumElements())
			if ns.WeightShape == nil && len(t.Shape()) >= 2 {
				ns.WeightShape = t.Shape()
			}
		}

		stage := i / stageSize
		ns.Stage = fmt.Sprintf("stage_%d", stage)
		if stageCats[stage] == nil {
			stageCats[stage] = make(map[string]bool)
		}
		stageCats[stage][opCategory(n.OpType)] = true

		s.Nodes = append(s.Nodes, ns)

		// Edges: one per (producer output -> this node input) match.
		for _, in := range n.Inputs {
			if p, ok := producers[in]; ok && p.ID != n.ID {
				s.Edges = append(s.Edges, EdgeSummary{Source: p.ID, Target: n.ID, Tensor: in})
			}
		}
	}

	s.Stages = buildStages(s.Nodes, stageCats)
	return s
}

// buildStages labels each block either with its dominant categories or,
// when the block is too mixed, just its size.
func buildStages(nodes []NodeSummary, cats map[int]map[string]bool) []StageSummary {
	var stages []StageSummary
	for i, n := range nodes {
		stage := i / stageSize
		if stage >= len(stages) {
			stages = append(stages, StageSummary{ID: fmt.Sprintf("stage_%d", stage)})
		}
		stages[stage].Children = append(stages[stage].Children, n.ID)
	}
	for i := range stages {
		names := make([]string, 0, len(cats[i]))
		for c := range cats[i] {
			names = append(names, c)
		}
		sort.Strings(names)
		if len(names) > 3 {
			stages[i].Label = fmt.Sprintf("Block %d (%d layers)", i+1, len(stages[i].Children))
		} else {
			stages[i].Label = fmt.Sprintf("Block %d: %s", i+1, strings.Join(names, ", "))
		}
	}
	return stages
}

// opCategory maps an operator type to a coarse display category.
func opCategory(opType string) string {
	switch {
	case strings.Contains(opType, "Conv"):
		return "Convolution"
	case strings.Contains(opType, "Relu"), strings.Contains(opType, "Activation"):
		return "Activation"
	case strings.Contains(opType, "Pool"):
		return "Pooling"
	case strings.Contains(opType, "Norm"):
		return "Normalization"
	case strings.Contains(opType, "Gemm"), strings.Contains(opType, "MatMul"), strings.Contains(opType, "Dense"):
		return "Linear"
	default:
		return "Other"
	}
}
