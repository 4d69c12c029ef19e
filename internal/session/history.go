// Package session provides the per-upload editing session: the undo history
// and the registry that owns all live sessions.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/sculpt-ml/sculpt/internal/graph"
	"github.com/sculpt-ml/sculpt/internal/onnx"
)

// ErrEmptyHistory is returned by Pop when there is nothing to undo.
var ErrEmptyHistory = errors.New("history is empty")

// DefaultMaxDepth bounds the undo stack when no depth is configured.
const DefaultMaxDepth = 20

// Entry is one history snapshot. The model is stored serialized and
// zstd-compressed: snapshots cannot alias live graph state, and a deep
// model costs a fraction of its in-memory size while parked on the stack.
type Entry struct {
	payload     []byte
	Description string
	At          time.Time
}

// History is the linear undo stack of one session: append-only pushes,
// FIFO eviction beyond the depth bound, no redo. A new edit after an undo
// simply starts a fresh forward path.
type History struct {
	entries  []Entry
	maxDepth int
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

// NewHistory creates a history bounded to maxDepth entries; zero or
// negative means DefaultMaxDepth.
func NewHistory(maxDepth int) *History {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	// Errors only occur for invalid options.
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	dec, _ := zstd.NewReader(nil)
	return &History{maxDepth: maxDepth, enc: enc, dec: dec}
}

// Push appends a snapshot of the model. When the stack is full the oldest
// entry is evicted.
func (h *History) Push(m *graph.Model, description string) {
	raw := onnx.EncodeModel(m)
	h.entries = append(h.entries, Entry{
		payload:     h.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4)),
		Description: description,
		At:          time.Now(),
	})
	if len(h.entries) > h.maxDepth {
		h.entries = h.entries[1:]
	}
}

// Pop removes and returns the most recent snapshot.
func (h *History) Pop() (*graph.Model, string, error) {
	if len(h.entries) == 0 {
		return nil, "", ErrEmptyHistory
	}
	e := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]

	raw, err := h.dec.DecodeAll(e.payload, nil)
	if err != nil {
		return nil, "", fmt.Errorf("corrupt history snapshot: %w", err)
	}
	m, err := onnx.ParseModel(raw)
	if err != nil {
		return nil, "", fmt.Errorf("corrupt history snapshot: %w", err)
	}
	return m, e.Description, nil
}

// Len returns the current stack depth.
func (h *History) Len() int { return len(h.entries) }

// Descriptions returns the edit descriptions oldest-first.
func (h *History) Descriptions() []string {
	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Description
	}
	return out
}

// Clear drops all entries.
func (h *History) Clear() {
	h.entries = nil
}
