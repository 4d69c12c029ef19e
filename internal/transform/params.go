// Package transform provides the edit operations shipped with the editor
// (magnitude pruning, weight quantization, node removal) expressed as pure
// engine.Transform functions. The engine itself knows nothing about any of
// them; new strategies plug in the same way.
package transform

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/sculpt-ml/sculpt/internal/engine"
)

// ErrInvalidParams is returned when edit parameters fail validation.
var ErrInvalidParams = errors.New("invalid edit parameters")

// Edit operation kinds.
const (
	KindPrune      = "prune"
	KindQuantize   = "quantize"
	KindRemoveNode = "remove-node"
)

// Params carries the parameters of one edit request.
type Params struct {
	Kind   string  `json:"kind" validate:"required,oneof=prune quantize remove-node"`
	Ratio  float64 `json:"ratio,omitempty" validate:"gte=0,lt=1"`
	Mode   string  `json:"mode,omitempty" validate:"omitempty,oneof=int8 float16"`
	NodeID string  `json:"nodeId,omitempty"`
	Bypass bool    `json:"bypass,omitempty"`
}

var validate = validator.New()

// Build validates the parameters and maps them to a transform plus a
// human-readable description for the undo history.
func Build(p Params) (engine.Transform, string, error) {
	if err := validate.Struct(p); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	switch p.Kind {
	case KindPrune:
		if p.Ratio <= 0 {
			return nil, "", fmt.Errorf("%w: prune requires a ratio in (0, 1)", ErrInvalidParams)
		}
		return MagnitudePrune(p.Ratio), fmt.Sprintf("prune %.0f%% by magnitude", p.Ratio*100), nil
	case KindQuantize:
		mode := p.Mode
		if mode == "" {
			mode = ModeInt8
		}
		return Quantize(mode), fmt.Sprintf("quantize weights to %s", mode), nil
	case KindRemoveNode:
		if p.NodeID == "" {
			return nil, "", fmt.Errorf("%w: remove-node requires a node id", ErrInvalidParams)
		}
		return RemoveNode(p.NodeID, p.Bypass), fmt.Sprintf("remove node %s", p.NodeID), nil
	default:
		return nil, "", fmt.Errorf("%w: unknown kind %q", ErrInvalidParams, p.Kind)
	}
}
