// Package editor is the public surface of the Sculpt graph editing engine.
//
// It exposes the session-scoped edit service over an in-memory computation
// graph: upload a model, apply structural edits (prune, quantize, remove
// node) with transactional validation, undo them, and serialize the result
// back to bytes.
//
// # Example Usage
//
//	import (
//	    "os"
//
//	    "github.com/sculpt-ml/sculpt/editor"
//	)
//
//	svc := editor.New(editor.DefaultConfig(), nil)
//
//	data, _ := os.ReadFile("model.onnx")
//	up, err := svc.Upload(data, "model.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_, err = svc.ApplyEdit(up.SessionID, editor.Params{Kind: "prune", Ratio: 0.3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, _ := svc.Save(up.SessionID)
//	_ = os.WriteFile("pruned.onnx", out, 0o644)
package editor

import (
	"go.uber.org/zap"

	"github.com/sculpt-ml/sculpt/internal/config"
	"github.com/sculpt-ml/sculpt/internal/engine"
	"github.com/sculpt-ml/sculpt/internal/graph"
	"github.com/sculpt-ml/sculpt/internal/onnx"
	"github.com/sculpt-ml/sculpt/internal/service"
	"github.com/sculpt-ml/sculpt/internal/session"
	"github.com/sculpt-ml/sculpt/internal/transform"
)

// Service is the session-scoped editing service.
type Service = service.Service

// Config holds the service tunables.
type Config = config.Config

// Params carries the parameters of one edit request.
type Params = transform.Params

// Summary is the serializable graph projection handed to renderers.
type Summary = graph.Summary

// Stats reports the measured effect of a committed edit.
type Stats = engine.Stats

// New creates an editing service. A nil logger disables logging.
func New(cfg Config, log *zap.Logger) *Service {
	return service.New(cfg, log)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Errors surfaced by the service, re-exported for errors.Is matching.
var (
	ErrMalformed          = onnx.ErrMalformed
	ErrUnsupportedVersion = onnx.ErrUnsupportedVersion
	ErrUnknownSession     = session.ErrUnknownSession
	ErrEmptyHistory       = session.ErrEmptyHistory
	ErrInvalidGraph       = engine.ErrInvalidGraph
	ErrTransformFailed    = engine.ErrTransformFailed
	ErrInvalidParams      = transform.ErrInvalidParams
	ErrDanglingConsumer   = graph.ErrDanglingConsumer
	ErrShapeMismatch      = graph.ErrShapeMismatch
	ErrUploadTooLarge     = service.ErrUploadTooLarge
)
