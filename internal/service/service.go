// Package service is the transport-agnostic operation surface of the
// editor: upload, graph retrieval, edits, undo, save, destroy. A shell
// (HTTP, IPC, CLI) maps its requests onto these calls; nothing in here
// knows about any transport.
package service

import (
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"lukechampine.com/blake3"

	"github.com/sculpt-ml/sculpt/internal/config"
	"github.com/sculpt-ml/sculpt/internal/engine"
	"github.com/sculpt-ml/sculpt/internal/graph"
	"github.com/sculpt-ml/sculpt/internal/onnx"
	"github.com/sculpt-ml/sculpt/internal/session"
	"github.com/sculpt-ml/sculpt/internal/transform"
)

// ErrUploadTooLarge is returned when an upload exceeds the configured size
// limit.
var ErrUploadTooLarge = errors.New("upload exceeds size limit")

// Service owns the session registry and applies the editing operations.
// Safe for concurrent use; operations on one session are serialized by the
// session's own lock.
type Service struct {
	registry       *session.Registry
	log            *zap.Logger
	maxUploadBytes int64
}

// New creates a service from configuration. A nil logger disables logging;
// non-positive limits fall back to the defaults, so a zero-value Config is
// usable.
func New(cfg config.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	def := config.Default()
	if cfg.MaxHistoryDepth < 1 {
		cfg.MaxHistoryDepth = def.MaxHistoryDepth
	}
	if cfg.MaxUploadMB < 1 {
		cfg.MaxUploadMB = def.MaxUploadMB
	}
	return &Service{
		registry:       session.NewRegistry(cfg.MaxHistoryDepth),
		log:            log,
		maxUploadBytes: int64(cfg.MaxUploadMB) << 20,
	}
}

// UploadResult is returned on a successful upload.
type UploadResult struct {
	SessionID string         `json:"sessionId"`
	Filename  string         `json:"filename"`
	Digest    string         `json:"digest"`
	Summary   *graph.Summary `json:"summary"`
}

// EditResult is returned on a successful edit.
type EditResult struct {
	Summary *graph.Summary `json:"summary"`
	Stats   engine.Stats   `json:"stats"`
}

// Upload parses model bytes, validates the graph, and opens a new session
// around it.
func (s *Service) Upload(data []byte, filename string) (*UploadResult, error) {
	if int64(len(data)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrUploadTooLarge, len(data), s.maxUploadBytes)
	}
	m, err := onnx.ParseModel(data)
	if err != nil {
		s.log.Warn("upload rejected", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}
	if err := m.Validate(); err != nil {
		s.log.Warn("upload rejected: inconsistent graph", zap.String("filename", filename), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", onnx.ErrMalformed, err)
	}

	sum := blake3.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	sess := s.registry.Create(m, filename, digest)

	s.log.Info("model uploaded",
		zap.String("sessionId", sess.ID),
		zap.String("filename", filename),
		zap.String("digest", digest[:12]),
		zap.Int("nodes", m.NodeCount()),
		zap.Int64("params", m.Store().ParamCount()),
	)
	return &UploadResult{
		SessionID: sess.ID,
		Filename:  filename,
		Digest:    digest,
		Summary:   m.Summarize(),
	}, nil
}

// Graph returns the display projection of the session's current graph.
func (s *Service) Graph(sessionID string) (*graph.Summary, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return currentModel(sess).Summarize(), nil
}

// ApplyEdit validates the parameters, builds the matching transform, and
// applies it transactionally: on any failure the session's graph and
// history are untouched.
func (s *Service) ApplyEdit(sessionID string, p transform.Params) (*EditResult, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	fn, description, err := transform.Build(p)
	if err != nil {
		return nil, err
	}

	res, err := engine.Apply(sess, description, fn)
	if err != nil {
		s.log.Warn("edit rejected",
			zap.String("sessionId", sessionID),
			zap.String("kind", p.Kind),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("edit committed",
		zap.String("sessionId", sessionID),
		zap.String("kind", p.Kind),
		zap.String("description", description),
		zap.Int("nodes", res.Stats.NodesAfter),
		zap.Int64("bytes", res.Stats.BytesAfter),
	)
	return &EditResult{Summary: res.Model.Summarize(), Stats: res.Stats}, nil
}

// Undo pops the most recent history snapshot and installs it as the
// session's current graph.
func (s *Service) Undo(sessionID string) (*graph.Summary, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	m, description, err := sess.History().Pop()
	if err != nil {
		return nil, err
	}
	sess.SetModel(m)

	s.log.Info("edit undone",
		zap.String("sessionId", sessionID),
		zap.String("description", description),
	)
	return m.Summarize(), nil
}

// Save serializes the session's current graph to model file bytes.
func (s *Service) Save(sessionID string) ([]byte, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	data := onnx.EncodeModel(currentModel(sess))
	s.log.Info("model saved",
		zap.String("sessionId", sessionID),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

// Destroy removes the session and its history.
func (s *Service) Destroy(sessionID string) error {
	if err := s.registry.Destroy(sessionID); err != nil {
		return err
	}
	s.log.Info("session destroyed", zap.String("sessionId", sessionID))
	return nil
}

// Sessions returns the number of live sessions.
func (s *Service) Sessions() int { return s.registry.Len() }

// currentModel reads the session's current model under the session lock.
// The model itself is immutable, so it is safe to use after release.
func currentModel(sess *session.Session) *graph.Model {
	sess.Lock()
	defer sess.Unlock()
	return sess.Model()
}
