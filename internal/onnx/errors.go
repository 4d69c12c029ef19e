package onnx

import "errors"

var (
	// ErrMalformed is returned when the input bytes are not a parseable
	// model file.
	ErrMalformed = errors.New("malformed model file")

	// ErrUnsupportedVersion is returned when the file's IR version is
	// outside the supported range.
	ErrUnsupportedVersion = errors.New("unsupported IR version")
)
