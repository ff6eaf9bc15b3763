package ingestion

import "errors"

var (
	// ErrNoPassages is returned when the sources produce zero passages.
	ErrNoPassages = errors.New("no passages produced")

	// ErrNoSources is returned when a pipeline has no source paths.
	ErrNoSources = errors.New("no source documents configured")

	// ErrNoEncodings is returned when a loader has no encodings to try.
	ErrNoEncodings = errors.New("no encodings configured")

	// ErrUnknownEncoding is returned for an encoding name that cannot be resolved.
	ErrUnknownEncoding = errors.New("unknown encoding")

	// ErrNoHeadings is returned when a chunker has no heading markers.
	ErrNoHeadings = errors.New("no heading markers configured")
)
