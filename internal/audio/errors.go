package audio

import "errors"

// ErrProbeFailed indicates the media duration could not be determined.
var ErrProbeFailed = errors.New("duration probe failed")

// ErrExtractFailed indicates ffmpeg did not produce a usable chunk artifact.
var ErrExtractFailed = errors.New("chunk extraction failed")

// ErrInvalidChunkLength indicates a non-positive chunk length.
var ErrInvalidChunkLength = errors.New("invalid chunk length")

// ErrFileNotFound indicates the source media does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrUnsupportedFormat indicates a source whose extension is not accepted.
var ErrUnsupportedFormat = errors.New("unsupported file format")
