// Package transcribe turns chunk artifacts into text with a pre-trained
// speech-to-text model.
//
// Two backends implement Engine: an OpenAI-compatible HTTP API (the hosted
// service or a self-hosted faster-whisper server) and the local whisper CLI.
// Engines are obtained through Models, which loads each size once.
package transcribe

import (
	"context"
	"time"
)

// Options configures one transcription call.
type Options struct {
	// Language is an ISO 639-1 hint. Empty means detect automatically.
	Language string
}

// Result is the outcome of transcribing one artifact.
type Result struct {
	Text string

	// Language is the language the engine used, detected or forced.
	// Empty when the backend does not report it.
	Language string

	// Duration is the audio length the engine processed, when reported.
	Duration time.Duration
}

// Engine transcribes audio files with a loaded model.
// Implementations must be safe for concurrent use by independent runs.
type Engine interface {
	// Transcribe converts the audio file at path to text.
	Transcribe(ctx context.Context, path string, opts Options) (Result, error)

	// Close releases resources held by the engine.
	Close() error
}

// Loader prepares an Engine for a model size.
type Loader func(ctx context.Context, size Size) (Engine, error)
