package transcribe

import "errors"

// ErrUnsupportedSize indicates a model size outside tiny/base/small/medium/large.
var ErrUnsupportedSize = errors.New("unsupported model size")

// ErrModelLoad indicates an engine could not be prepared for a model size.
var ErrModelLoad = errors.New("model load failed")

// ErrTranscribeFailed indicates the engine could not transcribe an artifact.
var ErrTranscribeFailed = errors.New("transcription failed")

// ErrAPIKeyMissing indicates OPENAI_API_KEY is not set while targeting api.openai.com.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrUnknownBackend indicates an engine backend other than openai or whisper.
var ErrUnknownBackend = errors.New("unknown engine backend")

// ErrClosed indicates the model cache was used after Close.
var ErrClosed = errors.New("model cache closed")
