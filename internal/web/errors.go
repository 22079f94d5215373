package web

import "errors"

// ErrMissingFile indicates a run request without an uploaded file.
var ErrMissingFile = errors.New("no file uploaded")

// ErrRunNotFound indicates an unknown or evicted run identifier.
var ErrRunNotFound = errors.New("run not found")

// ErrNotFinished indicates a transcript requested before the run completed.
var ErrNotFinished = errors.New("transcription not finished")
