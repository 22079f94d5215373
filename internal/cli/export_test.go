package cli

// Export internal functions for testing.

// RunTranscribe exports runTranscribe for testing.
var RunTranscribe = runTranscribe

// RunServe exports runServe for testing.
var RunServe = runServe

// RunConfigPath exports runConfigPath for testing.
var RunConfigPath = runConfigPath

// RunConfigShow exports runConfigShow for testing.
var RunConfigShow = runConfigShow

// RunConfig exports runConfig for testing.
var RunConfig = runConfig

// WriteFileAtomic exports writeFileAtomic for testing.
var WriteFileAtomic = writeFileAtomic

// NewProgressReporter exports newProgressReporter for testing.
var NewProgressReporter = newProgressReporter
