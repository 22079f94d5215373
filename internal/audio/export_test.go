package audio

// Exports for black-box tests. Compiled only during tests.

// ParseSeconds exports parseSeconds for testing.
var ParseSeconds = parseSeconds

// ParseBannerDuration exports parseBannerDuration for testing.
var ParseBannerDuration = parseBannerDuration

// FormatFFmpegTime exports formatFFmpegTime for testing.
var FormatFFmpegTime = formatFFmpegTime

// ExtractArgs exports extractArgs for testing.
var ExtractArgs = extractArgs

// CommandRunner exports commandRunner for testing.
type CommandRunner = commandRunner

// FileStatter exports fileStatter for testing.
type FileStatter = fileStatter

// FileRemover exports fileRemover for testing.
type FileRemover = fileRemover
