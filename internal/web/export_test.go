package web

// Exported for testing.
var (
	SafeName = safeName
)
