package web

import (
	"path/filepath"
	"strings"

	"github.com/alnah/go-chunkscribe/internal/audio"
)

// acceptAttr returns the file input accept attribute.
func acceptAttr() string {
	parts := make([]string, len(audio.Extensions))
	for i, e := range audio.Extensions {
		parts[i] = "." + e
	}
	return strings.Join(parts, ",")
}

// TranscriptName returns the download name for an uploaded file:
// "interview.mp3" becomes "transcripcion_interview.txt".
func TranscriptName(upload string) string {
	base := filepath.Base(upload)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "audio"
	}
	return "transcripcion_" + stem + ".txt"
}

// safeName reduces a client-supplied filename to its final element.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
