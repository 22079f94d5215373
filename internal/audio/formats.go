package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Extensions lists the accepted source extensions, without the dot.
var Extensions = []string{"mp3", "wav", "m4a", "mp4", "mov", "avi", "ogg", "flac", "webm", "mkv"}

// CheckFormat returns ErrUnsupportedFormat unless name ends with an
// accepted extension. The comparison ignores case.
func CheckFormat(name string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, e := range Extensions {
		if e == ext {
			return nil
		}
	}
	return fmt.Errorf("%w %q (supported: %s)", ErrUnsupportedFormat, filepath.Ext(name), strings.Join(Extensions, ", "))
}
