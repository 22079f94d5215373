package audio

import (
	"context"
	"os"

	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
)

// commandRunner executes an external tool and returns stdout and stderr.
// *ffmpeg.Executor satisfies it.
type commandRunner interface {
	Run(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)
}

// fileStatter retrieves file information.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// fileRemover deletes files.
type fileRemover interface {
	Remove(name string) error
}

var (
	_ commandRunner = (*ffmpeg.Executor)(nil)
	_ fileStatter   = osFileStatter{}
	_ fileRemover   = osFileRemover{}
)

type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

type osFileRemover struct{}

func (osFileRemover) Remove(name string) error {
	return os.Remove(name)
}
