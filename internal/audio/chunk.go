package audio

import (
	"fmt"
	"time"

	"github.com/alnah/go-chunkscribe/internal/format"
)

// Chunk is a requested time slice of the source media.
// Every chunk carries the full configured length; the extractor clips the
// last one to whatever media remains.
type Chunk struct {
	Index  int           // Zero-based processing order.
	Start  time.Duration // Offset into the source.
	Length time.Duration // Requested duration.
}

// End returns the requested end offset.
func (c Chunk) End() time.Duration {
	return c.Start + c.Length
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s-%s",
		c.Index,
		format.Duration(c.Start),
		format.Duration(c.End()))
}

// Count returns ceil(total / length), the number of chunks needed to cover
// total. It returns 0 for a non-positive total.
func Count(total, length time.Duration) int {
	if total <= 0 || length <= 0 {
		return 0
	}
	return int((total + length - 1) / length)
}

// Plan splits total into consecutive, non-overlapping chunks of length.
// The sum of requested lengths is >= total and < total+length.
func Plan(total, length time.Duration) ([]Chunk, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChunkLength, length)
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: non-positive duration %v", ErrProbeFailed, total)
	}

	n := Count(total, length)
	chunks := make([]Chunk, n)
	for i := range n {
		chunks[i] = Chunk{
			Index:  i,
			Start:  time.Duration(i) * length,
			Length: length,
		}
	}
	return chunks, nil
}
