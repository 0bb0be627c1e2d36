package model

// ChunkState is a Chunk's place in its retry lifecycle.
type ChunkState int

const (
	ChunkReady ChunkState = iota
	ChunkInFlight
	ChunkCompleted
	ChunkFailed
)

// Chunk is a half-open byte range [Start, End) within one Task, plus its
// retry bookkeeping. Chunks of a Task partition [0, total) exactly, are
// non-overlapping, and are contiguous when sorted (spec.md section 3).
type Chunk struct {
	Start       int64
	End         int64
	State       ChunkState
	RetriesLeft int
}

// Len returns the byte length of the chunk.
func (c Chunk) Len() int64 {
	return c.End - c.Start
}

// PlanChunks splits [0, total) into chunks of chunkSize bytes, the last one
// possibly shorter (spec.md section 4.3). total and chunkSize must both be
// positive; callers needing the single-stream fallback should not call this
// and instead run one worker over the whole range.
func PlanChunks(total, chunkSize int64, maxRetries int) []Chunk {
	if total <= 0 || chunkSize <= 0 {
		return nil
	}
	n := (total + chunkSize - 1) / chunkSize
	chunks := make([]Chunk, 0, n)
	for offset := int64(0); offset < total; offset += chunkSize {
		end := offset + chunkSize
		if end > total {
			end = total
		}
		chunks = append(chunks, Chunk{Start: offset, End: end, State: ChunkReady, RetriesLeft: maxRetries})
	}
	return chunks
}
