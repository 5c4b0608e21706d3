package montecarlo

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// DefaultChunkSize caps the number of coordinate pairs held in memory at
// once. Sampling memory is bounded by the chunk size, not by the total.
const DefaultChunkSize = 100_000

// seedStream is the PCG stream selector paired with a caller seed.
const seedStream = 0x9e3779b97f4a7c15

// NewRand returns the random source owned by one estimation run.
//
// A non-zero seed gives a fully reproducible stream. Zero means unseeded:
// the source is seeded from the runtime's entropy and differs per call.
// A seeded source must not be shared between concurrent runs.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), seedStream))
}

// Batch holds parallel sequences of sampled coordinates and their
// classification. Xs, Ys and Inside always have the same length.
type Batch struct {
	Xs     []int  `json:"xs"`
	Ys     []int  `json:"ys"`
	Inside []bool `json:"inside"`
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int {
	return len(b.Xs)
}

// Append adds one sample.
func (b *Batch) Append(x, y int, inside bool) {
	b.Xs = append(b.Xs, x)
	b.Ys = append(b.Ys, y)
	b.Inside = append(b.Inside, inside)
}

func (b *Batch) resize(n int) {
	if cap(b.Xs) < n {
		b.Xs = make([]int, n)
		b.Ys = make([]int, n)
		b.Inside = make([]bool, n)
		return
	}
	b.Xs, b.Ys, b.Inside = b.Xs[:n], b.Ys[:n], b.Inside[:n]
}

// Progress is reported after every chunk.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
	Chunk int `json:"chunk"`
}

// Fraction returns Done / Total.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total)
}

// ProgressFunc receives progress at chunk boundaries. It runs on the
// sampling goroutine; a slow sink slows the run.
type ProgressFunc func(Progress)

// Sampler draws coordinates uniformly over [0,width) x [0,height) in
// chunks of at most chunkSize samples.
//
// Every chunk is an independent uniform draw from the same source, so the
// concatenation of chunks is distributed exactly like one draw of the full
// size. A Sampler reuses one buffer; a batch passed to a callback is only
// valid until the callback returns.
type Sampler struct {
	rng       *rand.Rand
	width     int
	height    int
	chunkSize int
	batch     Batch
}

// NewSampler creates a sampler over a width x height region. chunkSize 0
// selects DefaultChunkSize.
func NewSampler(width, height int, rng *rand.Rand, chunkSize int) (*Sampler, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: sampling region %dx%d", ErrInvalidArgument, width, height)
	}
	if chunkSize < 0 {
		return nil, fmt.Errorf("%w: chunk size %d is negative", ErrInvalidArgument, chunkSize)
	}
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if rng == nil {
		rng = NewRand(0)
	}
	return &Sampler{rng: rng, width: width, height: height, chunkSize: chunkSize}, nil
}

// ChunkSize returns the per-chunk sample cap.
func (s *Sampler) ChunkSize() int {
	return s.chunkSize
}

// Draw returns n fresh samples in the sampler's buffer. All x coordinates
// are drawn before the y coordinates. Inside is reset to false.
func (s *Sampler) Draw(n int) *Batch {
	s.batch.resize(n)
	for i := range s.batch.Xs {
		s.batch.Xs[i] = s.rng.IntN(s.width)
	}
	for i := range s.batch.Ys {
		s.batch.Ys[i] = s.rng.IntN(s.height)
	}
	clear(s.batch.Inside)
	return &s.batch
}

// Run draws total samples chunk by chunk and hands each chunk to fn.
//
// After each chunk the progress sink, if any, is told how many samples
// are done. The context is checked before every chunk; a canceled run
// returns ErrCanceled and fn is not called again.
func (s *Sampler) Run(ctx context.Context, total int, fn func(*Batch) error, progress ProgressFunc) error {
	if total <= 0 {
		return fmt.Errorf("%w: %d samples", ErrInvalidSampleBudget, total)
	}
	done := 0
	for done < total {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w after %d of %d samples: %w", ErrCanceled, done, total, err)
		}
		n := min(s.chunkSize, total-done)
		if err := fn(s.Draw(n)); err != nil {
			return err
		}
		done += n
		if progress != nil {
			progress(Progress{Done: done, Total: total, Chunk: n})
		}
	}
	return nil
}
