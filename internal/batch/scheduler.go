// Package batch fans extraction inputs out to bounded concurrent workers
// while keeping the result vector fixed-length and input-ordered.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jonathan/resume-extractor/internal/schema"
)

// Outcome labels how one result position was produced.
type Outcome string

const (
	// OutcomeOK means the position holds a model-extracted record.
	OutcomeOK Outcome = "ok"
	// OutcomeExtractionFailed means the chunk covering the position failed or
	// timed out.
	OutcomeExtractionFailed Outcome = "extraction_failed"
	// OutcomeParseFailed means the service replied but yielded nothing usable
	// for the position.
	OutcomeParseFailed Outcome = "parse_failed"
)

// Result is one position of a batch run.
type Result struct {
	Index   int
	Record  schema.CandidateRecord
	Outcome Outcome
}

// BatchResult is the ordered, fixed-length outcome of one run. Its length
// always equals the input length and its ordering matches input ordering,
// regardless of worker completion order.
type BatchResult struct {
	RunID   uuid.UUID
	Results []Result
}

// Extracted counts positions that produced a usable record.
func (b *BatchResult) Extracted() int {
	count := 0
	for _, r := range b.Results {
		if r.Outcome == OutcomeOK {
			count++
		}
	}
	return count
}

// ChunkFunc processes one chunk of inputs in a single remote round trip. It
// returns one record and one outcome per input, in input order. A returned
// error marks every position of the chunk as failed.
type ChunkFunc func(ctx context.Context, texts []string) ([]schema.CandidateRecord, []Outcome, error)

// Options configure a Scheduler.
type Options struct {
	// BatchSize is the number of inputs grouped into one remote call.
	BatchSize int
	// MaxWorkers bounds the number of chunks in flight.
	MaxWorkers int
	// ChunkTimeout is the ceiling for one chunk's full round trip. A chunk
	// exceeding it is abandoned; sibling chunks are unaffected.
	ChunkTimeout time.Duration
	// RateLimitRPS smooths burst load across chunk starts. <=0 disables.
	RateLimitRPS float64
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 5
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = 4
	}
	if o.ChunkTimeout <= 0 {
		o.ChunkTimeout = 3 * time.Minute
	}
	return o
}

// Scheduler runs chunked extraction over a bounded worker pool.
type Scheduler struct {
	opts    Options
	limiter *rate.Limiter
	process ChunkFunc
}

// NewScheduler creates a scheduler driving the given chunk processor.
func NewScheduler(process ChunkFunc, opts Options) *Scheduler {
	opts = opts.withDefaults()
	s := &Scheduler{opts: opts, process: process}
	if opts.RateLimitRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}
	return s
}

// Run partitions inputs into contiguous chunks and processes them
// concurrently. The returned BatchResult always has exactly len(inputs)
// positions in input order; failure is represented as data, never as an
// error or panic.
func (s *Scheduler) Run(ctx context.Context, inputs []string) *BatchResult {
	result := &BatchResult{
		RunID:   uuid.New(),
		Results: make([]Result, len(inputs)),
	}
	if len(inputs) == 0 {
		return result
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxWorkers)

	for start := 0; start < len(inputs); start += s.opts.BatchSize {
		start := start
		end := start + s.opts.BatchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		g.Go(func() error {
			records, outcomes := s.runChunk(gctx, inputs[start:end])
			// Disjoint index ranges, so no lock is needed.
			for i := range records {
				result.Results[start+i] = Result{
					Index:   start + i,
					Record:  records[i],
					Outcome: outcomes[i],
				}
			}
			// Chunk failures stay isolated; never abort the group.
			return nil
		})
	}

	_ = g.Wait()
	return result
}

// runChunk executes one chunk under its timeout ceiling and normalizes the
// processor's answer to exactly len(texts) positions.
func (s *Scheduler) runChunk(ctx context.Context, texts []string) ([]schema.CandidateRecord, []Outcome) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return failedChunk(len(texts))
		}
	}

	chunkCtx, cancel := context.WithTimeout(ctx, s.opts.ChunkTimeout)
	defer cancel()

	records, outcomes, err := s.process(chunkCtx, texts)
	if err != nil || chunkCtx.Err() != nil {
		return failedChunk(len(texts))
	}

	// Defensive sizing: a processor returning the wrong arity must not skew
	// positions for the rest of the batch.
	fixedRecords := make([]schema.CandidateRecord, len(texts))
	fixedOutcomes := make([]Outcome, len(texts))
	for i := range texts {
		if i < len(records) {
			fixedRecords[i] = records[i]
		}
		if i < len(outcomes) {
			fixedOutcomes[i] = outcomes[i]
		} else {
			fixedOutcomes[i] = OutcomeParseFailed
		}
	}
	return fixedRecords, fixedOutcomes
}

func failedChunk(size int) ([]schema.CandidateRecord, []Outcome) {
	records := make([]schema.CandidateRecord, size)
	outcomes := make([]Outcome, size)
	for i := range outcomes {
		outcomes[i] = OutcomeExtractionFailed
	}
	return records, outcomes
}
