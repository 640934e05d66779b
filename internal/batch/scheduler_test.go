package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-extractor/internal/schema"
)

// echoChunk fills each record's FirstName with its input text.
func echoChunk(_ context.Context, texts []string) ([]schema.CandidateRecord, []Outcome, error) {
	records := make([]schema.CandidateRecord, len(texts))
	outcomes := make([]Outcome, len(texts))
	for i, text := range texts {
		records[i] = schema.CandidateRecord{FirstName: text}
		outcomes[i] = OutcomeOK
	}
	return records, outcomes, nil
}

func inputs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("resume-%d", i)
	}
	return out
}

func TestRun_PreservesInputOrder(t *testing.T) {
	s := NewScheduler(echoChunk, Options{BatchSize: 3, MaxWorkers: 4})

	result := s.Run(context.Background(), inputs(10))

	require.Len(t, result.Results, 10)
	for i, res := range result.Results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, fmt.Sprintf("resume-%d", i), res.Record.FirstName)
		assert.Equal(t, OutcomeOK, res.Outcome)
	}
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", result.RunID.String())
}

func TestRun_EmptyInput(t *testing.T) {
	s := NewScheduler(echoChunk, Options{})

	result := s.Run(context.Background(), nil)

	assert.Empty(t, result.Results)
	assert.Equal(t, 0, result.Extracted())
}

func TestRun_ChunkFailureIsolated(t *testing.T) {
	// The middle chunk fails; its positions are marked, siblings unaffected.
	failing := func(ctx context.Context, texts []string) ([]schema.CandidateRecord, []Outcome, error) {
		for _, text := range texts {
			if text == "resume-3" {
				return nil, nil, errors.New("remote unavailable")
			}
		}
		return echoChunk(ctx, texts)
	}

	s := NewScheduler(failing, Options{BatchSize: 3, MaxWorkers: 2})
	result := s.Run(context.Background(), inputs(9))

	require.Len(t, result.Results, 9)
	for i, res := range result.Results {
		if i >= 3 && i < 6 {
			assert.Equal(t, OutcomeExtractionFailed, res.Outcome, "position %d", i)
			assert.True(t, res.Record.IsEmpty())
		} else {
			assert.Equal(t, OutcomeOK, res.Outcome, "position %d", i)
		}
	}
	assert.Equal(t, 6, result.Extracted())
}

func TestRun_ChunkTimeoutIsolated(t *testing.T) {
	slow := func(ctx context.Context, texts []string) ([]schema.CandidateRecord, []Outcome, error) {
		for _, text := range texts {
			if text == "resume-0" {
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return nil, nil, ctx.Err()
				}
			}
		}
		return echoChunk(ctx, texts)
	}

	s := NewScheduler(slow, Options{BatchSize: 2, MaxWorkers: 2, ChunkTimeout: 50 * time.Millisecond})
	result := s.Run(context.Background(), inputs(4))

	assert.Equal(t, OutcomeExtractionFailed, result.Results[0].Outcome)
	assert.Equal(t, OutcomeExtractionFailed, result.Results[1].Outcome)
	assert.Equal(t, OutcomeOK, result.Results[2].Outcome)
	assert.Equal(t, OutcomeOK, result.Results[3].Outcome)
}

func TestRun_WorkerBoundRespected(t *testing.T) {
	var inFlight, peak atomic.Int32

	counting := func(ctx context.Context, texts []string) ([]schema.CandidateRecord, []Outcome, error) {
		current := inFlight.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return echoChunk(ctx, texts)
	}

	s := NewScheduler(counting, Options{BatchSize: 1, MaxWorkers: 2})
	s.Run(context.Background(), inputs(8))

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_WrongArityRepaired(t *testing.T) {
	short := func(_ context.Context, texts []string) ([]schema.CandidateRecord, []Outcome, error) {
		// One record for a three-input chunk.
		return []schema.CandidateRecord{{FirstName: "only"}}, []Outcome{OutcomeOK}, nil
	}

	s := NewScheduler(short, Options{BatchSize: 3, MaxWorkers: 1})
	result := s.Run(context.Background(), inputs(3))

	require.Len(t, result.Results, 3)
	assert.Equal(t, "only", result.Results[0].Record.FirstName)
	assert.Equal(t, OutcomeOK, result.Results[0].Outcome)
	assert.Equal(t, OutcomeParseFailed, result.Results[1].Outcome)
	assert.Equal(t, OutcomeParseFailed, result.Results[2].Outcome)
}

func TestRun_PartialFinalChunk(t *testing.T) {
	var sizes []int
	sizing := func(ctx context.Context, texts []string) ([]schema.CandidateRecord, []Outcome, error) {
		sizes = append(sizes, len(texts))
		return echoChunk(ctx, texts)
	}

	s := NewScheduler(sizing, Options{BatchSize: 4, MaxWorkers: 1})
	result := s.Run(context.Background(), inputs(10))

	require.Len(t, result.Results, 10)
	assert.Equal(t, []int{4, 4, 2}, sizes)
}

func TestRun_RateLimiterDoesNotDropWork(t *testing.T) {
	s := NewScheduler(echoChunk, Options{BatchSize: 1, MaxWorkers: 4, RateLimitRPS: 1000})

	result := s.Run(context.Background(), inputs(5))

	require.Len(t, result.Results, 5)
	assert.Equal(t, 5, result.Extracted())
}

func TestExtracted(t *testing.T) {
	b := &BatchResult{Results: []Result{
		{Outcome: OutcomeOK},
		{Outcome: OutcomeParseFailed},
		{Outcome: OutcomeExtractionFailed},
		{Outcome: OutcomeOK},
	}}
	assert.Equal(t, 2, b.Extracted())
}
