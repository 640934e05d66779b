// Package pipeline provides the high-level extraction façade: raw resume
// text in, validated candidate records out.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-extractor/internal/batch"
	"github.com/jonathan/resume-extractor/internal/extract"
	"github.com/jonathan/resume-extractor/internal/llm"
	"github.com/jonathan/resume-extractor/internal/schema"
)

// Document is one input to the pipeline: opaque UTF-8 resume text plus the
// filename it came from.
type Document struct {
	Filename string
	Text     string
}

// DocumentResult pairs a finished record with its source document and the
// outcome tag describing how it was produced.
type DocumentResult struct {
	Filename string                 `json:"filename"`
	Record   schema.CandidateRecord `json:"record"`
	Outcome  batch.Outcome          `json:"outcome"`
}

// Report is the ordered result of one pipeline run. Its length always equals
// the number of input documents.
type Report struct {
	RunID   uuid.UUID        `json:"run_id"`
	Results []DocumentResult `json:"results"`
}

// Extracted counts documents that produced a usable record.
func (r *Report) Extracted() int {
	count := 0
	for _, res := range r.Results {
		if res.Outcome == batch.OutcomeOK {
			count++
		}
	}
	return count
}

// ProgressEvent reports pipeline progress to an optional callback.
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ProgressCallback is invoked as chunks complete. May be nil.
type ProgressCallback func(event ProgressEvent)

// Options holds the explicit configuration for a pipeline instance. There is
// no ambient state: everything a run needs is passed in here.
type Options struct {
	MaxAttempts  int
	BatchSize    int
	MaxWorkers   int
	ChunkTimeout time.Duration
	RateLimitRPS float64
	Fallback     extract.FallbackOptions
	Backoff      llm.BackoffPolicy
	OnProgress   ProgressCallback
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Fallback.MinPhoneDigits <= 0 {
		o.Fallback = extract.DefaultFallbackOptions()
	}
	return o
}

// Pipeline composes the orchestrator, normalizer, fallback extractor and
// batch scheduler into the single public extraction operation.
type Pipeline struct {
	orchestrator *llm.Orchestrator
	opts         Options
}

// New creates a pipeline driving the given completion client.
func New(client llm.Client, opts Options) *Pipeline {
	opts = opts.withDefaults()
	orchestrator := llm.NewOrchestrator(client)
	if opts.Backoff != nil {
		orchestrator = orchestrator.WithBackoff(opts.Backoff)
	}
	return &Pipeline{
		orchestrator: orchestrator,
		opts:         opts,
	}
}

// Calls returns the diagnostic count of completion attempts issued so far.
func (p *Pipeline) Calls() int64 {
	return p.orchestrator.Calls()
}

// Extract processes a single document. Failure is represented in the outcome
// tag; the returned record is always complete and schema-conformant.
func (p *Pipeline) Extract(ctx context.Context, doc Document) DocumentResult {
	records, outcomes, err := p.processChunk(ctx, []string{doc.Text})
	if err != nil {
		return DocumentResult{
			Filename: doc.Filename,
			Record:   schema.Empty(),
			Outcome:  batch.OutcomeExtractionFailed,
		}
	}
	return DocumentResult{
		Filename: doc.Filename,
		Record:   records[0],
		Outcome:  outcomes[0],
	}
}

// ExtractBatch processes many documents concurrently. The report is always
// complete: one result per input document, in input order, with per-chunk
// failures isolated to the positions they cover.
func (p *Pipeline) ExtractBatch(ctx context.Context, docs []Document) *Report {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	scheduler := batch.NewScheduler(p.processChunk, batch.Options{
		BatchSize:    p.opts.BatchSize,
		MaxWorkers:   p.opts.MaxWorkers,
		ChunkTimeout: p.opts.ChunkTimeout,
		RateLimitRPS: p.opts.RateLimitRPS,
	})

	batchResult := scheduler.Run(ctx, texts)

	report := &Report{
		RunID:   batchResult.RunID,
		Results: make([]DocumentResult, len(docs)),
	}
	for i, res := range batchResult.Results {
		report.Results[i] = DocumentResult{
			Filename: docs[i].Filename,
			Record:   res.Record,
			Outcome:  res.Outcome,
		}
	}
	return report
}

// processChunk drives one remote round trip: prompt, orchestrated call,
// normalization, then per-position fallback enrichment.
func (p *Pipeline) processChunk(ctx context.Context, texts []string) ([]schema.CandidateRecord, []batch.Outcome, error) {
	prompt := extract.BuildBatchPrompt(texts)

	reply, err := p.orchestrator.Execute(ctx, prompt, p.opts.MaxAttempts)
	if err != nil {
		p.emitProgress("orchestrate", fmt.Sprintf("chunk of %d failed: %v", len(texts), err))
		return nil, nil, err
	}

	normalized := extract.Normalize(reply, len(texts))

	records := make([]schema.CandidateRecord, len(texts))
	outcomes := make([]batch.Outcome, len(texts))
	for i := range texts {
		fromModel := normalized[i]
		records[i] = extract.EnrichWithOptions(fromModel, texts[i], p.opts.Fallback)

		// A position counts as parsed when either the model or the fallback
		// produced something for it.
		if fromModel.IsEmpty() && records[i].IsEmpty() {
			outcomes[i] = batch.OutcomeParseFailed
		} else {
			outcomes[i] = batch.OutcomeOK
		}
	}

	p.emitProgress("extract", fmt.Sprintf("chunk of %d extracted", len(texts)))
	return records, outcomes, nil
}

func (p *Pipeline) emitProgress(stage, message string) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(ProgressEvent{Stage: stage, Message: message})
	}
}
