package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-extractor/internal/batch"
	"github.com/jonathan/resume-extractor/internal/llm"
	"github.com/jonathan/resume-extractor/internal/schema"
)

// fakeClient answers via a user-supplied function. Safe for concurrent use
// as long as respond is.
type fakeClient struct {
	respond func(prompt string) (string, error)
}

func (c *fakeClient) Complete(_ context.Context, prompt string) (string, error) {
	return c.respond(prompt)
}

func (c *fakeClient) Model() string { return "fake" }
func (c *fakeClient) Close() error  { return nil }

func noBackoff(llm.FailureKind, int) time.Duration { return 0 }

const janeResume = `Jane Doe
jane@acme.com
0412 345 678

Operations Manager at Acme Corp, 2019 - Present`

func TestExtract_HappyPath(t *testing.T) {
	client := &fakeClient{respond: func(string) (string, error) {
		return `[{"first_name":"Jane","last_name":"Doe","email":"jane@acme.com","current_title":"Operations Manager"}]`, nil
	}}

	p := New(client, Options{Backoff: noBackoff})
	result := p.Extract(context.Background(), Document{Filename: "jane.txt", Text: janeResume})

	assert.Equal(t, "jane.txt", result.Filename)
	assert.Equal(t, batch.OutcomeOK, result.Outcome)
	assert.Equal(t, "Jane", result.Record.FirstName)
	assert.Equal(t, "Operations Manager", result.Record.CurrentTitle)
	// Phone was missing from the model output; the fallback recovered it.
	assert.Equal(t, "0412 345 678", result.Record.Phone)
	assert.NoError(t, schema.Validate(result.Record))
}

func TestExtract_ProseReplyRecoveredByFallback(t *testing.T) {
	client := &fakeClient{respond: func(string) (string, error) {
		return "I'm sorry, I cannot produce structured data for this input.", nil
	}}

	p := New(client, Options{Backoff: noBackoff})
	result := p.Extract(context.Background(), Document{Filename: "jane.txt", Text: janeResume})

	// The model gave nothing, but the document has recoverable contact data.
	assert.Equal(t, batch.OutcomeOK, result.Outcome)
	assert.Equal(t, "jane@acme.com", result.Record.Email)
	assert.Equal(t, "Jane", result.Record.FirstName)
}

func TestExtract_NothingRecoverable(t *testing.T) {
	client := &fakeClient{respond: func(string) (string, error) {
		return "no structured data here", nil
	}}

	p := New(client, Options{Backoff: noBackoff})
	result := p.Extract(context.Background(), Document{Filename: "junk.txt", Text: "lorem ipsum dolor sit amet"})

	assert.Equal(t, batch.OutcomeParseFailed, result.Outcome)
	assert.True(t, result.Record.IsEmpty())
}

func TestExtract_RemoteFailure(t *testing.T) {
	client := &fakeClient{respond: func(string) (string, error) {
		return "", &llm.APIError{StatusCode: 500, Body: "boom"}
	}}

	p := New(client, Options{MaxAttempts: 2, Backoff: noBackoff})
	result := p.Extract(context.Background(), Document{Filename: "jane.txt", Text: janeResume})

	assert.Equal(t, batch.OutcomeExtractionFailed, result.Outcome)
	assert.True(t, result.Record.IsEmpty())
	assert.Equal(t, int64(2), p.Calls())
}

func TestExtractBatch_OrderAndCompleteness(t *testing.T) {
	client := &fakeClient{respond: func(prompt string) (string, error) {
		// One record per numbered resume in the prompt.
		count := strings.Count(prompt, "Resume ")
		items := make([]string, count)
		for i := range items {
			items[i] = `{"first_name":"Person"}`
		}
		return "[" + strings.Join(items, ",") + "]", nil
	}}

	docs := []Document{
		{Filename: "a.txt", Text: "text a"},
		{Filename: "b.txt", Text: "text b"},
		{Filename: "c.txt", Text: "text c"},
		{Filename: "d.txt", Text: "text d"},
		{Filename: "e.txt", Text: "text e"},
	}

	p := New(client, Options{BatchSize: 2, MaxWorkers: 3, Backoff: noBackoff})
	report := p.ExtractBatch(context.Background(), docs)

	require.Len(t, report.Results, len(docs))
	for i, res := range report.Results {
		assert.Equal(t, docs[i].Filename, res.Filename)
		assert.Equal(t, batch.OutcomeOK, res.Outcome)
	}
	assert.Equal(t, len(docs), report.Extracted())
}

func TestExtractBatch_FailedChunkDoesNotPoisonSiblings(t *testing.T) {
	client := &fakeClient{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "POISON") {
			return "", errors.New("connection reset")
		}
		return `[{"first_name":"Fine"}]`, nil
	}}

	docs := []Document{
		{Filename: "a.txt", Text: "good text"},
		{Filename: "b.txt", Text: "POISON text"},
		{Filename: "c.txt", Text: "good text"},
	}

	p := New(client, Options{BatchSize: 1, MaxWorkers: 2, MaxAttempts: 2, Backoff: noBackoff})
	report := p.ExtractBatch(context.Background(), docs)

	require.Len(t, report.Results, 3)
	assert.Equal(t, batch.OutcomeOK, report.Results[0].Outcome)
	assert.Equal(t, batch.OutcomeExtractionFailed, report.Results[1].Outcome)
	assert.Equal(t, batch.OutcomeOK, report.Results[2].Outcome)
	assert.Equal(t, 2, report.Extracted())
}

func TestExtractBatch_EmptyInput(t *testing.T) {
	client := &fakeClient{respond: func(string) (string, error) {
		t.Fatal("no completion call expected for an empty batch")
		return "", nil
	}}

	p := New(client, Options{Backoff: noBackoff})
	report := p.ExtractBatch(context.Background(), nil)

	assert.Empty(t, report.Results)
	assert.Equal(t, int64(0), p.Calls())
}

func TestProgressCallback(t *testing.T) {
	client := &fakeClient{respond: func(string) (string, error) {
		return `[{"first_name":"Jane"}]`, nil
	}}

	var mu sync.Mutex
	var events []ProgressEvent
	p := New(client, Options{
		Backoff: noBackoff,
		OnProgress: func(event ProgressEvent) {
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
		},
	})

	p.Extract(context.Background(), Document{Filename: "jane.txt", Text: janeResume})

	require.NotEmpty(t, events)
	assert.Equal(t, "extract", events[len(events)-1].Stage)
}

func TestRetry_MalformedThenRecovered(t *testing.T) {
	calls := 0
	client := &fakeClient{respond: func(string) (string, error) {
		calls++
		if calls == 1 {
			return "", nil // empty body, retried as malformed
		}
		return `[{"first_name":"Jane"}]`, nil
	}}

	p := New(client, Options{MaxAttempts: 3, Backoff: noBackoff})
	result := p.Extract(context.Background(), Document{Filename: "jane.txt", Text: janeResume})

	assert.Equal(t, batch.OutcomeOK, result.Outcome)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), p.Calls())
}
