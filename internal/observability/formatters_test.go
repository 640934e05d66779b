package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-extractor/internal/batch"
	"github.com/jonathan/resume-extractor/internal/pipeline"
	"github.com/jonathan/resume-extractor/internal/schema"
)

func TestPrintRecord(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRecord("jane.txt", schema.CandidateRecord{
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@acme.com",
		CurrentTitle: "Senior Engineer",
		CurrentOrg:   "Acme Corp",
	})
	output := buf.String()

	assert.Contains(t, output, "RECORD: jane.txt")
	assert.Contains(t, output, "Jane Doe")
	assert.Contains(t, output, "jane@acme.com")
	assert.Contains(t, output, "Senior Engineer, Acme Corp")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	report := &pipeline.Report{
		Results: []pipeline.DocumentResult{
			{Filename: "a.txt", Outcome: batch.OutcomeOK},
			{Filename: "b.txt", Outcome: batch.OutcomeExtractionFailed},
		},
	}

	p.PrintReport(report)
	output := buf.String()

	assert.Contains(t, output, "EXTRACTION RESULTS")
	assert.Contains(t, output, "a.txt")
	assert.Contains(t, output, "extraction_failed")
}

func TestPrintReport_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintReport(nil)

	assert.Empty(t, buf.String())
}

func TestPrintBatchSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	report := &pipeline.Report{
		Results: []pipeline.DocumentResult{
			{Filename: "a.txt", Outcome: batch.OutcomeOK},
			{Filename: "b.txt", Outcome: batch.OutcomeParseFailed},
			{Filename: "c.txt", Outcome: batch.OutcomeOK},
		},
	}

	p.PrintBatchSummary(report, 4)
	output := buf.String()

	assert.Contains(t, output, "2 of 3 resumes extracted")
	assert.Contains(t, output, "4 completion calls")
	assert.Contains(t, output, "b.txt: parse_failed")
}

func TestPrintBatchSummary_AllExtracted(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	report := &pipeline.Report{
		Results: []pipeline.DocumentResult{
			{Filename: "a.txt", Outcome: batch.OutcomeOK},
		},
	}

	p.PrintBatchSummary(report, 1)

	assert.Contains(t, buf.String(), "1 of 1 resumes extracted")
	assert.NotContains(t, buf.String(), "a.txt:")
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Progress(pipeline.ProgressEvent{Stage: "extract", Message: "chunk of 5 extracted"})

	assert.Equal(t, "[extract] chunk of 5 extracted\n", buf.String())
}
