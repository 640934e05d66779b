package pipeline

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-extractor/internal/batch"
	"github.com/jonathan/resume-extractor/internal/schema"
)

func TestJSONSink_Write(t *testing.T) {
	report := &Report{
		RunID: uuid.New(),
		Results: []DocumentResult{
			{
				Filename: "jane.txt",
				Record:   schema.CandidateRecord{FirstName: "Jane", LastName: "Doe"},
				Outcome:  batch.OutcomeOK,
			},
			{
				Filename: "broken.txt",
				Record:   schema.Empty(),
				Outcome:  batch.OutcomeExtractionFailed,
			},
		},
	}

	var buf bytes.Buffer
	sink := &JSONSink{Out: &buf}
	require.NoError(t, sink.Write(report))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, report.RunID, decoded.RunID)
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, "Jane", decoded.Results[0].Record.FirstName)
	assert.Equal(t, batch.OutcomeExtractionFailed, decoded.Results[1].Outcome)

	// Empty fields still serialize; every record carries the full shape.
	assert.Contains(t, buf.String(), `"previous_org": ""`)
}
