package pipeline

import (
	"encoding/json"
	"io"
)

// RecordSink receives a finished report for rendering or export. The pipeline
// makes no assumption about how a sink stores or displays records.
type RecordSink interface {
	Write(report *Report) error
}

// JSONSink writes the report as indented JSON to a writer.
type JSONSink struct {
	Out io.Writer
}

// Write encodes the report. Records are flat string maps, so the output is
// stable and diff-friendly.
func (s *JSONSink) Write(report *Report) error {
	enc := json.NewEncoder(s.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
