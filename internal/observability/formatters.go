// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-extractor/internal/batch"
	"github.com/jonathan/resume-extractor/internal/pipeline"
	"github.com/jonathan/resume-extractor/internal/schema"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxFailuresToShow is the number of failed documents listed in a summary
	maxFailuresToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRecord outputs a human-readable summary of one extracted record.
func (p *Printer) PrintRecord(filename string, record schema.CandidateRecord) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Name:       %s\n", joinNonEmpty(record.FirstName, record.LastName)))
	sb.WriteString(fmt.Sprintf("Email:      %s\n", orDash(record.Email)))
	sb.WriteString(fmt.Sprintf("Phone:      %s\n", orDash(record.Phone)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Current:    %s\n", joinRole(record.CurrentTitle, record.CurrentOrg)))
	sb.WriteString(fmt.Sprintf("Previous:   %s", joinRole(record.PreviousTitle, record.PreviousOrg)))

	p.printBox(fmt.Sprintf("RECORD: %s", filename), sb.String())
}

// PrintReport lists the per-document outcome of a run.
func (p *Printer) PrintReport(report *pipeline.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	for _, res := range report.Results {
		marker := "ok"
		if res.Outcome != batch.OutcomeOK {
			marker = "XX"
		}
		sb.WriteString(fmt.Sprintf("%s %-30s %s\n", marker, res.Filename, res.Outcome))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Run ID: %s", report.RunID))

	p.printBox("EXTRACTION RESULTS", sb.String())
}

// PrintBatchSummary outputs the closing summary line plus a short list of
// failed documents when there are any.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintBatchSummary(report *pipeline.Report, calls int64) {
	if report == nil {
		return
	}

	extracted := report.Extracted()
	total := len(report.Results)
	fmt.Fprintf(p.out, "\n%d of %d resumes extracted (%d completion calls)\n", extracted, total, calls)

	if extracted == total {
		return
	}

	shown := 0
	for _, res := range report.Results {
		if res.Outcome == batch.OutcomeOK {
			continue
		}
		if shown == maxFailuresToShow {
			fmt.Fprintf(p.out, "  ... and %d more\n", total-extracted-maxFailuresToShow)
			break
		}
		fmt.Fprintf(p.out, "  %s: %s\n", res.Filename, res.Outcome)
		shown++
	}
}

// Progress is a pipeline callback that prints stage messages as they arrive.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Progress(event pipeline.ProgressEvent) {
	fmt.Fprintf(p.out, "[%s] %s\n", event.Stage, event.Message)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "-"
	}
	return strings.Join(kept, " ")
}

func joinRole(title, org string) string {
	switch {
	case title != "" && org != "":
		return fmt.Sprintf("%s, %s", title, org)
	case title != "":
		return title
	case org != "":
		return org
	default:
		return "-"
	}
}
