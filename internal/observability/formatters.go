// Package observability provides formatted output utilities for the CLI
// commands.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/celia-console/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxLogLines is the default number of log lines shown in a summary
	maxLogLines = 12
)

// Printer handles formatted output for the jobs and tail commands
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

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintJobList outputs a one-line-per-job summary, newest first.
func (p *Printer) PrintJobList(jobs []types.Job) {
	if len(jobs) == 0 {
		p.printBox("JOBS", "No jobs.")
		return
	}

	var sb strings.Builder
	for _, job := range jobs {
		mode := "remote"
		if job.IsSimulation {
			mode = "sim"
		}
		task := job.Task
		if len(task) > 34 {
			task = task[:31] + "..."
		}
		sb.WriteString(fmt.Sprintf("%-14s %-9s %-6s %s\n", job.ID, job.Status, mode, task))
	}

	p.printBox(fmt.Sprintf("JOBS (%d)", len(jobs)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJobDetail outputs one job with its classified log tail and files.
func (p *Printer) PrintJobDetail(job types.Job, entries []types.LogEntry) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Task:    %s\n", job.Task))
	sb.WriteString(fmt.Sprintf("Status:  %s\n", job.Status))
	if job.RepoURL != "" {
		sb.WriteString(fmt.Sprintf("Repo:    %s\n", job.RepoURL))
	}
	if job.IsSimulation {
		sb.WriteString("Mode:    local simulation\n")
	}

	if len(entries) > 0 {
		sb.WriteString("\n")
		start := 0
		if len(entries) > maxLogLines {
			sb.WriteString(fmt.Sprintf("... %d earlier entries\n", len(entries)-maxLogLines))
			start = len(entries) - maxLogLines
		}
		for _, e := range entries[start:] {
			if e.Timestamp != "" {
				sb.WriteString(fmt.Sprintf("%s  %-8s %s\n", e.Timestamp, e.Type, e.Message))
			} else {
				sb.WriteString(fmt.Sprintf("          %-8s %s\n", e.Type, e.Message))
			}
		}
	}

	if len(job.Files) > 0 {
		sb.WriteString("\nFiles:\n")
		for _, f := range job.Files {
			sb.WriteString(fmt.Sprintf("  • %s (%s)", f.Name, f.Path))
			if f.Size != nil {
				sb.WriteString(fmt.Sprintf(" %d bytes", *f.Size))
			}
			sb.WriteString("\n")
		}
	}

	p.printBox("JOB "+job.ID, strings.TrimSuffix(sb.String(), "\n"))
}
