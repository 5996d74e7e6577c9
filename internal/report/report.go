// Package report writes the CSV and TXT result files and renders console
// output for a run: per-outcome lines, a live progress bar and the end-of-run
// summary table.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/audittools/smtp-audit/internal/probe"
)

// Files holds the paths of the three result files of a run.
type Files struct {
	CSV     string
	Success string
	Fail    string
}

// NewFiles builds the timestamped result file names inside dir.
// The timestamp is expected in the form 20060102_150405.
func NewFiles(dir, timestamp string) Files {
	return Files{
		CSV:     filepath.Join(dir, fmt.Sprintf("smtp_results_%s.csv", timestamp)),
		Success: filepath.Join(dir, fmt.Sprintf("smtp_success_%s.txt", timestamp)),
		Fail:    filepath.Join(dir, fmt.Sprintf("smtp_fail_%s.txt", timestamp)),
	}
}

// Writer streams outcomes into the CSV file and collects the raw lines for
// the success/fail TXT files, which are written on Close.
type Writer struct {
	files Files

	csvFile *os.File
	csvW    *csv.Writer

	successLines []string
	failLines    []string
}

// NewWriter creates the CSV file and writes its header row.
func NewWriter(files Files) (*Writer, error) {
	f, err := os.Create(files.CSV)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}

	w := &Writer{files: files, csvFile: f, csvW: csv.NewWriter(f)}
	if err := w.csvW.Write([]string{"host", "username", "used_port", "success", "error", "raw_line"}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	return w, nil
}

// Add records one outcome: a CSV row plus the raw line in the matching
// success or fail list. Not safe for concurrent use; the dispatcher publishes
// outcomes on a single channel, so a single consumer calls Add.
func (w *Writer) Add(out probe.Outcome) error {
	port := ""
	if out.UsedPort > 0 {
		port = strconv.Itoa(out.UsedPort)
	}
	if err := w.csvW.Write([]string{
		out.Host,
		out.Username,
		port,
		strconv.FormatBool(out.Success),
		errorColumn(out),
		out.Raw,
	}); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}

	if out.Success {
		w.successLines = append(w.successLines, out.Raw)
	} else {
		w.failLines = append(w.failLines, out.Raw)
	}
	return nil
}

// Counts returns the number of successful and failed outcomes added so far.
func (w *Writer) Counts() (success, fail int) {
	return len(w.successLines), len(w.failLines)
}

// Close flushes the CSV file and writes the success/fail TXT files.
func (w *Writer) Close() error {
	w.csvW.Flush()
	if err := w.csvW.Error(); err != nil {
		_ = w.csvFile.Close()
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}
	if err := w.csvFile.Close(); err != nil {
		return fmt.Errorf("failed to close CSV file: %w", err)
	}

	if err := writeLines(w.files.Success, w.successLines); err != nil {
		return err
	}
	return writeLines(w.files.Fail, w.failLines)
}

func writeLines(path string, lines []string) error {
	var data []byte
	for i, line := range lines {
		if i > 0 {
			data = append(data, '\n')
		}
		data = append(data, line...)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// errorColumn renders the CSV error field, empty for successful outcomes.
func errorColumn(out probe.Outcome) string {
	if out.Kind == probe.KindNone {
		return ""
	}
	if out.Detail == "" {
		return out.Kind.String()
	}
	return fmt.Sprintf("%s: %s", out.Kind, out.Detail)
}

// Line renders the per-outcome console line, colored unless disabled via
// color.NoColor.
func Line(w io.Writer, out probe.Outcome, completed, total int, dryRun bool) {
	prefix := fmt.Sprintf("[%d/%d] %s | %s", completed, total, out.Host, out.Username)
	if out.Success {
		suffix := ""
		if dryRun {
			suffix = " / dry-run"
		}
		fmt.Fprintln(w, color.GreenString("%s => SUCCESS (port %d%s)", prefix, out.UsedPort, suffix))
		return
	}
	fmt.Fprintln(w, color.RedString("%s => FAIL | %s", prefix, errorColumn(out)))
}

// Summary aggregates the final numbers of a run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Files     Files
}

// Render writes the end-of-run summary table.
func (s Summary) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"", "Count", "Output"})
	t.AppendRow(table.Row{"Total", s.Total, ""})
	t.AppendRow(table.Row{"Success", color.GreenString("%d", s.Succeeded), s.Files.Success})
	t.AppendRow(table.Row{"Fail", color.RedString("%d", s.Failed), s.Files.Fail})
	if s.Skipped > 0 {
		t.AppendRow(table.Row{"Skipped", color.YellowString("%d", s.Skipped), ""})
	}
	t.AppendFooter(table.Row{"Details", "", s.Files.CSV})
	t.Render()
}
