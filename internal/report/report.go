// Package report writes the run artifacts: a machine-readable JSON
// processing log validated against an embedded schema, and a plain-text
// summary for the person running the batch. Both land in the output
// directory, written to a temp file first and renamed into place.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	_ "embed"

	"github.com/docketpdf/docket/internal/document"
	"github.com/docketpdf/docket/internal/orchestrate"
)

//go:embed runlog.schema.json
var runLogSchema string

const timestampLayout = "20060102_150405"

// Write produces both artifacts for a completed run and returns their
// paths.
func Write(res *orchestrate.RunResult) (logPath, summaryPath string, err error) {
	ts := res.Finished.Format(timestampLayout)

	logPath = filepath.Join(res.OutputDir, "processing_log_"+ts+".json")
	if err := writeLog(res.Records, logPath); err != nil {
		return "", "", fmt.Errorf("write processing log: %w", err)
	}

	summaryPath = filepath.Join(res.OutputDir, "processing_summary_"+ts+".txt")
	if err := writeAtomic(summaryPath, []byte(Summary(res))); err != nil {
		return "", "", fmt.Errorf("write summary: %w", err)
	}
	return logPath, summaryPath, nil
}

// writeLog marshals the records, validates them against the run-log schema
// and writes the result. Validation failure here means a bug upstream, not
// bad input, so it aborts the write.
func writeLog(records []document.OutputRecord, path string) error {
	if records == nil {
		records = []document.OutputRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := validate(data); err != nil {
		return fmt.Errorf("run log failed schema validation: %w", err)
	}
	return writeAtomic(path, data)
}

func validate(data []byte) error {
	schema, err := jsonschema.CompileString("runlog.schema.json", runLogSchema)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

// Summary renders the human-readable run summary.
func Summary(res *orchestrate.RunResult) string {
	succeeded, failed := res.Counts()

	var b strings.Builder
	fmt.Fprintf(&b, "Processing Summary\n")
	fmt.Fprintf(&b, "==================\n\n")
	fmt.Fprintf(&b, "Run ID:      %s\n", res.RunID)
	fmt.Fprintf(&b, "Input:       %s\n", res.InputDir)
	fmt.Fprintf(&b, "Output:      %s\n", res.OutputDir)
	fmt.Fprintf(&b, "Started:     %s\n", res.Started.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished:    %s\n", res.Finished.Format(time.RFC3339))
	fmt.Fprintf(&b, "Elapsed:     %s\n\n", res.Finished.Sub(res.Started).Round(time.Millisecond))

	fmt.Fprintf(&b, "Documents:   %d\n", len(res.Records))
	fmt.Fprintf(&b, "Succeeded:   %d\n", succeeded)
	fmt.Fprintf(&b, "Failed:      %d\n", failed)
	if len(res.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped:     %d (run cancelled before processing)\n", len(res.Skipped))
	}
	fmt.Fprintf(&b, "Unsupported: %d\n\n", len(res.Unsupported))

	if len(res.Tallies) > 0 {
		fmt.Fprintf(&b, "By pipeline:\n")
		ids := make([]string, 0, len(res.Tallies))
		for id := range res.Tallies {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&b, "  %-10s %d\n", id, res.Tallies[document.PipelineID(id)])
		}
		b.WriteString("\n")
	}

	if failed > 0 {
		fmt.Fprintf(&b, "Failures (originals preserved under %s):\n", res.FailuresDir)
		for _, rec := range res.Records {
			if rec.Status != document.StatusFailure {
				continue
			}
			fmt.Fprintf(&b, "  %s  [%s] %s\n", rec.OriginalFilename, rec.ErrorKind, rec.ErrorDetail)
		}
		b.WriteString("\n")
	}

	var lowConf []string
	for _, rec := range res.Records {
		if len(rec.LowConfidencePages) > 0 {
			lowConf = append(lowConf,
				fmt.Sprintf("  %s  pages %s", rec.OriginalFilename, joinInts(rec.LowConfidencePages)))
		}
	}
	if len(lowConf) > 0 {
		b.WriteString("Low-confidence orientation (left as-is, review recommended):\n")
		for _, line := range lowConf {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if len(res.Skipped) > 0 {
		b.WriteString("Not processed (run cancelled; still in the input directory):\n")
		for _, name := range res.Skipped {
			fmt.Fprintf(&b, "  %s\n", name)
		}
		b.WriteString("\n")
	}

	if len(res.Unsupported) > 0 {
		b.WriteString("Unsupported files (skipped):\n")
		for _, name := range res.Unsupported {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	return b.String()
}

func joinInts(ns []int) string {
	var b bytes.Buffer
	for i, n := range ns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d", n)
	}
	return b.String()
}

// writeAtomic writes via a temp file in the target directory and renames
// into place so a crash never leaves a half-written artifact.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
