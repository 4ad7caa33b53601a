// Package orchestrate drives a batch run: discovery, analysis, routing,
// pipeline execution under a bounded worker pool, and the commit section
// that assigns gapless sequence numbers to successful outputs only.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/docketpdf/docket/internal/document"
	"github.com/docketpdf/docket/internal/pipeline"
	"github.com/docketpdf/docket/internal/stamp"
)

// Analyzer produces classification signals for one document.
type Analyzer interface {
	Analyze(doc document.Document) (document.Signals, error)
}

// Router maps signals to a pipeline tag.
type Router func(document.Signals) document.PipelineID

// Stamper applies numbering to a pipeline result.
type Stamper interface {
	Apply(res *pipeline.Result, bates stamp.BatesConfig, footer stamp.FooterConfig, workDir, outPath string) error
}

// Options configures a batch run.
type Options struct {
	Workers int

	// NumberingOrder selects completion-order or input-order sequence
	// assignment. Defaults to completion.
	NumberingOrder document.NumberingOrder

	BatesEnabled bool
	BatesPrefix  string
	BatesStart   int

	FooterEnabled bool
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return 4
}

func (o Options) order() document.NumberingOrder {
	if o.NumberingOrder == document.OrderInput {
		return document.OrderInput
	}
	return document.OrderCompletion
}

func (o Options) batesStart() int {
	if o.BatesStart > 0 {
		return o.BatesStart
	}
	return 1
}

// Orchestrator runs batches. All fields must be set before Run.
type Orchestrator struct {
	Analyzer  Analyzer
	Route     Router
	Pipelines map[document.PipelineID]pipeline.Pipeline
	Stamper   Stamper
	Options   Options
	Logger    *slog.Logger

	// Discover lists processable documents under a root. Defaults to
	// filesystem discovery; replaceable in tests.
	Discover func(root string) ([]document.Document, []string, error)

	mu       sync.Mutex
	nextSeq  int
	records  []document.OutputRecord
	outcomes map[int]*outcome
	cursor   int
	tallies  map[document.PipelineID]int
	skipped  []string
}

// outcome is a finished document waiting for the commit section.
type outcome struct {
	doc      document.Document
	pipe     document.PipelineID
	res      *pipeline.Result
	workDir  string
	err      error
	lowConf  []int
	signals  document.Signals
	hasPipe  bool
}

// RunResult summarizes a completed batch for reporting.
type RunResult struct {
	RunID       string
	InputDir    string
	OutputDir   string
	FailuresDir string
	Started     time.Time
	Finished    time.Time
	Records     []document.OutputRecord
	Unsupported []string
	Tallies     map[document.PipelineID]int

	// Skipped lists documents never processed because the run was
	// cancelled first. They stay untouched in the input directory and
	// carry no OutputRecord.
	Skipped []string
}

func (r *RunResult) Counts() (succeeded, failed int) {
	for _, rec := range r.Records {
		if rec.Status == document.StatusSuccess {
			succeeded++
		} else {
			failed++
		}
	}
	return
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Run processes every supported document under inputDir. Per-document
// failures are isolated; Run itself fails only on run-level conditions
// such as an unwritable output directory or an empty input directory.
func (o *Orchestrator) Run(ctx context.Context, inputDir string) (*RunResult, error) {
	started := time.Now()

	discover := o.Discover
	if discover == nil {
		return nil, fmt.Errorf("orchestrator misconfigured: no discovery function")
	}
	docs, unsupported, err := discover(inputDir)
	if err != nil {
		return nil, fmt.Errorf("discover input: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no processable documents under %s", inputDir)
	}

	outDir, failDir, err := prepareOutput(inputDir)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.nextSeq = 1
	o.cursor = 0
	o.records = nil
	o.skipped = nil
	o.outcomes = make(map[int]*outcome, len(docs))
	o.tallies = make(map[document.PipelineID]int)
	o.mu.Unlock()

	o.logger().Info("run started",
		"input", inputDir, "documents", len(docs),
		"workers", o.Options.workers(), "order", string(o.Options.order()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Options.workers())
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				// Cancellation stops issuing new work; the
				// commit path advances the input-order cursor
				// past the skipped slot.
				o.commit(&outcome{doc: doc, err: err}, outDir, failDir)
				return nil
			}
			out := o.processOne(gctx, doc)
			o.commit(out, outDir, failDir)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	records := append([]document.OutputRecord(nil), o.records...)
	skipped := append([]string(nil), o.skipped...)
	tallies := make(map[document.PipelineID]int, len(o.tallies))
	for k, v := range o.tallies {
		tallies[k] = v
	}
	o.mu.Unlock()

	res := &RunResult{
		RunID:       uuid.NewString(),
		InputDir:    inputDir,
		OutputDir:   outDir,
		FailuresDir: failDir,
		Started:     started,
		Finished:    time.Now(),
		Records:     records,
		Unsupported: unsupported,
		Tallies:     tallies,
		Skipped:     skipped,
	}
	succeeded, failed := res.Counts()
	o.logger().Info("run finished",
		"succeeded", succeeded, "failed", failed,
		"skipped", len(skipped),
		"unsupported", len(unsupported),
		"elapsed", res.Finished.Sub(res.Started).Round(time.Millisecond))
	return res, nil
}

// processOne runs one document through analysis, routing and its pipeline.
// It never touches shared state; the commit section does.
func (o *Orchestrator) processOne(ctx context.Context, doc document.Document) *outcome {
	out := &outcome{doc: doc}

	signals, err := o.Analyzer.Analyze(doc)
	if err != nil {
		out.err = err
		return out
	}
	out.signals = signals

	id := o.Route(signals)
	out.pipe = id
	out.hasPipe = true

	// Landscape input is only recoverable through rotation correction.
	if signals.Landscape && id != document.PipelineScanImage {
		out.err = document.NewError(document.KindUnsupportedOrientation,
			"landscape pages cannot be processed by the "+string(id)+" pipeline", nil)
		return out
	}

	p, ok := o.Pipelines[id]
	if !ok {
		out.err = document.NewError(document.KindConversion,
			"no pipeline registered for "+string(id), nil)
		return out
	}

	workDir, err := os.MkdirTemp("", "docket-*")
	if err != nil {
		out.err = document.NewError(document.KindConversion, "create work directory", err)
		return out
	}
	out.workDir = workDir

	o.logger().Debug("processing", "file", doc.Basename(), "pipeline", string(id))
	res, err := p.Process(ctx, doc, workDir)
	if err != nil {
		out.err = err
		return out
	}
	out.res = res
	for i, pg := range res.Pages {
		if pg.LowConfidenceOrientation {
			out.lowConf = append(out.lowConf, i+1)
		}
	}
	return out
}

// commit routes a finished document into the commit section in the
// configured order. In completion order the outcome commits immediately;
// in input order it is buffered until all earlier documents are terminal.
func (o *Orchestrator) commit(out *outcome, outDir, failDir string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.Options.order() == document.OrderCompletion {
		o.commitLocked(out, outDir, failDir)
		return
	}

	o.outcomes[out.doc.Index] = out
	for {
		next, ok := o.outcomes[o.cursor]
		if !ok {
			return
		}
		delete(o.outcomes, o.cursor)
		o.cursor++
		o.commitLocked(next, outDir, failDir)
	}
}

// commitLocked is the commit section. It holds the allocator lock across
// allocation, stamping and the final rename, so a stamping failure can
// never strand an allocated sequence number.
func (o *Orchestrator) commitLocked(out *outcome, outDir, failDir string) {
	defer func() {
		if out.workDir != "" {
			os.RemoveAll(out.workDir)
		}
	}()

	if out.err != nil {
		// Cancellation is not a document failure: the document was
		// never (fully) processed, so it keeps its place in the input
		// directory and gets no record.
		if errors.Is(out.err, context.Canceled) || errors.Is(out.err, context.DeadlineExceeded) {
			o.skipped = append(o.skipped, out.doc.Basename())
			o.logger().Info("document skipped, run cancelled", "file", out.doc.Basename())
			return
		}
		o.failLocked(out, failDir, out.err)
		return
	}

	seq := o.nextSeq
	bates := stamp.BatesConfig{
		Enabled: o.Options.BatesEnabled,
		Prefix:  o.Options.BatesPrefix,
		Number:  o.Options.batesStart() + seq - 1,
	}
	footer := stamp.FooterConfig{
		Enabled: o.Options.FooterEnabled,
		Label:   out.doc.Basename(),
	}

	stamped := filepath.Join(out.workDir, "stamped.pdf")
	if err := o.Stamper.Apply(out.res, bates, footer, out.workDir, stamped); err != nil {
		o.failLocked(out, failDir, err)
		return
	}

	finalName := document.FormatSequence(seq) + "_" + outputStem(out.doc) + ".pdf"
	finalPath := filepath.Join(outDir, finalName)
	if err := moveFile(stamped, finalPath); err != nil {
		o.failLocked(out, failDir,
			document.NewError(document.KindConversion, "move output into place", err))
		return
	}

	o.nextSeq++
	o.tallies[out.pipe]++
	rec := document.OutputRecord{
		SequenceNumber:     seq,
		OriginalFilename:   out.doc.Basename(),
		PipelineUsed:       out.pipe,
		Status:             document.StatusSuccess,
		OutputFile:         finalName,
		LowConfidencePages: out.lowConf,
	}
	if bates.Enabled {
		rec.BatesNumber = document.FormatBates(bates.Prefix, bates.Number)
	}
	o.records = append(o.records, rec)
	o.logger().Info("document committed",
		"file", out.doc.Basename(), "sequence", seq,
		"pipeline", string(out.pipe), "output", finalName)
}

// failLocked records a failure and moves the original, unchanged, into the
// Failures directory for review.
func (o *Orchestrator) failLocked(out *outcome, failDir string, cause error) {
	rec := document.OutputRecord{
		OriginalFilename: out.doc.Basename(),
		Status:           document.StatusFailure,
		ErrorKind:        string(document.KindOf(cause)),
		ErrorDetail:      cause.Error(),
	}
	if out.hasPipe {
		rec.PipelineUsed = out.pipe
	}
	o.records = append(o.records, rec)

	if err := moveFile(out.doc.Path, filepath.Join(failDir, out.doc.Basename())); err != nil {
		o.logger().Warn("could not move failed input for review",
			"file", out.doc.Basename(), "error", err)
	}
	o.logger().Warn("document failed",
		"file", out.doc.Basename(),
		"kind", rec.ErrorKind, "error", cause)
}

// prepareOutput creates {input}_Processed and its Failures subdirectory and
// probes writability. A failure here aborts the run before any document is
// touched.
func prepareOutput(inputDir string) (outDir, failDir string, err error) {
	abs, err := filepath.Abs(inputDir)
	if err != nil {
		return "", "", fmt.Errorf("resolve input dir: %w", err)
	}
	outDir = abs + "_Processed"
	failDir = filepath.Join(outDir, "Failures")
	if err := os.MkdirAll(failDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}
	probe := filepath.Join(outDir, ".write-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return "", "", fmt.Errorf("output directory is not writable: %w", err)
	}
	os.Remove(probe)
	return outDir, failDir, nil
}

func outputStem(doc document.Document) string {
	base := doc.Basename()
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// moveFile renames, falling back to copy across filesystems. Work
// directories live in the system temp dir, which is often a different
// mount than the output directory.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
