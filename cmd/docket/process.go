package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docketpdf/docket/internal/analyze"
	"github.com/docketpdf/docket/internal/config"
	"github.com/docketpdf/docket/internal/document"
	"github.com/docketpdf/docket/internal/ocr/tesseract"
	"github.com/docketpdf/docket/internal/orchestrate"
	"github.com/docketpdf/docket/internal/pipeline"
	"github.com/docketpdf/docket/internal/report"
	"github.com/docketpdf/docket/internal/rotate"
	"github.com/docketpdf/docket/internal/route"
	"github.com/docketpdf/docket/internal/stamp"
)

var (
	flagBatesPrefix string
	flagBatesStart  int
	flagWorkers     int
	flagOrder       string
	flagNoBates     bool
	flagNoLines     bool
	flagNoFooter    bool
)

var processCmd = &cobra.Command{
	Use:   "process <input-dir>",
	Short: "Process every document in a directory",
	Long: `Process discovers supported documents under the input directory,
converts each through its pipeline and writes numbered PDFs to a sibling
{input}_Processed directory along with a JSON processing log and a text
summary.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		o := buildOrchestrator(cfg)
		res, err := o.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		logPath, summaryPath, err := report.Write(res)
		if err != nil {
			return err
		}

		succeeded, failed := res.Counts()
		fmt.Printf("Processed %d documents: %d succeeded, %d failed\n",
			len(res.Records), succeeded, failed)
		fmt.Printf("Output:  %s\n", res.OutputDir)
		fmt.Printf("Log:     %s\n", logPath)
		fmt.Printf("Summary: %s\n", summaryPath)
		return nil
	},
}

func init() {
	f := processCmd.Flags()
	f.StringVar(&flagBatesPrefix, "bates-prefix", "", "Bates prefix (overrides config)")
	f.IntVar(&flagBatesStart, "bates-start", 0, "first Bates number (overrides config)")
	f.IntVar(&flagWorkers, "workers", 0, "concurrent documents (overrides config)")
	f.StringVar(&flagOrder, "order", "", "sequence assignment: completion or input")
	f.BoolVar(&flagNoBates, "no-bates", false, "disable Bates stamping")
	f.BoolVar(&flagNoLines, "no-lines", false, "disable line numbering")
	f.BoolVar(&flagNoFooter, "no-footer", false, "disable the identification footer")
}

// loadConfig merges the config file with command-line overrides and
// validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg := cm.Get()

	if flagBatesPrefix != "" {
		cfg.Bates.Prefix = flagBatesPrefix
	}
	if flagBatesStart > 0 {
		cfg.Bates.Start = flagBatesStart
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagOrder != "" {
		cfg.Numbering.Order = flagOrder
	}
	if flagNoBates {
		cfg.Bates.Enabled = false
	}
	if flagNoLines {
		cfg.Numbering.Lines = false
	}
	if flagNoFooter {
		cfg.Numbering.Footer = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildOrchestrator(cfg *config.Config) *orchestrate.Orchestrator {
	logger := slog.Default()

	corrector := &rotate.Corrector{
		Engine:        tesseract.New(),
		MinConfidence: cfg.OCR.MinConfidence,
		Languages:     cfg.OCR.Languages,
		Logger:        logger,
	}

	pipelines := pipeline.NewSet(pipeline.Deps{
		Corrector:    corrector,
		LinesPerPage: cfg.Numbering.PerPage,
		Logger:       logger,
	})

	stamper := &stamp.Stamper{
		Lines: stamp.LineConfig{
			Enabled:   cfg.Numbering.Lines,
			Separator: cfg.Numbering.Separator,
		},
		Logger: logger,
	}

	return &orchestrate.Orchestrator{
		Analyzer:  &analyze.Analyzer{Logger: logger},
		Route:     route.Route,
		Pipelines: pipelines,
		Stamper:   stamper,
		Discover:  analyze.Discover,
		Logger:    logger,
		Options: orchestrate.Options{
			Workers:        cfg.Workers,
			NumberingOrder: document.NumberingOrder(cfg.Numbering.Order),
			BatesEnabled:   cfg.Bates.Enabled,
			BatesPrefix:    cfg.Bates.Prefix,
			BatesStart:     cfg.Bates.Start,
			FooterEnabled:  cfg.Numbering.Footer,
		},
	}
}
