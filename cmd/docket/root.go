package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docketpdf/docket/version"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "docket",
	Short: "Discovery document processor with line and Bates numbering",
	Long: `Docket converts mixed discovery productions (PDF, DOCX, TXT, TIFF)
into uniformly numbered PDFs ready for court filing.

Each document is classified and routed to one of three pipelines:
  - Text:      lays structured text onto fresh letter pages
  - ScanImage: rotation-corrects scanned pages by OCR scoring
  - NativePDF: preserves born-digital PDFs byte-for-byte

Successful outputs receive gapless sequence numbers, per-page line
numbers and optional Bates stamps. Failures are isolated per document
and preserved for review.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.docket/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn, error",
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging(logLevel)
	}

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
