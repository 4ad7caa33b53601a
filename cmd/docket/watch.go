package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/docketpdf/docket/internal/home"
	"github.com/docketpdf/docket/internal/report"
)

var flagSettle time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [inbox-dir]",
	Short: "Watch a directory and process new drops as batches",
	Long: `Watch monitors an inbox directory (default: ~/.docket/inbox). When a new
subdirectory appears and its contents stop changing for the settle period,
it is processed as a batch exactly as the process command would.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		var inbox string
		if len(args) == 1 {
			inbox = args[0]
		} else {
			h, err := home.New("")
			if err != nil {
				return err
			}
			if err := h.EnsureExists(); err != nil {
				return err
			}
			inbox = h.InboxPath()
		}
		return watchInbox(cmd.Context(), inbox, flagSettle, func(ctx context.Context, dir string) error {
			o := buildOrchestrator(cfg)
			res, err := o.Run(ctx, dir)
			if err != nil {
				return err
			}
			_, summaryPath, err := report.Write(res)
			if err != nil {
				return err
			}
			fmt.Printf("Batch %s done: %s\n", filepath.Base(dir), summaryPath)
			return nil
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(&flagSettle, "settle", 5*time.Second,
		"quiet period before a dropped directory is considered complete")
}

// watchInbox runs process on each new subdirectory once it stops changing.
// Batches run one at a time; a failed batch is logged and watching
// continues.
func watchInbox(ctx context.Context, inbox string, settle time.Duration, run func(context.Context, string) error) error {
	if fi, err := os.Stat(inbox); err != nil || !fi.IsDir() {
		return fmt.Errorf("inbox %s is not a directory", inbox)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(inbox); err != nil {
		return fmt.Errorf("watch %s: %w", inbox, err)
	}

	slog.Info("watching inbox", "dir", inbox, "settle", settle)

	// pending maps candidate batch dirs to their last-activity time.
	pending := map[string]time.Time{}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			dir := batchDirFor(inbox, ev.Name)
			if dir == "" {
				continue
			}
			pending[dir] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)

		case now := <-ticker.C:
			for dir, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, dir)
				if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
					continue
				}
				slog.Info("batch settled, processing", "dir", dir)
				if err := run(ctx, dir); err != nil {
					slog.Error("batch failed", "dir", dir, "error", err)
				}
			}
		}
	}
}

// batchDirFor maps an event path to its top-level batch directory under
// the inbox, skipping hidden names and already-processed outputs.
func batchDirFor(inbox, path string) string {
	rel, err := filepath.Rel(inbox, path)
	if err != nil || rel == "." {
		return ""
	}
	top := rel
	if i := firstSeparator(rel); i >= 0 {
		top = rel[:i]
	}
	if top == "" || top[0] == '.' || filepath.Ext(top) != "" {
		return ""
	}
	if len(top) > len("_Processed") && top[len(top)-len("_Processed"):] == "_Processed" {
		return ""
	}
	return filepath.Join(inbox, top)
}

func firstSeparator(s string) int {
	for i := 0; i < len(s); i++ {
		if os.IsPathSeparator(s[i]) {
			return i
		}
	}
	return -1
}
