package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/tocmerge/internal/config"
	"github.com/dgallion1/tocmerge/internal/merge"
	"github.com/dgallion1/tocmerge/internal/pipeline"
	"github.com/dgallion1/tocmerge/internal/render"
	"github.com/dgallion1/tocmerge/internal/session"
	"github.com/dgallion1/tocmerge/internal/stats"
	"github.com/dgallion1/tocmerge/internal/toc"
	"github.com/spf13/cobra"
)

var (
	mergeOutput      string
	mergeTitles      []string
	mergePageNumbers bool
	mergeFont        string
	mergeVerbose     bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Merge files into one PDF with a table of contents",
	Long: `Merge the given files, in order, behind a generated table of contents.

Titles default to the file name and can be overridden per file:

  tocmerge merge intro.pdf results.md -t intro.pdf="Introduction" -o report.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		titles, err := parseTitles(mergeTitles)
		if err != nil {
			return err
		}

		level := slog.LevelWarn
		if mergeVerbose {
			level = slog.LevelInfo
		}
		log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if mergeFont != "" {
			cfg.TOCFontPath = mergeFont
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		opts := merge.Options{PageNumbers: mergePageNumbers}
		out := mergeOutput
		if out == "" {
			out = defaultOutput(opts)
		}

		return runMerge(cmd.Context(), cmd.OutOrStdout(), log, cfg, args, titles, opts, out)
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Output file (default depends on --page-numbers)")
	mergeCmd.Flags().StringArrayVarP(&mergeTitles, "title", "t", nil, "Custom title as name=Title (repeatable)")
	mergeCmd.Flags().BoolVar(&mergePageNumbers, "page-numbers", true, "Stamp page numbers in the footer")
	mergeCmd.Flags().StringVar(&mergeFont, "font", "", "TrueType font for the table of contents (env TOC_FONT_PATH)")
	mergeCmd.Flags().BoolVarP(&mergeVerbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(ctx context.Context, w io.Writer, log *slog.Logger, cfg config.Config, paths []string, titles map[string]string, opts merge.Options, out string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	uploads := make([]pipeline.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		uploads = append(uploads, pipeline.Upload{Name: filepath.Base(p), Data: data})
	}

	merger := merge.NewMerger(toc.Options{FontPath: cfg.TOCFontPath}, cfg.RelaxedValidation, log)
	runner := pipeline.NewRunner(merger, render.Options{FontPath: cfg.TOCFontPath}, cfg.MaxConcurrentMerges, stats.NewWindow(time.Hour), log)

	files, err := runner.Prepare(ctx, uploads)
	if err != nil {
		return err
	}
	files = session.UniqueNames(files)

	res, err := runner.Merge(ctx, pipeline.Documents(files), titles, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, res.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	printSummary(w, res, files, out)
	return nil
}

// parseTitles reads name=Title pairs.
func parseTitles(pairs []string) (map[string]string, error) {
	titles := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, title, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --title %q (want name=Title)", p)
		}
		titles[filepath.Base(name)] = strings.TrimSpace(title)
	}
	return titles, nil
}

func defaultOutput(opts merge.Options) string {
	if opts.PageNumbers {
		return "merged_with_toc_and_page_numbers.pdf"
	}
	return "merged_styled_toc.pdf"
}
