package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"certificate-validator/internal/config"
	certerrors "certificate-validator/internal/errors"
	"certificate-validator/internal/logger"
	"certificate-validator/internal/pdf"
	"certificate-validator/internal/reference"
	"certificate-validator/internal/results"
	"certificate-validator/internal/validator"
	"certificate-validator/internal/watcher"
)

var (
	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	summaryStyle = lipgloss.NewStyle().Bold(true)
)

type validateOptions struct {
	csvPath  string
	folder   string
	report   string
	pattern  string
	strict   bool
	watch    bool
	debounce time.Duration
}

func newValidateCmd(env *cliEnv) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a folder of certificates without the GUI",
		Example: "  certificate-validator validate --csv students.csv --folder ./certificates\n" +
			"  certificate-validator validate --csv students.csv --folder ./certificates --watch",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runValidate(ctx, cmd.OutOrStdout(), env.config, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.csvPath, "csv", "", "reference CSV file (required)")
	f.StringVar(&opts.folder, "folder", "", "folder of certificate PDFs (required)")
	f.StringVar(&opts.report, "report", "", "error report path (default from config, validation_errors.xlsx)")
	f.StringVar(&opts.pattern, "pattern", "", "certificate file name pattern (default from config, *.pdf)")
	f.BoolVar(&opts.strict, "strict", false, "validate PDF structure before reading text")
	f.BoolVar(&opts.watch, "watch", false, "re-run when certificates in the folder change")
	f.DurationVar(&opts.debounce, "debounce", watcher.DefaultDebounce, "quiet period before a watch re-run")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("folder")

	return cmd
}

func runValidate(ctx context.Context, out io.Writer, cm *config.ConfigManager, opts *validateOptions) error {
	info, err := os.Stat(opts.folder)
	if err != nil {
		return fmt.Errorf("certificate folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("certificate folder: %s is not a directory", opts.folder)
	}

	store, err := reference.LoadFile(opts.csvPath)
	if err != nil {
		return fmt.Errorf("reference file %s: %w", opts.csvPath, err)
	}
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Loaded %d references from %s", store.Len(), opts.csvPath)))

	reportPath := opts.report
	if reportPath == "" {
		reportPath = cm.GetReportPath()
	}
	pattern := opts.pattern
	if pattern == "" {
		pattern = cm.GetCertificatePattern()
	}

	runner, err := validator.NewRunner(store, pdf.NewTextExtractor(opts.strict || cm.IsStrictPDFValidation()), validator.Options{
		Pattern:    pattern,
		Reporter:   results.NewReporter(),
		ReportPath: reportPath,
	})
	if err != nil {
		return err
	}

	if _, err := runOnce(ctx, out, runner, opts.folder); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	fw, err := watcher.New(opts.folder, runner.Matches, opts.debounce)
	if err != nil {
		return fmt.Errorf("watch %s: %w", opts.folder, err)
	}
	fmt.Fprintln(out, dimStyle.Render("Watching "+opts.folder+" for changes, press Ctrl+C to stop"))

	return fw.Run(ctx, func(ctx context.Context, changed []string) {
		fmt.Fprintln(out)
		fmt.Fprintln(out, dimStyle.Render("Changed: "+strings.Join(changed, ", ")))
		if _, err := runOnce(ctx, out, runner, opts.folder); err != nil {
			logger.Error("watch re-run failed", err, logger.String("folder", opts.folder))
			fmt.Fprintln(out, invalidStyle.Render("Run failed: "+err.Error()))
		}
	})
}

// runOnce runs one batch and prints a line per certificate plus a summary.
func runOnce(ctx context.Context, out io.Writer, runner *validator.Runner, folder string) (*validator.RunResult, error) {
	events := make(chan validator.Event, 16)
	var result *validator.RunResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		res, err := runner.Run(gctx, folder, events)
		result = res
		return err
	})
	g.Go(func() error {
		for ev := range events {
			printEvent(out, ev)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func printEvent(out io.Writer, ev validator.Event) {
	switch e := ev.(type) {
	case validator.RunStarted:
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Scanning %d certificates in %s", e.Total, e.Folder)))
	case validator.FileScanned:
		if e.Result.IsValid {
			fmt.Fprintf(out, "%s %s\n", validStyle.Render("✓"), e.Filename)
			return
		}
		fmt.Fprintf(out, "%s %s  %s\n", invalidStyle.Render("✗"), e.Filename,
			invalidStyle.Render(strings.Join(e.Result.Errors, ", ")))
	case validator.FileSkipped:
		fmt.Fprintf(out, "%s %s  %s\n", skippedStyle.Render("!"), e.Filename, skippedStyle.Render(e.Reason))
	case validator.RunComplete:
		printSummary(out, e.Result)
	}
}

func printSummary(out io.Writer, result *validator.RunResult) {
	s := result.Stats
	fmt.Fprintln(out)
	fmt.Fprintln(out, summaryStyle.Render(fmt.Sprintf("Scanned: %d | Valid: %d | Errors: %d", s.Scanned, s.Valid, s.Errors)))

	if s.Errors > 0 {
		kinds := certerrors.CountByKind(result.Errors)
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Lookup: %d | Content: %d | PDF: %d",
			kinds[certerrors.KindLookup], kinds[certerrors.KindContent], kinds[certerrors.KindExtraction])))
	}

	switch {
	case result.ReportError != "":
		fmt.Fprintln(out, invalidStyle.Render("Report not saved: "+result.ReportError))
	case result.ReportPath != "":
		fmt.Fprintln(out, dimStyle.Render("Report: "+result.ReportPath))
	}
}
