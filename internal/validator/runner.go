package validator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/google/uuid"

	certerrors "certificate-validator/internal/errors"
	"certificate-validator/internal/logger"
	"certificate-validator/internal/reference"
)

// DefaultPattern selects certificate files within a folder.
const DefaultPattern = "*.pdf"

var (
	// ErrRunInProgress is returned when Run is called while a run is active.
	ErrRunInProgress = errors.New("a validation run is already in progress")
	// ErrNoReferences is returned when no reference store was provided.
	ErrNoReferences = errors.New("no reference data loaded")
)

// TextExtractor returns the plain text of a certificate file.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// Persister writes the error records of a finished run.
type Persister interface {
	Persist(records []certerrors.ErrorRecord, dest string) error
}

// Options configure a Runner.
type Options struct {
	// Pattern is matched against file names; defaults to DefaultPattern.
	Pattern string
	// Reporter and ReportPath are optional. When both are set the error
	// records are persisted before RunComplete is sent.
	Reporter   Persister
	ReportPath string
}

// Runner scans a folder of certificates, one file at a time.
type Runner struct {
	engine    *Engine
	extractor TextExtractor
	opts      Options
	running   atomic.Bool
}

// NewRunner creates a Runner. It fails on a nil store or a malformed pattern.
func NewRunner(store *reference.Store, extractor TextExtractor, opts Options) (*Runner, error) {
	if store == nil {
		return nil, ErrNoReferences
	}
	if extractor == nil {
		return nil, errors.New("text extractor is required")
	}
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if _, err := doublestar.Match(opts.Pattern, "probe.pdf"); err != nil {
		return nil, fmt.Errorf("invalid certificate pattern %q: %w", opts.Pattern, err)
	}
	return &Runner{
		engine:    NewEngine(store),
		extractor: extractor,
		opts:      opts,
	}, nil
}

// Running reports whether a run is active.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run validates every certificate in folder, in filename order, and sends
// progress to events (which may be nil). Run never closes events.
//
// Once started a run covers every file. ctx only bounds event delivery: when
// it is done, further events are dropped and the scan carries on.
func (r *Runner) Run(ctx context.Context, folder string, events chan<- Event) (*RunResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	files, err := r.listCertificates(folder)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:     uuid.NewString(),
		Folder:    folder,
		StartedAt: time.Now(),
		Errors:    []certerrors.ErrorRecord{},
	}
	logger.Info("validation run started",
		logger.String("runID", result.RunID),
		logger.String("folder", folder),
		logger.Int("files", len(files)))

	send(ctx, events, RunStarted{RunID: result.RunID, Folder: folder, Total: len(files)})

	for i, name := range files {
		path := filepath.Join(folder, name)
		ref := ReferenceFromFilename(name)
		result.Stats.Scanned++

		res, err := r.checkFile(path, ref)
		if err != nil {
			logger.Error("certificate check failed, skipping", err,
				logger.String("runID", result.RunID),
				logger.String("file", name))
			send(ctx, events, FileSkipped{
				RunID:    result.RunID,
				Index:    i,
				Filename: name,
				Path:     path,
				Reason:   err.Error(),
			})
			send(ctx, events, StatsUpdated{RunID: result.RunID, Stats: result.Stats, Total: len(files)})
			continue
		}

		if res.IsValid {
			result.Stats.Valid++
		} else {
			result.Stats.Errors++
			result.Errors = append(result.Errors, certerrors.ErrorRecord{
				Filename:        name,
				ReferenceNumber: ref,
				Errors:          res.Errors,
			})
			logger.Debug("certificate invalid",
				logger.String("file", name),
				logger.String("errors", result.Errors[len(result.Errors)-1].JoinedErrors()))
		}

		send(ctx, events, FileScanned{
			RunID:           result.RunID,
			Index:           i,
			Filename:        name,
			Path:            path,
			ReferenceNumber: ref,
			Result:          res,
		})
		send(ctx, events, StatsUpdated{RunID: result.RunID, Stats: result.Stats, Total: len(files)})
	}

	r.persist(ctx, events, result)
	result.FinishedAt = time.Now()

	logger.Info("validation run complete",
		logger.String("runID", result.RunID),
		logger.Int("scanned", result.Stats.Scanned),
		logger.Int("valid", result.Stats.Valid),
		logger.Int("errors", result.Stats.Errors),
		logger.Int64("durationMs", result.Duration().Milliseconds()))

	send(ctx, events, RunComplete{Result: result})
	return result, nil
}

// checkFile validates one certificate, turning a panic into an error.
func (r *Runner) checkFile(path, ref string) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while checking %s: %v", filepath.Base(path), p)
		}
	}()

	res = r.engine.ValidateDocument(ref, func() (string, error) {
		return r.extractor.ExtractText(path)
	})
	return res, nil
}

func (r *Runner) persist(ctx context.Context, events chan<- Event, result *RunResult) {
	if r.opts.Reporter == nil || r.opts.ReportPath == "" {
		return
	}
	result.ReportPath = r.opts.ReportPath
	send(ctx, events, ReportWriting{RunID: result.RunID, Path: r.opts.ReportPath, Records: len(result.Errors)})
	if err := r.opts.Reporter.Persist(result.Errors, r.opts.ReportPath); err != nil {
		logger.Error("failed to write error report", err,
			logger.String("runID", result.RunID),
			logger.String("path", r.opts.ReportPath))
		result.ReportError = err.Error()
	}
}

// listCertificates returns the names of files in folder matching the
// pattern, sorted. Subdirectories are ignored.
func (r *Runner) listCertificates(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read certificate folder: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		ok, err := doublestar.Match(r.opts.Pattern, name)
		if err != nil || !ok {
			continue
		}
		if entry.IsDir() {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(folder, name))
			if err != nil || info.IsDir() {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Matches reports whether name would be picked up as a certificate.
func (r *Runner) Matches(name string) bool {
	ok, err := doublestar.Match(r.opts.Pattern, filepath.Base(name))
	return err == nil && ok
}

func send(ctx context.Context, events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
