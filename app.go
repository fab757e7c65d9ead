package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"golang.org/x/sync/errgroup"

	"certificate-validator/internal/config"
	"certificate-validator/internal/logger"
	"certificate-validator/internal/pdf"
	"certificate-validator/internal/reference"
	"certificate-validator/internal/results"
	"certificate-validator/internal/types"
	"certificate-validator/internal/validator"
)

// Event names for frontend communication
const (
	EventValidationStarted = "validation:started"
	EventFileScanned       = "validation:file-scanned"
	EventStats             = "validation:stats"
	EventPreview           = "validation:preview"
	EventFileSkipped       = "validation:file-skipped"
	EventComplete          = "validation:complete"
	EventStatus            = "validation:status"
)

// previewTimeout bounds one pdftoppm invocation.
const previewTimeout = 30 * time.Second

// StatusCallback is a function type for status update callbacks.
type StatusCallback func(status *types.Status)

// App is the main Wails application controller. It owns the loaded
// reference data, the selected folder and the results of the last run.
type App struct {
	ctx       context.Context
	config    *config.ConfigManager
	reporter  *results.Reporter
	previewer *pdf.Previewer

	// mu guards the fields below; the worker never touches them.
	mu         sync.RWMutex
	store      *reference.Store
	csvPath    string
	folder     string
	stats      validator.Stats
	total      int
	lastResult *validator.RunResult
	runDone    chan struct{}

	// Status tracking
	status         *types.Status
	statusMu       sync.RWMutex
	statusCallback StatusCallback

	// isWailsRuntime is false in tests, where EventsEmit would panic.
	isWailsRuntime bool
}

// NewApp creates a new App application struct.
func NewApp() *App {
	return &App{
		reporter: results.NewReporter(),
		status: &types.Status{
			Phase: types.PhaseIdle,
		},
	}
}

// NewAppWithConfig creates a new App with a custom config path.
func NewAppWithConfig(configPath string) (*App, error) {
	app := NewApp()
	configMgr, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}
	app.config = configMgr
	return app, nil
}

// safeEmit safely emits an event to the frontend.
// It only emits events when running in a Wails environment.
func (a *App) safeEmit(eventName string, data ...interface{}) {
	if !a.isWailsRuntime || a.ctx == nil {
		logger.Debug("event emit skipped (not in Wails runtime)",
			logger.String("event", eventName))
		return
	}
	runtime.EventsEmit(a.ctx, eventName, data...)
}

// SetWailsRuntime sets the Wails runtime flag.
func (a *App) SetWailsRuntime(isWails bool) {
	a.isWailsRuntime = isWails
}

// SetStatusCallback registers fn to be called on every status change.
func (a *App) SetStatusCallback(fn StatusCallback) {
	a.statusMu.Lock()
	a.statusCallback = fn
	a.statusMu.Unlock()
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	logger.Info("application starting up")

	if a.config == nil {
		configMgr, err := config.NewConfigManager("")
		if err != nil {
			logger.Error("failed to create config manager", err)
			return
		}
		a.config = configMgr
	}
	if err := a.config.Load(); err != nil {
		logger.Warn("failed to load config, using defaults", logger.Err(err))
	}

	a.initPreviewer()
}

// shutdown is called when the app is closing.
func (a *App) shutdown(ctx context.Context) {
	if a.IsProcessing() {
		logger.Warn("application shutting down during a validation run")
		return
	}
	logger.Info("application shutting down")
}

func (a *App) initPreviewer() {
	if a.config == nil {
		return
	}
	cfg := a.config.GetPreview()
	if !cfg.Enabled {
		a.previewer = nil
		return
	}
	a.previewer = pdf.NewPreviewer(cfg)
}

func (a *App) runContext() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}

// LoadReferences loads the reference CSV at path and returns the number of
// distinct reference numbers. On failure the previously loaded data is kept.
func (a *App) LoadReferences(path string) (int, error) {
	logger.Info("loading reference file", logger.String("path", path))
	if path == "" {
		return 0, types.NewAppError(types.ErrInvalidInput, "no reference file selected", nil)
	}

	store, err := reference.LoadFile(path)
	if err != nil {
		logger.Error("failed to load reference file", err, logger.String("path", path))
		var formatErr *reference.FormatError
		switch {
		case stderrors.As(err, &formatErr):
			return 0, types.NewAppErrorWithDetails(types.ErrFormat, "invalid reference file", formatErr.Error(), err)
		case stderrors.Is(err, os.ErrNotExist):
			return 0, types.NewAppError(types.ErrFileNotFound, "reference file not found", err)
		default:
			return 0, types.NewAppError(types.ErrInvalidInput, "cannot read reference file", err)
		}
	}

	a.mu.Lock()
	a.store = store
	a.csvPath = path
	a.mu.Unlock()

	if a.config != nil {
		if err := a.config.RememberInputs(path, ""); err != nil {
			logger.Warn("failed to remember reference file", logger.Err(err))
		}
	}
	return store.Len(), nil
}

// GetReferenceRows returns the loaded reference rows for display.
func (a *App) GetReferenceRows() []reference.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.store.Rows()
}

// SelectFolder sets the certificate folder for the next run.
func (a *App) SelectFolder(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return types.NewAppError(types.ErrFileNotFound, "folder not found", err)
	}
	if !info.IsDir() {
		return types.NewAppError(types.ErrInvalidInput, "not a folder", nil)
	}

	a.mu.Lock()
	a.folder = path
	a.mu.Unlock()
	logger.Info("certificate folder selected", logger.String("folder", path))

	if a.config != nil {
		if err := a.config.RememberInputs("", path); err != nil {
			logger.Warn("failed to remember folder", logger.Err(err))
		}
	}
	return nil
}

// GetSelection returns the current reference file and folder.
func (a *App) GetSelection() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return map[string]string{
		"csv_path": a.csvPath,
		"folder":   a.folder,
	}
}

// StartValidation starts a run over the selected folder and returns at once.
// Progress arrives as frontend events. A run already in progress is not
// interrupted; the request is rejected with ErrBusy.
func (a *App) StartValidation() error {
	a.mu.RLock()
	store, folder := a.store, a.folder
	a.mu.RUnlock()

	if store == nil {
		return types.NewAppError(types.ErrInvalidInput, "load a reference file first", nil)
	}
	if folder == "" {
		return types.NewAppError(types.ErrInvalidInput, "select a certificate folder first", nil)
	}
	if !a.tryBeginRun() {
		logger.Warn("validation request rejected, run in progress")
		return types.NewAppError(types.ErrBusy, "validation already in progress", validator.ErrRunInProgress)
	}

	extractor := pdf.NewTextExtractor(a.strictPDF())
	runner, err := validator.NewRunner(store, extractor, validator.Options{
		Pattern:    a.certificatePattern(),
		Reporter:   a.reporter,
		ReportPath: a.reportPath(),
	})
	if err != nil {
		a.updateStatusError(err.Error())
		return types.NewAppError(types.ErrConfig, "cannot start validation", err)
	}

	logger.Info("starting validation",
		logger.String("folder", folder),
		logger.Bool("strictPDF", extractor.Strict()))

	done := make(chan struct{})
	a.mu.Lock()
	a.stats = validator.Stats{}
	a.total = 0
	a.runDone = done
	a.mu.Unlock()

	events := make(chan validator.Event, 64)
	g, ctx := errgroup.WithContext(a.runContext())
	g.Go(func() error {
		defer close(events)
		_, err := runner.Run(ctx, folder, events)
		return err
	})
	g.Go(func() error {
		for ev := range events {
			a.handleEvent(ctx, ev)
		}
		return nil
	})

	go func() {
		defer close(done)
		if err := g.Wait(); err != nil {
			logger.Error("validation run failed", err, logger.String("folder", folder))
			a.updateStatusError(err.Error())
		}
	}()
	return nil
}

// handleEvent applies one worker event to the display state.
func (a *App) handleEvent(ctx context.Context, ev validator.Event) {
	switch e := ev.(type) {
	case validator.RunStarted:
		a.mu.Lock()
		a.total = e.Total
		a.mu.Unlock()
		a.updateStatus(types.PhaseValidating, 0, fmt.Sprintf("Scanning %d certificates", e.Total))
		a.safeEmit(EventValidationStarted, e)

	case validator.FileScanned:
		a.safeEmit(EventFileScanned, e)
		a.emitPreview(ctx, e.Path)

	case validator.FileSkipped:
		a.safeEmit(EventFileSkipped, e)

	case validator.StatsUpdated:
		a.mu.Lock()
		a.stats = e.Stats
		a.mu.Unlock()
		progress := 100
		if e.Total > 0 {
			progress = e.Stats.Scanned * 100 / e.Total
		}
		a.updateStatus(types.PhaseValidating, progress,
			fmt.Sprintf("Scanned %d of %d", e.Stats.Scanned, e.Total))
		a.safeEmit(EventStats, e.Stats)

	case validator.ReportWriting:
		a.updateStatus(types.PhaseReporting, 100,
			fmt.Sprintf("Writing %d errors to %s", e.Records, filepath.Base(e.Path)))

	case validator.RunComplete:
		a.mergeResult(e.Result)
		a.safeEmit(EventComplete, e.Result)
	}
}

// mergeResult takes over the final result of a run.
func (a *App) mergeResult(result *validator.RunResult) {
	a.mu.Lock()
	a.lastResult = result
	a.stats = result.Stats
	a.mu.Unlock()

	msg := fmt.Sprintf("Scanned: %d | Valid: %d | Errors: %d",
		result.Stats.Scanned, result.Stats.Valid, result.Stats.Errors)
	if result.ReportError != "" {
		msg += " (report not saved: " + result.ReportError + ")"
	}
	a.updateStatus(types.PhaseComplete, 100, msg)
}

func (a *App) emitPreview(ctx context.Context, path string) {
	if a.previewer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, previewTimeout)
	defer cancel()

	preview, err := a.previewer.Render(ctx, path)
	if err != nil {
		logger.Debug("preview unavailable", logger.String("file", filepath.Base(path)), logger.Err(err))
		a.safeEmit(EventPreview, map[string]interface{}{
			"file_name": filepath.Base(path),
			"error":     err.Error(),
		})
		return
	}
	a.safeEmit(EventPreview, preview)
}

// GetStats returns the counters of the current or last run.
func (a *App) GetStats() validator.Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// GetLastResult returns the result of the last completed run, or nil.
func (a *App) GetLastResult() *validator.RunResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastResult
}

// GetReportRows returns the rows of the error report, header included.
func (a *App) GetReportRows() ([][]string, error) {
	rows, err := results.ReadRows(a.reportPath())
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return [][]string{}, nil
		}
		return nil, types.NewAppError(types.ErrPersistence, "cannot read error report", err)
	}
	return rows, nil
}

// GetCertificateInfo returns basic information about a certificate in the
// selected folder.
func (a *App) GetCertificateInfo(filename string) (*pdf.PDFInfo, error) {
	a.mu.RLock()
	folder := a.folder
	a.mu.RUnlock()
	if folder == "" {
		return nil, types.NewAppError(types.ErrInvalidInput, "no folder selected", nil)
	}
	return pdf.GetPDFInfo(filepath.Join(folder, filepath.Base(filename)))
}

// GetStatus returns the current processing status.
// This method is thread-safe.
func (a *App) GetStatus() *types.Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()

	// Return a copy to prevent external modification
	return &types.Status{
		Phase:    a.status.Phase,
		Progress: a.status.Progress,
		Message:  a.status.Message,
		Error:    a.status.Error,
	}
}

// IsProcessing returns true if a validation run is in progress.
// This method is thread-safe.
func (a *App) IsProcessing() bool {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return isActive(a.status.Phase)
}

func isActive(phase types.ProcessPhase) bool {
	switch phase {
	case types.PhaseIdle, types.PhaseComplete, types.PhaseError:
		return false
	default:
		return true
	}
}

// tryBeginRun moves to the loading phase unless a run is active.
func (a *App) tryBeginRun() bool {
	a.statusMu.Lock()
	if isActive(a.status.Phase) {
		a.statusMu.Unlock()
		return false
	}
	a.status.Phase = types.PhaseLoading
	a.status.Progress = 0
	a.status.Message = "Starting validation"
	a.status.Error = ""
	statusCopy := *a.status
	a.statusMu.Unlock()

	a.safeEmit(EventStatus, statusCopy)
	return true
}

// updateStatus updates the current processing status.
func (a *App) updateStatus(phase types.ProcessPhase, progress int, message string) {
	a.statusMu.Lock()
	a.status.Phase = phase
	a.status.Progress = progress
	a.status.Message = message
	a.status.Error = ""

	// Get callback while holding lock
	callback := a.statusCallback
	statusCopy := *a.status
	a.statusMu.Unlock()

	// Call callback outside of lock to prevent deadlocks
	if callback != nil {
		callback(&statusCopy)
	}
	a.safeEmit(EventStatus, statusCopy)
}

// updateStatusError updates the status with an error.
func (a *App) updateStatusError(errorMsg string) {
	a.statusMu.Lock()
	a.status.Phase = types.PhaseError
	a.status.Error = errorMsg

	callback := a.statusCallback
	statusCopy := *a.status
	a.statusMu.Unlock()

	if callback != nil {
		callback(&statusCopy)
	}
	a.safeEmit(EventStatus, statusCopy)
}

func (a *App) reportPath() string {
	if a.config == nil {
		return config.DefaultReportPath
	}
	return a.config.GetReportPath()
}

func (a *App) certificatePattern() string {
	if a.config == nil {
		return config.DefaultCertificatePattern
	}
	return a.config.GetCertificatePattern()
}

func (a *App) strictPDF() bool {
	return a.config != nil && a.config.IsStrictPDFValidation()
}

// GetSettings returns the current application settings for the frontend.
func (a *App) GetSettings() *types.Config {
	if a.config == nil {
		return config.Defaults()
	}
	return a.config.GetConfig()
}

// SaveSettings stores the editable settings and re-creates the previewer.
func (a *App) SaveSettings(reportPath, pattern string, strict bool, preview types.PreviewConfig) error {
	if a.config == nil {
		return types.NewAppError(types.ErrConfig, "configuration not initialized", nil)
	}
	if a.IsProcessing() {
		return types.NewAppError(types.ErrBusy, "cannot change settings during a run", nil)
	}
	if err := a.config.UpdateConfig(reportPath, pattern, strict, preview); err != nil {
		return err
	}
	a.initPreviewer()
	return nil
}

// OpenCSVDialog opens a file dialog for the reference CSV.
// Returns the selected path or empty string if cancelled.
func (a *App) OpenCSVDialog() string {
	logger.Debug("opening reference file dialog")
	opts := runtime.OpenDialogOptions{
		Title: "Select reference CSV",
		Filters: []runtime.FileFilter{
			{DisplayName: "CSV files (*.csv)", Pattern: "*.csv"},
			{DisplayName: "All files (*.*)", Pattern: "*.*"},
		},
	}
	if a.config != nil && a.config.GetLastCSVPath() != "" {
		opts.DefaultDirectory = filepath.Dir(a.config.GetLastCSVPath())
	}
	selection, err := runtime.OpenFileDialog(a.ctx, opts)
	if err != nil {
		logger.Error("file dialog error", err)
		return ""
	}
	logger.Debug("file selected", logger.String("path", selection))
	return selection
}

// OpenFolderDialog opens a directory dialog for the certificate folder.
// Returns the selected directory path or empty string if cancelled.
func (a *App) OpenFolderDialog() string {
	logger.Debug("opening folder dialog")
	opts := runtime.OpenDialogOptions{Title: "Select certificate folder"}
	if a.config != nil {
		opts.DefaultDirectory = a.config.GetLastFolder()
	}
	selection, err := runtime.OpenDirectoryDialog(a.ctx, opts)
	if err != nil {
		logger.Error("directory dialog error", err)
		return ""
	}
	logger.Debug("directory selected", logger.String("path", selection))
	return selection
}
