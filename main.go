package main

import (
	"context"
	"embed"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"certificate-validator/internal/config"
	"certificate-validator/internal/logger"
)

//go:embed all:frontend/dist
var assets embed.FS

// cliEnv is shared by all commands once the persistent setup has run.
type cliEnv struct {
	configPath string
	verbose    bool
	config     *config.ConfigManager
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}

	root := &cobra.Command{
		Use:   "certificate-validator",
		Short: "Check certificate PDFs against a reference CSV",
		Long: "Certificate Validator cross-checks a folder of certificate PDFs against a\n" +
			"reference spreadsheet and appends mismatches to an XLSX error report.\n" +
			"Without a subcommand the desktop interface is started.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(env.config)
		},
	}

	root.PersistentFlags().StringVar(&env.configPath, "config", "", "config file (default ~/.config/certificate-validator/config.yaml)")
	root.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "debug logging, also written to stderr")

	root.AddCommand(newValidateCmd(env))
	return root
}

// setup loads .env, the config file and the logger, in that order.
func (e *cliEnv) setup() error {
	// .env is optional
	_ = godotenv.Load()

	cm, err := config.NewConfigManager(e.configPath)
	if err != nil {
		return err
	}
	if err := cm.Load(); err != nil {
		return err
	}
	e.config = cm

	lc := cm.GetLogConfig()
	if e.verbose {
		lc.Level = logger.LevelDebug
		lc.EnableConsole = true
	}
	if err := logger.Init(lc); err != nil {
		return err
	}
	logger.Debug("configuration ready", logger.String("path", cm.GetConfigPath()))
	return nil
}

// CertificateHandler serves certificate files from the selected folder so
// the frontend can open them in its own PDF viewer.
type CertificateHandler struct {
	app *App
}

func (h *CertificateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/certificate/") {
		http.NotFound(w, r)
		return
	}

	h.app.mu.RLock()
	folder := h.app.folder
	h.app.mu.RUnlock()
	if folder == "" {
		http.NotFound(w, r)
		return
	}

	// Only plain names inside the selected folder are served.
	name := filepath.Base(strings.TrimPrefix(r.URL.Path, "/certificate/"))
	filePath := filepath.Join(folder, name)
	if info, err := os.Stat(filePath); err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, filePath)
}

func runGUI(cm *config.ConfigManager) error {
	app := NewApp()
	app.config = cm
	app.SetWailsRuntime(true)

	err := wails.Run(&options.App{
		Title:  "Certificate Validator",
		Width:  1200,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets:  assets,
			Handler: &CertificateHandler{app: app},
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		OnBeforeClose: func(ctx context.Context) (prevent bool) {
			if !app.IsProcessing() {
				return false
			}
			result, err := runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
				Type:          runtime.QuestionDialog,
				Title:         "Validation in progress",
				Message:       "Certificates are still being checked. Quit anyway?\nThe error report of this run will not be written.",
				Buttons:       []string{"Cancel", "Quit"},
				DefaultButton: "Cancel",
				CancelButton:  "Cancel",
			})
			if err != nil {
				// If dialog fails, allow close
				return false
			}
			return result == "Cancel"
		},
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logger.Error("wails application failed", err)
	}
	return err
}
