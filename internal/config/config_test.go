package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certificate-validator/internal/logger"
	"certificate-validator/internal/types"
)

func TestNewConfigManager(t *testing.T) {
	t.Run("with custom path", func(t *testing.T) {
		customPath := filepath.Join(t.TempDir(), "config.yaml")
		cm, err := NewConfigManager(customPath)
		require.NoError(t, err)
		assert.Equal(t, customPath, cm.GetConfigPath())
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		cm, err := NewConfigManager("")
		require.NoError(t, err)
		assert.NotEmpty(t, cm.GetConfigPath())
		assert.Equal(t, DefaultConfigFileName, filepath.Base(cm.GetConfigPath()))
	})
}

func TestConfigManager_LoadMissingFileUsesDefaults(t *testing.T) {
	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cm.Load())

	assert.Equal(t, DefaultReportPath, cm.GetReportPath())
	assert.Equal(t, DefaultCertificatePattern, cm.GetCertificatePattern())
	assert.False(t, cm.IsStrictPDFValidation())

	preview := cm.GetPreview()
	assert.True(t, preview.Enabled)
	assert.Equal(t, DefaultPreviewDPI, preview.DPI)
	assert.Equal(t, DefaultPreviewWidth, preview.MaxWidth)
	assert.Equal(t, DefaultPreviewHeight, preview.MaxHeight)
}

func TestConfigManager_LoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `report_path: out/errors.xlsx
certificate_pattern: "*.PDF"
strict_pdf_validation: true
preview:
  enabled: false
  dpi: 72
  max_width: 400
  max_height: 600
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	require.NoError(t, cm.Load())

	assert.Equal(t, "out/errors.xlsx", cm.GetReportPath())
	assert.Equal(t, "*.PDF", cm.GetCertificatePattern())
	assert.True(t, cm.IsStrictPDFValidation())
	assert.False(t, cm.GetPreview().Enabled)
	assert.Equal(t, 72, cm.GetPreview().DPI)

	lc := cm.GetLogConfig()
	assert.Equal(t, logger.LevelDebug, lc.Level)
	assert.Equal(t, DefaultLogFile, lc.LogFilePath, "empty log file falls back to default")
}

func TestConfigManager_InvalidYAMLUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report_path: [unterminated"), 0644))

	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	require.NoError(t, cm.Load())
	assert.Equal(t, DefaultReportPath, cm.GetReportPath())
}

func TestConfigManager_EnvOverrides(t *testing.T) {
	t.Setenv(EnvReportPath, "/tmp/env-report.xlsx")
	t.Setenv(EnvCertificatePattern, "cert-*.pdf")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvStrictPDF, "true")

	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, cm.Load())

	assert.Equal(t, "/tmp/env-report.xlsx", cm.GetReportPath())
	assert.Equal(t, "cert-*.pdf", cm.GetCertificatePattern())
	assert.Equal(t, logger.LevelError, cm.GetLogConfig().Level)
	assert.True(t, cm.IsStrictPDFValidation())
}

func TestConfigManager_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	require.NoError(t, cm.Load())
	require.NoError(t, cm.UpdateConfig("saved.xlsx", "*.pdf", true, types.PreviewConfig{Enabled: true, DPI: 96}))
	require.NoError(t, cm.RememberInputs("/data/refs.csv", "/data/certs"))

	reloaded, err := NewConfigManager(path)
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())

	assert.Equal(t, "saved.xlsx", reloaded.GetReportPath())
	assert.True(t, reloaded.IsStrictPDFValidation())
	assert.Equal(t, 96, reloaded.GetPreview().DPI)
	assert.Equal(t, DefaultPreviewWidth, reloaded.GetPreview().MaxWidth)
	assert.Equal(t, "/data/refs.csv", reloaded.GetLastCSVPath())
	assert.Equal(t, "/data/certs", reloaded.GetLastFolder())
}

func TestConfigManager_RememberInputsKeepsExisting(t *testing.T) {
	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, cm.RememberInputs("a.csv", "certs"))
	require.NoError(t, cm.RememberInputs("", "other"))

	assert.Equal(t, "a.csv", cm.GetLastCSVPath())
	assert.Equal(t, "other", cm.GetLastFolder())
}
