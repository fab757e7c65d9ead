// Package config provides configuration management for the certificate validator.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"certificate-validator/internal/logger"
	"certificate-validator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "config.yaml"
	// DefaultReportPath is the error report written relative to the working directory
	DefaultReportPath = "validation_errors.xlsx"
	// DefaultCertificatePattern selects which folder entries are certificates
	DefaultCertificatePattern = "*.pdf"
	// DefaultPreviewDPI matches the resolution previews were historically rendered at
	DefaultPreviewDPI = 150
	// DefaultPreviewWidth and DefaultPreviewHeight bound the preview to A4 at 96 dpi
	DefaultPreviewWidth  = 794
	DefaultPreviewHeight = 1123
	// DefaultLogFile is the default log file path
	DefaultLogFile = "certificate-validator.log"
	// DefaultLogLevel is the default log level
	DefaultLogLevel = "info"

	// EnvReportPath overrides report_path
	EnvReportPath = "CERTVAL_REPORT_PATH"
	// EnvCertificatePattern overrides certificate_pattern
	EnvCertificatePattern = "CERTVAL_CERT_PATTERN"
	// EnvLogLevel overrides log.level
	EnvLogLevel = "CERTVAL_LOG_LEVEL"
	// EnvStrictPDF overrides strict_pdf_validation
	EnvStrictPDF = "CERTVAL_STRICT_PDF"
)

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	config     *types.Config
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, it uses the default path in user's home directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "certificate-validator", DefaultConfigFileName)
	}

	logger.Info("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

// Defaults returns a Config with default values.
func Defaults() *types.Config {
	return defaultConfig()
}

func defaultConfig() *types.Config {
	return &types.Config{
		ReportPath:         DefaultReportPath,
		CertificatePattern: DefaultCertificatePattern,
		Preview: types.PreviewConfig{
			Enabled:   true,
			DPI:       DefaultPreviewDPI,
			MaxWidth:  DefaultPreviewWidth,
			MaxHeight: DefaultPreviewHeight,
		},
		Log: types.LogConfig{
			File:  DefaultLogFile,
			Level: DefaultLogLevel,
		},
	}
}

// Load loads configuration from the config file.
// If the file doesn't exist, it uses default values. Environment variables
// are applied last and win over the file.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		config := defaultConfig()
		if err := yaml.Unmarshal(data, config); err != nil {
			// Invalid YAML, use defaults
			logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			logger.Info("configuration loaded successfully",
				logger.String("path", m.configPath),
				logger.String("reportPath", config.ReportPath),
				logger.String("pattern", config.CertificatePattern))
			m.config = config
		}
	}

	m.applyDefaults()
	m.applyEnv()
	return nil
}

// applyDefaults fills empty fields left by a partial config file.
func (m *ConfigManager) applyDefaults() {
	c := m.config
	if c.ReportPath == "" {
		c.ReportPath = DefaultReportPath
	}
	if c.CertificatePattern == "" {
		c.CertificatePattern = DefaultCertificatePattern
	}
	if c.Preview.DPI <= 0 {
		c.Preview.DPI = DefaultPreviewDPI
	}
	if c.Preview.MaxWidth <= 0 {
		c.Preview.MaxWidth = DefaultPreviewWidth
	}
	if c.Preview.MaxHeight <= 0 {
		c.Preview.MaxHeight = DefaultPreviewHeight
	}
	if c.Log.File == "" {
		c.Log.File = DefaultLogFile
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (m *ConfigManager) applyEnv() {
	if v := os.Getenv(EnvReportPath); v != "" {
		m.config.ReportPath = v
	}
	if v := os.Getenv(EnvCertificatePattern); v != "" {
		m.config.CertificatePattern = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		m.config.Log.Level = v
	}
	if v := os.Getenv(EnvStrictPDF); v != "" {
		if strict, err := strconv.ParseBool(v); err == nil {
			m.config.StrictPDFValidation = strict
		} else {
			logger.Warn("ignoring invalid boolean", logger.String("env", EnvStrictPDF), logger.String("value", v))
		}
	}
}

// Save saves the current configuration to the config file.
func (m *ConfigManager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved successfully", logger.String("path", m.configPath))
	return nil
}

// GetConfig returns the current configuration.
func (m *ConfigManager) GetConfig() *types.Config {
	if m.config == nil {
		return defaultConfig()
	}
	return m.config
}

// SetConfig sets the entire configuration.
func (m *ConfigManager) SetConfig(config *types.Config) {
	m.config = config
}

// GetConfigPath returns the path to the config file.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// GetReportPath returns where the error report is appended.
func (m *ConfigManager) GetReportPath() string {
	if m.config != nil && m.config.ReportPath != "" {
		return m.config.ReportPath
	}
	return DefaultReportPath
}

// GetCertificatePattern returns the filename pattern that marks a certificate.
func (m *ConfigManager) GetCertificatePattern() string {
	if m.config != nil && m.config.CertificatePattern != "" {
		return m.config.CertificatePattern
	}
	return DefaultCertificatePattern
}

// GetPreview returns the preview settings.
func (m *ConfigManager) GetPreview() types.PreviewConfig {
	return m.GetConfig().Preview
}

// IsStrictPDFValidation reports whether certificates are structurally validated before extraction.
func (m *ConfigManager) IsStrictPDFValidation() bool {
	return m.config != nil && m.config.StrictPDFValidation
}

// GetLogConfig builds the logger configuration from the loaded settings.
func (m *ConfigManager) GetLogConfig() *logger.Config {
	c := m.GetConfig().Log
	lc := logger.DefaultConfig()
	lc.LogFilePath = c.File
	lc.Level = logger.ParseLevel(c.Level)
	lc.EnableConsole = c.Console
	return lc
}

// GetLastCSVPath returns the most recently loaded reference file.
func (m *ConfigManager) GetLastCSVPath() string {
	if m.config != nil {
		return m.config.LastCSVPath
	}
	return ""
}

// GetLastFolder returns the most recently selected certificate folder.
func (m *ConfigManager) GetLastFolder() string {
	if m.config != nil {
		return m.config.LastFolder
	}
	return ""
}

// RememberInputs records the last CSV path and folder and saves the configuration.
// Empty values leave the stored ones unchanged.
func (m *ConfigManager) RememberInputs(csvPath, folder string) error {
	if m.config == nil {
		m.config = defaultConfig()
	}
	if csvPath != "" {
		m.config.LastCSVPath = csvPath
	}
	if folder != "" {
		m.config.LastFolder = folder
	}
	return m.Save()
}

// UpdateConfig updates the configuration with new values and saves it.
func (m *ConfigManager) UpdateConfig(reportPath, pattern string, strict bool, preview types.PreviewConfig) error {
	logger.Info("updating configuration")
	if m.config == nil {
		m.config = defaultConfig()
	}

	if reportPath != "" {
		m.config.ReportPath = reportPath
	}
	if pattern != "" {
		m.config.CertificatePattern = pattern
	}
	m.config.StrictPDFValidation = strict
	m.config.Preview = preview
	m.applyDefaults()

	return m.Save()
}
