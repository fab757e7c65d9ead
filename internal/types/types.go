package types

import "errors"

// Config 应用配置
type Config struct {
	ReportPath          string        `yaml:"report_path" json:"report_path"`
	CertificatePattern  string        `yaml:"certificate_pattern" json:"certificate_pattern"`
	StrictPDFValidation bool          `yaml:"strict_pdf_validation" json:"strict_pdf_validation"`
	Preview             PreviewConfig `yaml:"preview" json:"preview"`
	Log                 LogConfig     `yaml:"log" json:"log"`
	LastCSVPath         string        `yaml:"last_csv_path,omitempty" json:"last_csv_path,omitempty"`
	LastFolder          string        `yaml:"last_folder,omitempty" json:"last_folder,omitempty"`
}

// PreviewConfig controls first-page certificate previews.
type PreviewConfig struct {
	Enabled   bool `yaml:"enabled" json:"enabled"`
	DPI       int  `yaml:"dpi" json:"dpi"`
	MaxWidth  int  `yaml:"max_width" json:"max_width"`
	MaxHeight int  `yaml:"max_height" json:"max_height"`
}

// LogConfig 日志配置
type LogConfig struct {
	File    string `yaml:"file" json:"file"`
	Level   string `yaml:"level" json:"level"`
	Console bool   `yaml:"console" json:"console"`
}

// ProcessPhase 处理阶段枚举
type ProcessPhase string

const (
	PhaseIdle       ProcessPhase = "idle"
	PhaseLoading    ProcessPhase = "loading"
	PhaseValidating ProcessPhase = "validating"
	PhaseReporting  ProcessPhase = "reporting"
	PhaseComplete   ProcessPhase = "complete"
	PhaseError      ProcessPhase = "error"
)

// Status 处理状态
type Status struct {
	Phase    ProcessPhase `json:"phase"`
	Progress int          `json:"progress"` // 0-100
	Message  string       `json:"message"`
	Error    string       `json:"error,omitempty"`
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrFormat       ErrorCode = "FORMAT_ERROR"
	ErrPersistence  ErrorCode = "PERSISTENCE_ERROR"
	ErrBusy         ErrorCode = "BUSY"
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
