package pdf

// PDFInfo PDF 文件基本信息
type PDFInfo struct {
	FilePath  string `json:"file_path"`
	FileName  string `json:"file_name"`
	PageCount int    `json:"page_count"`
	FileSize  int64  `json:"file_size"`
}

// Preview is a rendered first page, ready to hand to the frontend.
type Preview struct {
	FileName  string `json:"file_name"`
	PageCount int    `json:"page_count"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	// DataURL is a base64 PNG "data:image/png;base64,..." URL.
	DataURL string `json:"data_url"`
}

// PDFErrorCode 错误代码枚举
type PDFErrorCode string

const (
	ErrPDFNotFound       PDFErrorCode = "PDF_NOT_FOUND"
	ErrPDFInvalid        PDFErrorCode = "PDF_INVALID"
	ErrPDFCorrupted      PDFErrorCode = "PDF_CORRUPTED"
	ErrExtractFailed     PDFErrorCode = "EXTRACT_FAILED"
	ErrRenderFailed      PDFErrorCode = "RENDER_FAILED"
	ErrRenderUnavailable PDFErrorCode = "RENDER_UNAVAILABLE"
)

// PDFError PDF 处理错误
type PDFError struct {
	Code    PDFErrorCode `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Page    int          `json:"page,omitempty"`
	Cause   error        `json:"-"`
}

// Error implements the error interface for PDFError
func (e *PDFError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *PDFError) Unwrap() error {
	return e.Cause
}

// NewPDFError creates a new PDFError with the given code, message, and optional cause
func NewPDFError(code PDFErrorCode, message string, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewPDFErrorWithDetails creates a new PDFError with details
func NewPDFErrorWithDetails(code PDFErrorCode, message, details string, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// NewPDFErrorWithPage creates a new PDFError with page information
func NewPDFErrorWithPage(code PDFErrorCode, message string, page int, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Page:    page,
		Cause:   cause,
	}
}
