package chi

// ErrorCode is the machine-readable error code in an error response body.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest            ErrorCode = "bad_request"
	ErrorCodeUnauthorized          ErrorCode = "unauthorized"
	ErrorCodeNotFound              ErrorCode = "not_found"
	ErrorCodeRunNotActive          ErrorCode = "run_not_active"
	ErrorCodeRunActive             ErrorCode = "run_active"
	ErrorCodeAnalyzerNotConfigured ErrorCode = "analyzer_not_configured"
	ErrorCodeAnalyzerFailed        ErrorCode = "analyzer_failed"
	ErrorCodeInternalError         ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
