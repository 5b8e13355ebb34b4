package hub

// Per-call failure codes reported to the client.
const (
	ErrCodeTargetNotFound     = "TARGET_NOT_FOUND"
	ErrCodeMethodNotInvocable = "METHOD_NOT_INVOCABLE"
	ErrCodeContractViolation  = "CONTRACT_VIOLATION"
	ErrCodeInvalidArgument    = "INVALID_ARGUMENT"
	ErrCodeDownstream         = "DOWNSTREAM_ERROR"
)

// DispatchError is a structured per-call failure. It is encoded through the
// value codec into the Fail envelope; it never terminates the session.
type DispatchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DispatchError) Error() string {
	return e.Code + ": " + e.Message
}

// ErrorCode preserves the failure code across the value codec.
func (e *DispatchError) ErrorCode() string { return e.Code }

// NewDispatchError creates a DispatchError.
func NewDispatchError(code, message string) *DispatchError {
	return &DispatchError{Code: code, Message: message}
}
