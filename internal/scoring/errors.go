package scoring

// JobError represents a job-fatal pipeline error
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *JobError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *JobError) Unwrap() error {
	return e.Cause
}

// Job-fatal error codes. Per-word and per-segment failures never carry these;
// they degrade to zero or null scores instead.
const (
	ErrCodeTransport = "TRANSPORT_FAILED"
	ErrCodeDecode    = "DECODE_FAILED"
	ErrCodeSTT       = "STT_FAILED"
	ErrCodeAlign     = "ALIGN_FAILED"
	ErrCodeFeature   = "FEATURE_FAILED"
)

// NewJobError creates a job error
func NewJobError(code, message string, cause error) *JobError {
	return &JobError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
