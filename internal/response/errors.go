package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Identity ──────────────────────────────────────────────────────
	ErrIdentityRequired  ErrCode = "IDENTITY_REQUIRED"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Begin screen ──────────────────────────────────────────────────
	ErrTestNotFound     ErrCode = "TEST_NOT_FOUND"
	ErrAttemptsExceeded ErrCode = "ATTEMPTS_EXCEEDED"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrTestNotStarted    ErrCode = "TEST_NOT_STARTED"
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrSessionClosed     ErrCode = "SESSION_CLOSED"
	ErrTestLoadFailed    ErrCode = "TEST_LOAD_FAILED"
	ErrUnknownQuestion   ErrCode = "UNKNOWN_QUESTION"
	ErrInvalidChoice     ErrCode = "INVALID_CHOICE"
	ErrNotAtLastQuestion ErrCode = "NOT_AT_LAST_QUESTION"
	ErrNotReviewing      ErrCode = "NOT_REVIEWING"
	ErrSubmitInFlight    ErrCode = "SUBMIT_IN_FLIGHT"
	ErrSubmitFailed      ErrCode = "SUBMIT_FAILED"
	ErrWrongState        ErrCode = "WRONG_SESSION_STATE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Identity ──────────────────────────────────────────────────────
	case ErrIdentityRequired:
		return "Identity headers are required"
	case ErrStudentAccessOnly:
		return "This endpoint is restricted to students"

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Request validation failed"
	case ErrInvalidID:
		return "Invalid identifier"
	case ErrInvalidPayload:
		return "Invalid request payload"

	// ─── Begin screen ──────────────────────────────────────────────────
	case ErrTestNotFound:
		return "Test not found"
	case ErrAttemptsExceeded:
		return "Maximum number of attempts reached for this test"

	// ─── Session lifecycle ─────────────────────────────────────────────
	case ErrTestNotStarted:
		return "Test has not been started; confirm Begin Test first"
	case ErrSessionNotFound:
		return "No mounted session for this test"
	case ErrSessionClosed:
		return "Session is already submitted or closed"
	case ErrTestLoadFailed:
		return "Failed to load test from the testing platform"
	case ErrUnknownQuestion:
		return "Question does not belong to this test"
	case ErrInvalidChoice:
		return "Choice is not valid for this question"
	case ErrNotAtLastQuestion:
		return "Review is only available from the last question"
	case ErrNotReviewing:
		return "Session is not on the review screen"
	case ErrSubmitInFlight:
		return "A submission is already in progress"
	case ErrSubmitFailed:
		return "Submission failed; answers are preserved and retry is allowed"
	case ErrWrongState:
		return "Operation not allowed in the current session state"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests, slow down"

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error"
	default:
		return "Unknown error"
	}
}
