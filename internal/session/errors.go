package session

import "errors"

// Sentinel errors surfaced by the session core. The HTTP layer maps these to
// typed response codes; anything else is treated as an upstream failure.
var (
	// ErrNotStarted signals that the begin-test confirmation never happened:
	// the caller must be redirected to the begin screen. No test fetch is
	// issued in this case.
	ErrNotStarted = errors.New("session: test not started")

	// ErrUnknownQuestion rejects writes for question ids outside the test.
	ErrUnknownQuestion = errors.New("session: unknown question")

	// ErrInvalidChoice rejects a choice key that is not legal for the
	// question. The ledger never stores such a write.
	ErrInvalidChoice = errors.New("session: invalid choice for question")

	// ErrNotAtLastQuestion guards the review screen: it opens only from the
	// final question.
	ErrNotAtLastQuestion = errors.New("session: review only opens from the last question")

	// ErrNotReviewing rejects review-only operations outside review.
	ErrNotReviewing = errors.New("session: not reviewing")

	// ErrIndexOutOfRange rejects a jump target outside the question list.
	ErrIndexOutOfRange = errors.New("session: question index out of range")

	// ErrWrongState rejects an operation the current lifecycle state does
	// not permit (e.g. answering while submitting).
	ErrWrongState = errors.New("session: operation not allowed in current state")

	// ErrSubmitInFlight means a terminal submission is already running; the
	// at-most-once guard suppresses the duplicate trigger.
	ErrSubmitInFlight = errors.New("session: submit already in flight")
)
