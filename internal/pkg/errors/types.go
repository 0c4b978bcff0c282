package errors

import "fmt"

// ErrorType classifies an AppError so callers can branch on the kind of
// failure without string-matching messages.
type ErrorType int

const (
	// Unknown is the zero value: an error whose kind has not been classified,
	// or a plain non-AppError error seen through GetType.
	Unknown ErrorType = iota

	// Internal marks a programming error or otherwise unrecoverable internal
	// state.
	Internal

	// System marks an infrastructure failure: disk, local OS resource,
	// process launch.
	System

	// Unauthorized marks a missing or expired credential.
	Unauthorized

	// Forbidden marks an authenticated caller lacking permission.
	Forbidden

	// InvalidInput marks a validation failure on caller-supplied data
	// (config, request body, CLI flags).
	InvalidInput

	// Conflict marks a uniqueness or state-transition violation.
	Conflict

	// NotFound marks a missing row, file, or registry entry.
	NotFound

	// ExecutionFailed marks a business-logic step that ran but did not
	// succeed, with no more specific kind below applying.
	ExecutionFailed

	// ParsingFailed marks a decode/parse failure on an otherwise-received
	// payload.
	ParsingFailed

	// Timeout marks a context deadline or explicit timeout firing.
	Timeout

	// Unavailable marks a dependency that is temporarily unreachable.
	Unavailable

	// TransientNetwork marks a fetch timeout, connection reset, or 5xx
	// response from an outbound HTTP call. Retried with backoff by the
	// caller; see internal/extract/markdown and internal/extract/browser.
	TransientNetwork

	// AntiBotChallenge marks a detected verification challenge or known
	// block-page signature.
	AntiBotChallenge

	// Delisted marks a homepage-redirect or 404/410 signature identifying a
	// product page that no longer exists.
	Delisted

	// ParseFailed marks an LLM or vision response that failed JSON
	// decoding even after the repair pass.
	ParseFailed

	// ValidationFailed marks extracted data that failed the shape checks in
	// spec §4.3/§4.4 (title length, price format, image presence).
	ValidationFailed

	// StoreUnavailable marks the persistence store being absent or corrupt.
	StoreUnavailable

	// Fatal marks a condition the process cannot recover from at startup:
	// missing credentials, browser launch failure.
	Fatal
)

var errorTypeNames = map[ErrorType]string{
	Unknown:           "Unknown",
	Internal:          "Internal",
	System:            "System",
	Unauthorized:      "Unauthorized",
	Forbidden:         "Forbidden",
	InvalidInput:      "InvalidInput",
	Conflict:          "Conflict",
	NotFound:          "NotFound",
	ExecutionFailed:   "ExecutionFailed",
	ParsingFailed:     "ParsingFailed",
	Timeout:           "Timeout",
	Unavailable:       "Unavailable",
	TransientNetwork:  "TransientNetwork",
	AntiBotChallenge:  "AntiBotChallenge",
	Delisted:          "Delisted",
	ParseFailed:       "ParseFailed",
	ValidationFailed:  "ValidationFailed",
	StoreUnavailable:  "StoreUnavailable",
	Fatal:             "Fatal",
}

// String renders the ErrorType name, or "ErrorType(N)" for an undefined
// value — matching what `stringer -type=ErrorType` would have generated.
func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// Error lets ErrorType itself satisfy the error interface, so a bare kind
// can stand in for an error value in tests and examples.
func (t ErrorType) Error() string {
	return t.String()
}
