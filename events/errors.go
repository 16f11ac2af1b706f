package events

import "fmt"

// DeliveryErrorKind classifies the terminal outcome of a failed delivery
// attempt.
type DeliveryErrorKind string

const (
	// DeliveryErrorNotConfigured means the sender has no SDK key and cannot
	// deliver anything.
	DeliveryErrorNotConfigured DeliveryErrorKind = "not_configured"
	// DeliveryErrorUnauthorized means the collector rejected the SDK key
	// (HTTP 401). Never retried.
	DeliveryErrorUnauthorized DeliveryErrorKind = "unauthorized"
	// DeliveryErrorBadRequest means the collector rejected the event payload
	// (HTTP 400). Never retried.
	DeliveryErrorBadRequest DeliveryErrorKind = "bad_request"
	// DeliveryErrorRateLimited means the collector kept returning HTTP 429
	// until the retry budget ran out.
	DeliveryErrorRateLimited DeliveryErrorKind = "rate_limited"
	// DeliveryErrorServerError means the collector kept returning a 5xx
	// status until the retry budget ran out.
	DeliveryErrorServerError DeliveryErrorKind = "server_error"
	// DeliveryErrorNetworkError means the request kept failing at the
	// transport level until the retry budget ran out.
	DeliveryErrorNetworkError DeliveryErrorKind = "network_error"
	// DeliveryErrorTimeout means the request kept exceeding the per-attempt
	// timeout until the retry budget ran out.
	DeliveryErrorTimeout DeliveryErrorKind = "timeout"
	// DeliveryErrorInvalidResponse means the collector returned a status the
	// client does not understand. Never retried.
	DeliveryErrorInvalidResponse DeliveryErrorKind = "invalid_response"
)

// Retryable reports whether delivery attempts with this outcome are worth
// repeating. Unauthorized and BadRequest indicate that the credential or the
// event itself is permanently rejectable; InvalidResponse indicates a protocol
// mismatch that a retry will not fix.
func (k DeliveryErrorKind) Retryable() bool {
	switch k {
	case DeliveryErrorRateLimited, DeliveryErrorServerError, DeliveryErrorNetworkError, DeliveryErrorTimeout:
		return true
	}
	return false
}

// DeliveryError is the error type returned by EventSender. The buffer logs
// these and re-queues the affected batch; they are never surfaced to
// application code.
type DeliveryError struct {
	// Kind is the classification of the failure.
	Kind DeliveryErrorKind
	// StatusCode is the HTTP status that caused the failure, or zero if the
	// failure happened below the HTTP layer.
	StatusCode int
	// Err is the underlying transport error, if any.
	Err error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("event delivery failed (%s, HTTP %d)", e.Kind, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("event delivery failed (%s): %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("event delivery failed (%s)", e.Kind)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
