package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// FailReason categorizes why a dispatch failed. The bot never retries, so the
// classification exists for logging and metrics, not failover.
type FailReason string

const (
	// ReasonNetwork covers transport failures: DNS, refused connections,
	// resets mid-stream.
	ReasonNetwork FailReason = "network"

	// ReasonAuth indicates the provider rejected the credential.
	ReasonAuth FailReason = "auth"

	// ReasonRateLimit indicates HTTP 429 from the provider.
	ReasonRateLimit FailReason = "rate_limit"

	// ReasonServerError indicates a 5xx from the provider.
	ReasonServerError FailReason = "server_error"

	// ReasonBadRequest indicates the provider rejected the request shape.
	ReasonBadRequest FailReason = "bad_request"

	// ReasonEmptyResponse indicates a well-formed reply with no candidate.
	ReasonEmptyResponse FailReason = "empty_response"

	// ReasonBudget indicates the history ceiling cannot hold the system turn.
	ReasonBudget FailReason = "budget"

	// ReasonEncoding indicates token counting failed for this request.
	ReasonEncoding FailReason = "encoding"

	// ReasonUnknown is the fallback classification.
	ReasonUnknown FailReason = "unknown"
)

// DispatchError is a failed exchange against a completion provider. The store
// keeps the user turn that triggered the exchange (no rollback), and the
// caller shows the user a fixed fallback message, never this error's detail.
type DispatchError struct {
	Provider string
	Model    string
	Reason   FailReason
	Status   int
	Cause    error
}

func (e *DispatchError) Error() string {
	msg := fmt.Sprintf("[%s] %s model=%s", e.Reason, e.Provider, e.Model)
	if e.Status != 0 {
		msg += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// newDispatchError classifies cause into a DispatchError.
func newDispatchError(provider, model string, cause error) *DispatchError {
	e := &DispatchError{Provider: provider, Model: model, Reason: ReasonUnknown, Cause: cause}

	var apiErr *openai.APIError
	if errors.As(cause, &apiErr) {
		e.Status = apiErr.HTTPStatusCode
		e.Reason = classifyStatus(apiErr.HTTPStatusCode)
		return e
	}
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		e.Reason = ReasonNetwork
		return e
	}
	var reqErr *openai.RequestError
	if errors.As(cause, &reqErr) {
		e.Status = reqErr.HTTPStatusCode
		e.Reason = classifyStatus(reqErr.HTTPStatusCode)
		return e
	}
	e.Reason = ReasonNetwork
	return e
}

func classifyStatus(status int) FailReason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonAuth
	case status == http.StatusTooManyRequests:
		return ReasonRateLimit
	case status == http.StatusBadRequest || status == http.StatusNotFound:
		return ReasonBadRequest
	case status >= 500:
		return ReasonServerError
	default:
		return ReasonUnknown
	}
}

// AsDispatchError extracts a DispatchError from an error chain.
func AsDispatchError(err error) (*DispatchError, bool) {
	var de *DispatchError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
