package error_types

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal failure of a dispatch run
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration is a precondition failure on the evidence or the configured scope
	KindConfiguration
	// KindDispatch means the processing request could not be submitted
	KindDispatch
	// KindPoll means a task status query failed while waiting for the request
	KindPoll
	// KindRetrieval means a remote artifact could not be fetched into the staging directory
	KindRetrieval
	// KindNoArtifacts means the run completed but produced no usable artifact
	KindNoArtifacts
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindDispatch:
		return "dispatch error"
	case KindPoll:
		return "poll error"
	case KindRetrieval:
		return "retrieval error"
	case KindNoArtifacts:
		return "no artifacts"
	default:
		return "unknown error"
	}
}

// sentinels for use with errors.Is
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrDispatch      = &Error{Kind: KindDispatch}
	ErrPoll          = &Error{Kind: KindPoll}
	ErrRetrieval     = &Error{Kind: KindRetrieval}
	ErrNoArtifacts   = &Error{Kind: KindNoArtifacts}
)

// Error is the single error type returned by every stage of a run.
// All kinds are fatal to the run; none are retried.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Err.Error())
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the package sentinels can be used with errors.Is
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func NewConfigurationError(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func NewDispatchError(requestId string, err error) error {
	return &Error{Kind: KindDispatch, Message: fmt.Sprintf("failed to submit request %s", requestId), Err: err}
}

func NewPollError(requestId string, err error) error {
	return &Error{Kind: KindPoll, Message: fmt.Sprintf("failed to query tasks for request %s", requestId), Err: err}
}

func NewRetrievalError(uri string, err error) error {
	return &Error{Kind: KindRetrieval, Message: fmt.Sprintf("failed to retrieve %s", uri), Err: err}
}

func NewNoArtifactsError(format string, args ...any) error {
	return &Error{Kind: KindNoArtifacts, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in the chain of err
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether an operator may sensibly re-run the whole dispatch
// after this error. Configuration and empty-output failures will not change on a re-run.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindDispatch, KindPoll, KindRetrieval:
		return true
	default:
		return false
	}
}
