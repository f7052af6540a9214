// Package ferr defines the error taxonomy shared across fetchd: config,
// source, transform, and sink errors, each carrying enough context for
// the task runner to classify and log it.
package ferr

import (
	"errors"
	"fmt"

	"github.com/arc-self/fetchd/internal/entry"
)

// ConfigError covers decode-time failures: unknown fields, missing
// fields, regex compile failure, template-not-found, credential
// unavailable, read-filter kind mismatch. Always fatal for the job.
type ConfigError struct {
	Context string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return "config error: " + e.Context
	}
	return fmt.Sprintf("config error: %s: %v", e.Context, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func NewConfigError(context string, err error) *ConfigError {
	return &ConfigError{Context: context, Err: err}
}

// SourceErrorKind classifies a SourceError for the task runner's
// failure-classification policy.
type SourceErrorKind int

const (
	// SourceTransient is a network-level hiccup: log and retry next tick.
	SourceTransient SourceErrorKind = iota
	// SourceAuth is an authentication failure: fatal for the task.
	SourceAuth
	// SourceParse is a malformed payload from a protocol that promises
	// structure (feed XML, IMAP response, JSON API).
	SourceParse
)

type SourceError struct {
	Kind   SourceErrorKind
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q error (%s): %v", e.Source, e.kindString(), e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) kindString() string {
	switch e.Kind {
	case SourceTransient:
		return "transient"
	case SourceAuth:
		return "auth"
	case SourceParse:
		return "parse"
	default:
		return "unknown"
	}
}

func NewSourceError(kind SourceErrorKind, source string, err error) *SourceError {
	return &SourceError{Kind: kind, Source: source, Err: err}
}

// IsTransient reports whether err (or anything it wraps) is a
// SourceError classified as transient.
func IsTransient(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind == SourceTransient
	}
	return false
}

// IsAuth reports whether err (or anything it wraps) is a SourceError
// classified as an authentication failure.
func IsAuth(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind == SourceAuth
	}
	return false
}

// TransformError wraps the entry that was being processed when a
// transform failed, so the entry's context follows the error up the
// stack for logging, without aborting the batch.
type TransformError struct {
	Kind          string
	OriginalEntry entry.Entry
	Err           error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform error (%s): %v", e.Kind, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

func NewTransformError(kind string, orig entry.Entry, err error) *TransformError {
	return &TransformError{Kind: kind, OriginalEntry: orig, Err: err}
}

// SinkErrorKind classifies a SinkError.
type SinkErrorKind int

const (
	SinkNetwork SinkErrorKind = iota
	SinkRateLimit
	SinkUnsupported
)

type SinkError struct {
	Kind SinkErrorKind
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink error: %v", e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

func NewSinkError(kind SinkErrorKind, err error) *SinkError {
	return &SinkError{Kind: kind, Err: err}
}

// ErrCaptureGroupMissing is returned by the Extract field operator when
// the regex matched but the named capture group "s" did not, and
// passthrough_if_not_found is false.
var ErrCaptureGroupMissing = errors.New("regex matched but capture group \"s\" was not found")

// ErrNotMatched is returned by the Extract field operator when the
// regex did not match at all and passthrough_if_not_found is false.
var ErrNotMatched = errors.New("regex did not match")

// ErrReadFilterKindMismatch is a ConfigError cause: the persisted
// read-filter kind does not match the kind declared in config.
var ErrReadFilterKindMismatch = errors.New("read-filter kind on disk does not match configured kind")

// ErrClientNotInitialized is returned by the HTTP source singleton once
// its first initialization attempt has failed and consumed the error.
var ErrClientNotInitialized = errors.New("http client not initialized: previous initialization failed")
