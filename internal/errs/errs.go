// Package errs implements Transfuse's error taxonomy: a set of sentinel
// errors for each named failure kind, wrapped in contextual struct errors
// so callers can both errors.Is against the kind and read a
// human-readable message.
package errs

import (
	"errors"
	"fmt"
)

// Sentinels, one per named failure kind.
var (
	ErrInputMissing        = errors.New("input missing")
	ErrWorkDirUnavailable  = errors.New("work dir unavailable")
	ErrFormatUnknown       = errors.New("format unknown")
	ErrParseMalformed      = errors.New("parse malformed")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrStoreCorrupt        = errors.New("store corrupt")
	ErrStoreError          = errors.New("store error")
	ErrStreamFormatUnknown = errors.New("stream format unknown")
	ErrStateMissing        = errors.New("state missing")
	ErrBlockMissing        = errors.New("block missing")
	ErrBlockOutOfOrder     = errors.New("block out of order")
	ErrStyleMissing        = errors.New("style missing")
	ErrRehydratedMalformed = errors.New("rehydrated malformed")
)

// FatalError wraps one of the fatal sentinels above with operation context.
// Every FatalError aborts the pipeline.
type FatalError struct {
	Op   string // what was being attempted, e.g. "open work dir", "parse input"
	Path string // file or resource path involved, if any
	Err  error  // the sentinel, or a wrapped lower-level error
}

func (e *FatalError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func Fatal(sentinel error, op, path string, cause error) *FatalError {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %v", sentinel, cause)
	}
	return &FatalError{Op: op, Path: path, Err: err}
}

// Warning wraps one of the recoverable sentinels. Warnings are reported on
// stderr and processing continues; they are never returned as the
// terminal error of extract/inject.
type Warning struct {
	Op      string
	Subject string // e.g. a block id or a "tag:hash" reference
	Err     error
	Msg     string // overrides the default "op: subject: err" rendering when set
}

func (w *Warning) Error() string {
	if w.Msg != "" {
		return w.Msg
	}
	if w.Subject != "" {
		return fmt.Sprintf("%s: %s: %v", w.Op, w.Subject, w.Err)
	}
	return fmt.Sprintf("%s: %v", w.Op, w.Err)
}

func (w *Warning) Unwrap() error { return w.Err }

func Warn(sentinel error, op, subject string) *Warning {
	return &Warning{Op: op, Subject: subject, Err: sentinel}
}

// WarnMsg is Warn with a fixed rendered message, for warnings whose exact
// text is part of the wire contract (external tooling greps for it) rather
// than free-form diagnostic text.
func WarnMsg(sentinel error, op, subject, msg string) *Warning {
	return &Warning{Op: op, Subject: subject, Err: sentinel, Msg: msg}
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool { return errors.Is(err, target) }

// As wraps errors.As for convenience.
func As(err error, target any) bool { return errors.As(err, target) }
