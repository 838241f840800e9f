// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package builder

import "fmt"

// Kind classifies every failure that crosses the orchestrator boundary.
// Transport layers map kinds to status codes; nothing else about an
// internal failure leaks to clients.
type Kind string

const (
	// KindValidation marks rejected input: bad user id, empty message,
	// unsupported upload, moderation refusal.
	KindValidation Kind = "validation"

	// KindUpstream marks model API failures: network errors, non-200
	// responses, timeouts of the generation call itself.
	KindUpstream Kind = "upstream"

	// KindMalformed marks model replies that arrived but could not be
	// parsed into the required shape. State is never modified when a
	// reply is malformed.
	KindMalformed Kind = "malformed_response"

	// KindStorage marks persistence failures: state store, site files,
	// lock infrastructure.
	KindStorage Kind = "storage"

	// KindLockTimeout marks a bounded wait for a per-user lock that
	// expired before the lock was acquired.
	KindLockTimeout Kind = "lock_timeout"
)

// Error is the single error type returned by Builder operations.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether retrying the identical request can succeed
// without any client-side change. Malformed replies qualify: the model
// may produce parseable output on the next attempt.
func (e *Error) Retryable() bool {
	return e.Kind == KindLockTimeout || e.Kind == KindUpstream || e.Kind == KindMalformed
}

func errValidation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func errUpstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

func errMalformed(msg string, err error) *Error {
	return &Error{Kind: KindMalformed, Msg: msg, Err: err}
}

func errStorage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

func errLockTimeout(msg string, err error) *Error {
	return &Error{Kind: KindLockTimeout, Msg: msg, Err: err}
}
