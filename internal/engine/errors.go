package engine

import (
	"errors"

	"github.com/rewearhq/rewear-backend/internal/metrics"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

// Kind classifies engine failures for callers. Validation and
// Unauthorized are permanent denials, Conflict is safe to retry,
// InsufficientFunds holds until the balance changes.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindNotFound          Kind = "not_found"
	KindUnauthorized      Kind = "unauthorized"
	KindInternal          Kind = "internal"
)

type Error struct {
	Kind Kind
	Msg  string
	err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.err }

func validation(msg string) error   { return &Error{Kind: KindValidation, Msg: msg} }
func conflict(msg string) error     { return &Error{Kind: KindConflict, Msg: msg} }
func notFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }
func unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }

// KindOf extracts the failure kind; unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// translate maps storage sentinels onto engine kinds so callers never
// see the persistence layer's errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindConflict {
			metrics.ConflictsTotal.Inc()
		}
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Kind: KindNotFound, Msg: "not found", err: err}
	case errors.Is(err, repository.ErrInsufficientFunds):
		return &Error{Kind: KindInsufficientFunds, Msg: "insufficient points", err: err}
	case errors.Is(err, repository.ErrConflict):
		metrics.ConflictsTotal.Inc()
		return &Error{Kind: KindConflict, Msg: "conflict, retry", err: err}
	}
	return &Error{Kind: KindInternal, Msg: "internal error", err: err}
}
