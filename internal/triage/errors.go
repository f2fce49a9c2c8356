package triage

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// ErrorKind identifies which pipeline stage or collaborator failed.
// Failures are distinguishable by kind, not by the underlying library.
type ErrorKind string

const (
	ErrNotFound       ErrorKind = "NOT_FOUND"
	ErrClassification ErrorKind = "CLASSIFICATION_FAILED"
	ErrRetrieval      ErrorKind = "RETRIEVAL_FAILED"
	ErrDraft          ErrorKind = "DRAFT_FAILED"
	ErrPersistence    ErrorKind = "PERSISTENCE_FAILED"
	ErrConfig         ErrorKind = "CONFIG_INVALID"
)

// PipelineError wraps a stage failure with its kind.
type PipelineError struct {
	Kind ErrorKind
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// WrapError tags err with the given kind. Already-tagged errors keep their
// original kind so the first failing stage wins.
func WrapError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	var existing *PipelineError
	if errors.As(err, &existing) {
		return err
	}
	return &PipelineError{Kind: kind, Err: err}
}

// KindOf extracts the pipeline error kind, or empty when err is untagged.
func KindOf(err error) ErrorKind {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// ToDomainError maps a pipeline failure onto the shared error envelope.
func ToDomainError(err error) error {
	if err == nil {
		return nil
	}
	var pipelineErr *PipelineError
	if !errors.As(err, &pipelineErr) {
		return apperrors.MapError(err)
	}
	status := http.StatusInternalServerError
	if pipelineErr.Kind == ErrNotFound {
		status = http.StatusNotFound
	}
	return &apperrors.DomainError{
		Code:       string(pipelineErr.Kind),
		Message:    pipelineErr.Error(),
		HTTPStatus: status,
		Err:        pipelineErr.Err,
	}
}
