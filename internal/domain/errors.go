package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type FetchSource string

const (
	SourceContainers FetchSource = "containers"
	SourceMetrics    FetchSource = "metrics"
	SourceFilters    FetchSource = "filters"
)

type FailureKind string

const (
	KindNetwork    FailureKind = "network"
	KindServer     FailureKind = "server"
	KindValidation FailureKind = "validation"
)

// AdapterError is returned by backend adapters. Status is the HTTP status
// when one was received, zero otherwise.
type AdapterError struct {
	Kind   FailureKind
	Status int
	Err    error
}

func NewAdapterError(kind FailureKind, status int, err error) *AdapterError {
	return &AdapterError{Kind: kind, Status: status, Err: err}
}

func (e *AdapterError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// FetchFailure reports which dashboard data source failed and how.
type FetchFailure struct {
	Source FetchSource
	Kind   FailureKind
	Err    error
}

// NewFetchFailure classifies err for the given source.
func NewFetchFailure(source FetchSource, err error) *FetchFailure {
	return &FetchFailure{Source: source, Kind: ClassifyFailure(err), Err: err}
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s failed (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *FetchFailure) Unwrap() error {
	return e.Err
}

// ClassifyFailure maps an adapter error onto a failure kind. Errors that are
// not AdapterErrors count as server failures unless they look like transport
// trouble.
func ClassifyFailure(err error) FailureKind {
	var aerr *AdapterError
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return KindNetwork
	}
	return KindServer
}

// InvariantViolationError is a programmer error, never a user-facing one.
type InvariantViolationError struct {
	Message string
}

func NewInvariantViolationError(message string) *InvariantViolationError {
	return &InvariantViolationError{Message: message}
}

func (e *InvariantViolationError) Error() string {
	return "invariant violation: " + e.Message
}

// FilterValueError rejects a value that a known filter field cannot hold.
type FilterValueError struct {
	Field FilterField
	Value string
}

func NewFilterValueError(field FilterField, value string) *FilterValueError {
	return &FilterValueError{Field: field, Value: value}
}

func (e *FilterValueError) Error() string {
	return fmt.Sprintf("invalid value %q for filter %s", e.Value, e.Field)
}
