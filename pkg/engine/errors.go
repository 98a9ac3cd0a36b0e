package engine

import (
	"errors"
	"fmt"

	"github.com/rubiojr/regsearch/pkg/search"
)

const (
	// DetailFailureMessage is shown in the detail view when a lookup fails.
	DetailFailureMessage = "Failed to load record details"

	// ReportFailureMessage is shown in the report form when submission fails.
	ReportFailureMessage = "Failed to submit report"
)

var (
	// ErrSuperseded is returned when a response arrives for a request that
	// a newer request, Back or CloseDetail has already replaced. The
	// response is discarded.
	ErrSuperseded = errors.New("superseded by a newer request")

	ErrPageOutOfRange = errors.New("page out of range")
	ErrNoSelection    = errors.New("no record selected")
	ErrNotLoaded      = errors.New("no search results loaded")
	ErrClosed         = errors.New("engine closed")

	// ErrReportPending is returned while a report for the selected record
	// is still being submitted.
	ErrReportPending = errors.New("report already being submitted")
)

// ValidationError rejects a command before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SearchFailure is a network or server error during the main search.
// Message is what the console shows.
type SearchFailure struct {
	Message string
	Err     error
}

func (e *SearchFailure) Error() string {
	return "search failed: " + e.Message
}

func (e *SearchFailure) Unwrap() error {
	return e.Err
}

// DetailFailure is a network or server error during a detail lookup. It
// never affects the result list.
type DetailFailure struct {
	Ref search.RecordRef
	Err error
}

func (e *DetailFailure) Error() string {
	return fmt.Sprintf("%s for %s: %v", DetailFailureMessage, e.Ref, e.Err)
}

func (e *DetailFailure) Unwrap() error {
	return e.Err
}

// ReportFailure is a network or server error while submitting an issue
// report for the selected record.
type ReportFailure struct {
	Ref search.RecordRef
	Err error
}

func (e *ReportFailure) Error() string {
	return fmt.Sprintf("%s for %s: %v", ReportFailureMessage, e.Ref, e.Err)
}

func (e *ReportFailure) Unwrap() error {
	return e.Err
}
