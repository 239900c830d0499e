package results

import (
	"errors"
	"fmt"
)

// ErrFinalized is returned when a record is ingested after Finalize
var ErrFinalized = errors.New("aggregator already finalized")

// TruncatedRecordError means the input ended in the middle of a record
type TruncatedRecordError struct {
	Line int
}

func (e *TruncatedRecordError) Error() string {
	return fmt.Sprintf("input ended mid-record after line %d", e.Line)
}

// MalformedLineError means a required label or integer could not be parsed
type MalformedLineError struct {
	Line  int
	Label string
	Text  string
	Err   error
}

func (e *MalformedLineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: expected %q: %q: %v", e.Line, e.Label, e.Text, e.Err)
	}
	return fmt.Sprintf("line %d: expected %q: %q", e.Line, e.Label, e.Text)
}

func (e *MalformedLineError) Unwrap() error { return e.Err }

// InconsistentConfigurationError means one network size was run with
// different neighbour list sizes
type InconsistentConfigurationError struct {
	NetworkSize int
	Expected    int
	Got         int
	Line        int
}

func (e *InconsistentConfigurationError) Error() string {
	return fmt.Sprintf("incompatible results file, use the same node size setup throughout: network size %d has neighbour list size %d, record at line %d has %d",
		e.NetworkSize, e.Expected, e.Line, e.Got)
}
