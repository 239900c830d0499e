package main

import "fmt"

// UsageError means the command line was wrong; nothing is processed
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason
}

// UnreadableInputError means the results file is missing or unreadable;
// nothing is processed
type UnreadableInputError struct {
	Path string
	Err  error
}

func (e *UnreadableInputError) Error() string {
	return fmt.Sprintf("please make sure your results file %s exists and is readable: %v", e.Path, e.Err)
}

func (e *UnreadableInputError) Unwrap() error { return e.Err }
