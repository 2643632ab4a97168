package generator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnreachable = errors.New("generation service unreachable")
	ErrLogic       = errors.New("generation failed")
)

type Attempt struct {
	Endpoint string
	Err      error
}

// UnreachableError lists every candidate that could not be reached.
type UnreachableError struct {
	Attempts []Attempt
	Last     error
}

func (e *UnreachableError) Error() string {
	endpoints := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		endpoints = append(endpoints, attempt.Endpoint)
	}
	return fmt.Sprintf("generation service unreachable (tried %s): %v", strings.Join(endpoints, ", "), e.Last)
}

func (e *UnreachableError) Is(target error) bool { return target == ErrUnreachable }

func (e *UnreachableError) Unwrap() error { return e.Last }

// Endpoints returns the attempted addresses in order.
func (e *UnreachableError) Endpoints() []string {
	out := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		out = append(out, attempt.Endpoint)
	}
	return out
}

// LogicError is a failure reported by a reachable candidate.
type LogicError struct {
	Endpoint string
	Message  string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("generation failed at %s: %s", e.Endpoint, e.Message)
}

func (e *LogicError) Is(target error) bool { return target == ErrLogic }
