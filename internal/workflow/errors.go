package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrSystemHalted         = errors.New("system halted")
	ErrLocked               = errors.New("submission locked")
	ErrPrerequisiteMissing  = errors.New("prerequisite missing")
	ErrWindowClosed         = errors.New("submission window closed")
	ErrCertificatesClosed   = errors.New("certificate collection closed")
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotAllotted          = errors.New("problem statement not allotted to team")
)

// Workflow steps named by PrerequisiteError.
const (
	StepContent    = "content"
	StepArtifact   = "artifact"
	StepPrototype  = "prototype"
	StepSubmission = "submission"
)

type PrerequisiteError struct {
	Step string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("prerequisite missing: %s", e.Step)
}

func (e *PrerequisiteError) Is(target error) bool { return target == ErrPrerequisiteMissing }

func missing(step string) error {
	return &PrerequisiteError{Step: step}
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
