package errors

import (
	"errors"
	"fmt"
)

// Phase names the part of a benchmark instantiation in which a violation was raised.
type Phase string

const (
	PhaseUnknown  Phase = ""
	PhaseSetUp    Phase = "setup"
	PhaseBody     Phase = "body"
	PhaseTearDown Phase = "teardown"
	PhaseShared   Phase = "shared"
	PhaseReport   Phase = "report"
)

// NoThread marks a violation raised outside any worker thread.
const NoThread = -1

// ContractViolation represents a misuse of the harness API. It is fatal for the
// benchmark session that observes it.
type ContractViolation struct {
	Thread  int
	Phase   Phase
	Message string
	Stack   []byte
}

// Error implements the error interface
func (e *ContractViolation) Error() string {
	where := string(e.Phase)
	if where == "" {
		where = "harness"
	}
	if e.Thread == NoThread {
		return fmt.Sprintf("contract violation in %s: %s", where, e.Message)
	}
	return fmt.Sprintf("contract violation in %s on thread %d: %s", where, e.Thread, e.Message)
}

// NewContractViolation creates a new ContractViolation not bound to any thread.
func NewContractViolation(format string, args ...any) *ContractViolation {
	return &ContractViolation{
		Thread:  NoThread,
		Message: fmt.Sprintf(format, args...),
	}
}

// Check panics with a ContractViolation when cond is false. The coordinator
// recovers it on worker threads and aborts the session.
func Check(cond bool, format string, args ...any) {
	if !cond {
		panic(NewContractViolation(format, args...))
	}
}

// CheckPhase is Check for violations raised outside worker threads in a known
// phase, such as report rendering.
func CheckPhase(phase Phase, cond bool, format string, args ...any) {
	if !cond {
		cv := NewContractViolation(format, args...)
		cv.Phase = phase
		panic(cv)
	}
}

// FromPanic converts a recovered panic value into a ContractViolation attributed
// to the given thread and phase.
func FromPanic(value any, thread int, phase Phase, stack []byte) *ContractViolation {
	var cv *ContractViolation
	switch v := value.(type) {
	case *ContractViolation:
		cv = &ContractViolation{Message: v.Message}
	case error:
		if errors.As(v, &cv) {
			cv = &ContractViolation{Message: cv.Message}
		} else {
			cv = &ContractViolation{Message: v.Error()}
		}
	default:
		cv = &ContractViolation{Message: fmt.Sprint(v)}
	}
	cv.Thread = thread
	cv.Phase = phase
	cv.Stack = stack
	return cv
}

// IsContractViolation reports whether err carries a ContractViolation.
func IsContractViolation(err error) bool {
	var cv *ContractViolation
	return errors.As(err, &cv)
}
