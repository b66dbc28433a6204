package framework

import "fmt"

// Exit codes. ExitTestFailure is reserved for runs where the page reported failing tests;
// every infrastructure problem maps to some other non-zero code.
const (
	ExitSuccess           = 0
	ExitUsageError        = 1
	ExitNavigationFailure = 1
	ExitServerFailure     = 2
	ExitBrowserFailure    = 3
	ExitEvaluationFailure = 4
	ExitTestFailure       = 100
)

// RunOutcome is the result of one run. Code is the process exit status; Err is set when the
// run did not get as far as reading the failure indicator.
type RunOutcome struct {
	Code int
	Err  error
}

func (o RunOutcome) OK() bool {
	return o.Code == ExitSuccess
}

// TestsFailed is true if the page reported failures, as opposed to the run breaking.
func (o RunOutcome) TestsFailed() bool {
	return o.Code == ExitTestFailure
}

// RunError describes an infrastructure failure and the state the run was in when it happened.
type RunError struct {
	State State
	Code  int
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %s", e.State, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
