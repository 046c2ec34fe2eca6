package model

import "fmt"

// ContractError reports a violated programming contract: an unset required
// field, a missing dependency module, a derived-data accessor called before
// the build graph exists. These are not recoverable and must not be caught
// and retried.
type ContractError struct {
	Message string
}

func (e *ContractError) Error() string {
	return "contract violation: " + e.Message
}

// check panics with a ContractError when cond is false.
func check(cond bool, format string, args ...any) {
	if !cond {
		panic(&ContractError{Message: fmt.Sprintf(format, args...)})
	}
}
