package actions

import (
	"errors"
	"fmt"

	"github.com/relloyd/shipetl/config"
	"github.com/relloyd/shipetl/constants"
)

// Stores named by a ConnectivityError.
const (
	StoreSource = "source"
	StoreTarget = "target"
)

// ConnectivityError means a store could not be reached during pre-flight checks.
type ConnectivityError struct {
	Store string
	Err   error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%v database is unreachable: %v", e.Store, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ExitCode maps a run error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return constants.ExitCodeOK
	}
	var connErr *ConnectivityError
	if errors.As(err, &connErr) {
		if connErr.Store == StoreSource {
			return constants.ExitCodeSourceUnreachable
		}
		return constants.ExitCodeTargetUnreachable
	}
	var cfgErr *config.ValidationError
	if errors.As(err, &cfgErr) {
		return constants.ExitCodeConfigError
	}
	return constants.ExitCodeRunFailure
}
