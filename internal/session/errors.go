package session

import (
	"errors"
	"fmt"
)

// ErrSessionRunning is returned by Start while another session is
// running. The running session is left untouched.
var ErrSessionRunning = errors.New("a sampling session is already running")

// ErrEngineFault marks an internal inconsistency that should not occur
// under correct scheduling discipline. Detecting it force-fails the
// session instead of silently absorbing the fault.
var ErrEngineFault = errors.New("sampling engine inconsistency")

// ConfigError rejects invalid session parameters before any state
// transition happens.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid session config: %s %s", e.Field, e.Reason)
}

// PersistenceError wraps a snapshot write failure. It is surfaced
// alongside completion without rolling back the completed state: a
// monitoring session is not invalidated by a storage problem.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist session snapshot: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
