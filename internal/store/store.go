// Package store provides the persistence gateways behind the sync
// controller: a local JSON blob store plus two interchangeable remote
// backends, one speaking SQL to Postgres and one speaking a
// PostgREST-style HTTP API.
package store

import (
	"errors"
	"fmt"
)

// RemoteError wraps a failure talking to a remote backend so callers
// can tell connectivity problems apart from local faults.
type RemoteError struct {
	Backend string
	Op      string
	Status  int // HTTP status for rest backends, zero otherwise
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: status %d", e.Backend, e.Op, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// AsRemote unwraps err into a RemoteError when one is present.
func AsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

func remoteErr(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Backend: backend, Op: op, Err: err}
}
