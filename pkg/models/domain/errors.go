package domain

import "errors"

var (
	// ErrSnapshotUnavailable signals a transient fetch failure; the caller may
	// retry the whole run later. No partial state is persisted.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")

	// ErrTableNotFound signals the monitored table is unknown to a store,
	// fatal for that run.
	ErrTableNotFound = errors.New("table not found")

	// ErrDanglingReference signals an attempt to attach issues to a run that
	// does not exist. It is never silently dropped.
	ErrDanglingReference = errors.New("audit run does not exist")

	// ErrInvalidConfig signals configuration rejected at load time.
	ErrInvalidConfig = errors.New("invalid configuration")
)
