package migrations

import (
	"errors"
	"fmt"
)

// Step is a single versioned schema change. UpSQL moves the schema forward,
// DownSQL reverses it. Steps without DownSQL cannot be rolled back.
type Step struct {
	ID      int64
	Name    string
	UpSQL   string
	DownSQL string
}

// ErrOutOfOrder reports a migration registered with an id that is not
// strictly greater than every previously registered id.
var ErrOutOfOrder = errors.New("migration id out of order")

// ApplyError reports a migration step whose forward transform failed. Steps
// applied before the failing one stay applied.
type ApplyError struct {
	ID   int64
	Name string
	Err  error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("migration %d (%s) failed to apply: %v", e.ID, e.Name, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// RollbackError reports a migration step whose reverse transform failed.
type RollbackError struct {
	ID   int64
	Name string
	Err  error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("migration %d (%s) failed to roll back: %v", e.ID, e.Name, e.Err)
}

func (e *RollbackError) Unwrap() error {
	return e.Err
}

// MissingDownError reports a rollback that would have to cross a step with no
// reverse transform. Nothing is reverted when this is returned.
type MissingDownError struct {
	ID   int64
	Name string
}

func (e *MissingDownError) Error() string {
	return fmt.Sprintf("migration %d (%s) has no down transform", e.ID, e.Name)
}
