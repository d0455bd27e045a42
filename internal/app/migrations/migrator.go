package migrations

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Store is the database surface the migrator drives: the metadata table that
// records applied steps, plus transactional execution of a single step. Each
// ApplyStep/RevertStep call must be all-or-nothing: either the step's SQL
// and its metadata change both persist, or neither does.
type Store interface {
	EnsureSchemaTable(ctx context.Context) error
	AppliedIDs(ctx context.Context) ([]int64, error)
	ApplyStep(ctx context.Context, step Step) error
	RevertStep(ctx context.Context, step Step) error
}

// Migrator holds the ordered registry of schema steps and applies or reverts
// them against a Store. A single Migrator serializes its own operations; the
// Postgres store additionally takes an advisory lock so two processes cannot
// migrate the same database at once.
type Migrator struct {
	mu     sync.Mutex
	steps  []Step
	logger zerolog.Logger
}

// NewMigrator creates an empty migrator.
func NewMigrator(logger zerolog.Logger) *Migrator {
	return &Migrator{logger: logger}
}

// Register adds a step to the registry. The id must be strictly greater than
// every previously registered id; otherwise the step is rejected and not
// added.
func (m *Migrator) Register(step Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if step.ID <= 0 {
		return fmt.Errorf("%w: id %d must be positive", ErrOutOfOrder, step.ID)
	}
	if strings.TrimSpace(step.Name) == "" {
		return fmt.Errorf("migration %d must have a name", step.ID)
	}
	if strings.TrimSpace(step.UpSQL) == "" {
		return fmt.Errorf("migration %d (%s) must have an up transform", step.ID, step.Name)
	}
	if n := len(m.steps); n > 0 && step.ID <= m.steps[n-1].ID {
		return fmt.Errorf("%w: id %d must be greater than %d", ErrOutOfOrder, step.ID, m.steps[n-1].ID)
	}

	m.steps = append(m.steps, step)
	return nil
}

// MustRegister is Register for static catalogs; it panics on a registration
// error, which can only be a programming mistake.
func (m *Migrator) MustRegister(step Step) {
	if err := m.Register(step); err != nil {
		panic(err)
	}
}

// Steps returns a copy of the registered steps in ascending id order.
func (m *Migrator) Steps() []Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Step, len(m.steps))
	copy(out, m.steps)
	return out
}

// ApplyPending applies every registered step not yet recorded in the store,
// in ascending id order, and returns the steps it applied. Calling it when
// nothing is pending is a no-op returning an empty slice. On a step failure
// it stops and returns an *ApplyError for that step; earlier steps stay
// applied.
func (m *Migrator) ApplyPending(ctx context.Context, store Store) ([]Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := store.EnsureSchemaTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare schema metadata: %w", err)
	}

	applied, err := m.appliedSet(ctx, store)
	if err != nil {
		return nil, err
	}

	done := []Step{}
	for _, step := range m.steps {
		if applied[step.ID] {
			continue
		}

		m.logger.Info().Int64("id", step.ID).Str("name", step.Name).Msg("Applying migration")
		if err := store.ApplyStep(ctx, step); err != nil {
			return done, &ApplyError{ID: step.ID, Name: step.Name, Err: err}
		}
		done = append(done, step)
	}

	if len(done) == 0 {
		m.logger.Debug().Msg("No pending migrations")
	}
	return done, nil
}

// Pending returns the registered steps not yet recorded in the store, in
// ascending id order.
func (m *Migrator) Pending(ctx context.Context, store Store) ([]Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := store.EnsureSchemaTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare schema metadata: %w", err)
	}

	applied, err := m.appliedSet(ctx, store)
	if err != nil {
		return nil, err
	}

	pending := []Step{}
	for _, step := range m.steps {
		if !applied[step.ID] {
			pending = append(pending, step)
		}
	}
	return pending, nil
}

// Rollback reverts every applied step with an id greater than targetID, in
// descending id order, and returns the steps it reverted. If any step in
// range lacks a down transform, or an applied id has no registered step,
// it fails with *MissingDownError before reverting anything.
func (m *Migrator) Rollback(ctx context.Context, store Store, targetID int64) ([]Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := store.EnsureSchemaTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare schema metadata: %w", err)
	}

	applied, err := m.appliedSet(ctx, store)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]Step, len(m.steps))
	for _, step := range m.steps {
		byID[step.ID] = step
	}

	// Collect the steps to revert and check every down transform up front so
	// a missing one fails before any schema change happens.
	var toRevert []Step
	for id := range applied {
		if id <= targetID {
			continue
		}
		step, ok := byID[id]
		if !ok {
			return nil, &MissingDownError{ID: id, Name: "unregistered"}
		}
		if strings.TrimSpace(step.DownSQL) == "" {
			return nil, &MissingDownError{ID: step.ID, Name: step.Name}
		}
		toRevert = append(toRevert, step)
	}

	sort.Slice(toRevert, func(i, j int) bool { return toRevert[i].ID > toRevert[j].ID })

	done := []Step{}
	for _, step := range toRevert {
		m.logger.Info().Int64("id", step.ID).Str("name", step.Name).Msg("Rolling back migration")
		if err := store.RevertStep(ctx, step); err != nil {
			return done, &RollbackError{ID: step.ID, Name: step.Name, Err: err}
		}
		done = append(done, step)
	}
	return done, nil
}

func (m *Migrator) appliedSet(ctx context.Context, store Store) (map[int64]bool, error) {
	ids, err := store.AppliedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	applied := make(map[int64]bool, len(ids))
	for _, id := range ids {
		applied[id] = true
	}
	return applied, nil
}
