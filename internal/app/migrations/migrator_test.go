package migrations

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeStore records applied steps in memory and can be told to fail a
// specific step, standing in for the PostgreSQL store.
type fakeStore struct {
	applied    []int64
	executed   []string
	failApply  int64
	failRevert int64
}

var errInjected = errors.New("injected store failure")

func (s *fakeStore) EnsureSchemaTable(ctx context.Context) error { return nil }

func (s *fakeStore) AppliedIDs(ctx context.Context) ([]int64, error) {
	out := make([]int64, len(s.applied))
	copy(out, s.applied)
	return out, nil
}

func (s *fakeStore) ApplyStep(ctx context.Context, step Step) error {
	if s.failApply != 0 && step.ID == s.failApply {
		return errInjected
	}
	s.applied = append(s.applied, step.ID)
	s.executed = append(s.executed, step.UpSQL)
	return nil
}

func (s *fakeStore) RevertStep(ctx context.Context, step Step) error {
	if s.failRevert != 0 && step.ID == s.failRevert {
		return errInjected
	}
	for i, id := range s.applied {
		if id == step.ID {
			s.applied = append(s.applied[:i], s.applied[i+1:]...)
			break
		}
	}
	s.executed = append(s.executed, step.DownSQL)
	return nil
}

func newTestMigrator(t *testing.T, steps ...Step) *Migrator {
	t.Helper()
	m := NewMigrator(zerolog.Nop())
	for _, step := range steps {
		require.NoError(t, m.Register(step))
	}
	return m
}

func step(id int64, name string) Step {
	return Step{
		ID:      id,
		Name:    name,
		UpSQL:   "up-" + name,
		DownSQL: "down-" + name,
	}
}

func TestRegisterRejectsOutOfOrderID(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t, step(10, "first"))

	err := m.Register(step(5, "earlier"))
	require.ErrorIs(t, err, ErrOutOfOrder)

	err = m.Register(step(10, "duplicate"))
	require.ErrorIs(t, err, ErrOutOfOrder)

	err = m.Register(step(0, "zero"))
	require.ErrorIs(t, err, ErrOutOfOrder)

	// Rejected steps must not join the sequence
	require.Len(t, m.Steps(), 1)
}

func TestRegisterRequiresNameAndUpTransform(t *testing.T) {
	t.Parallel()

	m := NewMigrator(zerolog.Nop())
	require.Error(t, m.Register(Step{ID: 1, UpSQL: "up"}))
	require.Error(t, m.Register(Step{ID: 1, Name: "no_up"}))
	require.Empty(t, m.Steps())
}

func TestApplyPendingAppliesInAscendingOrder(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t, step(1, "one"), step(2, "two"), step(3, "three"))
	store := &fakeStore{}

	applied, err := m.ApplyPending(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, applied, 3)
	require.Equal(t, []int64{1, 2, 3}, store.applied)
	require.Equal(t, []string{"up-one", "up-two", "up-three"}, store.executed)
}

func TestApplyPendingTwiceIsNoOp(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t, step(1, "one"), step(2, "two"))
	store := &fakeStore{}

	first, err := m.ApplyPending(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := m.ApplyPending(context.Background(), store)
	require.NoError(t, err)
	require.Empty(t, second)
	require.Equal(t, []int64{1, 2}, store.applied)
	require.Len(t, store.executed, 2, "no transform may run twice")
}

func TestApplyPendingSkipsAlreadyAppliedSteps(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t, step(1, "one"), step(2, "two"))
	store := &fakeStore{applied: []int64{1}}

	applied, err := m.ApplyPending(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	require.Equal(t, int64(2), applied[0].ID)
}

func TestApplyPendingStopsAtFailingStep(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t, step(1, "one"), step(2, "two"), step(3, "three"))
	store := &fakeStore{failApply: 2}

	applied, err := m.ApplyPending(context.Background(), store)

	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)
	require.Equal(t, int64(2), applyErr.ID)
	require.Equal(t, "two", applyErr.Name)
	require.ErrorIs(t, err, errInjected)

	// Steps before the failure stay applied; the rest never ran
	require.Len(t, applied, 1)
	require.Equal(t, []int64{1}, store.applied)
}

func TestRollbackRevertsInDescendingOrder(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t, step(1, "one"), step(2, "two"), step(3, "three"))
	store := &fakeStore{}

	_, err := m.ApplyPending(context.Background(), store)
	require.NoError(t, err)

	reverted, err := m.Rollback(context.Background(), store, 1)
	require.NoError(t, err)
	require.Len(t, reverted, 2)
	require.Equal(t, int64(3), reverted[0].ID)
	require.Equal(t, int64(2), reverted[1].ID)
	require.Equal(t, []int64{1}, store.applied)
}

func TestRollbackMissingDownFailsBeforeReverting(t *testing.T) {
	t.Parallel()

	noDown := Step{ID: 2, Name: "two", UpSQL: "up-two"}
	m := newTestMigrator(t, step(1, "one"), noDown, step(3, "three"))
	store := &fakeStore{}

	_, err := m.ApplyPending(context.Background(), store)
	require.NoError(t, err)

	_, err = m.Rollback(context.Background(), store, 1)

	var missingErr *MissingDownError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, int64(2), missingErr.ID)

	// Nothing was reverted, not even step 3 which has a down transform
	require.Equal(t, []int64{1, 2, 3}, store.applied)
}

func TestRollbackUnknownAppliedIDFails(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t, step(1, "one"))
	store := &fakeStore{applied: []int64{1, 99}}

	_, err := m.Rollback(context.Background(), store, 0)

	var missingErr *MissingDownError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, int64(99), missingErr.ID)
}

func TestRollbackAtCurrentTargetIsNoOp(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t, step(1, "one"), step(2, "two"))
	store := &fakeStore{}

	_, err := m.ApplyPending(context.Background(), store)
	require.NoError(t, err)

	reverted, err := m.Rollback(context.Background(), store, 2)
	require.NoError(t, err)
	require.Empty(t, reverted)
	require.Equal(t, []int64{1, 2}, store.applied)
}

func TestRollbackStopsOnRevertFailure(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t, step(1, "one"), step(2, "two"), step(3, "three"))
	store := &fakeStore{failRevert: 2}

	_, err := m.ApplyPending(context.Background(), store)
	require.NoError(t, err)

	reverted, err := m.Rollback(context.Background(), store, 0)

	var rollbackErr *RollbackError
	require.ErrorAs(t, err, &rollbackErr)
	require.Equal(t, int64(2), rollbackErr.ID)
	require.Len(t, reverted, 1)
	require.Equal(t, []int64{1, 2}, store.applied)
}

func TestCreateThenAddColumnScenario(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t,
		Step{ID: 1, Name: "create-table", UpSQL: "create table", DownSQL: "drop table"},
		Step{ID: 2, Name: "add-topic-column", UpSQL: "add column", DownSQL: "drop column"},
	)
	store := &fakeStore{}

	applied, err := m.ApplyPending(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, store.applied)
	require.Equal(t, "create-table", applied[0].Name)
	require.Equal(t, "add-topic-column", applied[1].Name)

	reverted, err := m.Rollback(context.Background(), store, 1)
	require.NoError(t, err)
	require.Len(t, reverted, 1)
	require.Equal(t, int64(2), reverted[0].ID)
	require.Equal(t, []int64{1}, store.applied)

	// The down transform of step 2 ran exactly once
	count := 0
	for _, sql := range store.executed {
		if sql == "drop column" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestPendingReflectsStoreState(t *testing.T) {
	t.Parallel()

	m := newTestMigrator(t, step(1, "one"), step(2, "two"))
	store := &fakeStore{applied: []int64{1}}

	pending, err := m.Pending(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, int64(2), pending[0].ID)
}

func TestCatalogRegistersStepsInOrder(t *testing.T) {
	t.Parallel()

	m := Catalog(zerolog.Nop())
	steps := m.Steps()
	require.NotEmpty(t, steps)
	for i := 1; i < len(steps); i++ {
		require.Greater(t, steps[i].ID, steps[i-1].ID)
	}
}
