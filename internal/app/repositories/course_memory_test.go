package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/okaracan/coursebook/internal/app/models"
	"github.com/okaracan/coursebook/internal/pkg/apperrors"
)

func strPtr(s string) *string { return &s }

func datePtr(year int, month time.Month, day int) *models.Date {
	d := models.NewDate(year, month, day)
	return &d
}

func TestCreateAssignsIDAndReadReturnsEqualRecord(t *testing.T) {
	t.Parallel()

	repo := NewMemoryCourseRepository()
	ctx := context.Background()

	course := &models.Course{
		Title:       strPtr("Algorithms"),
		Topic:       strPtr("CS"),
		ReleaseDate: datePtr(2024, time.January, 10),
	}
	require.NoError(t, repo.Create(ctx, course))
	require.Equal(t, int64(1), course.ID)

	got, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, course.ID, got.ID)
	require.Equal(t, "Algorithms", *got.Title)
	require.Equal(t, "CS", *got.Topic)
	require.True(t, got.ReleaseDate.Equal(*course.ReleaseDate))
}

func TestIDsAreNeverReusedAfterDelete(t *testing.T) {
	t.Parallel()

	repo := NewMemoryCourseRepository()
	ctx := context.Background()

	first := &models.Course{Title: strPtr("First")}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Delete(ctx, first.ID))

	second := &models.Course{Title: strPtr("Second")}
	require.NoError(t, repo.Create(ctx, second))
	require.Greater(t, second.ID, first.ID)
}

func TestDeleteThenReadReturnsNotFound(t *testing.T) {
	t.Parallel()

	repo := NewMemoryCourseRepository()
	ctx := context.Background()

	course := &models.Course{Title: strPtr("Ephemeral")}
	require.NoError(t, repo.Create(ctx, course))
	require.NoError(t, repo.Delete(ctx, course.ID))

	_, err := repo.GetByID(ctx, course.ID)
	require.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	// Repeat deletes are checked, not silently ignored
	require.ErrorIs(t, repo.Delete(ctx, course.ID), apperrors.ErrCourseNotFound)
}

func TestUpdateMissingIDMutatesNothing(t *testing.T) {
	t.Parallel()

	repo := NewMemoryCourseRepository()
	ctx := context.Background()

	course := &models.Course{Title: strPtr("Stable")}
	require.NoError(t, repo.Create(ctx, course))

	_, err := repo.Update(ctx, 42, models.CourseChanges{Title: strPtr("Changed")})
	require.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	got, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, "Stable", *got.Title)
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	t.Parallel()

	repo := NewMemoryCourseRepository()
	ctx := context.Background()

	course := &models.Course{
		Title:       strPtr("Algorithms"),
		Topic:       strPtr("CS"),
		ReleaseDate: datePtr(2024, time.January, 10),
	}
	require.NoError(t, repo.Create(ctx, course))

	updated, err := repo.Update(ctx, course.ID, models.CourseChanges{Topic: strPtr("Theory")})
	require.NoError(t, err)
	require.Equal(t, "Algorithms", *updated.Title)
	require.Equal(t, "Theory", *updated.Topic)
	require.True(t, updated.ReleaseDate.Equal(*course.ReleaseDate))
}

func TestGetAllReturnsSnapshotOrderedByID(t *testing.T) {
	t.Parallel()

	repo := NewMemoryCourseRepository()
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		require.NoError(t, repo.Create(ctx, &models.Course{Title: strPtr(title)}))
	}

	courses, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 3)
	for i := 1; i < len(courses); i++ {
		require.Greater(t, courses[i].ID, courses[i-1].ID)
	}

	// Mutating the snapshot must not leak into the store
	*courses[0].Title = "mutated"
	got, err := repo.GetByID(ctx, courses[0].ID)
	require.NoError(t, err)
	require.Equal(t, "A", *got.Title)
}

func TestConcurrentCreatesAssignUniqueIDs(t *testing.T) {
	t.Parallel()

	repo := NewMemoryCourseRepository()
	ctx := context.Background()

	const workers = 50
	ids := make(chan int64, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			course := &models.Course{Title: strPtr("Concurrent")}
			if err := repo.Create(ctx, course); err == nil {
				ids <- course.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		require.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	require.Len(t, seen, workers)
}
