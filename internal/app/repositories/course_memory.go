package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/okaracan/coursebook/internal/app/models"
	"github.com/okaracan/coursebook/internal/pkg/apperrors"
)

// MemoryCourseRepository is an in-memory CourseRepository used by tests and
// local development. It mirrors the Postgres contract: monotonically
// increasing ids that are never reused, atomic mutations, last-write-wins on
// concurrent updates.
type MemoryCourseRepository struct {
	mu      sync.RWMutex
	courses map[int64]models.Course
	nextID  int64
}

// NewMemoryCourseRepository creates an empty in-memory repository
func NewMemoryCourseRepository() *MemoryCourseRepository {
	return &MemoryCourseRepository{
		courses: make(map[int64]models.Course),
	}
}

// Create stores a new course and assigns the next id
func (r *MemoryCourseRepository) Create(ctx context.Context, course *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	course.ID = r.nextID
	r.courses[course.ID] = cloneCourse(*course)
	return nil
}

// GetByID returns a copy of the stored course
func (r *MemoryCourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	course, ok := r.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	out := cloneCourse(course)
	return &out, nil
}

// GetAll returns copies of all stored courses ordered by id
func (r *MemoryCourseRepository) GetAll(ctx context.Context) ([]*models.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var courses []*models.Course
	for _, course := range r.courses {
		out := cloneCourse(course)
		courses = append(courses, &out)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

// Update applies a change set under the write lock; nil fields keep their
// stored value
func (r *MemoryCourseRepository) Update(ctx context.Context, id int64, changes models.CourseChanges) (*models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	course, ok := r.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}

	if changes.Title != nil {
		course.Title = changes.Title
	}
	if changes.Topic != nil {
		course.Topic = changes.Topic
	}
	if changes.ReleaseDate != nil {
		course.ReleaseDate = changes.ReleaseDate
	}

	r.courses[id] = cloneCourse(course)
	out := cloneCourse(course)
	return &out, nil
}

// Delete removes a course; the id is not reused afterwards
func (r *MemoryCourseRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(r.courses, id)
	return nil
}

// cloneCourse deep-copies pointer fields so callers never alias stored state
func cloneCourse(course models.Course) models.Course {
	out := course
	if course.Title != nil {
		title := *course.Title
		out.Title = &title
	}
	if course.Topic != nil {
		topic := *course.Topic
		out.Topic = &topic
	}
	if course.ReleaseDate != nil {
		date := *course.ReleaseDate
		out.ReleaseDate = &date
	}
	return out
}
