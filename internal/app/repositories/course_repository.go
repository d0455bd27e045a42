package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okaracan/coursebook/internal/app/models"
	"github.com/okaracan/coursebook/internal/pkg/apperrors"
	"github.com/okaracan/coursebook/internal/pkg/dberrors"
)

// CourseRepository is the store boundary for course records. Implementations
// must be safe for concurrent callers: ids are assigned by the store and
// never reused, and each mutation is atomic: a reader sees a record either
// fully present or fully absent.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	GetAll(ctx context.Context) ([]*models.Course, error)
	Update(ctx context.Context, id int64, changes models.CourseChanges) (*models.Course, error)
	Delete(ctx context.Context, id int64) error
}

// PostgresCourseRepository handles database operations for courses
type PostgresCourseRepository struct {
	db *pgxpool.Pool
}

// NewPostgresCourseRepository creates a new course repository over a pool
func NewPostgresCourseRepository(db *pgxpool.Pool) *PostgresCourseRepository {
	return &PostgresCourseRepository{
		db: db,
	}
}

// Create inserts a new course and assigns its id
func (r *PostgresCourseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (title, topic, release_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, course.Title, course.Topic, course.ReleaseDate).Scan(&course.ID)
	if err != nil {
		return r.translateError("creating course", err)
	}

	return nil
}

// GetByID retrieves a course by ID
func (r *PostgresCourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	query := `
		SELECT id, title, topic, release_date
		FROM courses
		WHERE id = $1
	`

	course, err := scanCourse(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, r.translateError("retrieving course", err)
	}

	return course, nil
}

// GetAll retrieves all courses ordered by id
func (r *PostgresCourseRepository) GetAll(ctx context.Context) ([]*models.Course, error) {
	query := `
		SELECT id, title, topic, release_date
		FROM courses
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.translateError("listing courses", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}

// Update applies a change set to a course's mutable fields in one statement.
// Nil change fields keep their stored value. The single UPDATE makes
// concurrent writers last-write-wins with no partial state visible.
func (r *PostgresCourseRepository) Update(ctx context.Context, id int64, changes models.CourseChanges) (*models.Course, error) {
	query := `
		UPDATE courses
		SET title = COALESCE($2, title),
		    topic = COALESCE($3, topic),
		    release_date = COALESCE($4::date, release_date)
		WHERE id = $1
		RETURNING id, title, topic, release_date
	`

	course, err := scanCourse(r.db.QueryRow(ctx, query, id, changes.Title, changes.Topic, changes.ReleaseDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, r.translateError("updating course", err)
	}

	return course, nil
}

// Delete removes a course permanently
func (r *PostgresCourseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return r.translateError("deleting course", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// rowScanner covers pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var course models.Course
	var releaseDate *time.Time

	if err := row.Scan(&course.ID, &course.Title, &course.Topic, &releaseDate); err != nil {
		return nil, err
	}

	if releaseDate != nil {
		course.ReleaseDate = &models.Date{Time: *releaseDate}
	}
	return &course, nil
}

func (r *PostgresCourseRepository) translateError(op string, err error) error {
	switch {
	case dberrors.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, apperrors.ErrConflict)
	case dberrors.IsUndefinedTable(err):
		return fmt.Errorf("%s: courses table missing, migrations have not been applied: %w", op, err)
	default:
		return fmt.Errorf("error %s: %w", op, err)
	}
}
