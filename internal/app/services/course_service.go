package services

import (
	"context"
	"fmt"

	"github.com/okaracan/coursebook/internal/app/models"
	"github.com/okaracan/coursebook/internal/app/models/dto"
	"github.com/okaracan/coursebook/internal/app/repositories"
	"github.com/okaracan/coursebook/internal/pkg/apperrors"
)

// Field limits for course validation
const (
	TitleMaxLength = 200
	TopicMaxLength = 100
)

// CourseService handles course-related operations
type CourseService interface {
	CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error)
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	GetAllCourses(ctx context.Context) ([]*models.Course, error)
	UpdateCourse(ctx context.Context, id int64, req dto.UpdateCourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id int64) error
}

type courseService struct {
	courseRepo repositories.CourseRepository
}

// NewCourseService creates a new course service instance
func NewCourseService(courseRepo repositories.CourseRepository) CourseService {
	return &courseService{
		courseRepo: courseRepo,
	}
}

// CreateCourse validates the request and persists a new course. The store
// assigns the id; the returned record carries it.
func (s *courseService) CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	course := &models.Course{
		Title: req.Title,
		Topic: req.Topic,
	}

	if err := validateText("title", req.Title, TitleMaxLength); err != nil {
		return nil, err
	}
	if err := validateText("topic", req.Topic, TopicMaxLength); err != nil {
		return nil, err
	}

	releaseDate, err := parseOptionalDate(req.ReleaseDate)
	if err != nil {
		return nil, err
	}
	course.ReleaseDate = releaseDate

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("error creating course: %w", err)
	}
	return course, nil
}

// GetCourseByID retrieves a course by ID
func (s *courseService) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("course ID must be positive")
	}
	return s.courseRepo.GetByID(ctx, id)
}

// GetAllCourses retrieves the current snapshot of all courses
func (s *courseService) GetAllCourses(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.courseRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	return courses, nil
}

// UpdateCourse validates the change set and applies it. Validation failures
// leave the stored record untouched.
func (s *courseService) UpdateCourse(ctx context.Context, id int64, req dto.UpdateCourseRequest) (*models.Course, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("course ID must be positive")
	}

	if err := validateText("title", req.Title, TitleMaxLength); err != nil {
		return nil, err
	}
	if err := validateText("topic", req.Topic, TopicMaxLength); err != nil {
		return nil, err
	}

	releaseDate, err := parseOptionalDate(req.ReleaseDate)
	if err != nil {
		return nil, err
	}

	changes := models.CourseChanges{
		Title:       req.Title,
		Topic:       req.Topic,
		ReleaseDate: releaseDate,
	}

	return s.courseRepo.Update(ctx, id, changes)
}

// DeleteCourse removes a course permanently
func (s *courseService) DeleteCourse(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.NewValidationError("course ID must be positive")
	}
	return s.courseRepo.Delete(ctx, id)
}

// validateText checks an optional text field against its length limit. Absent
// fields are always valid; only malformed values are rejected.
func validateText(field string, value *string, maxLength int) error {
	if value == nil {
		return nil
	}
	if len(*value) > maxLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("%s cannot exceed %d characters", field, maxLength))
	}
	return nil
}

func parseOptionalDate(value *string) (*models.Date, error) {
	if value == nil {
		return nil, nil
	}
	date, err := models.ParseDate(*value)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return &date, nil
}
