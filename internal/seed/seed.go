package seed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	appModels "github.com/okaracan/coursebook/internal/app/models"
	appRepos "github.com/okaracan/coursebook/internal/app/repositories"
)

// CreateSampleCourses inserts a handful of example courses for local
// development. It only seeds an empty catalog so restarts don't pile up
// duplicates.
func CreateSampleCourses(ctx context.Context, courseRepo appRepos.CourseRepository, lgr zerolog.Logger) error {
	existing, err := courseRepo.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		lgr.Debug().Int("count", len(existing)).Msg("Catalog not empty, skipping seed")
		return nil
	}

	lgr.Info().Msg("Seeding sample courses...")

	samples := []appModels.Course{
		{
			Title:       strPtr("Algorithms"),
			Topic:       strPtr("CS"),
			ReleaseDate: datePtr(2024, time.January, 10),
		},
		{
			Title:       strPtr("Linear Algebra"),
			Topic:       strPtr("Math"),
			ReleaseDate: datePtr(2023, time.September, 1),
		},
		{
			Title: strPtr("Untitled Draft"),
		},
	}

	var finalErr error
	for i := range samples {
		if err := courseRepo.Create(ctx, &samples[i]); err != nil {
			lgr.Error().Err(err).Str("title", derefOr(samples[i].Title, "")).Msg("Error seeding course")
			finalErr = errors.Join(finalErr, err)
		}
	}

	return finalErr
}

func strPtr(s string) *string { return &s }

func datePtr(year int, month time.Month, day int) *appModels.Date {
	d := appModels.NewDate(year, month, day)
	return &d
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
