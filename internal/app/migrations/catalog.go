package migrations

import "github.com/rs/zerolog"

// Catalog returns the migrator loaded with every schema step of the courses
// database, in order. New steps go at the end with a higher id.
func Catalog(logger zerolog.Logger) *Migrator {
	m := NewMigrator(logger)

	m.MustRegister(Step{
		ID:   1,
		Name: "create_courses_table",
		UpSQL: `
		CREATE TABLE courses (
			id BIGSERIAL PRIMARY KEY,
			title TEXT,
			release_date DATE
		);`,
		DownSQL: `DROP TABLE courses;`,
	})

	m.MustRegister(Step{
		ID:      2,
		Name:    "add_topic_column",
		UpSQL:   `ALTER TABLE courses ADD COLUMN topic TEXT;`,
		DownSQL: `ALTER TABLE courses DROP COLUMN topic;`,
	})

	return m
}
