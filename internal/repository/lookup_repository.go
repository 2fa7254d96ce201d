package repository

import (
	"context"
	"database/sql"
)

// CourseRepo and StateRepo are thin wrappers over the generic repository:
// the lookup tables need nothing beyond plain CRUD and ordered listings.

type CourseRepo struct {
	*Base
}

func NewCourseRepo(db *sql.DB) *CourseRepo {
	return &CourseRepo{NewBase(db, Table{Name: "courses"})}
}

// List returns every course ordered by its short name.
func (r *CourseRepo) List(ctx context.Context) ([]Row, error) {
	return r.GetAll(ctx, "course_short_name", 0)
}

type StateRepo struct {
	*Base
}

func NewStateRepo(db *sql.DB) *StateRepo {
	return &StateRepo{NewBase(db, Table{Name: "states"})}
}

// List returns every state ordered by name.
func (r *StateRepo) List(ctx context.Context) ([]Row, error) {
	return r.GetAll(ctx, "state_name", 0)
}
