package report

import (
	"context"

	"github.com/google/uuid"
)

// Directory resolves class rosters and the subject list for a school year.
// Storage implements it over the students/enrollments/subjects tables.
type Directory interface {
	Roster(ctx context.Context, schoolID uuid.UUID, className string, academicYear int) ([]MatrixStudent, error)
	Subjects(ctx context.Context, schoolID uuid.UUID, academicYear int) ([]string, error)
}
