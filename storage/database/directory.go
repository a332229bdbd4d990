package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tmbastos/escolar/core/report"
)

type directoryRepository struct {
	db *sqlx.DB
}

var _ report.Directory = (*directoryRepository)(nil) // interface compliance check

func NewDirectoryRepository(db *sqlx.DB) *directoryRepository {
	return &directoryRepository{db: db}
}

type rosterRow struct {
	StudentID          uuid.UUID `db:"student_id"`
	StudentName        string    `db:"student_name"`
	RegistrationNumber string    `db:"registration_number"`
	DateOfBirth        time.Time `db:"date_of_birth"`
	EnrollmentID       uuid.UUID `db:"enrollment_id"`
	SchoolID           uuid.UUID `db:"school_id"`
	AcademicYear       int       `db:"academic_year"`
	Grade              string    `db:"grade"`
	Shift              string    `db:"shift"`
	ClassName          string    `db:"class_name"`
}

func (repo directoryRepository) Roster(ctx context.Context, schoolID uuid.UUID, className string, academicYear int) ([]report.MatrixStudent, error) {
	q := `
	SELECT st.id AS student_id, st.name AS student_name,
	       COALESCE(st.registration_number, '') AS registration_number,
	       COALESCE(st.date_of_birth, '0001-01-01') AS date_of_birth,
	       e.id AS enrollment_id, e.school_id, e.academic_year,
	       COALESCE(e.grade, '') AS grade, COALESCE(e.shift, '') AS shift,
	       e.class_name
	FROM enrollments e
	JOIN students st ON st.id = e.student_id
	WHERE e.school_id = $1 AND e.class_name = $2 AND e.academic_year = $3
	ORDER BY st.name, st.id`

	var rows []rosterRow
	if err := repo.db.SelectContext(ctx, &rows, q, schoolID, className, academicYear); err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}

	roster := make([]report.MatrixStudent, 0, len(rows))
	for _, row := range rows {
		var dob string
		if row.DateOfBirth.Year() > 1 {
			dob = row.DateOfBirth.Format("2006-01-02")
		}
		roster = append(roster, report.MatrixStudent{
			Student: report.Student{
				ID:                 row.StudentID,
				Name:               row.StudentName,
				RegistrationNumber: row.RegistrationNumber,
				DateOfBirth:        dob,
			},
			Enrollment: report.Enrollment{
				ID:           row.EnrollmentID,
				SchoolID:     row.SchoolID,
				AcademicYear: row.AcademicYear,
				Grade:        row.Grade,
				Shift:        row.Shift,
				ClassName:    row.ClassName,
			},
		})
	}
	return roster, nil
}

func (repo directoryRepository) Subjects(ctx context.Context, schoolID uuid.UUID, academicYear int) ([]string, error) {
	q := `
	SELECT name FROM subjects
	WHERE school_id = $1 AND academic_year = $2
	ORDER BY position, name`

	var names []string
	if err := repo.db.SelectContext(ctx, &names, q, schoolID, academicYear); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return names, nil
}
