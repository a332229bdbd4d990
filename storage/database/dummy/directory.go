package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/tmbastos/escolar/core/report"
)

type directoryRepository struct {
	roster  *rosterTable
	subject *subjectTable
}

var _ report.Directory = (*directoryRepository)(nil) // interface compliance check

func NewDirectoryRepository(db *DB) *directoryRepository {
	return &directoryRepository{roster: db.roster, subject: db.subject}
}

// Enroll registers a student on a class roster; test fixtures use it in
// place of migrations.
func (repo *directoryRepository) Enroll(ms report.MatrixStudent) {
	repo.roster.Lock()
	defer repo.roster.Unlock()
	repo.roster.table = append(repo.roster.table, ms)
}

// SetSubjects fixes the subject column order for a school year.
func (repo *directoryRepository) SetSubjects(schoolID uuid.UUID, academicYear int, names []string) {
	repo.subject.Lock()
	defer repo.subject.Unlock()
	repo.subject.table[calendarKey{schoolID, academicYear}] = names
}

func (repo *directoryRepository) Roster(ctx context.Context, schoolID uuid.UUID, className string, academicYear int) ([]report.MatrixStudent, error) {
	repo.roster.RLock()
	defer repo.roster.RUnlock()

	roster := make([]report.MatrixStudent, 0, len(repo.roster.table))
	for _, ms := range repo.roster.table {
		if ms.Enrollment.SchoolID == schoolID && ms.Enrollment.ClassName == className && ms.Enrollment.AcademicYear == academicYear {
			roster = append(roster, ms)
		}
	}
	return roster, nil
}

func (repo *directoryRepository) Subjects(ctx context.Context, schoolID uuid.UUID, academicYear int) ([]string, error) {
	repo.subject.RLock()
	defer repo.subject.RUnlock()
	return repo.subject.table[calendarKey{schoolID, academicYear}], nil
}
