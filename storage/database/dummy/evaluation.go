package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/tmbastos/escolar/core/evaluation"
)

type evaluationRepository struct {
	config     *configTable
	grade      *gradeTable
	attendance *attendanceTable
	report     *reportTable
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *DB) *evaluationRepository {
	return &evaluationRepository{
		config:     db.config,
		grade:      db.grade,
		attendance: db.attendance,
		report:     db.report,
	}
}

func (repo *evaluationRepository) GetConfig(ctx context.Context, schoolID uuid.UUID, academicYear int) (evaluation.Config, error) {
	repo.config.RLock()
	defer repo.config.RUnlock()

	if cfg, ok := repo.config.table[calendarKey{schoolID, academicYear}]; ok {
		return *cfg, nil
	}
	return evaluation.Config{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) CreateConfig(ctx context.Context, cfg evaluation.Config) (evaluation.Config, error) {
	repo.config.Lock()
	defer repo.config.Unlock()

	key := calendarKey{cfg.SchoolID, cfg.AcademicYear}
	if _, ok := repo.config.table[key]; ok {
		return evaluation.Config{}, evaluation.ErrConfigExists
	}
	repo.config.table[key] = &cfg
	return cfg, nil
}

func (repo *evaluationRepository) CreateGrade(ctx context.Context, g evaluation.Grade) (evaluation.Grade, error) {
	repo.grade.Lock()
	defer repo.grade.Unlock()

	repo.grade.table = append(repo.grade.table, g)
	return g, nil
}

func (repo *evaluationRepository) QueryGrades(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Grade, error) {
	repo.grade.RLock()
	defer repo.grade.RUnlock()

	grades := make([]evaluation.Grade, 0, len(repo.grade.table))
	for _, g := range repo.grade.table {
		if matches(filter, g.StudentID, g.EnrollmentID, g.SubjectID, g.AcademicYear, g.Period) {
			grades = append(grades, g)
		}
	}
	return grades, nil
}

func (repo *evaluationRepository) CreateAttendance(ctx context.Context, att evaluation.Attendance) (evaluation.Attendance, error) {
	repo.attendance.Lock()
	defer repo.attendance.Unlock()

	repo.attendance.table = append(repo.attendance.table, att)
	return att, nil
}

func (repo *evaluationRepository) QueryAttendance(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Attendance, error) {
	repo.attendance.RLock()
	defer repo.attendance.RUnlock()

	records := make([]evaluation.Attendance, 0, len(repo.attendance.table))
	for _, att := range repo.attendance.table {
		if matches(filter, att.StudentID, att.EnrollmentID, att.SubjectID.UUID, att.AcademicYear, att.Period) {
			records = append(records, att)
		}
	}
	return records, nil
}

func (repo *evaluationRepository) CreateDescriptiveReport(ctx context.Context, r evaluation.DescriptiveReport) (evaluation.DescriptiveReport, error) {
	repo.report.Lock()
	defer repo.report.Unlock()

	repo.report.table = append(repo.report.table, r)
	return r, nil
}

func (repo *evaluationRepository) QueryDescriptiveReports(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.DescriptiveReport, error) {
	repo.report.RLock()
	defer repo.report.RUnlock()

	reports := make([]evaluation.DescriptiveReport, 0, len(repo.report.table))
	for _, r := range repo.report.table {
		if matches(filter, r.StudentID, r.EnrollmentID, uuid.Nil, r.AcademicYear, r.Period) {
			reports = append(reports, r)
		}
	}
	return reports, nil
}

// matches applies AND on the set filter fields, like the SQL repository does.
func matches(filter evaluation.QueryFilter, studentID, enrollmentID, subjectID uuid.UUID, year, period int) bool {
	if filter.StudentID != uuid.Nil && filter.StudentID != studentID {
		return false
	}
	if filter.EnrollmentID != uuid.Nil && filter.EnrollmentID != enrollmentID {
		return false
	}
	if filter.SubjectID != uuid.Nil && filter.SubjectID != subjectID {
		return false
	}
	if filter.AcademicYear != 0 && filter.AcademicYear != year {
		return false
	}
	if filter.Period != 0 && filter.Period != period {
		return false
	}
	return true
}
