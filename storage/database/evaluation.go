package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tmbastos/escolar/core/evaluation"
)

type evaluationRepository struct {
	db *sqlx.DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *sqlx.DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to evaluation.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return evaluation.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// row structs mirror table columns; core models stay free of db tags.
type (
	configRow struct {
		ID                uuid.UUID      `db:"id"`
		SchoolID          uuid.UUID      `db:"school_id"`
		AcademicYear      int            `db:"academic_year"`
		EvaluationType    string         `db:"evaluation_type"`
		CalculationMethod string         `db:"calculation_method"`
		PassingGrade      float64        `db:"passing_grade"`
		MaxGrade          float64        `db:"max_grade"`
		Weights           types.JSONText `db:"weights"`
		CreatedAt         time.Time      `db:"created_at"`
		UpdatedAt         time.Time      `db:"updated_at"`
	}

	gradeRow struct {
		ID             uuid.UUID    `db:"id"`
		StudentID      uuid.UUID    `db:"student_id"`
		EnrollmentID   uuid.UUID    `db:"enrollment_id"`
		SubjectID      uuid.UUID    `db:"subject_id"`
		AcademicYear   int          `db:"academic_year"`
		Period         int          `db:"period"`
		Value          null.Float64 `db:"grade_value"`
		Conceptual     null.String  `db:"conceptual_grade"`
		Descriptive    null.String  `db:"descriptive_grade"`
		EvaluationType string       `db:"evaluation_type"`
		CreatedAt      time.Time    `db:"created_at"`
		UpdatedAt      time.Time    `db:"updated_at"`
		StudentName    string       `db:"student_name"`
		SubjectName    string       `db:"subject_name"`
	}

	attendanceRow struct {
		ID                uuid.UUID     `db:"id"`
		StudentID         uuid.UUID     `db:"student_id"`
		EnrollmentID      uuid.UUID     `db:"enrollment_id"`
		SubjectID         uuid.NullUUID `db:"subject_id"`
		AcademicYear      int           `db:"academic_year"`
		Period            int           `db:"period"`
		TotalClasses      int           `db:"total_classes"`
		PresentClasses    int           `db:"present_classes"`
		AbsentClasses     int           `db:"absent_classes"`
		JustifiedAbsences int           `db:"justified_absences"`
		Percentage        float64       `db:"attendance_percentage"`
		CreatedAt         time.Time     `db:"created_at"`
		UpdatedAt         time.Time     `db:"updated_at"`
		StudentName       string        `db:"student_name"`
		SubjectName       string        `db:"subject_name"`
	}

	reportRow struct {
		ID            uuid.UUID `db:"id"`
		StudentID     uuid.UUID `db:"student_id"`
		EnrollmentID  uuid.UUID `db:"enrollment_id"`
		AcademicYear  int       `db:"academic_year"`
		Period        int       `db:"period"`
		ReportText    string    `db:"report_text"`
		CreatedBy     uuid.UUID `db:"created_by"`
		CreatedAt     time.Time `db:"created_at"`
		UpdatedAt     time.Time `db:"updated_at"`
		StudentName   string    `db:"student_name"`
		CreatedByName string    `db:"created_by_name"`
	}
)

func (row gradeRow) toGrade() evaluation.Grade {
	return evaluation.Grade{
		ID:             row.ID,
		StudentID:      row.StudentID,
		EnrollmentID:   row.EnrollmentID,
		SubjectID:      row.SubjectID,
		AcademicYear:   row.AcademicYear,
		Period:         row.Period,
		Value:          row.Value,
		Conceptual:     row.Conceptual.String,
		Descriptive:    row.Descriptive.String,
		EvaluationType: evaluation.Type(row.EvaluationType),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		StudentName:    row.StudentName,
		SubjectName:    row.SubjectName,
	}
}

func (row attendanceRow) toAttendance() evaluation.Attendance {
	return evaluation.Attendance{
		ID:                row.ID,
		StudentID:         row.StudentID,
		EnrollmentID:      row.EnrollmentID,
		SubjectID:         row.SubjectID,
		AcademicYear:      row.AcademicYear,
		Period:            row.Period,
		TotalClasses:      row.TotalClasses,
		PresentClasses:    row.PresentClasses,
		AbsentClasses:     row.AbsentClasses,
		JustifiedAbsences: row.JustifiedAbsences,
		Percentage:        row.Percentage,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
		StudentName:       row.StudentName,
		SubjectName:       row.SubjectName,
	}
}

func (row reportRow) toReport() evaluation.DescriptiveReport {
	return evaluation.DescriptiveReport{
		ID:            row.ID,
		StudentID:     row.StudentID,
		EnrollmentID:  row.EnrollmentID,
		AcademicYear:  row.AcademicYear,
		Period:        row.Period,
		ReportText:    row.ReportText,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		StudentName:   row.StudentName,
		CreatedByName: row.CreatedByName,
	}
}

func (repo evaluationRepository) GetConfig(ctx context.Context, schoolID uuid.UUID, academicYear int) (evaluation.Config, error) {
	q := `
	SELECT id, school_id, academic_year, evaluation_type, calculation_method,
	       passing_grade, max_grade, weights, created_at, updated_at
	FROM evaluation_configs
	WHERE school_id = $1 AND academic_year = $2`

	var row configRow
	if err := repo.db.GetContext(ctx, &row, q, schoolID, academicYear); err != nil {
		return evaluation.Config{}, trapNoRowsErr(err, "getting evaluation config")
	}

	cfg := evaluation.Config{
		ID:                row.ID,
		SchoolID:          row.SchoolID,
		AcademicYear:      row.AcademicYear,
		EvaluationType:    evaluation.Type(row.EvaluationType),
		CalculationMethod: evaluation.CalculationMethod(row.CalculationMethod),
		PassingGrade:      row.PassingGrade,
		MaxGrade:          row.MaxGrade,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if len(row.Weights) > 0 {
		if err := json.Unmarshal(row.Weights, &cfg.Weights); err != nil {
			return evaluation.Config{}, errors.Wrap(err, "decoding weights")
		}
	}
	return cfg, nil
}

func (repo evaluationRepository) CreateConfig(ctx context.Context, cfg evaluation.Config) (evaluation.Config, error) {
	weights, err := json.Marshal(cfg.Weights)
	if err != nil {
		return evaluation.Config{}, errors.Wrap(err, "encoding weights")
	}

	q := `
	INSERT INTO evaluation_configs
		(id, school_id, academic_year, evaluation_type, calculation_method,
		 passing_grade, max_grade, weights, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = repo.db.ExecContext(ctx, q,
		cfg.ID, cfg.SchoolID, cfg.AcademicYear, cfg.EvaluationType, cfg.CalculationMethod,
		cfg.PassingGrade, cfg.MaxGrade, types.JSONText(weights), cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return evaluation.Config{}, evaluation.ErrConfigExists
		}
		return evaluation.Config{}, errors.Wrap(err, "inserting evaluation config")
	}
	return cfg, nil
}

func (repo evaluationRepository) CreateGrade(ctx context.Context, g evaluation.Grade) (evaluation.Grade, error) {
	q := `
	INSERT INTO grades
		(id, student_id, enrollment_id, subject_id, academic_year, period,
		 grade_value, conceptual_grade, descriptive_grade, evaluation_type,
		 created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := repo.db.ExecContext(ctx, q,
		g.ID, g.StudentID, g.EnrollmentID, g.SubjectID, g.AcademicYear, g.Period,
		g.Value, nullStr(g.Conceptual), nullStr(g.Descriptive), g.EvaluationType,
		g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return evaluation.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (repo evaluationRepository) QueryGrades(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Grade, error) {
	q := `
	SELECT g.id, g.student_id, g.enrollment_id, g.subject_id, g.academic_year, g.period,
	       g.grade_value, g.conceptual_grade, g.descriptive_grade, g.evaluation_type,
	       g.created_at, g.updated_at,
	       COALESCE(st.name, '') AS student_name,
	       COALESCE(subj.name, '') AS subject_name
	FROM grades g
	LEFT JOIN students st ON st.id = g.student_id
	LEFT JOIN subjects subj ON subj.id = g.subject_id`

	where, args := buildFilter(filter, "g")
	q += where + " ORDER BY g.period, g.created_at"

	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	grades := make([]evaluation.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.toGrade())
	}
	return grades, nil
}

func (repo evaluationRepository) CreateAttendance(ctx context.Context, att evaluation.Attendance) (evaluation.Attendance, error) {
	q := `
	INSERT INTO attendance_records
		(id, student_id, enrollment_id, subject_id, academic_year, period,
		 total_classes, present_classes, absent_classes, justified_absences,
		 attendance_percentage, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := repo.db.ExecContext(ctx, q,
		att.ID, att.StudentID, att.EnrollmentID, att.SubjectID, att.AcademicYear, att.Period,
		att.TotalClasses, att.PresentClasses, att.AbsentClasses, att.JustifiedAbsences,
		att.Percentage, att.CreatedAt, att.UpdatedAt,
	)
	if err != nil {
		return evaluation.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return att, nil
}

func (repo evaluationRepository) QueryAttendance(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Attendance, error) {
	q := `
	SELECT a.id, a.student_id, a.enrollment_id, a.subject_id, a.academic_year, a.period,
	       a.total_classes, a.present_classes, a.absent_classes, a.justified_absences,
	       a.attendance_percentage, a.created_at, a.updated_at,
	       COALESCE(st.name, '') AS student_name,
	       COALESCE(subj.name, '') AS subject_name
	FROM attendance_records a
	LEFT JOIN students st ON st.id = a.student_id
	LEFT JOIN subjects subj ON subj.id = a.subject_id`

	where, args := buildFilter(filter, "a")
	q += where + " ORDER BY a.period, a.created_at"

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]evaluation.Attendance, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toAttendance())
	}
	return records, nil
}

func (repo evaluationRepository) CreateDescriptiveReport(ctx context.Context, r evaluation.DescriptiveReport) (evaluation.DescriptiveReport, error) {
	q := `
	INSERT INTO descriptive_reports
		(id, student_id, enrollment_id, academic_year, period, report_text,
		 created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := repo.db.ExecContext(ctx, q,
		r.ID, r.StudentID, r.EnrollmentID, r.AcademicYear, r.Period, r.ReportText,
		r.CreatedBy, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return evaluation.DescriptiveReport{}, errors.Wrap(err, "inserting descriptive report")
	}
	return r, nil
}

func (repo evaluationRepository) QueryDescriptiveReports(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.DescriptiveReport, error) {
	q := `
	SELECT r.id, r.student_id, r.enrollment_id, r.academic_year, r.period, r.report_text,
	       r.created_by, r.created_at, r.updated_at,
	       COALESCE(st.name, '') AS student_name,
	       COALESCE(u.name, '') AS created_by_name
	FROM descriptive_reports r
	LEFT JOIN students st ON st.id = r.student_id
	LEFT JOIN staff u ON u.id = r.created_by`

	where, args := buildFilter(filter, "r")
	q += where + " ORDER BY r.period, r.created_at"

	var rows []reportRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying descriptive reports")
	}
	reports := make([]evaluation.DescriptiveReport, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.toReport())
	}
	return reports, nil
}

// buildFilter turns the set QueryFilter fields into an AND'ed WHERE clause.
func buildFilter(filter evaluation.QueryFilter, alias string) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s.%s = $%d", alias, column, len(args)))
	}
	if filter.StudentID != uuid.Nil {
		add("student_id", filter.StudentID)
	}
	if filter.EnrollmentID != uuid.Nil {
		add("enrollment_id", filter.EnrollmentID)
	}
	if filter.SubjectID != uuid.Nil {
		add("subject_id", filter.SubjectID)
	}
	if filter.AcademicYear != 0 {
		add("academic_year", filter.AcademicYear)
	}
	if filter.Period != 0 {
		add("period", filter.Period)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullStr(s string) null.String {
	return null.NewString(s, s != "")
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
