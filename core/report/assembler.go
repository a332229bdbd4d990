package report

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tmbastos/escolar/core"
	"github.com/tmbastos/escolar/core/evaluation"
)

// FallbackSubject labels grades whose subject the directory failed to
// resolve; existing bulletins render this literal.
const FallbackSubject = "Disciplina"

// Pass/fail status rendered on bulletins.
const (
	StatusApproved = "APROVADO"
	StatusFailed   = "REPROVADO"
)

type (
	// DataSource is the external fetch collaborator. evaluation.Repository
	// satisfies it; tests plug an in-memory one.
	DataSource interface {
		GetConfig(ctx context.Context, schoolID uuid.UUID, academicYear int) (evaluation.Config, error)
		QueryGrades(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Grade, error)
		QueryAttendance(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Attendance, error)
		QueryDescriptiveReports(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.DescriptiveReport, error)
	}

	Assembler struct {
		src DataSource
		log core.Logger
	}

	// Student is header info resolved by the caller.
	Student struct {
		ID                 uuid.UUID `json:"id"`
		Name               string    `json:"name"`
		RegistrationNumber string    `json:"registration_number,omitempty"`
		DateOfBirth        string    `json:"date_of_birth,omitempty"`
	}

	// Enrollment ties a student to a class for one academic year.
	Enrollment struct {
		ID           uuid.UUID `json:"id"`
		SchoolID     uuid.UUID `json:"school_id"`
		AcademicYear int       `json:"academic_year"`
		Grade        string    `json:"grade,omitempty"`
		Shift        string    `json:"shift,omitempty"`
		ClassName    string    `json:"class_name,omitempty"`
		SchoolName   string    `json:"school_name,omitempty"`
	}

	RecordQuery struct {
		Student    Student
		Enrollment Enrollment
		Period     int // 0 = whole year
	}

	// SubjectGroup is one subject's grades with their plain-mean average.
	SubjectGroup struct {
		Subject string             `json:"subject"`
		Grades  []evaluation.Grade `json:"grades"`
		Average null.Float64       `json:"average"`
	}

	// StudentRecord is the consolidated academic record shown on a school
	// bulletin. All aggregates are raw floats; display rounding belongs to
	// the renderer.
	StudentRecord struct {
		Student    Student    `json:"student"`
		Enrollment Enrollment `json:"enrollment"`

		Subjects       []SubjectGroup `json:"subjects"`
		OverallAverage null.Float64   `json:"overall_average"`
		Status         string         `json:"status,omitempty"` // empty when no numeric grades

		AttendanceAverage  null.Float64            `json:"attendance_average"`
		AttendanceAdequacy string                  `json:"attendance_adequacy,omitempty"`
		Attendance         []evaluation.Attendance `json:"attendance"`

		ReportsByPeriod map[int][]evaluation.DescriptiveReport `json:"reports_by_period,omitempty"`
	}
)

func NewAssembler(src DataSource, log core.Logger) *Assembler {
	return &Assembler{src: src, log: log}
}

// StudentRecord joins one enrollment's grades, attendance and pareceres into
// the consolidated record. It is a pure reduction: identical inputs yield a
// structurally identical record.
func (a *Assembler) StudentRecord(ctx context.Context, q RecordQuery) (StudentRecord, error) {
	filter := evaluation.QueryFilter{
		EnrollmentID: q.Enrollment.ID,
		AcademicYear: q.Enrollment.AcademicYear,
		Period:       q.Period,
	}

	cfg, err := a.src.GetConfig(ctx, q.Enrollment.SchoolID, q.Enrollment.AcademicYear)
	if err != nil {
		if errors.Cause(err) != evaluation.ErrNotFound {
			return StudentRecord{}, errors.Wrap(err, "fetching evaluation config")
		}
		cfg = evaluation.DefaultConfig(q.Enrollment.SchoolID, q.Enrollment.AcademicYear)
	}
	grades, err := a.src.QueryGrades(ctx, filter)
	if err != nil {
		return StudentRecord{}, errors.Wrap(err, "fetching grades")
	}
	attendance, err := a.src.QueryAttendance(ctx, filter)
	if err != nil {
		return StudentRecord{}, errors.Wrap(err, "fetching attendance")
	}
	reports, err := a.src.QueryDescriptiveReports(ctx, filter)
	if err != nil {
		return StudentRecord{}, errors.Wrap(err, "fetching descriptive reports")
	}

	return buildRecord(q, cfg, grades, attendance, reports), nil
}

// buildRecord is the pure fan-in step; it never touches the data source.
func buildRecord(
	q RecordQuery,
	cfg evaluation.Config,
	grades []evaluation.Grade,
	attendance []evaluation.Attendance,
	reports []evaluation.DescriptiveReport,
) StudentRecord {
	rec := StudentRecord{
		Student:    q.Student,
		Enrollment: q.Enrollment,
		Subjects:   groupBySubject(grades),
		Attendance: attendance,
	}

	// overall average is the pooled mean over every numeric value, not an
	// average of subject averages
	if avg, ok := evaluation.SubjectAverage(grades); ok {
		rec.OverallAverage = null.Float64From(avg)
		passing := cfg.PassingGrade
		if passing == 0 {
			passing = evaluation.DefaultPassingGrade
		}
		if avg >= passing {
			rec.Status = StatusApproved
		} else {
			rec.Status = StatusFailed
		}
	}

	if avg, ok := evaluation.AttendanceAverage(attendance); ok {
		rec.AttendanceAverage = null.Float64From(avg)
		rec.AttendanceAdequacy = evaluation.Adequacy(avg)
	}

	if len(reports) > 0 {
		rec.ReportsByPeriod = make(map[int][]evaluation.DescriptiveReport, 4)
		for _, r := range reports {
			rec.ReportsByPeriod[r.Period] = append(rec.ReportsByPeriod[r.Period], r)
		}
	}
	return rec
}

// groupBySubject groups grades by resolved subject name in first-seen order.
// Unresolved subjects collapse into the fallback label.
func groupBySubject(grades []evaluation.Grade) []SubjectGroup {
	idx := make(map[string]int, 8)
	groups := make([]SubjectGroup, 0, 8)
	for _, g := range grades {
		subject := g.SubjectName
		if subject == "" {
			subject = FallbackSubject
		}
		i, ok := idx[subject]
		if !ok {
			i = len(groups)
			idx[subject] = i
			groups = append(groups, SubjectGroup{Subject: subject})
		}
		groups[i].Grades = append(groups[i].Grades, g)
	}
	for i := range groups {
		if avg, ok := evaluation.SubjectAverage(groups[i].Grades); ok {
			groups[i].Average = null.Float64From(avg)
		}
	}
	return groups
}
