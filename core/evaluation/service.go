package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound     = errors.New("record not found")
	ErrConfigExists = errors.New("an evaluation config for this school and year already exists")
)

type (
	Repository interface {
		GetConfig(ctx context.Context, schoolID uuid.UUID, academicYear int) (Config, error)
		CreateConfig(ctx context.Context, cfg Config) (Config, error)
		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		// QueryGrades applies AND on set QueryFilter fields, ordered by period.
		// Rows come back enriched with resolved student/subject names where
		// the directory knows them.
		QueryGrades(ctx context.Context, filter QueryFilter) ([]Grade, error)
		CreateAttendance(ctx context.Context, att Attendance) (Attendance, error)
		QueryAttendance(ctx context.Context, filter QueryFilter) ([]Attendance, error)
		CreateDescriptiveReport(ctx context.Context, r DescriptiveReport) (DescriptiveReport, error)
		QueryDescriptiveReports(ctx context.Context, filter QueryFilter) ([]DescriptiveReport, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Config returns the school's grading policy for the year, falling back to
// the default policy when none is stored.
func (svc *Service) Config(ctx context.Context, schoolID uuid.UUID, year int) (Config, error) {
	cfg, err := svc.repo.GetConfig(ctx, schoolID, year)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DefaultConfig(schoolID, year), nil
		}
		return Config{}, err
	}
	return cfg, nil
}

func DefaultConfig(schoolID uuid.UUID, year int) Config {
	return Config{
		SchoolID:          schoolID,
		AcademicYear:      year,
		EvaluationType:    TypeNumeric,
		CalculationMethod: MethodArithmetic,
		PassingGrade:      DefaultPassingGrade,
		MaxGrade:          DefaultMaxGrade,
	}
}

func (svc *Service) CreateConfig(ctx context.Context, cfg Config) (Config, error) {
	now := time.Now().UTC()
	cfg.ID = uuid.New()
	if cfg.EvaluationType == "" {
		cfg.EvaluationType = TypeNumeric
	}
	if cfg.CalculationMethod == "" {
		cfg.CalculationMethod = MethodArithmetic
	}
	if cfg.PassingGrade == 0 {
		cfg.PassingGrade = DefaultPassingGrade
	}
	if cfg.MaxGrade == 0 {
		cfg.MaxGrade = DefaultMaxGrade
	}
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	return svc.repo.CreateConfig(ctx, cfg)
}

func (svc *Service) SubmitGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	now := time.Now().UTC()
	g := Grade{
		ID:             uuid.New(),
		StudentID:      ng.StudentID,
		EnrollmentID:   ng.EnrollmentID,
		SubjectID:      ng.SubjectID,
		AcademicYear:   ng.AcademicYear,
		Period:         ng.Period,
		Value:          null.Float64FromPtr(ng.Value),
		Conceptual:     ng.Conceptual,
		Descriptive:    ng.Descriptive,
		EvaluationType: ng.EvaluationType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateGrade(ctx, g)
}

func (svc *Service) Grades(ctx context.Context, filter QueryFilter) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, filter)
}

// RecordAttendance stores a class-count tuple; the percentage is always
// recomputed here, whatever the caller sent.
func (svc *Service) RecordAttendance(ctx context.Context, na NewAttendance) (Attendance, error) {
	now := time.Now().UTC()
	att := Attendance{
		ID:                uuid.New(),
		StudentID:         na.StudentID,
		EnrollmentID:      na.EnrollmentID,
		SubjectID:         na.SubjectID,
		AcademicYear:      na.AcademicYear,
		Period:            na.Period,
		TotalClasses:      na.TotalClasses,
		PresentClasses:    na.PresentClasses,
		AbsentClasses:     na.AbsentClasses,
		JustifiedAbsences: na.JustifiedAbsences,
		Percentage:        AttendancePercent(na.TotalClasses, na.PresentClasses),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.CreateAttendance(ctx, att)
}

func (svc *Service) Attendance(ctx context.Context, filter QueryFilter) ([]Attendance, error) {
	return svc.repo.QueryAttendance(ctx, filter)
}

func (svc *Service) AddDescriptiveReport(ctx context.Context, nr NewDescriptiveReport) (DescriptiveReport, error) {
	now := time.Now().UTC()
	r := DescriptiveReport{
		ID:           uuid.New(),
		StudentID:    nr.StudentID,
		EnrollmentID: nr.EnrollmentID,
		AcademicYear: nr.AcademicYear,
		Period:       nr.Period,
		ReportText:   nr.ReportText,
		CreatedBy:    nr.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateDescriptiveReport(ctx, r)
}

func (svc *Service) DescriptiveReports(ctx context.Context, filter QueryFilter) ([]DescriptiveReport, error) {
	return svc.repo.QueryDescriptiveReports(ctx, filter)
}

// FinalGrade fetches the matching grades and reduces them with the school's
// configured method.
func (svc *Service) FinalGrade(ctx context.Context, schoolID uuid.UUID, filter QueryFilter) (float64, error) {
	cfg, err := svc.Config(ctx, schoolID, filter.AcademicYear)
	if err != nil {
		return 0, err
	}
	grades, err := svc.repo.QueryGrades(ctx, filter)
	if err != nil {
		return 0, err
	}
	return FinalGrade(grades, cfg), nil
}
