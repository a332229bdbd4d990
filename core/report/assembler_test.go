package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tmbastos/escolar/core/evaluation"
)

type fakeSource struct {
	cfg        evaluation.Config
	cfgErr     error
	grades     map[uuid.UUID][]evaluation.Grade
	attendance map[uuid.UUID][]evaluation.Attendance
	reports    map[uuid.UUID][]evaluation.DescriptiveReport
	failFor    map[uuid.UUID]bool
	delayFor   map[uuid.UUID]time.Duration
}

func (f *fakeSource) GetConfig(ctx context.Context, schoolID uuid.UUID, year int) (evaluation.Config, error) {
	if f.cfgErr != nil {
		return evaluation.Config{}, f.cfgErr
	}
	if f.cfg.ID == uuid.Nil {
		return evaluation.Config{}, evaluation.ErrNotFound
	}
	return f.cfg, nil
}

func (f *fakeSource) QueryGrades(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Grade, error) {
	if d, ok := f.delayFor[filter.EnrollmentID]; ok {
		time.Sleep(d)
	}
	if f.failFor[filter.EnrollmentID] {
		return nil, errors.New("grades backend down")
	}
	return f.grades[filter.EnrollmentID], nil
}

func (f *fakeSource) QueryAttendance(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Attendance, error) {
	return f.attendance[filter.EnrollmentID], nil
}

func (f *fakeSource) QueryDescriptiveReports(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.DescriptiveReport, error) {
	return f.reports[filter.EnrollmentID], nil
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func grade(subject string, period int, value float64) evaluation.Grade {
	return evaluation.Grade{
		ID:             uuid.New(),
		Period:         period,
		Value:          null.Float64From(value),
		EvaluationType: evaluation.TypeNumeric,
		SubjectName:    subject,
	}
}

func conceptual(subject string, period int, mark string) evaluation.Grade {
	return evaluation.Grade{
		ID:             uuid.New(),
		Period:         period,
		Conceptual:     mark,
		EvaluationType: evaluation.TypeConceptual,
		SubjectName:    subject,
	}
}

func attendanceRow(total, present int) evaluation.Attendance {
	return evaluation.Attendance{
		ID:             uuid.New(),
		TotalClasses:   total,
		PresentClasses: present,
		Percentage:     evaluation.AttendancePercent(total, present),
	}
}

func TestStudentRecord(t *testing.T) {
	enrollmentID := uuid.New()
	q := RecordQuery{
		Student:    Student{ID: uuid.New(), Name: "Ana Souza", RegistrationNumber: "2025-0042"},
		Enrollment: Enrollment{ID: enrollmentID, SchoolID: uuid.New(), AcademicYear: 2025, ClassName: "5º Ano A"},
	}
	src := &fakeSource{
		grades: map[uuid.UUID][]evaluation.Grade{
			enrollmentID: {
				grade("Matemática", 1, 8),
				grade("Português", 1, 4),
				grade("Matemática", 2, 6),
				grade("", 1, 10),
			},
		},
		attendance: map[uuid.UUID][]evaluation.Attendance{
			enrollmentID: {attendanceRow(40, 36), attendanceRow(40, 24)},
		},
		reports: map[uuid.UUID][]evaluation.DescriptiveReport{
			enrollmentID: {
				{ID: uuid.New(), Period: 1, ReportText: "Bom desempenho."},
				{ID: uuid.New(), Period: 2, ReportText: "Evoluiu bastante."},
				{ID: uuid.New(), Period: 1, ReportText: "Participativa."},
			},
		},
	}
	a := NewAssembler(src, nopLogger{})

	rec, err := a.StudentRecord(context.Background(), q)
	if err != nil {
		t.Fatalf("StudentRecord() error = %v", err)
	}

	wantSubjects := []string{"Matemática", "Português", FallbackSubject}
	if len(rec.Subjects) != len(wantSubjects) {
		t.Fatalf("got %d subject groups, want %d", len(rec.Subjects), len(wantSubjects))
	}
	for i, want := range wantSubjects {
		if rec.Subjects[i].Subject != want {
			t.Errorf("subject[%d] = %q, want %q (first-seen order)", i, rec.Subjects[i].Subject, want)
		}
	}
	if got := rec.Subjects[0].Average; !got.Valid || got.Float64 != 7 {
		t.Errorf("Matemática average = %v, want 7", got)
	}

	// pooled mean over all four values, not a mean of subject averages
	if !rec.OverallAverage.Valid || rec.OverallAverage.Float64 != 7 {
		t.Errorf("OverallAverage = %v, want pooled 7", rec.OverallAverage)
	}
	if rec.Status != StatusApproved {
		t.Errorf("Status = %q, want %q", rec.Status, StatusApproved)
	}

	// unweighted mean of 90% and 60%
	if !rec.AttendanceAverage.Valid || rec.AttendanceAverage.Float64 != 75 {
		t.Errorf("AttendanceAverage = %v, want 75", rec.AttendanceAverage)
	}
	if rec.AttendanceAdequacy != evaluation.AdequacyAdequate {
		t.Errorf("AttendanceAdequacy = %q, want %q", rec.AttendanceAdequacy, evaluation.AdequacyAdequate)
	}

	if len(rec.ReportsByPeriod[1]) != 2 || len(rec.ReportsByPeriod[2]) != 1 {
		t.Errorf("ReportsByPeriod sizes = %d/%d, want 2/1",
			len(rec.ReportsByPeriod[1]), len(rec.ReportsByPeriod[2]))
	}
}

func TestStudentRecordNoNumericGrades(t *testing.T) {
	enrollmentID := uuid.New()
	src := &fakeSource{
		grades: map[uuid.UUID][]evaluation.Grade{
			enrollmentID: {conceptual("Artes", 1, "A")},
		},
	}
	a := NewAssembler(src, nopLogger{})

	rec, err := a.StudentRecord(context.Background(), RecordQuery{
		Enrollment: Enrollment{ID: enrollmentID, AcademicYear: 2025},
	})
	if err != nil {
		t.Fatalf("StudentRecord() error = %v", err)
	}
	if rec.OverallAverage.Valid {
		t.Errorf("OverallAverage = %v, want null", rec.OverallAverage)
	}
	if rec.Status != "" {
		t.Errorf("Status = %q, want empty without numeric grades", rec.Status)
	}
	if rec.AttendanceAverage.Valid || rec.AttendanceAdequacy != "" {
		t.Error("attendance summary should stay empty without attendance rows")
	}
}

func TestStudentRecordFailingStatus(t *testing.T) {
	enrollmentID := uuid.New()
	src := &fakeSource{
		grades: map[uuid.UUID][]evaluation.Grade{
			enrollmentID: {grade("História", 1, 5.9)},
		},
	}
	a := NewAssembler(src, nopLogger{})

	rec, err := a.StudentRecord(context.Background(), RecordQuery{
		Enrollment: Enrollment{ID: enrollmentID, AcademicYear: 2025},
	})
	if err != nil {
		t.Fatalf("StudentRecord() error = %v", err)
	}
	if rec.Status != StatusFailed {
		t.Errorf("Status = %q, want %q below the default passing grade", rec.Status, StatusFailed)
	}
}

func TestStudentRecordSourceError(t *testing.T) {
	src := &fakeSource{failFor: map[uuid.UUID]bool{}}
	enrollmentID := uuid.New()
	src.failFor[enrollmentID] = true
	a := NewAssembler(src, nopLogger{})

	_, err := a.StudentRecord(context.Background(), RecordQuery{
		Enrollment: Enrollment{ID: enrollmentID, AcademicYear: 2025},
	})
	if err == nil {
		t.Fatal("StudentRecord() should propagate fetch errors")
	}
	if !strings.Contains(err.Error(), "fetching grades") {
		t.Errorf("error = %v, want grade-fetch context", err)
	}
}

func TestStudentRecordIdempotent(t *testing.T) {
	enrollmentID := uuid.New()
	src := &fakeSource{
		grades: map[uuid.UUID][]evaluation.Grade{
			enrollmentID: {grade("Matemática", 1, 8), grade("Ciências", 1, 6)},
		},
		attendance: map[uuid.UUID][]evaluation.Attendance{
			enrollmentID: {attendanceRow(40, 30)},
		},
	}
	a := NewAssembler(src, nopLogger{})
	q := RecordQuery{Enrollment: Enrollment{ID: enrollmentID, AcademicYear: 2025}}

	first, err := a.StudentRecord(context.Background(), q)
	if err != nil {
		t.Fatalf("StudentRecord() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := a.StudentRecord(context.Background(), q)
		if err != nil {
			t.Fatalf("StudentRecord() error = %v", err)
		}
		if again.OverallAverage != first.OverallAverage ||
			again.Status != first.Status ||
			len(again.Subjects) != len(first.Subjects) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, again, first)
		}
		for j := range again.Subjects {
			if again.Subjects[j].Subject != first.Subjects[j].Subject {
				t.Fatalf("run %d subject order diverged", i)
			}
		}
	}
}
