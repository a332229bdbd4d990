package report

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tmbastos/escolar/core/evaluation"
)

// EmptyCell marks a subject with no numeric grade for a student.
const EmptyCell = "-"

type (
	// MatrixStudent is one row of the class bulletin, in roster order.
	MatrixStudent struct {
		Student    Student
		Enrollment Enrollment
	}

	// MatrixQuery drives a class-wide bulletin. Subjects fixes the column
	// order; subjects outside the list are ignored.
	MatrixQuery struct {
		SchoolID     uuid.UUID
		ClassName    string
		AcademicYear int
		Period       int // 0 = whole year
		Students     []MatrixStudent
		Subjects     []string
	}

	// MatrixRow carries per-student cells already formatted for display.
	MatrixRow struct {
		StudentName string            `json:"student_name"`
		Enrollment  string            `json:"enrollment"`
		Cells       map[string]string `json:"cells"`
		Average     string            `json:"average"`
		Attendance  string            `json:"attendance"`
		Status      string            `json:"status"`
	}

	// Matrix is the assembled class bulletin.
	Matrix struct {
		ClassName    string      `json:"class_name"`
		AcademicYear int         `json:"academic_year"`
		Period       int         `json:"period"`
		Subjects     []string    `json:"subjects"`
		Rows         []MatrixRow `json:"rows"`
	}

	studentData struct {
		grades     []evaluation.Grade
		attendance []evaluation.Attendance
	}
)

// ClassMatrix fetches every student's grades and attendance concurrently and
// folds them into the bulletin matrix. A failed fetch degrades that student
// to an empty row instead of failing the whole export.
func (a *Assembler) ClassMatrix(ctx context.Context, q MatrixQuery) (Matrix, error) {
	cfg, err := a.src.GetConfig(ctx, q.SchoolID, q.AcademicYear)
	if err != nil {
		if errors.Cause(err) != evaluation.ErrNotFound {
			return Matrix{}, errors.Wrap(err, "fetching evaluation config")
		}
		cfg = evaluation.DefaultConfig(q.SchoolID, q.AcademicYear)
	}

	// index-addressed results keep roster order no matter which fetch
	// finishes first
	data := make([]studentData, len(q.Students))
	var wg sync.WaitGroup
	for i, ms := range q.Students {
		wg.Add(1)
		go func(i int, ms MatrixStudent) {
			defer wg.Done()
			filter := evaluation.QueryFilter{
				EnrollmentID: ms.Enrollment.ID,
				AcademicYear: q.AcademicYear,
				Period:       q.Period,
			}
			grades, err := a.src.QueryGrades(ctx, filter)
			if err != nil {
				a.log.Warn("class matrix: grades fetch failed for ", ms.Enrollment.ID, ": ", err)
				return
			}
			attendance, err := a.src.QueryAttendance(ctx, filter)
			if err != nil {
				a.log.Warn("class matrix: attendance fetch failed for ", ms.Enrollment.ID, ": ", err)
				return
			}
			data[i] = studentData{grades: grades, attendance: attendance}
		}(i, ms)
	}
	wg.Wait()

	m := Matrix{
		ClassName:    q.ClassName,
		AcademicYear: q.AcademicYear,
		Period:       q.Period,
		Subjects:     q.Subjects,
		Rows:         make([]MatrixRow, 0, len(q.Students)),
	}
	for i, ms := range q.Students {
		m.Rows = append(m.Rows, buildRow(ms, data[i], q.Subjects, cfg))
	}
	return m, nil
}

func buildRow(ms MatrixStudent, d studentData, subjects []string, cfg evaluation.Config) MatrixRow {
	row := MatrixRow{
		StudentName: ms.Student.Name,
		Enrollment:  ms.Student.RegistrationNumber,
		Cells:       make(map[string]string, len(subjects)),
		Average:     EmptyCell,
		Attendance:  EmptyCell,
		Status:      StatusFailed,
	}
	if row.Enrollment == "" {
		row.Enrollment = EmptyCell
	}
	for _, s := range subjects {
		row.Cells[s] = EmptyCell
	}

	// last grade wins per subject cell; rows arrive in recording order
	for _, g := range d.grades {
		if !g.Value.Valid {
			continue
		}
		subject := g.SubjectName
		if subject == "" {
			subject = FallbackSubject
		}
		if _, ok := row.Cells[subject]; !ok {
			continue
		}
		row.Cells[subject] = formatGrade(g.Value.Float64)
	}

	if avg, ok := evaluation.SubjectAverage(d.grades); ok {
		row.Average = formatGrade(avg)
		passing := cfg.PassingGrade
		if passing == 0 {
			passing = evaluation.DefaultPassingGrade
		}
		if avg >= passing {
			row.Status = StatusApproved
		}
	}
	if avg, ok := evaluation.AttendanceAverage(d.attendance); ok {
		row.Attendance = fmt.Sprintf("%.1f%%", avg)
	}
	return row
}

func formatGrade(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// CSV renders the matrix as a spreadsheet-friendly export. Every field is
// quoted, even the numeric ones, so locales that treat the decimal point as
// a list separator import it intact.
func (m Matrix) CSV() string {
	var b strings.Builder

	writeCSVRow(&b, []string{fmt.Sprintf("BOLETIM ESCOLAR - TURMA %s", m.ClassName)})
	if m.Period > 0 {
		writeCSVRow(&b, []string{fmt.Sprintf("Período: %dº Bimestre", m.Period)})
	} else {
		writeCSVRow(&b, []string{"Período: Ano Letivo"})
	}
	writeCSVRow(&b, []string{fmt.Sprintf("Ano Letivo: %d", m.AcademicYear)})
	writeCSVRow(&b, nil)

	header := make([]string, 0, len(m.Subjects)+5)
	header = append(header, "Aluno", "Matrícula")
	header = append(header, m.Subjects...)
	header = append(header, "Média Geral", "Frequência", "Status")
	writeCSVRow(&b, header)

	for _, row := range m.Rows {
		fields := make([]string, 0, len(header))
		fields = append(fields, row.StudentName, row.Enrollment)
		for _, s := range m.Subjects {
			fields = append(fields, row.Cells[s])
		}
		fields = append(fields, row.Average, row.Attendance, row.Status)
		writeCSVRow(&b, fields)
	}
	return b.String()
}

// writeCSVRow force-quotes each field; encoding/csv only quotes when it must.
func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
