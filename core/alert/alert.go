package alert

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tmbastos/escolar/core"
	"github.com/tmbastos/escolar/core/evaluation"
)

// Severity bands for low-attendance flags.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"

	// CriticalThreshold separates warnings from critical flags. The upper
	// bound comes from the configured adequacy threshold.
	CriticalThreshold = 60.0
)

type (
	// AttendanceSource yields the rows to scan. evaluation.Repository
	// satisfies it.
	AttendanceSource interface {
		QueryAttendance(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Attendance, error)
	}

	// Flag is one student whose attendance average fell under the threshold.
	Flag struct {
		StudentID   uuid.UUID `json:"student_id"`
		StudentName string    `json:"student_name,omitempty"`
		Average     float64   `json:"average"`
		Severity    Severity  `json:"severity"`
	}

	Scanner struct {
		src       AttendanceSource
		svc       core.EmailService
		log       core.Logger
		threshold float64
		staff     []mail.Address
	}
)

func NewScanner(src AttendanceSource, svc core.EmailService, log core.Logger, cfg *core.Config) *Scanner {
	threshold := cfg.AttendanceAlertThreshold
	if threshold <= 0 {
		threshold = evaluation.AdequacyThreshold
	}
	return &Scanner{
		src:       src,
		svc:       svc,
		log:       log,
		threshold: threshold,
		staff:     cfg.StaffEmails,
	}
}

// Scan averages each student's attendance for the year/period and flags the
// ones under the threshold, worst first.
func (s *Scanner) Scan(ctx context.Context, academicYear, period int) ([]Flag, error) {
	rows, err := s.src.QueryAttendance(ctx, evaluation.QueryFilter{
		AcademicYear: academicYear,
		Period:       period,
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetching attendance rows")
	}
	return s.flag(rows), nil
}

// flag is the pure banding step.
func (s *Scanner) flag(rows []evaluation.Attendance) []Flag {
	byStudent := make(map[uuid.UUID][]evaluation.Attendance, 16)
	names := make(map[uuid.UUID]string, 16)
	order := make([]uuid.UUID, 0, 16)
	for _, row := range rows {
		if _, ok := byStudent[row.StudentID]; !ok {
			order = append(order, row.StudentID)
		}
		byStudent[row.StudentID] = append(byStudent[row.StudentID], row)
		if row.StudentName != "" {
			names[row.StudentID] = row.StudentName
		}
	}

	flags := make([]Flag, 0, len(order))
	for _, id := range order {
		avg, ok := evaluation.AttendanceAverage(byStudent[id])
		if !ok || avg >= s.threshold {
			continue
		}
		severity := SeverityWarning
		if avg < CriticalThreshold {
			severity = SeverityCritical
		}
		flags = append(flags, Flag{
			StudentID:   id,
			StudentName: names[id],
			Average:     avg,
			Severity:    severity,
		})
	}
	sort.SliceStable(flags, func(i, j int) bool { return flags[i].Average < flags[j].Average })
	return flags
}

// Notify emails the staff list with the flagged students. A run with no
// flags sends nothing.
func (s *Scanner) Notify(academicYear, period int, flags []Flag) {
	if len(flags) == 0 || len(s.staff) == 0 {
		return
	}
	s.log.Info("attendance alerts: notifying staff", len(flags))
	s.svc.SendMessages(&core.EmailMessage{
		To:      s.staff,
		Subject: fmt.Sprintf("Alerta de frequência - %s", periodLabel(academicYear, period)),
		BodyStr: composeBody(academicYear, period, flags),
	})
}

func composeBody(academicYear, period int, flags []Flag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alunos com frequência abaixo do mínimo (%s):\n\n", periodLabel(academicYear, period))
	for _, f := range flags {
		name := f.StudentName
		if name == "" {
			name = f.StudentID.String()
		}
		label := "atenção"
		if f.Severity == SeverityCritical {
			label = "crítico"
		}
		fmt.Fprintf(&b, "- %s: %.1f%% (%s)\n", name, f.Average, label)
	}
	return b.String()
}

func periodLabel(academicYear, period int) string {
	if period > 0 {
		return fmt.Sprintf("%dº Bimestre %d", period, academicYear)
	}
	return fmt.Sprintf("Ano Letivo %d", academicYear)
}
