package evaluation

import (
	"math"
	"testing"
)

func TestAttendancePercent(t *testing.T) {
	tests := []struct {
		name           string
		total, present int
		want           float64
	}{
		{name: "regular", total: 20, present: 18, want: 90},
		{name: "full attendance", total: 40, present: 40, want: 100},
		{name: "zero total", total: 0, present: 0, want: 0},
		{name: "negative total short-circuits", total: -3, present: 2, want: 0},
		{name: "no attendance", total: 10, present: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttendancePercent(tt.total, tt.present)
			if got != tt.want {
				t.Errorf("AttendancePercent(%d, %d) = %v, want %v", tt.total, tt.present, got, tt.want)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("AttendancePercent(%d, %d) produced %v", tt.total, tt.present, got)
			}
		})
	}
}

func TestAdequacy(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{pct: 100, want: AdequacyAdequate},
		{pct: 75, want: AdequacyAdequate},
		{pct: 74.99, want: AdequacyInadequate},
		{pct: 0, want: AdequacyInadequate},
	}
	for _, tt := range tests {
		if got := Adequacy(tt.pct); got != tt.want {
			t.Errorf("Adequacy(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

// Each row contributes equally to the mean no matter its own class count:
// a 2-class period weighs the same as a 40-class period.
func TestAttendanceAverageUnweighted(t *testing.T) {
	rows := []Attendance{
		{TotalClasses: 2, PresentClasses: 1, Percentage: 50},
		{TotalClasses: 40, PresentClasses: 40, Percentage: 100},
	}
	avg, ok := AttendanceAverage(rows)
	if !ok {
		t.Fatal("AttendanceAverage() reported no value")
	}
	if avg != 75 {
		t.Errorf("AttendanceAverage() = %v, want unweighted 75", avg)
	}

	if _, ok := AttendanceAverage(nil); ok {
		t.Error("AttendanceAverage(nil) should report no value")
	}
}
