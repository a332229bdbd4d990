package evaluation

// Attendance adequacy classification.
const (
	AdequacyThreshold = 75.0

	AdequacyAdequate   = "ADEQUADA"
	AdequacyInadequate = "INADEQUADA"
)

// AttendancePercent derives the attendance percentage from class counts.
// A non-positive total short-circuits to 0; the present <= total invariant
// is the caller's to uphold and is not enforced here.
func AttendancePercent(totalClasses, presentClasses int) float64 {
	if totalClasses <= 0 {
		return 0
	}
	return float64(presentClasses) / float64(totalClasses) * 100
}

// Adequacy classifies an attendance percentage against the legal 75% floor.
func Adequacy(percentage float64) string {
	if percentage >= AdequacyThreshold {
		return AdequacyAdequate
	}
	return AdequacyInadequate
}

// AttendanceAverage is the unweighted mean of row percentages: each row
// counts equally no matter how many classes it covers. The second return is
// false when there are no rows.
func AttendanceAverage(rows []Attendance) (float64, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	var sum float64
	for _, att := range rows {
		sum += att.Percentage
	}
	return sum / float64(len(rows)), true
}
