package calendar

import (
	"testing"
	"time"
)

func mustDay(t *testing.T, s string) DayDate {
	t.Helper()
	d, err := ParseDayDate(s)
	if err != nil {
		t.Fatalf("ParseDayDate(%q) failed: %v", s, err)
	}
	return d
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	return mustDay(t, s).Time()
}

func testCalendar(t *testing.T) *Calendar {
	return &Calendar{
		AcademicYear: 2025,
		SchoolDays: []Event{
			{Date: mustDay(t, "2025-05-01"), Type: TypeClass, Description: "Reposição de aula"}, // also a holiday
			{Date: mustDay(t, "2025-03-08"), Type: TypeClass, Description: "Sábado letivo"},     // a Saturday
		},
		Holidays: []Event{
			{Date: mustDay(t, "2025-05-01"), Type: TypeHoliday, Name: "Dia do Trabalho"},
			{Date: mustDay(t, "2025-04-21"), Type: TypeHoliday, Name: "Tiradentes"},
		},
		RecessPeriods: []Recess{
			{StartDate: mustDay(t, "2025-07-01"), EndDate: mustDay(t, "2025-07-20"), Name: "Recesso de julho"},
		},
		Events: []Event{
			{Date: mustDay(t, "2025-06-12"), Type: TypeEvent, Description: "Festa Junina"},
		},
	}
}

func TestIsSchoolDay(t *testing.T) {
	cal := testCalendar(t)

	tests := []struct {
		name string
		date string
		cal  *Calendar
		want bool
	}{
		{name: "nil calendar is permissive", date: "2025-05-01", cal: nil, want: true},
		{name: "nil calendar permissive even on weekend", date: "2025-03-09", cal: nil, want: true},
		{name: "holiday wins over explicit class marker", date: "2025-05-01", cal: cal, want: false},
		{name: "plain holiday", date: "2025-04-21", cal: cal, want: false},
		{name: "recess start", date: "2025-07-01", cal: cal, want: false},
		{name: "recess middle", date: "2025-07-10", cal: cal, want: false},
		{name: "recess end inclusive", date: "2025-07-20", cal: cal, want: false},
		{name: "day after recess", date: "2025-07-21", cal: cal, want: true},
		{name: "class marker forces saturday", date: "2025-03-08", cal: cal, want: true},
		{name: "unmarked saturday", date: "2025-03-15", cal: cal, want: false},
		{name: "unmarked sunday", date: "2025-03-16", cal: cal, want: false},
		{name: "regular weekday", date: "2025-03-12", cal: cal, want: true},
		{name: "event day still counts", date: "2025-06-12", cal: cal, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSchoolDay(date(t, tt.date), tt.cal); got != tt.want {
				t.Errorf("IsSchoolDay(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestDayInfo(t *testing.T) {
	cal := testCalendar(t)

	tests := []struct {
		name          string
		date          string
		cal           *Calendar
		wantSchoolDay bool
		wantType      EventType
		wantEvents    int
		wantDesc      string
	}{
		{name: "nil calendar", date: "2025-03-12", cal: nil, wantSchoolDay: true, wantType: TypeClass},
		{name: "holiday", date: "2025-04-21", cal: cal, wantType: TypeHoliday, wantEvents: 1, wantDesc: "Tiradentes"},
		{name: "holiday beats class marker", date: "2025-05-01", cal: cal, wantType: TypeHoliday, wantEvents: 2, wantDesc: "Dia do Trabalho"},
		{name: "recess", date: "2025-07-10", cal: cal, wantType: TypeRecess, wantDesc: "Recesso de julho"},
		{name: "event", date: "2025-06-12", cal: cal, wantSchoolDay: true, wantType: TypeEvent, wantEvents: 1, wantDesc: "Festa Junina"},
		{name: "default class", date: "2025-03-12", cal: cal, wantSchoolDay: true, wantType: TypeClass},
		{name: "plain weekend", date: "2025-03-15", cal: cal, wantType: TypeWeekend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := DayInfo(date(t, tt.date), tt.cal)
			if info.IsSchoolDay != tt.wantSchoolDay {
				t.Errorf("DayInfo(%s).IsSchoolDay = %v, want %v", tt.date, info.IsSchoolDay, tt.wantSchoolDay)
			}
			if info.Type != tt.wantType {
				t.Errorf("DayInfo(%s).Type = %q, want %q", tt.date, info.Type, tt.wantType)
			}
			if len(info.Events) != tt.wantEvents {
				t.Errorf("DayInfo(%s) returned %d events, want %d", tt.date, len(info.Events), tt.wantEvents)
			}
			if info.Description != tt.wantDesc {
				t.Errorf("DayInfo(%s).Description = %q, want %q", tt.date, info.Description, tt.wantDesc)
			}
		})
	}
}

// A weekend explicitly marked as a class day: IsSchoolDay honors the marker,
// DayInfo classifies it as a weekend. Both behaviors are pinned until the
// product owner rules on which one is right.
func TestWeekendClassMarkerDisagreement(t *testing.T) {
	cal := testCalendar(t)
	saturday := date(t, "2025-03-08")

	if !IsSchoolDay(saturday, cal) {
		t.Error("IsSchoolDay should honor an explicit class marker on a weekend")
	}
	info := DayInfo(saturday, cal)
	if info.Type != TypeWeekend {
		t.Errorf("DayInfo.Type = %q, want %q (marker is not consulted here)", info.Type, TypeWeekend)
	}
	if info.IsSchoolDay {
		t.Error("DayInfo.IsSchoolDay should be false for the same weekend")
	}
	if len(info.Events) != 1 {
		t.Errorf("DayInfo should still surface the class marker event, got %d events", len(info.Events))
	}
}

func TestSchoolDaysCount(t *testing.T) {
	cal := testCalendar(t)

	tests := []struct {
		name       string
		start, end string
		cal        *Calendar
		want       int
	}{
		{name: "one week no calendar counts weekdays", start: "2025-01-06", end: "2025-01-12", cal: nil, want: 5},
		{name: "single weekday no calendar", start: "2025-01-08", end: "2025-01-08", cal: nil, want: 1},
		{name: "single saturday no calendar", start: "2025-01-11", end: "2025-01-11", cal: nil, want: 0},
		{name: "inverted range", start: "2025-01-12", end: "2025-01-06", cal: nil, want: 0},
		// 2025-04-21 (Mon) is a holiday: Tue-Fri remain
		{name: "holiday week", start: "2025-04-21", end: "2025-04-27", cal: cal, want: 4},
		// whole july recess: 01-20 blocked, 21-31 leaves 9 weekdays
		{name: "recess month", start: "2025-07-01", end: "2025-07-31", cal: cal, want: 9},
		// forced saturday adds a 6th day to its week
		{name: "week with forced saturday", start: "2025-03-03", end: "2025-03-09", cal: cal, want: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SchoolDaysCount(date(t, tt.start), date(t, tt.end), tt.cal); got != tt.want {
				t.Errorf("SchoolDaysCount(%s, %s) = %d, want %d", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestParseDayDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain date", in: "2025-07-10", want: "2025-07-10"},
		{name: "iso timestamp head", in: "2025-07-10T00:00:00.000Z", want: "2025-07-10"},
		{name: "sql timestamp head", in: "2025-07-10 15:04:05", want: "2025-07-10"},
		{name: "padded", in: "  2025-07-10 ", want: "2025-07-10"},
		{name: "garbage", in: "10/07/2025", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDayDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDayDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && d.String() != tt.want {
				t.Errorf("ParseDayDate(%q) = %s, want %s", tt.in, d, tt.want)
			}
		})
	}
}

// The two accepted wire forms of one calendar date must resolve identically.
func TestDayDateNormalization(t *testing.T) {
	plain := mustDay(t, "2025-05-01")
	iso := mustDay(t, "2025-05-01T12:30:00.000Z")
	if !plain.Equal(iso) {
		t.Errorf("normalized dates differ: %s vs %s", plain, iso)
	}
}
