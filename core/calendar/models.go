package calendar

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

type EventType string

const (
	TypeClass   EventType = "class"
	TypeHoliday EventType = "holiday"
	TypeRecess  EventType = "recess"
	TypeEvent   EventType = "event"

	// TypeWeekend is only ever produced by DayInfo; calendars never store it.
	TypeWeekend EventType = "weekend"
)

const dayLayout = "2006-01-02"

// DayDate is a civil date normalized to midnight UTC.
// Calendar data arrives either as a plain "YYYY-MM-DD" or as a full ISO
// timestamp; both forms normalize to the same DayDate so that date equality
// is checked once, in one place.
type DayDate struct {
	t time.Time
}

func NewDayDate(t time.Time) DayDate {
	return DayDate{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func ParseDayDate(s string) (DayDate, error) {
	s = strings.TrimSpace(s)
	// ISO timestamps keep only their date head
	if len(s) > len(dayLayout) && (s[len(dayLayout)] == 'T' || s[len(dayLayout)] == ' ') {
		s = s[:len(dayLayout)]
	}
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return DayDate{}, errors.Wrapf(err, "parsing day date %q", s)
	}
	return DayDate{t}, nil
}

func (d DayDate) IsZero() bool          { return d.t.IsZero() }
func (d DayDate) Equal(o DayDate) bool  { return d.t.Equal(o.t) }
func (d DayDate) Before(o DayDate) bool { return d.t.Before(o.t) }
func (d DayDate) After(o DayDate) bool  { return d.t.After(o.t) }
func (d DayDate) Weekday() time.Weekday { return d.t.Weekday() }
func (d DayDate) Time() time.Time       { return d.t }
func (d DayDate) Next() DayDate         { return DayDate{d.t.AddDate(0, 0, 1)} }
func (d DayDate) String() string        { return d.t.Format(dayLayout) }
func (d DayDate) IsWeekend() bool {
	wd := d.t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d DayDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DayDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dd, err := ParseDayDate(s)
	if err != nil {
		return err
	}
	*d = dd
	return nil
}

type (
	// Event is a dated entry on the academic calendar.
	Event struct {
		Date        DayDate   `json:"date"`
		Type        EventType `json:"type"`
		Description string    `json:"description"`
		Name        string    `json:"name,omitempty"`
	}

	// Recess is an inclusive date range with no classes (e.g. july recess).
	Recess struct {
		StartDate   DayDate `json:"start_date"`
		EndDate     DayDate `json:"end_date"`
		Name        string  `json:"name,omitempty"`
		Description string  `json:"description,omitempty"`
	}

	// Calendar is a school's immutable calendar snapshot for one academic
	// year. Resolver functions only ever read it.
	Calendar struct {
		ID              uuid.UUID `json:"id"`
		SchoolID        uuid.UUID `json:"school_id"`
		AcademicYear    int       `json:"academic_year"`
		SchoolDays      []Event   `json:"school_days"`
		Holidays        []Event   `json:"holidays"`
		RecessPeriods   []Recess  `json:"recess_periods"`
		Events          []Event   `json:"events"`
		TotalSchoolDays null.Int  `json:"total_school_days"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
	}
)

// Contains reports whether day falls within the recess, bounds included.
func (r Recess) Contains(day DayDate) bool {
	return !day.Before(r.StartDate) && !day.After(r.EndDate)
}
