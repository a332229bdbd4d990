package calendar

import "time"

// Info describes how a single date classifies against a calendar.
type Info struct {
	IsSchoolDay bool      `json:"is_school_day"`
	Type        EventType `json:"type"`
	Events      []Event   `json:"events"`
	Description string    `json:"description,omitempty"`
}

// IsSchoolDay reports whether classes happen on the given date.
//
// Precedence is load-bearing:
//  1. no calendar: assume class happens
//  2. holidays always win, even over an explicit class-day marker
//  3. recess periods (bounds inclusive)
//  4. an explicit school-day entry of type "class" - this can force a
//     weekend to count as a school day
//  5. weekends
//  6. default: school day
func IsSchoolDay(t time.Time, cal *Calendar) bool {
	if cal == nil {
		return true
	}
	day := NewDayDate(t)

	for _, h := range cal.Holidays {
		if h.Date.Equal(day) {
			return false
		}
	}
	for _, r := range cal.RecessPeriods {
		if r.Contains(day) {
			return false
		}
	}
	for _, sd := range cal.SchoolDays {
		if sd.Date.Equal(day) && sd.Type == TypeClass {
			return true
		}
	}
	if day.IsWeekend() {
		return false
	}
	return true
}

// DayInfo classifies a date and collects every calendar entry matching it.
//
// Classification order: holiday, recess, weekend, explicit event, class.
// Unlike IsSchoolDay, an explicit class-day marker does NOT override the
// weekend check here; the two functions intentionally disagree on a weekend
// marked as a class day. Pending product-owner confirmation, do not unify.
func DayInfo(t time.Time, cal *Calendar) Info {
	if cal == nil {
		return Info{IsSchoolDay: true, Type: TypeClass}
	}
	day := NewDayDate(t)

	events := make([]Event, 0, 2)
	for _, h := range cal.Holidays {
		if h.Date.Equal(day) {
			events = append(events, h)
		}
	}
	for _, e := range cal.Events {
		if e.Date.Equal(day) {
			events = append(events, e)
		}
	}
	for _, sd := range cal.SchoolDays {
		if sd.Date.Equal(day) {
			events = append(events, sd)
		}
	}

	for _, h := range cal.Holidays {
		if h.Date.Equal(day) {
			return Info{Type: TypeHoliday, Events: events, Description: eventLabel(h)}
		}
	}
	for _, r := range cal.RecessPeriods {
		if r.Contains(day) {
			desc := r.Description
			if r.Name != "" {
				desc = r.Name
			}
			return Info{Type: TypeRecess, Events: events, Description: desc}
		}
	}
	if day.IsWeekend() {
		return Info{Type: TypeWeekend, Events: events}
	}
	for _, e := range cal.Events {
		if e.Date.Equal(day) && e.Type == TypeEvent {
			return Info{IsSchoolDay: true, Type: TypeEvent, Events: events, Description: eventLabel(e)}
		}
	}
	return Info{IsSchoolDay: true, Type: TypeClass, Events: events}
}

// SchoolDaysCount counts school days in [start, end] inclusive.
// Without a calendar only Mon-Fri count. The scan is O(days); callers count
// ranges of at most an academic year so memoization is not worth carrying.
func SchoolDaysCount(start, end time.Time, cal *Calendar) int {
	from, to := NewDayDate(start), NewDayDate(end)
	if to.Before(from) {
		return 0
	}

	var count int
	for day := from; !day.After(to); day = day.Next() {
		if cal == nil {
			if !day.IsWeekend() {
				count++
			}
			continue
		}
		if IsSchoolDay(day.Time(), cal) {
			count++
		}
	}
	return count
}

func eventLabel(e Event) string {
	if e.Description != "" {
		return e.Description
	}
	return e.Name
}
