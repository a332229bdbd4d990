package dummydb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tmbastos/escolar/core/calendar"
	"github.com/tmbastos/escolar/core/evaluation"
	"github.com/tmbastos/escolar/core/report"
)

type (
	DB struct {
		calendar   *calendarTable
		config     *configTable
		grade      *gradeTable
		attendance *attendanceTable
		report     *reportTable
		roster     *rosterTable
		subject    *subjectTable
	}

	calendarKey struct {
		schoolID uuid.UUID
		year     int
	}

	calendarTable struct {
		sync.RWMutex
		table map[calendarKey]*calendar.Calendar
	}

	configTable struct {
		sync.RWMutex
		table map[calendarKey]*evaluation.Config
	}

	gradeTable struct {
		sync.RWMutex
		table []evaluation.Grade
	}

	attendanceTable struct {
		sync.RWMutex
		table []evaluation.Attendance
	}

	reportTable struct {
		sync.RWMutex
		table []evaluation.DescriptiveReport
	}

	rosterTable struct {
		sync.RWMutex
		table []report.MatrixStudent
	}

	subjectTable struct {
		sync.RWMutex
		table map[calendarKey][]string
	}
)

func Open() (*DB, error) {
	db := &DB{
		calendar:   &calendarTable{table: make(map[calendarKey]*calendar.Calendar)},
		config:     &configTable{table: make(map[calendarKey]*evaluation.Config)},
		grade:      &gradeTable{},
		attendance: &attendanceTable{},
		report:     &reportTable{},
		roster:     &rosterTable{},
		subject:    &subjectTable{table: make(map[calendarKey][]string)},
	}
	return db, nil
}
