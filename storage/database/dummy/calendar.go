package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tmbastos/escolar/core/calendar"
)

type calendarRepository struct {
	db *calendarTable
}

var _ calendar.Repository = (*calendarRepository)(nil) // interface compliance check

func NewCalendarRepository(db *DB) *calendarRepository {
	return &calendarRepository{db: db.calendar}
}

func (repo *calendarRepository) GetCalendar(ctx context.Context, schoolID uuid.UUID, academicYear int) (*calendar.Calendar, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cal, ok := repo.db.table[calendarKey{schoolID, academicYear}]; ok {
		cpy := *cal
		return &cpy, nil
	}
	return nil, calendar.ErrNotFound
}

func (repo *calendarRepository) SaveCalendar(ctx context.Context, cal *calendar.Calendar) (*calendar.Calendar, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	if cal.ID == uuid.Nil {
		cal.ID = uuid.New()
		cal.CreatedAt = now
	}
	cal.UpdatedAt = now

	cpy := *cal
	repo.db.table[calendarKey{cal.SchoolID, cal.AcademicYear}] = &cpy
	return cal, nil
}
