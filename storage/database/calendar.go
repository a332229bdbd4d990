package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tmbastos/escolar/core/calendar"
)

type calendarRepository struct {
	db *sqlx.DB
}

var _ calendar.Repository = (*calendarRepository)(nil) // interface compliance check

func NewCalendarRepository(db *sqlx.DB) *calendarRepository {
	return &calendarRepository{db: db}
}

// calendarRow mirrors the academic_calendars table; the event collections
// live in JSONB columns.
type calendarRow struct {
	ID              uuid.UUID      `db:"id"`
	SchoolID        uuid.UUID      `db:"school_id"`
	AcademicYear    int            `db:"academic_year"`
	SchoolDays      types.JSONText `db:"school_days"`
	Holidays        types.JSONText `db:"holidays"`
	RecessPeriods   types.JSONText `db:"recess_periods"`
	Events          types.JSONText `db:"events"`
	TotalSchoolDays null.Int       `db:"total_school_days"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (repo calendarRepository) toRow(cal *calendar.Calendar) (calendarRow, error) {
	row := calendarRow{
		ID:              cal.ID,
		SchoolID:        cal.SchoolID,
		AcademicYear:    cal.AcademicYear,
		TotalSchoolDays: cal.TotalSchoolDays,
		CreatedAt:       cal.CreatedAt.UTC(),
		UpdatedAt:       cal.UpdatedAt.UTC(),
	}
	var err error
	if row.SchoolDays, err = json.Marshal(cal.SchoolDays); err != nil {
		return calendarRow{}, errors.Wrap(err, "encoding school days")
	}
	if row.Holidays, err = json.Marshal(cal.Holidays); err != nil {
		return calendarRow{}, errors.Wrap(err, "encoding holidays")
	}
	if row.RecessPeriods, err = json.Marshal(cal.RecessPeriods); err != nil {
		return calendarRow{}, errors.Wrap(err, "encoding recess periods")
	}
	if row.Events, err = json.Marshal(cal.Events); err != nil {
		return calendarRow{}, errors.Wrap(err, "encoding events")
	}
	return row, nil
}

func (repo calendarRepository) fromRow(row calendarRow) (*calendar.Calendar, error) {
	cal := &calendar.Calendar{
		ID:              row.ID,
		SchoolID:        row.SchoolID,
		AcademicYear:    row.AcademicYear,
		TotalSchoolDays: row.TotalSchoolDays,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if err := json.Unmarshal(row.SchoolDays, &cal.SchoolDays); err != nil {
		return nil, errors.Wrap(err, "decoding school days")
	}
	if err := json.Unmarshal(row.Holidays, &cal.Holidays); err != nil {
		return nil, errors.Wrap(err, "decoding holidays")
	}
	if err := json.Unmarshal(row.RecessPeriods, &cal.RecessPeriods); err != nil {
		return nil, errors.Wrap(err, "decoding recess periods")
	}
	if err := json.Unmarshal(row.Events, &cal.Events); err != nil {
		return nil, errors.Wrap(err, "decoding events")
	}
	return cal, nil
}

func (repo calendarRepository) GetCalendar(ctx context.Context, schoolID uuid.UUID, academicYear int) (*calendar.Calendar, error) {
	q := `
	SELECT id, school_id, academic_year, school_days, holidays, recess_periods, events,
	       total_school_days, created_at, updated_at
	FROM academic_calendars
	WHERE school_id = $1 AND academic_year = $2`

	var row calendarRow
	if err := repo.db.GetContext(ctx, &row, q, schoolID, academicYear); err != nil {
		if err == sql.ErrNoRows {
			return nil, calendar.ErrNotFound
		}
		return nil, errors.Wrap(err, "getting calendar")
	}
	return repo.fromRow(row)
}

func (repo calendarRepository) SaveCalendar(ctx context.Context, cal *calendar.Calendar) (*calendar.Calendar, error) {
	if cal.ID == uuid.Nil {
		cal.ID = uuid.New()
		cal.CreatedAt = time.Now().UTC()
	}
	cal.UpdatedAt = time.Now().UTC()

	row, err := repo.toRow(cal)
	if err != nil {
		return nil, err
	}

	q := `
	INSERT INTO academic_calendars
		(id, school_id, academic_year, school_days, holidays, recess_periods, events,
		 total_school_days, created_at, updated_at)
	VALUES (:id, :school_id, :academic_year, :school_days, :holidays, :recess_periods, :events,
		:total_school_days, :created_at, :updated_at)
	ON CONFLICT (school_id, academic_year) DO UPDATE SET
		school_days = EXCLUDED.school_days,
		holidays = EXCLUDED.holidays,
		recess_periods = EXCLUDED.recess_periods,
		events = EXCLUDED.events,
		total_school_days = EXCLUDED.total_school_days,
		updated_at = EXCLUDED.updated_at`

	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return nil, errors.Wrap(err, "saving calendar")
	}
	return cal, nil
}
