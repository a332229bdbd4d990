package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("calendar not found")

type (
	Repository interface {
		GetCalendar(ctx context.Context, schoolID uuid.UUID, academicYear int) (*Calendar, error)
		SaveCalendar(ctx context.Context, cal *Calendar) (*Calendar, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// load returns the school's calendar, or nil when none exists.
// A missing calendar is not an error: resolution falls back to the
// permissive default.
func (svc *Service) load(ctx context.Context, schoolID uuid.UUID, year int) (*Calendar, error) {
	cal, err := svc.repo.GetCalendar(ctx, schoolID, year)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cal, nil
}

func (svc *Service) IsSchoolDay(ctx context.Context, schoolID uuid.UUID, year int, t time.Time) (bool, error) {
	cal, err := svc.load(ctx, schoolID, year)
	if err != nil {
		return false, err
	}
	return IsSchoolDay(t, cal), nil
}

func (svc *Service) DayInfo(ctx context.Context, schoolID uuid.UUID, year int, t time.Time) (Info, error) {
	cal, err := svc.load(ctx, schoolID, year)
	if err != nil {
		return Info{}, err
	}
	return DayInfo(t, cal), nil
}

func (svc *Service) SchoolDaysCount(ctx context.Context, schoolID uuid.UUID, year int, start, end time.Time) (int, error) {
	cal, err := svc.load(ctx, schoolID, year)
	if err != nil {
		return 0, err
	}
	return SchoolDaysCount(start, end, cal), nil
}

func (svc *Service) Save(ctx context.Context, cal *Calendar) (*Calendar, error) {
	return svc.repo.SaveCalendar(ctx, cal)
}
