package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmbastos/escolar/core"
	"github.com/tmbastos/escolar/core/calendar"
)

type calendarApi struct {
	svc      *calendar.Service
	validate *validator.Validate
}

func registerCalendarAPI(g *echo.Group, api calendarApi) {
	cg := g.Group("/calendar")
	cg.GET("/day-info", api.dayInfo)
	cg.GET("/school-days", api.schoolDays)
	cg.PUT("", api.save, adminMiddleware())
}

type (
	dayInfoResponse struct {
		Date string `json:"date"`
		calendar.Info
	}

	schoolDaysResponse struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Count int    `json:"count"`
	}
)

func (api calendarApi) dayInfo(ctx echo.Context) error {
	var req dayInfoRequest
	if err := bindAndValidate(ctx, api.validate, &req); err != nil {
		return err
	}
	day, err := calendar.ParseDayDate(req.Date)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid date, expected YYYY-MM-DD"})
	}

	info, err := api.svc.DayInfo(ctx.Request().Context(), mustUUID(req.SchoolID), req.Year, day.Time())
	if err != nil {
		return errors.Wrap(err, "resolving day info")
	}
	return ctx.JSON(http.StatusOK, dayInfoResponse{Date: day.String(), Info: info})
}

func (api calendarApi) schoolDays(ctx echo.Context) error {
	var req schoolDaysRequest
	if err := bindAndValidate(ctx, api.validate, &req); err != nil {
		return err
	}
	from, err := calendar.ParseDayDate(req.From)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "from", Error: "invalid date, expected YYYY-MM-DD"})
	}
	to, err := calendar.ParseDayDate(req.To)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "to", Error: "invalid date, expected YYYY-MM-DD"})
	}
	if to.Before(from) {
		return core.NewValidationError(nil, core.FieldError{Field: "to", Error: "must not precede from"})
	}

	count, err := api.svc.SchoolDaysCount(ctx.Request().Context(), mustUUID(req.SchoolID), req.Year, from.Time(), to.Time())
	if err != nil {
		return errors.Wrap(err, "counting school days")
	}
	return ctx.JSON(http.StatusOK, schoolDaysResponse{From: from.String(), To: to.String(), Count: count})
}

func (api calendarApi) save(ctx echo.Context) error {
	var cal calendar.Calendar
	if err := ctx.Bind(&cal); err != nil {
		return errors.Wrap(err, "binding to Calendar")
	}
	if cal.SchoolID == uuid.Nil || cal.AcademicYear == 0 {
		return core.NewValidationError(errors.New("school_id and academic_year are required"))
	}

	saved, err := api.svc.Save(ctx.Request().Context(), &cal)
	if err != nil {
		return errors.Wrap(err, "saving calendar")
	}
	return ctx.JSON(http.StatusOK, saved)
}
