package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmbastos/escolar/core/alert"
)

type alertApi struct {
	scanner  *alert.Scanner
	validate *validator.Validate
}

func registerAlertAPI(g *echo.Group, api alertApi) {
	ag := g.Group("/alerts", adminMiddleware())
	ag.POST("/attendance", api.scanAttendance)
}

type scanRequest struct {
	AcademicYear int  `query:"year" validate:"required"`
	Period       int  `query:"period" validate:"omitempty,bimester"`
	Notify       bool `query:"notify"`
}

// scanAttendance flags students under the attendance threshold and, when
// asked, emails the staff list.
func (api alertApi) scanAttendance(ctx echo.Context) error {
	var req scanRequest
	if err := bindAndValidate(ctx, api.validate, &req); err != nil {
		return err
	}

	flags, err := api.scanner.Scan(ctx.Request().Context(), req.AcademicYear, req.Period)
	if err != nil {
		return errors.Wrap(err, "scanning attendance")
	}
	if req.Notify {
		api.scanner.Notify(req.AcademicYear, req.Period, flags)
	}
	return ctx.JSON(http.StatusOK, flags)
}
