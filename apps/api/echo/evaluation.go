package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmbastos/escolar/core"
	"github.com/tmbastos/escolar/core/evaluation"
)

type evaluationApi struct {
	svc      *evaluation.Service
	validate *validator.Validate
}

func registerEvaluationAPI(g *echo.Group, api evaluationApi) {
	g.POST("/grades", api.submitGrade)
	g.GET("/grades", api.queryGrades)
	g.POST("/attendance", api.recordAttendance)
	g.GET("/attendance", api.queryAttendance)

	eg := g.Group("/evaluation")
	eg.GET("/config", api.getConfig)
	eg.POST("/config", api.createConfig, adminMiddleware())
}

func (api evaluationApi) submitGrade(ctx echo.Context) error {
	var data evaluation.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.SubmitGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting grade")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api evaluationApi) queryGrades(ctx echo.Context) error {
	var req filterRequest
	if err := bindAndValidate(ctx, api.validate, &req); err != nil {
		return err
	}
	filter := req.filter()
	if filter.IsEmpty() {
		return core.NewValidationError(errors.New("at least one filter is required"))
	}

	grades, err := api.svc.Grades(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api evaluationApi) recordAttendance(ctx echo.Context) error {
	var data evaluation.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.RecordAttendance(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api evaluationApi) queryAttendance(ctx echo.Context) error {
	var req filterRequest
	if err := bindAndValidate(ctx, api.validate, &req); err != nil {
		return err
	}
	filter := req.filter()
	if filter.IsEmpty() {
		return core.NewValidationError(errors.New("at least one filter is required"))
	}

	records, err := api.svc.Attendance(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api evaluationApi) getConfig(ctx echo.Context) error {
	var req configRequest
	if err := bindAndValidate(ctx, api.validate, &req); err != nil {
		return err
	}

	cfg, err := api.svc.Config(ctx.Request().Context(), mustUUID(req.SchoolID), req.Year)
	if err != nil {
		return errors.Wrap(err, "getting evaluation config")
	}
	return ctx.JSON(http.StatusOK, cfg)
}

func (api evaluationApi) createConfig(ctx echo.Context) error {
	var cfg evaluation.Config
	if err := ctx.Bind(&cfg); err != nil {
		return errors.Wrap(err, "binding to Config")
	}

	created, err := api.svc.CreateConfig(ctx.Request().Context(), cfg)
	if err != nil {
		if errors.Cause(err) == evaluation.ErrConfigExists {
			return errHttpConflict
		}
		return errors.Wrap(err, "creating evaluation config")
	}
	return ctx.JSON(http.StatusCreated, created)
}
