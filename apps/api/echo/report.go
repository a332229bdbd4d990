package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmbastos/escolar/core"
	"github.com/tmbastos/escolar/core/evaluation"
	"github.com/tmbastos/escolar/core/report"
)

type reportApi struct {
	assembler *report.Assembler
	directory report.Directory
	svc       *evaluation.Service
	validate  *validator.Validate
}

func registerReportAPI(g *echo.Group, api reportApi) {
	rg := g.Group("/reports")
	rg.POST("/descriptive", api.addDescriptive)
	rg.GET("/student/:enrollment", api.studentRecord)
	rg.GET("/class/:class/bulletin.csv", api.classBulletinCSV)
}

func (api reportApi) addDescriptive(ctx echo.Context) error {
	var data evaluation.NewDescriptiveReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDescriptiveReport")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.AddDescriptiveReport(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding descriptive report")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api reportApi) studentRecord(ctx echo.Context) error {
	var req studentReportRequest
	if err := bindAndValidate(ctx, api.validate, &req); err != nil {
		return err
	}
	enrollmentID := mustUUID(ctx.Param("enrollment"))

	q := report.RecordQuery{
		Student: report.Student{
			ID:                 mustUUID(req.StudentID),
			Name:               core.CleanString(req.StudentName),
			RegistrationNumber: core.CleanString(req.Registration),
		},
		Enrollment: report.Enrollment{
			ID:           enrollmentID,
			SchoolID:     mustUUID(req.SchoolID),
			AcademicYear: req.AcademicYear,
			ClassName:    core.CleanString(req.ClassName),
		},
		Period: req.Period,
	}

	rec, err := api.assembler.StudentRecord(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "assembling student record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api reportApi) classBulletinCSV(ctx echo.Context) error {
	var req classBulletinRequest
	if err := bindAndValidate(ctx, api.validate, &req); err != nil {
		return err
	}
	className := core.CleanString(ctx.Param("class"))
	schoolID := mustUUID(req.SchoolID)

	students, err := api.directory.Roster(ctx.Request().Context(), schoolID, className, req.AcademicYear)
	if err != nil {
		return errors.Wrap(err, "fetching class roster")
	}
	if len(students) == 0 {
		return errHttpNotFound
	}
	subjects, err := api.directory.Subjects(ctx.Request().Context(), schoolID, req.AcademicYear)
	if err != nil {
		return errors.Wrap(err, "fetching subjects")
	}

	m, err := api.assembler.ClassMatrix(ctx.Request().Context(), report.MatrixQuery{
		SchoolID:     schoolID,
		ClassName:    className,
		AcademicYear: req.AcademicYear,
		Period:       req.Period,
		Students:     students,
		Subjects:     subjects,
	})
	if err != nil {
		return errors.Wrap(err, "assembling class matrix")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="boletim-%s-%d.csv"`, className, req.AcademicYear))
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(m.CSV()))
}
