package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmbastos/escolar/core/evaluation"
)

// Query-string bindings. UUIDs travel as strings and are parsed after
// validation; echo's binder does not unmarshal uuid.UUID from params.
type (
	dayInfoRequest struct {
		SchoolID string `query:"school_id" validate:"required,uuid"`
		Year     int    `query:"year" validate:"required"`
		Date     string `query:"date" validate:"required"`
	}

	schoolDaysRequest struct {
		SchoolID string `query:"school_id" validate:"required,uuid"`
		Year     int    `query:"year" validate:"required"`
		From     string `query:"from" validate:"required"`
		To       string `query:"to" validate:"required"`
	}

	configRequest struct {
		SchoolID string `query:"school_id" validate:"required,uuid"`
		Year     int    `query:"year" validate:"required"`
	}

	filterRequest struct {
		StudentID    string `query:"student_id" validate:"omitempty,uuid"`
		EnrollmentID string `query:"enrollment_id" validate:"omitempty,uuid"`
		SubjectID    string `query:"subject_id" validate:"omitempty,uuid"`
		AcademicYear int    `query:"academic_year"`
		Period       int    `query:"period" validate:"omitempty,bimester"`
	}

	studentReportRequest struct {
		SchoolID     string `query:"school_id" validate:"required,uuid"`
		StudentID    string `query:"student_id" validate:"omitempty,uuid"`
		AcademicYear int    `query:"year" validate:"required"`
		Period       int    `query:"period" validate:"omitempty,bimester"`
		StudentName  string `query:"student_name"`
		Registration string `query:"registration"`
		ClassName    string `query:"class"`
	}

	classBulletinRequest struct {
		SchoolID     string `query:"school_id" validate:"required,uuid"`
		AcademicYear int    `query:"year" validate:"required"`
		Period       int    `query:"period" validate:"omitempty,bimester"`
	}
)

func bindAndValidate(ctx echo.Context, validate *validator.Validate, req interface{}) error {
	if err := ctx.Bind(req); err != nil {
		return errors.Wrap(err, "binding request")
	}
	return validate.Struct(req)
}

// mustUUID parses an already-validated uuid string.
func mustUUID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, _ := uuid.Parse(s)
	return id
}

func (r filterRequest) filter() evaluation.QueryFilter {
	return evaluation.QueryFilter{
		StudentID:    mustUUID(r.StudentID),
		EnrollmentID: mustUUID(r.EnrollmentID),
		SubjectID:    mustUUID(r.SubjectID),
		AcademicYear: r.AcademicYear,
		Period:       r.Period,
	}
}
