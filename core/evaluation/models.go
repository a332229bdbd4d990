package evaluation

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/tmbastos/escolar/core"
)

type Type string

const (
	TypeNumeric     Type = "numeric"
	TypeConceptual  Type = "conceptual"
	TypeDescriptive Type = "descriptive"
)

type CalculationMethod string

const (
	MethodArithmetic CalculationMethod = "arithmetic"
	MethodWeighted   CalculationMethod = "weighted"
	// MethodBimesterAverage computes the same mean as MethodArithmetic.
	// Stored configs reference it by name; it stays a distinct method.
	MethodBimesterAverage CalculationMethod = "bimester_average"
)

const (
	DefaultPassingGrade = 6.0
	DefaultMaxGrade     = 10.0
)

type (
	// Config is a school's grading policy for one academic year.
	Config struct {
		ID                uuid.UUID          `json:"id"`
		SchoolID          uuid.UUID          `json:"school_id"`
		AcademicYear      int                `json:"academic_year"`
		EvaluationType    Type               `json:"evaluation_type"`
		CalculationMethod CalculationMethod  `json:"calculation_method"`
		PassingGrade      float64            `json:"passing_grade"`
		MaxGrade          float64            `json:"max_grade"`
		Weights           map[string]float64 `json:"weights,omitempty"` // period -> weight, for MethodWeighted
		CreatedAt         time.Time          `json:"created_at"`
		UpdatedAt         time.Time          `json:"updated_at"`
	}

	// Grade is one per-period evaluation record. Exactly one of Value,
	// Conceptual or Descriptive is populated, matching EvaluationType;
	// the constructors below are the only sanctioned way to build one.
	Grade struct {
		ID             uuid.UUID    `json:"id"`
		StudentID      uuid.UUID    `json:"student_id"`
		EnrollmentID   uuid.UUID    `json:"enrollment_id"`
		SubjectID      uuid.UUID    `json:"subject_id"`
		AcademicYear   int          `json:"academic_year"`
		Period         int          `json:"period"` // bimester, 1..4
		Value          null.Float64 `json:"grade_value"`
		Conceptual     string       `json:"conceptual_grade,omitempty"`
		Descriptive    string       `json:"descriptive_grade,omitempty"`
		EvaluationType Type         `json:"evaluation_type"`
		CreatedAt      time.Time    `json:"created_at"`
		UpdatedAt      time.Time    `json:"updated_at"`

		// resolved externally by the data source; empty when unresolved
		StudentName string `json:"student_name,omitempty"`
		SubjectName string `json:"subject_name,omitempty"`
	}

	// Attendance is a per-period class-count tuple. A null SubjectID means
	// general (non subject-specific) attendance.
	Attendance struct {
		ID                uuid.UUID     `json:"id"`
		StudentID         uuid.UUID     `json:"student_id"`
		EnrollmentID      uuid.UUID     `json:"enrollment_id"`
		SubjectID         uuid.NullUUID `json:"subject_id"`
		AcademicYear      int           `json:"academic_year"`
		Period            int           `json:"period"`
		TotalClasses      int           `json:"total_classes"`
		PresentClasses    int           `json:"present_classes"`
		AbsentClasses     int           `json:"absent_classes"`
		JustifiedAbsences int           `json:"justified_absences"`
		Percentage        float64       `json:"attendance_percentage"`
		CreatedAt         time.Time     `json:"created_at"`
		UpdatedAt         time.Time     `json:"updated_at"`

		StudentName string `json:"student_name,omitempty"`
		SubjectName string `json:"subject_name,omitempty"`
	}

	// DescriptiveReport (parecer) is a free-text narrative evaluation for
	// one period.
	DescriptiveReport struct {
		ID           uuid.UUID `json:"id"`
		StudentID    uuid.UUID `json:"student_id"`
		EnrollmentID uuid.UUID `json:"enrollment_id"`
		AcademicYear int       `json:"academic_year"`
		Period       int       `json:"period"`
		ReportText   string    `json:"report_text"`
		CreatedBy    uuid.UUID `json:"created_by"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`

		StudentName   string `json:"student_name,omitempty"`
		CreatedByName string `json:"created_by_name,omitempty"`
	}
)

// Mark returns the populated variant of the grade as selected by its
// evaluation type.
func (g Grade) Mark() Mark {
	switch g.EvaluationType {
	case TypeConceptual:
		return ConceptualMark(g.Conceptual)
	case TypeDescriptive:
		return DescriptiveMark(g.Descriptive)
	default:
		return NumericMark(g.Value)
	}
}

type (
	// Mark is the tagged variant behind a Grade: numeric, conceptual or
	// descriptive.
	Mark interface {
		isMark()
	}

	NumericMark     null.Float64
	ConceptualMark  string
	DescriptiveMark string
)

func (NumericMark) isMark()     {}
func (ConceptualMark) isMark()  {}
func (DescriptiveMark) isMark() {}

// NewGrade contains information needed to record a new Grade.
type NewGrade struct {
	StudentID      uuid.UUID `json:"student_id" validate:"required"`
	EnrollmentID   uuid.UUID `json:"enrollment_id" validate:"required"`
	SubjectID      uuid.UUID `json:"subject_id" validate:"required"`
	AcademicYear   int       `json:"academic_year" validate:"required"`
	Period         int       `json:"period" validate:"required,bimester"`
	Value          *float64  `json:"grade_value" validate:"omitempty,gte=0"`
	Conceptual     string    `json:"conceptual_grade" validate:"omitempty,oneof=A B C D E"`
	Descriptive    string    `json:"descriptive_grade"`
	EvaluationType Type      `json:"evaluation_type" validate:"required,oneof=numeric conceptual descriptive"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Conceptual = core.CleanString(ng.Conceptual)
	ng.Descriptive = core.CleanString(ng.Descriptive)
	return validate.Struct(ng)
}

// NewAttendance contains information needed to record Attendance.
// The percentage is derived, never accepted from the caller.
type NewAttendance struct {
	StudentID         uuid.UUID     `json:"student_id" validate:"required"`
	EnrollmentID      uuid.UUID     `json:"enrollment_id" validate:"required"`
	SubjectID         uuid.NullUUID `json:"subject_id"`
	AcademicYear      int           `json:"academic_year" validate:"required"`
	Period            int           `json:"period" validate:"required,bimester"`
	TotalClasses      int           `json:"total_classes" validate:"gte=0"`
	PresentClasses    int           `json:"present_classes" validate:"gte=0,ltefield=TotalClasses"`
	AbsentClasses     int           `json:"absent_classes" validate:"gte=0"`
	JustifiedAbsences int           `json:"justified_absences" validate:"gte=0"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

// NewDescriptiveReport contains information needed to record a parecer.
type NewDescriptiveReport struct {
	StudentID    uuid.UUID `json:"student_id" validate:"required"`
	EnrollmentID uuid.UUID `json:"enrollment_id" validate:"required"`
	AcademicYear int       `json:"academic_year" validate:"required"`
	Period       int       `json:"period" validate:"required,bimester"`
	ReportText   string    `json:"report_text" validate:"required"`
	CreatedBy    uuid.UUID `json:"created_by" validate:"required"`
}

func (nr *NewDescriptiveReport) Validate(validate *validator.Validate) error {
	nr.ReportText = core.CleanString(nr.ReportText)
	return validate.Struct(nr)
}

// QueryFilter narrows record queries; zero-valued fields are ignored.
type QueryFilter struct {
	StudentID    uuid.UUID `query:"student_id"`
	EnrollmentID uuid.UUID `query:"enrollment_id"`
	SubjectID    uuid.UUID `query:"subject_id"`
	AcademicYear int       `query:"academic_year"`
	Period       int       `query:"period"`
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.StudentID == uuid.Nil && qf.EnrollmentID == uuid.Nil && qf.SubjectID == uuid.Nil &&
		qf.AcademicYear == 0 && qf.Period == 0
}
