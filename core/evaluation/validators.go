package evaluation

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tmbastos/escolar/core"
)

var (
	gradeKindTag  = "gradekind"
	gradeKindText = "exactly one of grade_value, conceptual_grade or descriptive_grade must be set, matching evaluation_type"
)

// RegisterValidators hooks the evaluation-specific validations into the app
// validator.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(newGradeStructValidation, NewGrade{})
	core.RegisterCustomTranslation(validate, translator, gradeKindTag, gradeKindText)
}

// newGradeStructValidation enforces the tagged-variant invariant: the field
// populated on a NewGrade must be exactly the one its evaluation type selects.
func newGradeStructValidation(sl validator.StructLevel) {
	ng := sl.Current().Interface().(NewGrade)

	hasValue := ng.Value != nil
	hasConceptual := ng.Conceptual != ""
	hasDescriptive := ng.Descriptive != ""

	switch ng.EvaluationType {
	case TypeNumeric:
		if !hasValue || hasConceptual || hasDescriptive {
			sl.ReportError(ng.Value, "grade_value", "Value", gradeKindTag, "")
		}
	case TypeConceptual:
		if hasValue || !hasConceptual || hasDescriptive {
			sl.ReportError(ng.Conceptual, "conceptual_grade", "Conceptual", gradeKindTag, "")
		}
	case TypeDescriptive:
		if hasValue || hasConceptual || !hasDescriptive {
			sl.ReportError(ng.Descriptive, "descriptive_grade", "Descriptive", gradeKindTag, "")
		}
	}
}
