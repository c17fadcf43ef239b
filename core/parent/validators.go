package parent

import (
	"regexp"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-parents/core"
)

var (
	studentIDRequiredTag  = "student_id_required"
	studentIDRequiredText = "Student ID is required"
	studentIDIntTag       = "student_id_int"
	studentIDIntText      = "Student ID must be a number"

	emailRequiredTag  = "student_email_required"
	emailRequiredText = "Email is required"
	emailFormatTag    = "student_email_format"
	emailFormatText   = "Please enter a valid email address"
	emailRegex        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	phoneRequiredTag  = "student_phone_required"
	phoneRequiredText = "Phone number is required"
	phoneFormatTag    = "student_phone_format"
	phoneFormatText   = "Please enter a valid phone number"
	phoneRegex        = regexp.MustCompile(`^[\d\s+\-()]+$`)
)

// InitValidators registers the link-child form validation & its messages.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(linkChildStructValidation, LinkChildForm{})

	core.RegisterCustomTranslation(validate, translator, studentIDRequiredTag, studentIDRequiredText)
	core.RegisterCustomTranslation(validate, translator, studentIDIntTag, studentIDIntText)
	core.RegisterCustomTranslation(validate, translator, emailRequiredTag, emailRequiredText)
	core.RegisterCustomTranslation(validate, translator, emailFormatTag, emailFormatText)
	core.RegisterCustomTranslation(validate, translator, phoneRequiredTag, phoneRequiredText)
	core.RegisterCustomTranslation(validate, translator, phoneFormatTag, phoneFormatText)
}

// linkChildStructValidation validates LinkChildForm fields in display order.
// Each field reports at most one error: missing value first, then format.
// Values are expected to be cleaned (trimmed) beforehand.
func linkChildStructValidation(sl validator.StructLevel) {
	form, ok := sl.Current().Interface().(LinkChildForm)
	if !ok {
		return
	}

	switch {
	case form.StudentID == "":
		sl.ReportError(form.StudentID, "student_id", "StudentID", studentIDRequiredTag, "")
	case !isInteger(form.StudentID):
		sl.ReportError(form.StudentID, "student_id", "StudentID", studentIDIntTag, "")
	}

	switch {
	case form.StudentEmail == "":
		sl.ReportError(form.StudentEmail, "student_email", "StudentEmail", emailRequiredTag, "")
	case !emailRegex.MatchString(form.StudentEmail):
		sl.ReportError(form.StudentEmail, "student_email", "StudentEmail", emailFormatTag, "")
	}

	switch {
	case form.StudentPhone == "":
		sl.ReportError(form.StudentPhone, "student_phone", "StudentPhone", phoneRequiredTag, "")
	case !phoneRegex.MatchString(form.StudentPhone):
		sl.ReportError(form.StudentPhone, "student_phone", "StudentPhone", phoneFormatTag, "")
	}
}

func isInteger(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
