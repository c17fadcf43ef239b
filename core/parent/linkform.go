package parent

import (
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core"
)

var errModalClosed = errors.New("link child modal is closed")

// LinkChildForm holds the raw values typed in the link-child modal.
type LinkChildForm struct {
	StudentID    string `json:"student_id"`
	StudentEmail string `json:"student_email"`
	StudentPhone string `json:"student_phone"`
}

func (f *LinkChildForm) Clean() {
	f.StudentID = core.CleanString(f.StudentID)
	f.StudentEmail = core.CleanString(f.StudentEmail)
	f.StudentPhone = core.CleanString(f.StudentPhone)
}

// Validate cleans the form and returns a *core.ValidationError listing every invalid field.
func (f *LinkChildForm) Validate(validate *validator.Validate, translator ut.Translator) error {
	f.Clean()
	if err := validate.Struct(f); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			return core.TranslateValidationErrors(vErrs, translator)
		}
		return errors.Wrap(err, "validating link child form")
	}
	return nil
}

// Request converts a validated form.
func (f LinkChildForm) Request() (LinkChildRequest, error) {
	id, err := strconv.Atoi(f.StudentID)
	if err != nil {
		return LinkChildRequest{}, errors.Wrap(err, "parsing student_id")
	}
	return LinkChildRequest{
		StudentID:    id,
		StudentEmail: f.StudentEmail,
		StudentPhone: f.StudentPhone,
	}, nil
}

type (
	SubmitFunc func(studentID int, studentEmail, studentPhone string)

	// LinkChildModal collects & validates the link-child form, then hands the parsed values to its
	// submit callback. It never calls the network itself.
	LinkChildModal struct {
		isOpen     bool
		values     LinkChildForm
		errors     map[string]string
		onClose    func()
		onSubmit   SubmitFunc
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewLinkChildModal(
	validate *validator.Validate,
	translator ut.Translator,
	onClose func(),
	onSubmit SubmitFunc,
) *LinkChildModal {
	return &LinkChildModal{
		validate:   validate,
		translator: translator,
		onClose:    onClose,
		onSubmit:   onSubmit,
		errors:     make(map[string]string),
	}
}

func (m *LinkChildModal) IsOpen() bool { return m.isOpen }

func (m *LinkChildModal) Values() LinkChildForm { return m.values }

// Errors returns the field-level errors of the last submission: {field: message}.
func (m *LinkChildModal) Errors() map[string]string {
	errs := make(map[string]string, len(m.errors))
	for k, v := range m.errors {
		errs[k] = v
	}
	return errs
}

func (m *LinkChildModal) Open() { m.isOpen = true }

// Close resets the form and notifies the owner.
func (m *LinkChildModal) Close() {
	m.isOpen = false
	m.reset()
	if m.onClose != nil {
		m.onClose()
	}
}

// Submit validates the values. On failure the field errors are kept & returned and the callback is not called.
// On success the callback is called exactly once with the parsed values, then the form is cleared.
func (m *LinkChildModal) Submit(values LinkChildForm) error {
	if !m.isOpen {
		return errModalClosed
	}
	m.values = values
	m.errors = make(map[string]string)

	if err := m.values.Validate(m.validate, m.translator); err != nil {
		if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
			m.errors = vErr.FieldMap()
		}
		return err
	}
	req, err := m.values.Request()
	if err != nil {
		return err
	}

	if m.onSubmit != nil {
		m.onSubmit(req.StudentID, req.StudentEmail, req.StudentPhone)
	}
	m.reset()
	return nil
}

func (m *LinkChildModal) reset() {
	m.values = LinkChildForm{}
	m.errors = make(map[string]string)
}
