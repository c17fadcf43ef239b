package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
	"github.com/trezcool/masomo-parents/services/notifier"
	"github.com/trezcool/masomo-parents/services/schoolapi"
)

// pageDeps are shared by the page APIs.
type pageDeps struct {
	logger      core.Logger
	apiProvider parent.APIProvider
	sessions    parent.SessionStore
	emailSvc    core.EmailService
	validate    *validator.Validate
	translator  ut.Translator
}

// page is the per-request context of a page controller: the parent, their school API and the toasts raised.
type page struct {
	parent   parent.Parent
	notifier *notifier.FlashNotifier
	deps     parent.ControllerDeps
}

func (pd pageDeps) newPage(ctx echo.Context) (*page, error) {
	p, token, err := getContextParent(ctx)
	if err != nil {
		return nil, err
	}
	flash := notifier.NewFlashNotifier(pd.logger)
	deps := parent.ControllerDeps{
		API:      pd.apiProvider.ForToken(token),
		Notifier: flash,
		Logger:   pd.logger,
		Parent:   p,
		EmailSvc: pd.emailSvc,
	}
	return &page{parent: p, notifier: flash, deps: deps}, nil
}

// session returns the parent's session, a new one on first visit.
func (pd pageDeps) session(ctx context.Context, parentID string) (parent.Session, error) {
	sess, err := pd.sessions.GetSession(ctx, parentID)
	if err != nil {
		if errors.Cause(err) == parent.ErrSessionNotFound {
			return parent.Session{ParentID: parentID}, nil
		}
		return parent.Session{}, errors.Wrap(err, "getting session")
	}
	return sess, nil
}

// linkChildPayload accepts student_id as a JSON string or number.
type linkChildPayload struct {
	StudentID    parent.FlexString `json:"student_id"`
	StudentEmail string            `json:"student_email"`
	StudentPhone string            `json:"student_phone"`
}

func (p linkChildPayload) form() parent.LinkChildForm {
	return parent.LinkChildForm{
		StudentID:    string(p.StudentID),
		StudentEmail: p.StudentEmail,
		StudentPhone: p.StudentPhone,
	}
}

// submitLinkForm runs the link-child form: validation errors are returned as is, link errors are passed to the
// caller through linkErr. link is only called with valid values.
func (pd pageDeps) submitLinkForm(ctx echo.Context, link func(parent.LinkChildRequest) error) (linkErr error, err error) {
	var data linkChildPayload
	if err = ctx.Bind(&data); err != nil {
		return nil, errors.Wrap(err, "binding to linkChildPayload")
	}

	modal := parent.NewLinkChildModal(pd.validate, pd.translator, nil, func(studentID int, email, phone string) {
		linkErr = link(parent.LinkChildRequest{StudentID: studentID, StudentEmail: email, StudentPhone: phone})
	})
	modal.Open()
	if err = modal.Submit(data.form()); err != nil {
		return nil, err
	}
	return linkErr, nil
}

// linkStatus maps a failed link to the response status: the school API's 4xx when it rejected the request,
// 502 otherwise.
func linkStatus(err error) int {
	if err == nil {
		return http.StatusCreated
	}
	if apiErr, ok := errors.Cause(err).(*schoolapi.APIError); ok && apiErr.StatusCode < http.StatusInternalServerError {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}
