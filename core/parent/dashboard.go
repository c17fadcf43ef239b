package parent

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core"
)

var nowFunc = time.Now // mockable

// ControllerDeps are the collaborators of the page controllers.
type ControllerDeps struct {
	API      API
	Notifier core.Notifier
	Logger   core.Logger
	Parent   Parent

	// optional: link confirmation mails are skipped when nil
	EmailSvc core.EmailService
}

func (deps ControllerDeps) check() error {
	return vala.BeginValidation().Validate(
		core.IsNotNil(deps.API, "API"),
		core.IsNotNil(deps.Notifier, "Notifier"),
		core.IsNotNil(deps.Logger, "Logger"),
	).Check()
}

// DashboardController drives the parent dashboard page:
// loading → ready, with error excursions absorbed into a toast.
type DashboardController struct {
	deps      ControllerDeps
	mu        sync.Mutex
	sess      Session
	observers []func(Session)
}

// NewDashboardController resumes the page from sess (zero value for a first visit).
func NewDashboardController(deps ControllerDeps, sess Session) (*DashboardController, error) {
	if err := deps.check(); err != nil {
		return nil, errors.Wrap(err, "checking dashboard controller deps")
	}
	if sess.ParentID == "" {
		sess.ParentID = deps.Parent.ID
	}
	if sess.Status == "" {
		sess.Status = StatusReady
	}
	return &DashboardController{deps: deps, sess: sess.clone()}, nil
}

// Observe registers fn to receive a snapshot after every state transition,
// including the provisional state of an optimistic link.
func (c *DashboardController) Observe(fn func(Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Session returns a snapshot of the current state.
func (c *DashboardController) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.clone()
}

func (c *DashboardController) publish() {
	c.sess.UpdatedAt = nowFunc().UTC()
	snap := c.sess.clone()
	for _, fn := range c.observers {
		fn(snap)
	}
}

// Load fetches the dashboard and reconciles the selection.
// Fetch failures are logged and toasted once; the previous children are kept (none on a first load).
// The returned error is only informative: the page is always left ready.
func (c *DashboardController) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *DashboardController) load(ctx context.Context) error {
	c.sess.Status = StatusLoading
	c.publish()

	payload, err := c.deps.API.GetParentDashboard(ctx)
	if err != nil {
		err = errors.Wrap(err, "fetching parent dashboard")
		c.deps.Logger.Error(msgLoadDashboardFailed, err, c.deps.Parent)
		c.deps.Notifier.Error(msgLoadDashboardFailed)
		c.sess.Status = StatusReady
		c.publish()
		return err
	}

	c.sess.Children = MapChildren(payload.Children)
	c.sess.GradesOverview = append([]GradeOverview(nil), payload.GradesOverview...)
	c.sess.Loaded = true
	c.sess.Status = StatusReady

	err = c.reconcileSelection()
	c.publish()
	return err
}

// reconcileSelection keeps SelectedChildID pointing at a listed child.
// A selection that disappears from the list is a defect of the school API: it is reported, then replaced.
func (c *DashboardController) reconcileSelection() error {
	var err error
	if c.sess.HasSelection {
		if _, ok := c.sess.Child(c.sess.SelectedChildID); ok {
			return nil
		}
		err = errors.Wrapf(ErrSelectionLost, "child %d", c.sess.SelectedChildID)
		c.deps.Logger.Error(fmt.Sprintf("reconciling selection: %v", err), err, c.deps.Parent)
	}
	c.sess.clearSelection()
	if len(c.sess.Children) > 0 {
		c.sess.selectChild(c.sess.Children[0].ID)
	}
	return err
}

// Select makes childID the current child.
func (c *DashboardController) Select(childID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sess.Child(childID); !ok {
		return errors.Wrapf(ErrChildNotFound, "selecting child %d", childID)
	}
	c.sess.selectChild(childID)
	c.publish()
	return nil
}

// LinkChild links a student account, then optimistically appends & selects the returned child
// before reconciling with a full reload. The provisional state is published to observers and may be
// superseded by the reload.
// On failure the children are left untouched, an error toast carries the server message and the error
// is returned.
func (c *DashboardController) LinkChild(ctx context.Context, req LinkChildRequest) (Child, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.deps.API.LinkChild(ctx, req)
	if err != nil {
		err = errors.Wrap(err, "linking child")
		c.deps.Logger.Error(fmt.Sprintf("linking child %d: %v", req.StudentID, err), err, c.deps.Parent)
		c.deps.Notifier.Error(linkFailureMessage(err))
		return Child{}, err
	}

	child := MapChild(resp.BackendChild)
	c.sess.Children = upsertChild(c.sess.Children, child)
	c.sess.selectChild(child.ID)
	c.publish()

	c.deps.Notifier.Success(msgLinkSucceeded)
	sendLinkConfirmation(c.deps, child)

	// errors are logged & toasted by load
	_ = c.load(ctx)
	return child, nil
}

// GradesFor returns the overview entries of child, matched by display name.
func (c *DashboardController) GradesFor(child Child) []GradeOverview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GradesOverview(c.sess.GradesOverview, child.Name)
}

// View renders the page.
func (c *DashboardController) View() DashboardView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewDashboardView(c.sess)
}

func upsertChild(children []Child, child Child) []Child {
	for i, c := range children {
		if c.ID == child.ID {
			children[i] = child
			return children
		}
	}
	return append(children, child)
}

// sendLinkConfirmation mails the parent, when their address is known.
func sendLinkConfirmation(deps ControllerDeps, child Child) {
	if deps.EmailSvc == nil || deps.Parent.Email == "" {
		return
	}
	deps.EmailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: deps.Parent.Name, Address: deps.Parent.Email}},
		Subject:      child.Name + " has been linked to your account",
		TemplateName: "child_linked",
		TemplateData: map[string]string{
			"ParentName": deps.Parent.Name,
			"ChildName":  child.Name,
			"StudentID":  child.StudentID,
			"School":     child.School,
		},
	})
}
