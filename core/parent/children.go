package parent

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// ChildrenController drives the "my children" page: a plain list, re-fetched after every link.
type ChildrenController struct {
	deps     ControllerDeps
	mu       sync.Mutex
	status   Status
	children []Child
}

func NewChildrenController(deps ControllerDeps) (*ChildrenController, error) {
	if err := deps.check(); err != nil {
		return nil, errors.Wrap(err, "checking children controller deps")
	}
	return &ChildrenController{deps: deps, status: StatusReady}, nil
}

func (c *ChildrenController) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *ChildrenController) Children() []Child {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Child(nil), c.children...)
}

// Load lists the linked children. Failures are logged and toasted once, the previous list is kept.
func (c *ChildrenController) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *ChildrenController) load(ctx context.Context) error {
	c.status = StatusLoading
	defer func() { c.status = StatusReady }()

	bcs, err := c.deps.API.GetMyChildren(ctx)
	if err != nil {
		err = errors.Wrap(err, "fetching children")
		c.deps.Logger.Error(msgLoadChildrenFailed, err, c.deps.Parent)
		c.deps.Notifier.Error(msgLoadChildrenFailed)
		return err
	}
	c.children = MapChildren(bcs)
	return nil
}

// LinkChild links a student account then re-fetches the whole list.
func (c *ChildrenController) LinkChild(ctx context.Context, req LinkChildRequest) (Child, error) {
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
	c.deps.Notifier.Success(msgLinkSucceeded)
	sendLinkConfirmation(c.deps, child)

	// errors are logged & toasted by load
	_ = c.load(ctx)
	return child, nil
}
