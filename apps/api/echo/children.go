package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core/parent"
	"github.com/trezcool/masomo-parents/services/notifier"
)

type (
	childrenApi struct {
		pageDeps
	}

	ChildrenResponse struct {
		Status   parent.Status    `json:"status"`
		Children []parent.Child   `json:"children"`
		Toasts   []notifier.Toast `json:"toasts"`
	}
)

func registerChildrenAPI(g *echo.Group, pd pageDeps, mw ...echo.MiddlewareFunc) {
	api := childrenApi{pageDeps: pd}

	cg := g.Group("/children", mw...)
	cg.GET("", api.list)
	cg.POST("", api.linkChild)
}

func (api *childrenApi) controller(ctx echo.Context) (*page, *parent.ChildrenController, error) {
	pg, err := api.newPage(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "getting context parent")
	}
	ctrl, err := parent.NewChildrenController(pg.deps)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating children controller")
	}
	return pg, ctrl, nil
}

func (api *childrenApi) respond(ctx echo.Context, code int, pg *page, ctrl *parent.ChildrenController) error {
	children := ctrl.Children()
	if children == nil {
		children = []parent.Child{}
	}
	return ctx.JSON(code, ChildrenResponse{
		Status:   ctrl.Status(),
		Children: children,
		Toasts:   pg.notifier.Drain(),
	})
}

// Handlers

func (api *childrenApi) list(ctx echo.Context) error {
	pg, ctrl, err := api.controller(ctx)
	if err != nil {
		return err
	}
	_ = ctrl.Load(ctx.Request().Context())
	return api.respond(ctx, http.StatusOK, pg, ctrl)
}

func (api *childrenApi) linkChild(ctx echo.Context) error {
	pg, ctrl, err := api.controller(ctx)
	if err != nil {
		return err
	}

	linkErr, err := api.submitLinkForm(ctx, func(req parent.LinkChildRequest) error {
		_, err := ctrl.LinkChild(ctx.Request().Context(), req)
		return err
	})
	if err != nil {
		return err
	}
	if linkErr == nil {
		if err = api.invalidateDashboard(ctx, pg.parent.ID); err != nil {
			return err
		}
	}
	return api.respond(ctx, linkStatus(linkErr), pg, ctrl)
}

// invalidateDashboard makes the next dashboard visit reload, keeping the selection.
func (api *childrenApi) invalidateDashboard(ctx echo.Context, parentID string) error {
	sess, err := api.sessions.GetSession(ctx.Request().Context(), parentID)
	if err != nil {
		if errors.Cause(err) == parent.ErrSessionNotFound {
			return nil
		}
		return errors.Wrap(err, "getting session")
	}
	sess.Loaded = false
	if err = api.sessions.SaveSession(ctx.Request().Context(), sess); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return nil
}
