package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core/parent"
	"github.com/trezcool/masomo-parents/services/export"
	"github.com/trezcool/masomo-parents/services/notifier"
)

type (
	dashboardApi struct {
		pageDeps
	}

	DashboardResponse struct {
		parent.DashboardView
		Toasts []notifier.Toast `json:"toasts"`
	}

	ChildGradesResponse struct {
		parent.ChildView
		Toasts []notifier.Toast `json:"toasts"`
	}

	SelectionRequest struct {
		ChildID int `json:"child_id"`
	}
)

func registerDashboardAPI(g *echo.Group, pd pageDeps, mw ...echo.MiddlewareFunc) {
	api := dashboardApi{pageDeps: pd}

	dg := g.Group("/dashboard", mw...)
	dg.GET("", api.retrieve)
	dg.POST("/refresh", api.refresh)
	dg.PUT("/selection", api.selectChild)
	dg.POST("/children", api.linkChild)
	dg.GET("/children/:id/grades", api.childGrades)
	dg.GET("/grades/export", api.exportGrades)
}

// controller resumes the parent's dashboard from their session.
func (api *dashboardApi) controller(ctx echo.Context) (*page, *parent.DashboardController, error) {
	pg, err := api.newPage(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "getting context parent")
	}
	sess, err := api.session(ctx.Request().Context(), pg.parent.ID)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := parent.NewDashboardController(pg.deps, sess)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating dashboard controller")
	}
	return pg, ctrl, nil
}

// ensureLoaded loads the dashboard on first visit. Failures end up in the toasts.
func (api *dashboardApi) ensureLoaded(ctx echo.Context, ctrl *parent.DashboardController) {
	if !ctrl.Session().Loaded {
		_ = ctrl.Load(ctx.Request().Context())
	}
}

func (api *dashboardApi) save(ctx echo.Context, ctrl *parent.DashboardController) error {
	if err := api.sessions.SaveSession(ctx.Request().Context(), ctrl.Session()); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return nil
}

func (api *dashboardApi) respond(ctx echo.Context, code int, pg *page, ctrl *parent.DashboardController) error {
	if err := api.save(ctx, ctrl); err != nil {
		return err
	}
	return ctx.JSON(code, DashboardResponse{DashboardView: ctrl.View(), Toasts: pg.notifier.Drain()})
}

// Handlers

func (api *dashboardApi) retrieve(ctx echo.Context) error {
	pg, ctrl, err := api.controller(ctx)
	if err != nil {
		return err
	}
	api.ensureLoaded(ctx, ctrl)
	return api.respond(ctx, http.StatusOK, pg, ctrl)
}

func (api *dashboardApi) refresh(ctx echo.Context) error {
	pg, ctrl, err := api.controller(ctx)
	if err != nil {
		return err
	}
	_ = ctrl.Load(ctx.Request().Context())
	return api.respond(ctx, http.StatusOK, pg, ctrl)
}

func (api *dashboardApi) selectChild(ctx echo.Context) error {
	var data SelectionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelectionRequest")
	}

	pg, ctrl, err := api.controller(ctx)
	if err != nil {
		return err
	}
	api.ensureLoaded(ctx, ctrl)
	if err = ctrl.Select(data.ChildID); err != nil {
		if errors.Cause(err) == parent.ErrChildNotFound {
			return errChildNotFound
		}
		return errors.Wrap(err, "selecting child")
	}
	return api.respond(ctx, http.StatusOK, pg, ctrl)
}

func (api *dashboardApi) linkChild(ctx echo.Context) error {
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
	return api.respond(ctx, linkStatus(linkErr), pg, ctrl)
}

func (api *dashboardApi) childGrades(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errChildNotFound
	}

	pg, ctrl, err := api.controller(ctx)
	if err != nil {
		return err
	}
	api.ensureLoaded(ctx, ctrl)
	if err = api.save(ctx, ctrl); err != nil {
		return err
	}

	child, ok := ctrl.Session().Child(id)
	if !ok {
		return errChildNotFound
	}
	return ctx.JSON(http.StatusOK, ChildGradesResponse{
		ChildView: parent.ChildView{
			Child:          child,
			GradesOverview: ctrl.GradesFor(child),
			Grades:         parent.GradesTable(child.ID),
			Assessments:    parent.AssessmentTracking(child.ID),
			Submissions:    parent.SubmissionsView(child.ID),
		},
		Toasts: pg.notifier.Drain(),
	})
}

// exportGrades sends the grades overview as a spreadsheet; ?child=<name> keeps the entries of one child.
func (api *dashboardApi) exportGrades(ctx echo.Context) error {
	_, ctrl, err := api.controller(ctx)
	if err != nil {
		return err
	}
	api.ensureLoaded(ctx, ctrl)
	if err = api.save(ctx, ctrl); err != nil {
		return err
	}

	overview := ctrl.Session().GradesOverview
	filename := "grades.xlsx"
	if name := ctx.QueryParam("child"); name != "" {
		overview = parent.GradesOverview(overview, name)
		filename = "grades-" + slug(name) + ".xlsx"
	}

	data, err := export.GradesXLSX(overview)
	if err != nil {
		return errors.Wrap(err, "exporting grades")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return ctx.Blob(http.StatusOK, export.XLSXMIME, data)
}

func slug(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, s)
}
