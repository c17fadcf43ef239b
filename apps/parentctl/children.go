package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core/parent"
)

func (cli *commandLine) printChildren(children []parent.Child, selectedID int) {
	if len(children) == 0 {
		_, _ = fmt.Fprintln(cli.out, "No children linked yet.")
		return
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\tID\tNAME\tGRADE\tSCHOOL\tSTUDENT ID")
	for _, c := range children {
		mark := ""
		if c.ID == selectedID {
			mark = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", mark, c.ID, c.Name, c.Grade, c.School, c.StudentID)
	}
	_ = w.Flush()
}

func (cli *commandLine) listChildren(deps parent.ControllerDeps) error {
	ctrl, err := parent.NewChildrenController(deps)
	if err != nil {
		return err
	}
	if err = ctrl.Load(context.Background()); err != nil {
		return err
	}
	cli.printChildren(ctrl.Children(), 0)
	return nil
}

func (cli *commandLine) showDashboard(deps parent.ControllerDeps) error {
	ctrl, err := parent.NewDashboardController(deps, parent.Session{})
	if err != nil {
		return err
	}
	if err = ctrl.Load(context.Background()); err != nil && errors.Cause(err) != parent.ErrSelectionLost {
		return err
	}

	view := ctrl.View()
	var selectedID int
	if view.Selected != nil {
		selectedID = view.Selected.Child.ID
	}
	cli.printChildren(view.Children, selectedID)
	if view.Selected == nil {
		return nil
	}

	_, _ = fmt.Fprintf(cli.out, "\nGrades overview - %s\n", view.Selected.Child.Name)
	if len(view.Selected.GradesOverview) == 0 {
		_, _ = fmt.Fprintln(cli.out, "No grades available.")
		return nil
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SUBJECT\tGRADE")
	for _, g := range view.Selected.GradesOverview {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", g.Subject, g.Grade)
	}
	return w.Flush()
}
