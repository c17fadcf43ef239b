package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
)

// linkChild validates the form then links the student account; field errors are printed.
func (cli *commandLine) linkChild(deps parent.ControllerDeps, form parent.LinkChildForm) error {
	ctrl, err := parent.NewChildrenController(deps)
	if err != nil {
		return err
	}

	var linkErr error
	modal := parent.NewLinkChildModal(cli.validate, cli.translator, nil, func(studentID int, email, phone string) {
		_, linkErr = ctrl.LinkChild(context.Background(), parent.LinkChildRequest{
			StudentID:    studentID,
			StudentEmail: email,
			StudentPhone: phone,
		})
	})
	modal.Open()
	if err = modal.Submit(form); err != nil {
		if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
			cli.printFieldErrors(vErr.FieldMap())
		}
		return err
	}
	if linkErr != nil {
		return linkErr
	}
	cli.printChildren(ctrl.Children(), 0)
	return nil
}

func (cli *commandLine) printFieldErrors(errs map[string]string) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		_, _ = fmt.Fprintf(cli.out, "  %s: %s\n", f, errs[f])
	}
}
