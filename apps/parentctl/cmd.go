package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/dgrijalva/jwt-go"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
	"github.com/trezcool/masomo-parents/services/notifier"
)

var (
	readTokenFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	provider   parent.APIProvider
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
	colored    bool
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  children - list the linked children")
	_, _ = fmt.Fprintln(cli.out, "  dashboard - show the dashboard of the first child")
	_, _ = fmt.Fprintln(cli.out, "  link -student-id ID -email EMAIL -phone PHONE - link a student account")
	_, _ = fmt.Fprintln(cli.out, "The parent's access token is prompted next.")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	linkCmd := flag.NewFlagSet("link", flag.ContinueOnError)
	linkCmd.SetOutput(cli.out)
	linkStudentID := linkCmd.String("student-id", "", "The student's ID.")
	linkEmail := linkCmd.String("email", "", "The student's email.")
	linkPhone := linkCmd.String("phone", "", "The student's phone number.")

	switch args[1] {
	case "children":
		deps, err := cli.promptDeps()
		if err != nil {
			return err
		}
		return cli.listChildren(deps)
	case "dashboard":
		deps, err := cli.promptDeps()
		if err != nil {
			return err
		}
		return cli.showDashboard(deps)
	case "link":
		if err := linkCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *linkStudentID == "" && *linkEmail == "" && *linkPhone == "" {
			linkCmd.Usage()
			return errHelp
		}
		deps, err := cli.promptDeps()
		if err != nil {
			return err
		}
		return cli.linkChild(deps, parent.LinkChildForm{
			StudentID:    *linkStudentID,
			StudentEmail: *linkEmail,
			StudentPhone: *linkPhone,
		})
	default:
		cli.printUsage()
		return errHelp
	}
}

// promptDeps reads the parent's token and returns the controller deps acting on their behalf.
func (cli *commandLine) promptDeps() (parent.ControllerDeps, error) {
	_, _ = fmt.Fprint(cli.out, "Enter access token:")
	token, err := readTokenFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return parent.ControllerDeps{}, err
	}
	if len(token) == 0 {
		cli.printUsage()
		return parent.ControllerDeps{}, errHelp
	}
	tok := core.CleanString(string(token))
	return parent.ControllerDeps{
		API:      cli.provider.ForToken(tok),
		Notifier: notifier.NewConsoleNotifier(cli.out, cli.colored),
		Logger:   cli.logger,
		Parent:   parentFromToken(tok),
	}, nil
}

// parentFromToken reads the parent from the token claims, without verifying it: the school API does.
func parentFromToken(token string) parent.Parent {
	claims := make(jwt.MapClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return parent.Parent{}
	}
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}
	return parent.Parent{ID: str("sub"), Name: str("name"), Email: str("email")}
}
