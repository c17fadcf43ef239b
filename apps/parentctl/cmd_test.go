package main

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/masomo-parents/apps/api/echo"
	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
	"github.com/trezcool/masomo-parents/services/schoolapi"
	"github.com/trezcool/masomo-parents/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.SchoolAPI, *bytes.Buffer) {
	school := testutil.NewSchoolAPI(t)
	conf := testutil.NewConfig(school.URL)
	logger := new(testutil.Logger)

	client, err := schoolapi.NewClient(conf.SchoolAPI, logger)
	require.NoError(t, err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	parent.InitValidators(validate, translator)

	out := new(bytes.Buffer)
	return &commandLine{
		provider:   client,
		logger:     logger,
		validate:   validate,
		translator: translator,
		out:        out,
	}, school, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_run(t *testing.T) {
	cli, school, out := setup(t)

	p := parent.Parent{ID: "p-1", Name: "Mama Nzuzi", Email: "nzuzi@example.com"}
	token, err := echoapi.GenerateToken(echoapi.GetParentClaims(p, "Masomo", time.Hour), "secret")
	require.NoError(t, err)
	school.SetChildren(token, []parent.BackendChild{{ID: 1, Name: "A", Grade: "5", School: "X"}}, []parent.GradeOverview{{ChildName: "A", Subject: "Math", Grade: "A"}})
	school.AddStudent(2, parent.BackendChild{ID: 2, Name: "B", Grade: "3", School: "X"})

	type extra struct {
		token string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no token", args: []string{"children"}, wantErr: errHelp},
		{name: "link: no args", args: []string{"link"}, wantErr: errHelp},
		{name: "link: unknown flag", args: []string{"link", "-lol"}, wantErr: errHelp},
		{name: "children", args: []string{"children"}, extra: extra{token}},
		{name: "dashboard", args: []string{"dashboard"}, extra: extra{token}},
		{
			name: "link: invalid form", args: []string{"link", "-student-id", "x", "-email", "b@school.cd", "-phone", "555"},
			extra: extra{token}, wantErrStr: "student_id: Student ID must be a number",
		},
		{
			name: "link: unknown student", args: []string{"link", "-student-id", "9", "-email", "b@school.cd", "-phone", "555"},
			extra: extra{token}, wantErrStr: "linking child: school api: 404: Student not found",
		},
		{name: "link", args: []string{"link", "-student-id", "2", "-email", "b@school.cd", "-phone", "555"}, extra: extra{token}},
	}
	for _, tt := range tests {
		args := append([]string{"parentctl"}, tt.args...)

		readTokenFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.token), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() error = nil, want an error")
			}
		})
	}

	output := out.String()
	assert.Contains(t, output, "STU1")
	assert.Contains(t, output, "Grades overview - A")
	assert.Contains(t, output, "student_id: Student ID must be a number")
	assert.Contains(t, output, "✗ Student not found")
	assert.Contains(t, output, "✓ Child linked successfully!")
}

func Test_commandLine_loadFailure(t *testing.T) {
	cli, school, out := setup(t)
	school.Fail("/parents/me/children", http.StatusInternalServerError)
	readTokenFunc = func(int) ([]byte, error) { return []byte("tok"), nil }

	err := cli.run([]string{"parentctl", "children"})
	require.Error(t, err)
	apiErr, ok := errors.Cause(err).(*schoolapi.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, out.String(), "✗ Failed to load children")
}

func Test_parentFromToken(t *testing.T) {
	p := parent.Parent{ID: "p-1", Name: "Mama Nzuzi", Email: "nzuzi@example.com"}
	token, err := echoapi.GenerateToken(echoapi.GetParentClaims(p, "Masomo", time.Hour), "any-secret")
	require.NoError(t, err)

	assert.Equal(t, p, parentFromToken(token))
	assert.Equal(t, parent.Parent{}, parentFromToken("opaque-token"))
}
