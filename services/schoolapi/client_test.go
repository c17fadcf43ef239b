package schoolapi

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type recorded struct {
	method string
	path   string
	auth   string
	reqID  string
	body   []byte
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := ioutil.ReadAll(r.Body)
		reqs = append(reqs, recorded{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			reqID:  r.Header.Get("X-Request-ID"),
			body:   body,
		})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(core.SchoolAPIConfig{BaseURL: srv.URL + "/api/", Timeout: time.Second}, nopLogger{})
	require.NoError(t, err)
	return client, &reqs
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewClient(t *testing.T) {
	conf := core.SchoolAPIConfig{BaseURL: "http://school.test"}

	tests := []struct {
		name    string
		conf    core.SchoolAPIConfig
		logger  core.Logger
		wantErr bool
	}{
		{name: "no base url", conf: core.SchoolAPIConfig{}, logger: nopLogger{}, wantErr: true},
		{name: "no logger", conf: conf, logger: nil, wantErr: true},
		{name: "nil logger pointer", conf: conf, logger: (*nopLogger)(nil), wantErr: true},
		{name: "logger by value", conf: conf, logger: nopLogger{}},
		{name: "logger by pointer", conf: conf, logger: &nopLogger{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				client, err := NewClient(tc.conf, tc.logger)
				if tc.wantErr {
					assert.Error(t, err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, "http://school.test", client.baseURL)
			})
		})
	}
}

func TestParentAPI_GetMyChildren(t *testing.T) {
	client, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":1,"name":"A","grade":5,"school":"X","student_id":"S-1"},{"id":2,"name":"B","grade":"3","school":"X"}]`)
	})

	children, err := client.ForToken("tok").GetMyChildren(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []parent.BackendChild{
		{ID: 1, Name: "A", Grade: "5", School: "X", StudentID: "S-1"},
		{ID: 2, Name: "B", Grade: "3", School: "X"},
	}, children)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/api/parents/me/children", req.path)
	assert.Equal(t, "Bearer tok", req.auth)
	assert.NotEmpty(t, req.reqID)
}

func TestParentAPI_GetParentDashboard(t *testing.T) {
	client, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"children": [{"id":1,"name":"A","grade":"5","school":"X"}],
			"grades_overview": [{"child_name":"A","subject":"Math","grade":"A"},{"child_name":"A","subject":"Average","grade":88}]
		}`)
	})

	payload, err := client.ForToken("tok").GetParentDashboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, payload.Children, 1)
	assert.Equal(t, []parent.GradeOverview{
		{ChildName: "A", Subject: "Math", Grade: "A"},
		{ChildName: "A", Subject: "Average", Grade: "88"},
	}, payload.GradesOverview)
	assert.Equal(t, "/api/parents/me/dashboard", (*reqs)[0].path)
}

func TestParentAPI_LinkChild(t *testing.T) {
	client, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"id":3,"name":"C","grade":"1","school":"X","student_email":"c@x.cd","student_phone":"555"}`)
	})

	req := parent.LinkChildRequest{StudentID: 3, StudentEmail: "c@x.cd", StudentPhone: "555"}
	resp, err := client.ForToken("tok").LinkChild(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.ID)
	assert.Equal(t, "C", resp.Name)
	assert.Equal(t, "c@x.cd", resp.StudentEmail)

	rec := (*reqs)[0]
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/parents/me/children/link", rec.path)
	var sent parent.LinkChildRequest
	require.NoError(t, json.Unmarshal(rec.body, &sent))
	assert.Equal(t, req, sent)
}

func TestParentAPI_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "error key", status: http.StatusNotFound, body: `{"error":"Student not found"}`, wantMsg: "Student not found"},
		{name: "message key", status: http.StatusConflict, body: `{"message":"Student already linked"}`, wantMsg: "Student already linked"},
		{name: "detail key", status: http.StatusForbidden, body: `{"detail":"Contact details do not match"}`, wantMsg: "Contact details do not match"},
		{name: "error wins", status: http.StatusBadRequest, body: `{"detail":"d","error":"e"}`, wantMsg: "e"},
		{name: "empty body", status: http.StatusBadGateway, body: ``, wantMsg: "Bad Gateway"},
		{name: "not json", status: http.StatusInternalServerError, body: `<html>oops</html>`, wantMsg: "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := client.ForToken("tok").LinkChild(context.Background(), parent.LinkChildRequest{StudentID: 1})
			require.Error(t, err)
			apiErr, ok := errors.Cause(err).(*APIError)
			require.True(t, ok, "error is %T", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.ServerMessage())
		})
	}
}

func TestParentAPI_TransportError(t *testing.T) {
	client, err := NewClient(core.SchoolAPIConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nopLogger{})
	require.NoError(t, err)

	_, err = client.ForToken("tok").GetMyChildren(context.Background())
	require.Error(t, err)
	_, ok := errors.Cause(err).(*TransportError)
	assert.True(t, ok, "error is %T", err)
}

func TestParentAPI_Canceled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ForToken("tok").GetMyChildren(ctx)
	require.Error(t, err)
	_, ok := errors.Cause(err).(*TransportError)
	assert.True(t, ok)
}
