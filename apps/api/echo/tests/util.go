package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/masomo-parents/apps/api/echo"
	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
	"github.com/trezcool/masomo-parents/services/email"
	"github.com/trezcool/masomo-parents/services/notifier"
	"github.com/trezcool/masomo-parents/services/schoolapi"
	"github.com/trezcool/masomo-parents/storage/session/inmem"
	"github.com/trezcool/masomo-parents/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type env struct {
	app      *Server
	conf     *core.Config
	school   *testutil.SchoolAPI
	logger   *testutil.Logger
	sessions *inmem.Store
}

func setup(t *testing.T) *env {
	t.Helper()
	school := testutil.NewSchoolAPI(t)
	conf := testutil.NewConfig(school.URL)
	logger := new(testutil.Logger)

	client, err := schoolapi.NewClient(conf.SchoolAPI, logger)
	require.NoError(t, err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	parent.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger, conf)
	emailsvc.ResetSentMessages()

	sessions := inmem.NewStore(conf.Session.TTL)
	app := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		APIProvider: client,
		Sessions:    sessions,
		EmailSvc:    emailsvc.NewConsoleServiceMock(conf, logger),
		Validate:    validate,
		Translator:  translator,
	})
	t.Cleanup(func() { _ = app.Close() })

	return &env{app: app, conf: conf, school: school, logger: logger, sessions: sessions}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func (e *env) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	e.app.ServeHTTP(rec, req)
	return rec
}

func (e *env) getToken(t *testing.T, p parent.Parent) string {
	token, err := GenerateToken(GetParentClaims(p, e.conf.AppName, time.Hour), e.conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeDashboard(t *testing.T, rec *httptest.ResponseRecorder) DashboardResponse {
	t.Helper()
	var res DashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func decodeChildren(t *testing.T, rec *httptest.ResponseRecorder) ChildrenResponse {
	t.Helper()
	var res ChildrenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func toastMessages(toasts []notifier.Toast) map[notifier.Level][]string {
	msgs := make(map[notifier.Level][]string)
	for _, t := range toasts {
		msgs[t.Level] = append(msgs[t.Level], t.Message)
	}
	return msgs
}

func childIDs(children []parent.Child) []int {
	ids := make([]int, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return ids
}

var (
	mama = parent.Parent{ID: "p-1", Name: "Mama Nzuzi", Email: "nzuzi@example.com"}
	papa = parent.Parent{ID: "p-2", Name: "Papa Kabeya"}

	childA = parent.BackendChild{ID: 1, Name: "A", Grade: "Grade 5", School: "Lycée Bosangani", StudentID: "S-001"}
	childB = parent.BackendChild{ID: 2, Name: "B", Grade: "Grade 3", School: "Lycée Bosangani"}
	childC = parent.BackendChild{ID: 3, Name: "C", Grade: "Grade 1", School: "Lycée Bosangani"}

	overviewAB = []parent.GradeOverview{
		{ChildName: "A", Subject: "Mathematics", Grade: "A-"},
		{ChildName: "B", Subject: "Mathematics", Grade: "B+"},
		{ChildName: "A", Subject: "Average", Grade: "88"},
	}
)

func decodeJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
