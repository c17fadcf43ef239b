package parent

import (
	"context"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-parents/core"
)

type apiMock struct {
	mu          sync.Mutex
	children    []BackendChild
	overview    []GradeOverview
	fetchErr    error
	linkErr     error
	linkResp    LinkChildResponse
	linkOnLink  bool // append linkResp to children when linking succeeds
	fetchCalls  int
	linkCalls   int
	lastLinkReq LinkChildRequest
}

var _ API = (*apiMock)(nil)

func (api *apiMock) GetMyChildren(ctx context.Context) ([]BackendChild, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.fetchCalls++
	if api.fetchErr != nil {
		return nil, api.fetchErr
	}
	return append([]BackendChild(nil), api.children...), nil
}

func (api *apiMock) GetParentDashboard(ctx context.Context) (DashboardPayload, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.fetchCalls++
	if api.fetchErr != nil {
		return DashboardPayload{}, api.fetchErr
	}
	return DashboardPayload{
		Children:       append([]BackendChild(nil), api.children...),
		GradesOverview: append([]GradeOverview(nil), api.overview...),
	}, nil
}

func (api *apiMock) LinkChild(ctx context.Context, req LinkChildRequest) (LinkChildResponse, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.linkCalls++
	api.lastLinkReq = req
	if api.linkErr != nil {
		return LinkChildResponse{}, api.linkErr
	}
	if api.linkOnLink {
		api.children = append(api.children, api.linkResp.BackendChild)
	}
	return api.linkResp, nil
}

type notifierMock struct {
	successes []string
	errors    []string
}

func (n *notifierMock) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *notifierMock) Error(msg string)   { n.errors = append(n.errors, msg) }

type loggerMock struct {
	mu     sync.Mutex
	errors []string
}

var _ core.Logger = (*loggerMock)(nil)

func (l *loggerMock) Debug(string, ...interface{}) {}
func (l *loggerMock) Info(string, ...interface{})  {}
func (l *loggerMock) Warn(string, ...interface{})  {}
func (l *loggerMock) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}
func (l *loggerMock) Fatal(msg string, args ...interface{}) { l.Error(msg, args...) }

type emailServiceMock struct {
	sent []*core.EmailMessage
}

func (svc *emailServiceMock) SendMessages(messages ...*core.EmailMessage) {
	svc.sent = append(svc.sent, messages...)
}

type apiError struct {
	msg string
}

func (e apiError) Error() string         { return "school api: " + e.msg }
func (e apiError) ServerMessage() string { return e.msg }

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, translator
}

func twoChildren() []BackendChild {
	return []BackendChild{
		{ID: 1, Name: "A", Grade: "Grade 5", School: "Lycée Bosangani", StudentID: "S-001"},
		{ID: 2, Name: "B", Grade: "Grade 3", School: "Lycée Bosangani"},
	}
}
