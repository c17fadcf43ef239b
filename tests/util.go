package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
)

// NewConfig returns a test config pointing at the school API under baseURL.
func NewConfig(baseURL string) *core.Config {
	return &core.Config{
		AppName:            "Masomo",
		Env:                "TEST",
		Build:              "test",
		TestMode:           true,
		WorkDir:            core.Getwd(),
		SecretKey:          "test-secret",
		FrontendBaseURL:    "http://parents.test",
		DefaultFromAddress: "Masomo <noreply@masomo.test>",
		Server:             core.ServerConfig{Address: ":0", ShutdownTimeout: time.Second},
		SchoolAPI:          core.SchoolAPIConfig{BaseURL: baseURL, Timeout: 2 * time.Second},
		Session:            core.SessionConfig{Store: "inmem", TTL: time.Hour},
	}
}

// Logger records error messages.
type Logger struct {
	mu     sync.Mutex
	errors []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) Debug(string, ...interface{}) {}
func (l *Logger) Info(string, ...interface{})  {}
func (l *Logger) Warn(string, ...interface{})  {}
func (l *Logger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}
func (l *Logger) Fatal(msg string, args ...interface{}) { l.Error(msg, args...) }

func (l *Logger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

// SchoolAPI is a fake school API keeping the children of every parent token.
type SchoolAPI struct {
	*httptest.Server

	mu       sync.Mutex
	children map[string][]parent.BackendChild // {token: children}
	overview map[string][]parent.GradeOverview
	students map[int]parent.BackendChild // linkable, by student id
	failing  map[string]int              // {path: status}
	Requests []string                    // "METHOD /path"
}

func NewSchoolAPI(t *testing.T) *SchoolAPI {
	t.Helper()
	api := &SchoolAPI{
		children: make(map[string][]parent.BackendChild),
		overview: make(map[string][]parent.GradeOverview),
		students: make(map[int]parent.BackendChild),
		failing:  make(map[string]int),
	}
	api.Server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.Close)
	return api
}

// SetChildren sets the children & grades overview of the parent owning token.
func (api *SchoolAPI) SetChildren(token string, children []parent.BackendChild, overview []parent.GradeOverview) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.children[token] = children
	api.overview[token] = overview
}

// AddStudent makes a student linkable.
func (api *SchoolAPI) AddStudent(studentID int, child parent.BackendChild) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.students[studentID] = child
}

// Fail makes every request to path answer status; 0 heals it.
func (api *SchoolAPI) Fail(path string, status int) {
	api.mu.Lock()
	defer api.mu.Unlock()
	if status == 0 {
		delete(api.failing, path)
		return
	}
	api.failing[path] = status
}

func (api *SchoolAPI) RequestCount() int {
	api.mu.Lock()
	defer api.mu.Unlock()
	return len(api.Requests)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (api *SchoolAPI) serve(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	defer api.mu.Unlock()

	api.Requests = append(api.Requests, r.Method+" "+r.URL.Path)
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	if status, ok := api.failing[r.URL.Path]; ok {
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/parents/me/children":
		children := api.children[token]
		if children == nil {
			children = []parent.BackendChild{}
		}
		writeJSON(w, http.StatusOK, children)

	case r.Method == http.MethodGet && r.URL.Path == "/parents/me/dashboard":
		children, overview := api.children[token], api.overview[token]
		if children == nil {
			children = []parent.BackendChild{}
		}
		if overview == nil {
			overview = []parent.GradeOverview{}
		}
		writeJSON(w, http.StatusOK, parent.DashboardPayload{Children: children, GradesOverview: overview})

	case r.Method == http.MethodPost && r.URL.Path == "/parents/me/children/link":
		var req parent.LinkChildRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}
		child, ok := api.students[req.StudentID]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Student not found"})
			return
		}
		for _, c := range api.children[token] {
			if c.ID == child.ID {
				writeJSON(w, http.StatusConflict, map[string]string{"message": "Student already linked"})
				return
			}
		}
		api.children[token] = append(api.children[token], child)
		writeJSON(w, http.StatusCreated, parent.LinkChildResponse{
			BackendChild: child,
			StudentEmail: req.StudentEmail,
			StudentPhone: req.StudentPhone,
		})

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}
}
