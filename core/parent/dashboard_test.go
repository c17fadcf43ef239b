package parent

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dashboardFixture struct {
	api      *apiMock
	notifier *notifierMock
	logger   *loggerMock
	emails   *emailServiceMock
	ctrl     *DashboardController
	states   []Session
}

func newDashboardFixture(t *testing.T, api *apiMock, sess Session) *dashboardFixture {
	t.Helper()
	fx := &dashboardFixture{
		api:      api,
		notifier: new(notifierMock),
		logger:   new(loggerMock),
		emails:   new(emailServiceMock),
	}
	ctrl, err := NewDashboardController(ControllerDeps{
		API:      api,
		Notifier: fx.notifier,
		Logger:   fx.logger,
		Parent:   Parent{ID: "p-1", Name: "Mama Nzuzi", Email: "nzuzi@example.com"},
		EmailSvc: fx.emails,
	}, sess)
	require.NoError(t, err)
	ctrl.Observe(func(s Session) { fx.states = append(fx.states, s) })
	fx.ctrl = ctrl
	return fx
}

func childIDs(children []Child) []int {
	ids := make([]int, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestNewDashboardController(t *testing.T) {
	_, err := NewDashboardController(ControllerDeps{}, Session{})
	assert.Error(t, err)

	ctrl, err := NewDashboardController(ControllerDeps{
		API:      new(apiMock),
		Notifier: new(notifierMock),
		Logger:   new(loggerMock),
		Parent:   Parent{ID: "p-1"},
	}, Session{})
	require.NoError(t, err)

	sess := ctrl.Session()
	assert.Equal(t, "p-1", sess.ParentID)
	assert.Equal(t, StatusReady, sess.Status)
	assert.False(t, sess.Loaded)
}

type valueNotifier struct{}

func (valueNotifier) Success(string) {}
func (valueNotifier) Error(string)   {}

type valueLogger struct{}

func (valueLogger) Debug(string, ...interface{}) {}
func (valueLogger) Info(string, ...interface{})  {}
func (valueLogger) Warn(string, ...interface{})  {}
func (valueLogger) Error(string, ...interface{}) {}
func (valueLogger) Fatal(string, ...interface{}) {}

func TestControllerDeps_check(t *testing.T) {
	tests := []struct {
		name    string
		deps    ControllerDeps
		wantErr bool
	}{
		{name: "empty", deps: ControllerDeps{}, wantErr: true},
		{name: "nil pointer API", deps: ControllerDeps{API: (*apiMock)(nil), Notifier: valueNotifier{}, Logger: valueLogger{}}, wantErr: true},
		{name: "missing notifier", deps: ControllerDeps{API: new(apiMock), Logger: valueLogger{}}, wantErr: true},
		{name: "value types", deps: ControllerDeps{API: new(apiMock), Notifier: valueNotifier{}, Logger: valueLogger{}}},
		{name: "pointer types", deps: ControllerDeps{API: new(apiMock), Notifier: new(notifierMock), Logger: new(loggerMock)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := NewDashboardController(tc.deps, Session{})
				assert.Equal(t, tc.wantErr, err != nil)

				_, err = NewChildrenController(tc.deps)
				assert.Equal(t, tc.wantErr, err != nil)
			})
		})
	}
}

func TestDashboardController_Load(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = time.Now }()

	t.Run("selects the first child", func(t *testing.T) {
		fx := newDashboardFixture(t, &apiMock{
			children: twoChildren(),
			overview: []GradeOverview{{ChildName: "A", Subject: "Math", Grade: "A"}},
		}, Session{})

		require.NoError(t, fx.ctrl.Load(context.Background()))

		sess := fx.ctrl.Session()
		assert.Equal(t, StatusReady, sess.Status)
		assert.True(t, sess.Loaded)
		assert.Len(t, sess.Children, 2)
		assert.Equal(t, 1, sess.SelectedChildID)
		assert.Equal(t, "STU2", sess.Children[1].StudentID)
		assert.Equal(t, fixed, sess.UpdatedAt)

		require.Len(t, fx.states, 2)
		assert.Equal(t, StatusLoading, fx.states[0].Status)
		assert.Equal(t, StatusReady, fx.states[1].Status)
		assert.Empty(t, fx.notifier.errors)
	})

	t.Run("keeps a still listed selection", func(t *testing.T) {
		fx := newDashboardFixture(t, &apiMock{children: twoChildren()}, Session{HasSelection: true, SelectedChildID: 2})

		require.NoError(t, fx.ctrl.Load(context.Background()))
		assert.Equal(t, 2, fx.ctrl.Session().SelectedChildID)
	})

	t.Run("no children, no selection", func(t *testing.T) {
		fx := newDashboardFixture(t, new(apiMock), Session{})

		require.NoError(t, fx.ctrl.Load(context.Background()))
		sess := fx.ctrl.Session()
		assert.Empty(t, sess.Children)
		assert.False(t, sess.HasSelection)
		assert.Zero(t, sess.SelectedChildID)
		_, ok := sess.SelectedChild()
		assert.False(t, ok)
		assert.Equal(t, StatusReady, sess.Status)
	})

	t.Run("fetch failure on first load", func(t *testing.T) {
		fx := newDashboardFixture(t, &apiMock{fetchErr: errors.New("connection refused")}, Session{})

		err := fx.ctrl.Load(context.Background())
		require.Error(t, err)

		sess := fx.ctrl.Session()
		assert.Equal(t, StatusReady, sess.Status)
		assert.Empty(t, sess.Children)
		assert.Equal(t, []string{msgLoadDashboardFailed}, fx.notifier.errors)
		assert.Len(t, fx.logger.errors, 1)
	})

	t.Run("fetch failure keeps previous children", func(t *testing.T) {
		prev := Session{
			Status:          StatusReady,
			Loaded:          true,
			Children:        MapChildren(twoChildren()),
			HasSelection:    true,
			SelectedChildID: 2,
		}
		fx := newDashboardFixture(t, &apiMock{fetchErr: errors.New("boom")}, prev)

		require.Error(t, fx.ctrl.Load(context.Background()))

		sess := fx.ctrl.Session()
		assert.Equal(t, []int{1, 2}, childIDs(sess.Children))
		assert.Equal(t, 2, sess.SelectedChildID)
		assert.Equal(t, StatusReady, sess.Status)
		assert.Len(t, fx.notifier.errors, 1)
	})

	t.Run("failed reload after a successful load", func(t *testing.T) {
		api := &apiMock{children: twoChildren()}
		fx := newDashboardFixture(t, api, Session{})
		require.NoError(t, fx.ctrl.Load(context.Background()))
		require.NoError(t, fx.ctrl.Select(2))

		api.fetchErr = errors.New("connection reset")
		require.Error(t, fx.ctrl.Load(context.Background()))

		sess := fx.ctrl.Session()
		assert.True(t, sess.Loaded)
		assert.Equal(t, StatusReady, sess.Status)
		assert.Equal(t, []int{1, 2}, childIDs(sess.Children))
		assert.Equal(t, 2, sess.SelectedChildID)
		assert.Equal(t, []string{msgLoadDashboardFailed}, fx.notifier.errors)
	})

	t.Run("first child has id 0", func(t *testing.T) {
		fx := newDashboardFixture(t, &apiMock{children: []BackendChild{{ID: 0, Name: "Z"}, {ID: 5, Name: "F"}}}, Session{})

		require.NoError(t, fx.ctrl.Load(context.Background()))

		sess := fx.ctrl.Session()
		assert.True(t, sess.HasSelection)
		assert.Equal(t, 0, sess.SelectedChildID)
		child, ok := sess.SelectedChild()
		require.True(t, ok)
		assert.Equal(t, "Z", child.Name)

		require.NoError(t, fx.ctrl.Load(context.Background()))
		assert.Equal(t, 0, fx.ctrl.Session().SelectedChildID)
		assert.Empty(t, fx.logger.errors)
	})

	t.Run("selection missing after reload", func(t *testing.T) {
		fx := newDashboardFixture(t, &apiMock{children: twoChildren()}, Session{HasSelection: true, SelectedChildID: 9})

		err := fx.ctrl.Load(context.Background())
		require.Error(t, err)
		assert.Equal(t, ErrSelectionLost, errors.Cause(err))
		assert.Equal(t, 1, fx.ctrl.Session().SelectedChildID)
		assert.Len(t, fx.logger.errors, 1)
		assert.Empty(t, fx.notifier.errors)
	})
}

func TestDashboardController_Select(t *testing.T) {
	fx := newDashboardFixture(t, &apiMock{children: twoChildren()}, Session{})
	require.NoError(t, fx.ctrl.Load(context.Background()))

	require.NoError(t, fx.ctrl.Select(2))
	assert.Equal(t, 2, fx.ctrl.Session().SelectedChildID)

	err := fx.ctrl.Select(42)
	require.Error(t, err)
	assert.Equal(t, ErrChildNotFound, errors.Cause(err))
	assert.Equal(t, 2, fx.ctrl.Session().SelectedChildID)
}

func TestDashboardController_LinkChild(t *testing.T) {
	req := LinkChildRequest{StudentID: 3, StudentEmail: "c@school.cd", StudentPhone: "555"}
	linked := LinkChildResponse{
		BackendChild: BackendChild{ID: 3, Name: "C", Grade: "Grade 1", School: "Lycée Bosangani"},
		StudentEmail: "c@school.cd",
		StudentPhone: "555",
	}

	loaded := func(t *testing.T, api *apiMock) *dashboardFixture {
		fx := newDashboardFixture(t, api, Session{})
		require.NoError(t, fx.ctrl.Load(context.Background()))
		fx.states = nil
		return fx
	}

	t.Run("appends, selects then reconciles", func(t *testing.T) {
		fx := loaded(t, &apiMock{children: twoChildren(), linkResp: linked, linkOnLink: true})

		child, err := fx.ctrl.LinkChild(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 3, child.ID)
		assert.Equal(t, "STU3", child.StudentID)
		assert.Equal(t, req, fx.api.lastLinkReq)

		// optimistic state, before the reload
		require.NotEmpty(t, fx.states)
		assert.Equal(t, []int{1, 2, 3}, childIDs(fx.states[0].Children))
		assert.Equal(t, 3, fx.states[0].SelectedChildID)

		sess := fx.ctrl.Session()
		assert.Equal(t, []int{1, 2, 3}, childIDs(sess.Children))
		assert.Equal(t, 3, sess.SelectedChildID)
		assert.Equal(t, StatusReady, sess.Status)

		assert.Equal(t, []string{msgLinkSucceeded}, fx.notifier.successes)
		assert.Empty(t, fx.notifier.errors)
	})

	t.Run("reload without the linked child", func(t *testing.T) {
		fx := loaded(t, &apiMock{children: twoChildren(), linkResp: linked})

		_, err := fx.ctrl.LinkChild(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 3}, childIDs(fx.states[0].Children))
		sess := fx.ctrl.Session()
		assert.Equal(t, []int{1, 2}, childIDs(sess.Children))
		assert.Equal(t, 1, sess.SelectedChildID)
		assert.Len(t, fx.logger.errors, 1)
	})

	t.Run("already listed child is not duplicated", func(t *testing.T) {
		resp := LinkChildResponse{BackendChild: twoChildren()[1]}
		fx := loaded(t, &apiMock{children: twoChildren(), linkResp: resp})

		_, err := fx.ctrl.LinkChild(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, childIDs(fx.states[0].Children))
		assert.Equal(t, 2, fx.ctrl.Session().SelectedChildID)
	})

	t.Run("sends a confirmation mail", func(t *testing.T) {
		fx := loaded(t, &apiMock{children: twoChildren(), linkResp: linked})

		_, err := fx.ctrl.LinkChild(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, fx.emails.sent, 1)
		msg := fx.emails.sent[0]
		assert.Equal(t, "child_linked", msg.TemplateName)
		assert.Equal(t, "nzuzi@example.com", msg.To[0].Address)
		assert.Equal(t, "C", msg.TemplateData.(map[string]string)["ChildName"])
	})

	failures := []struct {
		name    string
		linkErr error
		wantMsg string
	}{
		{name: "server message", linkErr: apiError{msg: "Student not found"}, wantMsg: "Student not found"},
		{name: "empty server message", linkErr: apiError{}, wantMsg: msgLinkFailed},
		{name: "transport error", linkErr: errors.New("dial tcp: connection refused"), wantMsg: msgLinkFailed},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			fx := loaded(t, &apiMock{children: twoChildren(), linkErr: tt.linkErr})
			fetches := fx.api.fetchCalls

			_, err := fx.ctrl.LinkChild(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tt.linkErr, errors.Cause(err))

			assert.Equal(t, []string{tt.wantMsg}, fx.notifier.errors)
			assert.Empty(t, fx.notifier.successes)
			assert.Empty(t, fx.emails.sent)
			assert.Empty(t, fx.states)
			assert.Equal(t, fetches, fx.api.fetchCalls, "no reload")

			sess := fx.ctrl.Session()
			assert.Equal(t, []int{1, 2}, childIDs(sess.Children))
			assert.Equal(t, 1, sess.SelectedChildID)
		})
	}
}

func TestDashboardController_View(t *testing.T) {
	fx := newDashboardFixture(t, &apiMock{
		children: twoChildren(),
		overview: []GradeOverview{
			{ChildName: "A", Subject: "Math", Grade: "A"},
			{ChildName: "B", Subject: "Math", Grade: "B"},
		},
	}, Session{})

	view := fx.ctrl.View()
	assert.Nil(t, view.Selected)

	require.NoError(t, fx.ctrl.Load(context.Background()))
	require.NoError(t, fx.ctrl.Select(2))

	view = fx.ctrl.View()
	assert.Equal(t, StatusReady, view.Status)
	require.NotNil(t, view.Selected)
	assert.Equal(t, 2, view.Selected.Child.ID)
	assert.Equal(t, []GradeOverview{{ChildName: "B", Subject: "Math", Grade: "B"}}, view.Selected.GradesOverview)
	assert.Equal(t, sampleAssessments, view.Selected.Assessments)
	assert.Equal(t, sampleSubmissions, view.Selected.Submissions)
	assert.Equal(t, sampleGrades, view.Selected.Grades)
	assert.Equal(t, view.Selected.GradesOverview, fx.ctrl.GradesFor(view.Selected.Child))
}
