package parent

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// studentIDPrefix is used to generate a Child's StudentID when the backend does not send one.
const studentIDPrefix = "STU"

// Parent is the authenticated account owner, as carried by the access token.
type Parent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

func (fs *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*fs = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*fs = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*fs = FlexString(n.String())
	return nil
}

// BackendChild is a child record as sent by the school API.
type BackendChild struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Grade     FlexString `json:"grade"`
	School    string     `json:"school"`
	StudentID FlexString `json:"student_id,omitempty"`
}

// Child is the view of a linked student account.
type Child struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Grade     string `json:"grade"`
	School    string `json:"school"`
	StudentID string `json:"student_id"`
}

// DefaultStudentID is the identifier shown for a child the backend sent without one.
func DefaultStudentID(id int) string {
	return studentIDPrefix + strconv.Itoa(id)
}

// MapChild maps a backend record into its view.
// StudentID falls back to DefaultStudentID; no other field is guessed.
func MapChild(bc BackendChild) Child {
	sid := string(bc.StudentID)
	if sid == "" {
		sid = DefaultStudentID(bc.ID)
	}
	return Child{
		ID:        bc.ID,
		Name:      bc.Name,
		Grade:     string(bc.Grade),
		School:    bc.School,
		StudentID: sid,
	}
}

func MapChildren(bcs []BackendChild) []Child {
	children := make([]Child, 0, len(bcs))
	for _, bc := range bcs {
		children = append(children, MapChild(bc))
	}
	return children
}

// GradeOverview is a per-subject (or summary) grade of a child.
// It references its child by display name only.
type GradeOverview struct {
	ChildName string     `json:"child_name"`
	Subject   string     `json:"subject"`
	Grade     FlexString `json:"grade"`
}

// DashboardPayload is the school API's parent dashboard.
type DashboardPayload struct {
	Children       []BackendChild  `json:"children"`
	GradesOverview []GradeOverview `json:"grades_overview"`
}

// LinkChildRequest asks the school API to link a student account to the parent.
type LinkChildRequest struct {
	StudentID    int    `json:"student_id"`
	StudentEmail string `json:"student_email"`
	StudentPhone string `json:"student_phone"`
}

// LinkChildResponse is the linked child's profile plus the submitted contact details.
type LinkChildResponse struct {
	BackendChild
	StudentEmail string `json:"student_email"`
	StudentPhone string `json:"student_phone"`
}

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
)

// Session is the page state of one parent, kept between requests.
type Session struct {
	ParentID        string          `json:"parent_id"`
	Status          Status          `json:"status"`
	Loaded          bool            `json:"loaded"`
	Children        []Child         `json:"children"`
	GradesOverview  []GradeOverview `json:"grades_overview"`
	HasSelection    bool            `json:"has_selection"`
	SelectedChildID int             `json:"selected_child_id"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Child returns the child with the given id.
func (s Session) Child(id int) (Child, bool) {
	for _, c := range s.Children {
		if c.ID == id {
			return c, true
		}
	}
	return Child{}, false
}

// SelectedChild returns the selected child, if any.
func (s Session) SelectedChild() (Child, bool) {
	if !s.HasSelection {
		return Child{}, false
	}
	return s.Child(s.SelectedChildID)
}

func (s *Session) selectChild(id int) {
	s.HasSelection = true
	s.SelectedChildID = id
}

func (s *Session) clearSelection() {
	s.HasSelection = false
	s.SelectedChildID = 0
}

func (s Session) clone() Session {
	cp := s
	cp.Children = append([]Child(nil), s.Children...)
	cp.GradesOverview = append([]GradeOverview(nil), s.GradesOverview...)
	return cp
}
