package parent

// Assessment, Submission & Grade are sample data: the dashboard widgets show the same rows whichever
// child is selected.
type (
	Assessment struct {
		ID       int     `json:"id"`
		Title    string  `json:"title"`
		Subject  string  `json:"subject"`
		DueDate  string  `json:"due_date"`
		Status   string  `json:"status"`
		Score    float64 `json:"score,omitempty"`
		MaxScore float64 `json:"max_score"`
	}

	Submission struct {
		ID          int    `json:"id"`
		Assignment  string `json:"assignment"`
		Subject     string `json:"subject"`
		SubmittedAt string `json:"submitted_at"`
		Status      string `json:"status"`
		Feedback    string `json:"feedback,omitempty"`
	}

	Grade struct {
		Subject string `json:"subject"`
		Term    string `json:"term"`
		Score   int    `json:"score"`
		Letter  string `json:"letter"`
	}
)

var (
	sampleAssessments = []Assessment{
		{ID: 1, Title: "Algebra Quiz", Subject: "Mathematics", DueDate: "2024-03-15", Status: "completed", Score: 85, MaxScore: 100},
		{ID: 2, Title: "Science Project", Subject: "Science", DueDate: "2024-03-20", Status: "pending", MaxScore: 50},
		{ID: 3, Title: "Essay Writing", Subject: "English", DueDate: "2024-03-18", Status: "completed", Score: 42, MaxScore: 50},
		{ID: 4, Title: "History Test", Subject: "History", DueDate: "2024-03-25", Status: "upcoming", MaxScore: 100},
	}

	sampleSubmissions = []Submission{
		{ID: 1, Assignment: "Algebra Homework 5", Subject: "Mathematics", SubmittedAt: "2024-03-10", Status: "graded", Feedback: "Good work on factoring."},
		{ID: 2, Assignment: "Lab Report: Photosynthesis", Subject: "Science", SubmittedAt: "2024-03-12", Status: "submitted"},
		{ID: 3, Assignment: "Book Review", Subject: "English", SubmittedAt: "2024-03-08", Status: "late", Feedback: "Submitted two days after the deadline."},
	}

	sampleGrades = []Grade{
		{Subject: "Mathematics", Term: "Term 1", Score: 88, Letter: "B+"},
		{Subject: "Science", Term: "Term 1", Score: 92, Letter: "A-"},
		{Subject: "English", Term: "Term 1", Score: 79, Letter: "C+"},
		{Subject: "History", Term: "Term 1", Score: 85, Letter: "B"},
	}
)

// GradesOverview keeps the entries of the named child (exact display-name match).
// Two children sharing a name see each other's entries.
func GradesOverview(overview []GradeOverview, childName string) []GradeOverview {
	grades := make([]GradeOverview, 0)
	for _, g := range overview {
		if g.ChildName == childName {
			grades = append(grades, g)
		}
	}
	return grades
}

// AssessmentTracking ignores childID.
func AssessmentTracking(childID int) []Assessment {
	return append([]Assessment(nil), sampleAssessments...)
}

// SubmissionsView ignores childID.
func SubmissionsView(childID int) []Submission {
	return append([]Submission(nil), sampleSubmissions...)
}

// GradesTable ignores childID.
func GradesTable(childID int) []Grade {
	return append([]Grade(nil), sampleGrades...)
}

// ChildView is the detail panel of one child.
type ChildView struct {
	Child          Child           `json:"child"`
	GradesOverview []GradeOverview `json:"grades_overview"`
	Grades         []Grade         `json:"grades"`
	Assessments    []Assessment    `json:"assessments"`
	Submissions    []Submission    `json:"submissions"`
}

func NewChildView(sess Session, child Child) ChildView {
	return ChildView{
		Child:          child,
		GradesOverview: GradesOverview(sess.GradesOverview, child.Name),
		Grades:         GradesTable(child.ID),
		Assessments:    AssessmentTracking(child.ID),
		Submissions:    SubmissionsView(child.ID),
	}
}

// DashboardView is the whole dashboard page.
type DashboardView struct {
	Status   Status     `json:"status"`
	Children []Child    `json:"children"`
	Selected *ChildView `json:"selected,omitempty"`
}

func NewDashboardView(sess Session) DashboardView {
	view := DashboardView{
		Status:   sess.Status,
		Children: append([]Child{}, sess.Children...),
	}
	if child, ok := sess.SelectedChild(); ok {
		cv := NewChildView(sess, child)
		view.Selected = &cv
	}
	return view
}
