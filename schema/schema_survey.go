package schema

import "time"

// Answer is one 5-point scale answer.
type Answer struct {
	Question int `json:"questionNumber" validate:"required,gt=0"`
	Score    int `json:"score" validate:"min=1,max=5"`
}

// PeerAnswer is one executive rating of another department.
type PeerAnswer struct {
	Question int        `json:"questionNumber" validate:"required,gt=0"`
	Target   Department `json:"department" validate:"required,department"`
	Score    int        `json:"score" validate:"min=1,max=5"`
}

// TextAnswer is one free-text answer.
type TextAnswer struct {
	Question int    `json:"questionNumber" validate:"required,gt=0"`
	Text     string `json:"responseText" validate:"max=4000"`
}

// Submission is a complete survey response by one user.
type Submission struct {
	Department          Department   `json:"department" validate:"required,department"`
	Position            Position     `json:"position" validate:"required,position"`
	OwnAnswers          []Answer     `json:"ownDeptAnswers" validate:"dive"`
	PeerAnswers         []PeerAnswer `json:"otherDeptAnswers" validate:"dive"`
	OrganizationAnswers []Answer     `json:"managementAnswers" validate:"dive"`
	TextAnswers         []TextAnswer `json:"textAnswers" validate:"dive"`
}

// User is a survey account.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	IsAdmin      bool       `json:"isAdmin"`
	HasCompleted bool       `json:"hasCompleted"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Session is a logged-in browser session.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TextResponse is a stored free-text answer.
type TextResponse struct {
	Question  int       `json:"questionNumber"`
	Text      string    `json:"questionText"`
	Response  string    `json:"responseText"`
	CreatedAt time.Time `json:"createdAt"`
}

// KeywordCount is one keyword with its frequency.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// QuestionKeywords is the keyword list of one free-text question.
type QuestionKeywords struct {
	Question int            `json:"questionNumber"`
	Text     string         `json:"questionText"`
	Keywords []KeywordCount `json:"keywords"`
}

// ResponseRate is a total/completed pair with its percentage.
type ResponseRate struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"`
}

// DepartmentResponseRate is a ResponseRate for one department.
type DepartmentResponseRate struct {
	Department string `json:"department"`
	ResponseRate
}

// ResponseStats summarizes survey participation.
type ResponseStats struct {
	Overall      ResponseRate             `json:"overall"`
	ByDepartment []DepartmentResponseRate `json:"byDepartment"`
}

// AnalysisRecord is a cached narrative report.
type AnalysisRecord struct {
	AnalysisType AnalysisType `json:"analysis_type"`
	TargetKey    *string      `json:"target_key"`
	Content      string       `json:"analysis_content"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// CellIncrement adds one answer to a department cell.
type CellIncrement struct {
	Department Department
	Kind       SlotKind
	Question   int // Own-department question number or peer slot
	Score      int
}

// OrganizationIncrement adds one answer to an organization-wide cell.
type OrganizationIncrement struct {
	Question int
	Score    int
}

// SubmissionPlan is the validated list of writes derived from a Submission.
type SubmissionPlan struct {
	Cells         []CellIncrement
	Organization  []OrganizationIncrement
	TextResponses []TextResponse
}
