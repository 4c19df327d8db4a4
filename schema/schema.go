// Package schema has configs, models and the question catalog for all parts of kepco-survey.
package schema

// Cell is a running (sum, count) accumulator for one question.
type Cell struct {
	Sum   int64 `json:"sum"`
	Count int64 `json:"count"`
}

// Average returns Sum/Count, or 0 when nobody answered.
func (c Cell) Average() float64 {
	if c.Count == 0 {
		return 0
	}
	return float64(c.Sum) / float64(c.Count)
}

// DepartmentAccumulator holds every own-department and peer cell of one department.
type DepartmentAccumulator struct {
	Department Department   `json:"department"`
	Own        map[int]Cell `json:"own"`  // Keyed by own-department question number
	Peer       map[int]Cell `json:"peer"` // Keyed by peer slot
}

// OrganizationAccumulator is the singleton row of organization-wide cells.
type OrganizationAccumulator struct {
	Cells map[int]Cell `json:"cells"` // Keyed by organization-wide question number
}

// EvaluationScore is the derived result of one department in one category.
type EvaluationScore struct {
	Category        Category `json:"evaluationType"`
	OwnAverage      float64  `json:"ownScore"`
	PeerAverage     *float64 `json:"otherScore"`
	FinalScore      float64  `json:"finalScore"`
	Difference      *float64 `json:"difference"`
	Rank            *int     `json:"rank,omitempty"`
	HasOwnScore     bool     `json:"hasOwnScore"`
	HasPeerScore    bool     `json:"hasOtherScore"`
	OwnRespondents  int64    `json:"ownRespondents"`
	PeerRespondents int64    `json:"otherRespondents"`
}

// DepartmentScore is the derived result of one department across all categories.
type DepartmentScore struct {
	Department     Department        `json:"department"`
	Scores         []EvaluationScore `json:"scores"`
	OverallAverage float64           `json:"overallAverage"`
	OverallRank    *int              `json:"overallRank,omitempty"`
}

// Score returns the category entry, or false if absent.
func (d DepartmentScore) Score(category Category) (EvaluationScore, bool) {
	for _, s := range d.Scores {
		if s.Category == category {
			return s, true
		}
	}
	return EvaluationScore{}, false
}

// QuestionScore is the per-question detail of one department, or of the organization.
type QuestionScore struct {
	Number         int      `json:"questionNumber"`
	Text           string   `json:"questionText"`
	Category       Category `json:"evaluationType,omitempty"`
	Average        float64  `json:"avgScore"`
	Respondents    int64    `json:"respondents"`
	Rank           *int     `json:"rank"`
	OverallAverage float64  `json:"overallAverage"`
}

// CategoryScore is an organization-wide category average with its questions.
type CategoryScore struct {
	Category    Category        `json:"evaluationType"`
	Average     float64         `json:"average"`
	Respondents int64           `json:"respondents"`
	HasScore    bool            `json:"hasScore"`
	Questions   []QuestionScore `json:"questions"`
}

// DepartmentDetail bundles the single-department view.
type DepartmentDetail struct {
	Score         DepartmentScore `json:"score"`
	Questions     []QuestionScore `json:"questions"`
	PeerQuestions []QuestionScore `json:"otherQuestions"`
}

// OrganizationDetail bundles the organization-wide view.
type OrganizationDetail struct {
	Scores        []CategoryScore `json:"scores"`
	TextResponses []TextResponse  `json:"textResponses"`
}
