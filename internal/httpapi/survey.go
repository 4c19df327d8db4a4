package httpapi

import (
	"net/http"

	"github.com/jaajung-kjs/kepco-survey/schema"
)

// questionSections maps the ?type= values of the question listing to catalog sections.
var questionSections = map[string]schema.Section{
	"own-dept":   schema.OwnDepartmentSection,
	"other-dept": schema.PeerDepartmentSection,
	"management": schema.OrganizationSection,
	"opinion":    schema.GeneralOpinionSection,
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	section, ok := questionSections[r.URL.Query().Get("type")]
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid question type")
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.QuestionsBySection(section))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFrom(r.Context())

	var sub schema.Submission
	if err := decodeJSON(r, &sub); err != nil {
		s.metrics.submission(err)
		s.writeError(w, r, err)
		return
	}

	err := s.submissions.Submit(r.Context(), session.UserID, sub)
	s.metrics.submission(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}
