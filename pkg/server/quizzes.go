package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/mdobak/go-xerrors"

	"tutorkit/pkg/auth"
	"tutorkit/pkg/quiz"
	"tutorkit/pkg/store"
)

// questionView is a question as shown to the student, without the
// answer or explanation.
type questionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func (s *Server) createQuizHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r)

	subjectID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	var payload struct {
		TopicID int64 `json:"topic_id"`
	}
	if err := s.readJSON(w, r, &payload); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	if payload.TopicID < 1 {
		s.badRequestResponse(w, r, xerrors.New("topic_id must be provided"))
		return
	}

	confidence, err := s.progress.Confidence(claims.UserID, payload.TopicID)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}

	generated, err := s.quizzes.Generate(r.Context(), subjectID, payload.TopicID, confidence)
	switch {
	case errors.Is(err, store.ErrTopicNotFound):
		s.notFoundResponse(w, r)
		return
	case errors.Is(err, quiz.ErrNoContent):
		s.errorResponse(w, r, http.StatusUnprocessableEntity, "no books have been ingested for this subject yet", err)
		return
	case errors.Is(err, quiz.ErrMalformedResponse):
		s.errorResponse(w, r, http.StatusBadGateway, "the model did not return a usable quiz, try again", err)
		return
	case err != nil:
		s.internalErrorResponse(w, r, err)
		return
	}

	s.mu.Lock()
	now := time.Now()
	for id, active := range s.activeQuizzes {
		if now.Sub(active.created) > activeQuizTTL {
			delete(s.activeQuizzes, id)
		}
	}
	s.activeQuizzes[generated.ID] = &activeQuiz{quiz: generated, studentID: claims.UserID, created: now}
	s.mu.Unlock()

	questions := make([]questionView, 0, len(generated.Questions))
	for _, question := range generated.Questions {
		questions = append(questions, questionView{Question: question.Question, Options: question.Options})
	}
	s.writeJSON(w, http.StatusCreated, envelope{
		"quiz_id":    generated.ID,
		"topic_id":   generated.TopicID,
		"topic_name": generated.TopicName,
		"confidence": confidence,
		"questions":  questions,
	})
}

func (s *Server) submitQuizHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r)
	quizID := pathParam(r, "id")

	var payload struct {
		Answers   []string `json:"answers"`
		TimeTaken int      `json:"time_taken_seconds"`
	}
	if err := s.readJSON(w, r, &payload); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	s.mu.Lock()
	active, ok := s.activeQuizzes[quizID]
	if ok && time.Since(active.created) > activeQuizTTL {
		delete(s.activeQuizzes, quizID)
		ok = false
	}
	if !ok || active.studentID != claims.UserID {
		s.mu.Unlock()
		s.notFoundResponse(w, r)
		return
	}
	questions := active.quiz.Questions
	if len(payload.Answers) != len(questions) {
		// The quiz stays active so the student can resubmit.
		s.mu.Unlock()
		s.badRequestResponse(w, r, xerrors.Newf("expected %d answers, got %d", len(questions), len(payload.Answers)))
		return
	}
	delete(s.activeQuizzes, quizID)
	s.mu.Unlock()

	score := quiz.Grade(questions, payload.Answers)
	updated, err := s.progress.RecordQuizResult(claims.UserID, active.quiz.TopicID, score, len(questions), payload.TimeTaken)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}

	type gradedQuestion struct {
		Question    string `json:"question"`
		Answer      string `json:"answer"`
		Explanation string `json:"explanation"`
		Correct     bool   `json:"correct"`
	}
	graded := make([]gradedQuestion, 0, len(questions))
	for i, question := range questions {
		graded = append(graded, gradedQuestion{
			Question:    question.Question,
			Answer:      question.Answer,
			Explanation: question.Explanation,
			Correct:     quiz.AnswerLetter(payload.Answers[i]) == quiz.AnswerLetter(question.Answer),
		})
	}

	s.writeJSON(w, http.StatusOK, envelope{
		"score":      score,
		"total":      len(questions),
		"confidence": updated.ConfidenceScore,
		"attempts":   updated.Attempts,
		"questions":  graded,
	})
}

func (s *Server) progressHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r)

	subjectID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	summary, err := s.progress.Summarize(claims.UserID, subjectID)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"progress": summary})
}

func (s *Server) nextTopicHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r)

	subjectID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	next, err := s.progress.NextTopic(claims.UserID, subjectID)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"next_topic": next})
}

func (s *Server) quizHistoryHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r)

	topicID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	history, err := s.repo.GetQuizHistory(claims.UserID, topicID)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"history": history})
}

func (s *Server) insightsHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r)

	insights, err := s.progress.TeacherInsights(claims.UserID, 0)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"insights": insights})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := envelope{"daemon": envelope{"running": false}}

	version, err := s.runtime.Version(r.Context())
	if err == nil {
		daemon := envelope{"running": true, "version": version}
		models, err := s.runtime.ListModels(r.Context())
		if err != nil {
			// The daemon answers but cannot list models yet.
			s.log.Warnf("listing models for status: %v", err)
			daemon["degraded"] = true
		} else {
			names := make([]string, 0, len(models))
			for _, model := range models {
				names = append(names, model.Name)
			}
			status["models"] = names
		}
		status["daemon"] = daemon
	}

	s.writeJSON(w, http.StatusOK, status)
}
