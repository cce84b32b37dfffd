// Package progress maintains per-topic confidence scores and turns quiz
// results into study recommendations.
package progress

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"tutorkit/pkg/logging"
	"tutorkit/pkg/store"
)

const (
	// neutralConfidence is where every student starts on a topic.
	neutralConfidence = 0.5
	// updateWeight damps confidence movement on repeat attempts.
	updateWeight = 0.1
	// firstAttemptWeight pulls the initial score toward the first
	// quiz's accuracy.
	firstAttemptWeight = 0.2

	// minStudentsForInsight keeps single struggling students from
	// dominating teacher insights.
	minStudentsForInsight = 3
	defaultInsightLimit   = 10
)

// Service applies quiz outcomes to student progress records.
type Service struct {
	log  logging.Logger
	repo *store.Repository
}

func NewService(log logging.Logger, repo *store.Repository) *Service {
	return &Service{log: log, repo: repo}
}

// RecordQuizResult stores a finished quiz and updates the student's
// confidence for the topic.
//
// The first attempt anchors confidence near neutral, shifted by the
// quiz accuracy. Later attempts nudge the existing score based on the
// cumulative accuracy across all attempts.
func (s *Service) RecordQuizResult(studentID, topicID int64, score, totalQuestions, timeTakenSeconds int) (*store.StudentProgress, error) {
	if totalQuestions <= 0 {
		return nil, errors.New("quiz must have at least one question")
	}
	if score < 0 || score > totalQuestions {
		return nil, errors.Errorf("score %d out of range for %d questions", score, totalQuestions)
	}

	record := &store.QuizRecord{
		StudentID:      studentID,
		TopicID:        topicID,
		Score:          score,
		TotalQuestions: totalQuestions,
		QuizDate:       time.Now().UTC(),
		TimeTaken:      timeTakenSeconds,
	}
	now := sql.NullTime{Time: record.QuizDate, Valid: true}

	existing, err := s.repo.GetStudentProgress(studentID, topicID)
	switch {
	case err == nil:
		total := existing.TotalQuestions + totalQuestions
		correct := existing.CorrectAnswers + score
		accuracy := neutralConfidence
		if total > 0 {
			accuracy = float64(correct) / float64(total)
		}
		existing.ConfidenceScore = clamp(existing.ConfidenceScore + (accuracy-neutralConfidence)*updateWeight)
		existing.Attempts++
		existing.LastQuizDate = now
		existing.TotalQuestions = total
		existing.CorrectAnswers = correct
		if err := s.repo.RecordQuizOutcome(record, existing); err != nil {
			return nil, err
		}
		s.log.Debugf("student %d topic %d confidence now %.3f after %d attempts",
			studentID, topicID, existing.ConfidenceScore, existing.Attempts)
		return existing, nil

	case errors.Is(err, store.ErrProgressNotFound):
		accuracy := float64(score) / float64(totalQuestions)
		created := &store.StudentProgress{
			StudentID:       studentID,
			TopicID:         topicID,
			ConfidenceScore: clamp(neutralConfidence + (accuracy-neutralConfidence)*firstAttemptWeight),
			Attempts:        1,
			LastQuizDate:    now,
			TotalQuestions:  totalQuestions,
			CorrectAnswers:  score,
		}
		if err := s.repo.RecordQuizOutcome(record, created); err != nil {
			return nil, err
		}
		return created, nil

	default:
		return nil, err
	}
}

// Confidence returns a student's confidence for a topic, defaulting to
// neutral when no quiz was taken yet.
func (s *Service) Confidence(studentID, topicID int64) (float64, error) {
	existing, err := s.repo.GetStudentProgress(studentID, topicID)
	if errors.Is(err, store.ErrProgressNotFound) {
		return neutralConfidence, nil
	}
	if err != nil {
		return 0, err
	}
	return existing.ConfidenceScore, nil
}

// NextTopic recommends the topic in a subject with the lowest confidence.
// Among equals the earlier topic in syllabus order wins.
func (s *Service) NextTopic(studentID, subjectID int64) (*store.TopicConfidence, error) {
	confidences, err := s.repo.GetSubjectTopicConfidences(studentID, subjectID)
	if err != nil {
		return nil, err
	}
	if len(confidences) == 0 {
		return nil, errors.Errorf("subject %d has no topics", subjectID)
	}

	weakest := confidences[0]
	for _, candidate := range confidences[1:] {
		if candidate.Confidence < weakest.Confidence {
			weakest = candidate
		}
	}
	return weakest, nil
}

// SubjectSummary is a student's standing across one subject.
type SubjectSummary struct {
	Topics          []*store.TopicConfidence `json:"topics"`
	AvgConfidence   float64                  `json:"avg_confidence"`
	TopicsAttempted int                      `json:"topics_attempted"`
}

// Summarize reports a student's confidence across every topic of a
// subject.
func (s *Service) Summarize(studentID, subjectID int64) (*SubjectSummary, error) {
	confidences, err := s.repo.GetSubjectTopicConfidences(studentID, subjectID)
	if err != nil {
		return nil, err
	}

	summary := &SubjectSummary{Topics: confidences}
	var total float64
	for _, topic := range confidences {
		total += topic.Confidence
		if topic.Attempts > 0 {
			summary.TopicsAttempted++
		}
	}
	if len(confidences) > 0 {
		summary.AvgConfidence = total / float64(len(confidences))
	}
	return summary, nil
}

// TeacherInsights lists the topics where a teacher's students struggle
// most.
func (s *Service) TeacherInsights(teacherID int64, limit int) ([]*store.TopicInsight, error) {
	if limit <= 0 {
		limit = defaultInsightLimit
	}
	return s.repo.GetWeakestTopicsForTeacher(teacherID, minStudentsForInsight, limit)
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
