package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrProgressNotFound is returned when a student has no progress record for
// a topic yet.
var ErrProgressNotFound = errors.New("no progress recorded for topic")

// GetStudentProgress retrieves a student's progress for a specific topic.
func (repo *Repository) GetStudentProgress(studentID, topicID int64) (*StudentProgress, error) {
	var progress StudentProgress
	query := `SELECT id, student_id, topic_id, confidence_score, attempts,
	                 last_quiz_date, total_questions, correct_answers
	          FROM student_progress
	          WHERE student_id = ? AND topic_id = ?`

	if err := repo.dbConn.Get(&progress, query, studentID, topicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("retrieving progress for student %d topic %d: %w", studentID, topicID, err)
	}
	return &progress, nil
}

// RecordQuizOutcome appends a completed quiz to the history and writes the
// student's updated progress for the topic in one transaction, so the two
// tables cannot get out of step. The progress record is created on the
// first attempt and replaced afterwards.
func (repo *Repository) RecordQuizOutcome(record *QuizRecord, progress *StudentProgress) error {
	if record.QuizDate.IsZero() {
		record.QuizDate = time.Now().UTC()
	}

	tx, err := repo.dbConn.Beginx()
	if err != nil {
		return fmt.Errorf("starting quiz outcome for student %d topic %d: %w", record.StudentID, record.TopicID, err)
	}
	defer tx.Rollback()

	historyQuery := `INSERT INTO quiz_history (student_id, topic_id, score, total_questions, quiz_date, time_taken)
	          VALUES (?, ?, ?, ?, ?, ?)`
	_, err = tx.Exec(historyQuery,
		record.StudentID, record.TopicID, record.Score, record.TotalQuestions, record.QuizDate, record.TimeTaken)
	if err != nil {
		return fmt.Errorf("recording quiz for student %d topic %d: %w", record.StudentID, record.TopicID, err)
	}

	progressQuery := `INSERT INTO student_progress
	            (student_id, topic_id, confidence_score, attempts, last_quiz_date, total_questions, correct_answers)
	          VALUES (?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT(student_id, topic_id) DO UPDATE SET
	            confidence_score = excluded.confidence_score,
	            attempts = excluded.attempts,
	            last_quiz_date = excluded.last_quiz_date,
	            total_questions = excluded.total_questions,
	            correct_answers = excluded.correct_answers`
	_, err = tx.Exec(progressQuery,
		progress.StudentID, progress.TopicID, progress.ConfidenceScore, progress.Attempts,
		progress.LastQuizDate, progress.TotalQuestions, progress.CorrectAnswers)
	if err != nil {
		return fmt.Errorf("upserting progress for student %d topic %d: %w", progress.StudentID, progress.TopicID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing quiz outcome for student %d topic %d: %w", record.StudentID, record.TopicID, err)
	}
	return nil
}

// TopicConfidence pairs a topic with a student's confidence, defaulting to
// 0.5 for topics not yet attempted.
type TopicConfidence struct {
	TopicID    int64   `db:"topic_id" json:"topic_id"`
	TopicName  string  `db:"topic_name" json:"topic_name"`
	Confidence float64 `db:"confidence" json:"confidence"`
	Attempts   int     `db:"attempts" json:"attempts"`
}

// GetSubjectTopicConfidences returns every topic of a subject with the
// student's confidence, in module and topic order. Unattempted topics carry
// the neutral starting confidence.
func (repo *Repository) GetSubjectTopicConfidences(studentID, subjectID int64) ([]*TopicConfidence, error) {
	var confidences []*TopicConfidence
	query := `SELECT t.id AS topic_id, t.name AS topic_name,
	                 COALESCE(sp.confidence_score, 0.5) AS confidence,
	                 COALESCE(sp.attempts, 0) AS attempts
	          FROM topics t
	          JOIN modules m ON t.module_id = m.id
	          LEFT JOIN student_progress sp ON sp.topic_id = t.id AND sp.student_id = ?
	          WHERE m.subject_id = ?
	          ORDER BY m.order_index, t.order_index`

	if err := repo.dbConn.Select(&confidences, query, studentID, subjectID); err != nil {
		return nil, fmt.Errorf("retrieving topic confidences for student %d subject %d: %w", studentID, subjectID, err)
	}
	return confidences, nil
}

// GetWeakestTopicsForTeacher returns the topics where students of the given
// teacher are struggling most. Topics with fewer than minStudents attempts
// are skipped so single outliers do not dominate.
func (repo *Repository) GetWeakestTopicsForTeacher(teacherID int64, minStudents, limit int) ([]*TopicInsight, error) {
	var insights []*TopicInsight
	query := `SELECT t.name AS topic_name, m.name AS module_name, s.name AS subject_name,
	                 AVG(sp.confidence_score) AS avg_confidence,
	                 COUNT(sp.student_id) AS student_count
	          FROM student_progress sp
	          JOIN topics t ON sp.topic_id = t.id
	          JOIN modules m ON t.module_id = m.id
	          JOIN subjects s ON m.subject_id = s.id
	          WHERE s.teacher_id = ?
	          GROUP BY t.id
	          HAVING student_count >= ?
	          ORDER BY avg_confidence ASC
	          LIMIT ?`

	if err := repo.dbConn.Select(&insights, query, teacherID, minStudents, limit); err != nil {
		return nil, fmt.Errorf("retrieving insights for teacher %d: %w", teacherID, err)
	}
	return insights, nil
}

// GetQuizHistory returns a student's quiz history for a topic, most recent
// first.
func (repo *Repository) GetQuizHistory(studentID, topicID int64) ([]*QuizRecord, error) {
	var records []*QuizRecord
	query := `SELECT id, student_id, topic_id, score, total_questions, quiz_date, time_taken
	          FROM quiz_history
	          WHERE student_id = ? AND topic_id = ?
	          ORDER BY quiz_date DESC`

	if err := repo.dbConn.Select(&records, query, studentID, topicID); err != nil {
		return nil, fmt.Errorf("retrieving quiz history for student %d topic %d: %w", studentID, topicID, err)
	}
	return records, nil
}
