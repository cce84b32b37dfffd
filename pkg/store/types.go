package store

import (
	"database/sql"
	"time"
)

// Role values for users.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User is a registered teacher or student.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	FullName     string    `db:"full_name" json:"full_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Subject is a course owned by a teacher.
type Subject struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	TeacherID   int64     `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	// TeacherName is populated on listing joins only.
	TeacherName string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// Module is an ordered section of a subject.
type Module struct {
	ID          int64     `db:"id" json:"id"`
	SubjectID   int64     `db:"subject_id" json:"subject_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	OrderIndex  int       `db:"order_index" json:"order_index"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Topic is an ordered unit within a module. Quizzes and progress are tracked
// per topic.
type Topic struct {
	ID          int64     `db:"id" json:"id"`
	ModuleID    int64     `db:"module_id" json:"module_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	OrderIndex  int       `db:"order_index" json:"order_index"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Book is an uploaded source document attached to a subject.
type Book struct {
	ID            int64     `db:"id" json:"id"`
	SubjectID     int64     `db:"subject_id" json:"subject_id"`
	Title         string    `db:"title" json:"title"`
	Author        string    `db:"author" json:"author"`
	FilePath      string    `db:"file_path" json:"file_path"`
	ContentDigest string    `db:"content_digest" json:"-"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	UploadedAt    time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// StudentProgress tracks a student's confidence for one topic.
type StudentProgress struct {
	ID              int64        `db:"id" json:"id"`
	StudentID       int64        `db:"student_id" json:"student_id"`
	TopicID         int64        `db:"topic_id" json:"topic_id"`
	ConfidenceScore float64      `db:"confidence_score" json:"confidence_score"`
	Attempts        int          `db:"attempts" json:"attempts"`
	LastQuizDate    sql.NullTime `db:"last_quiz_date" json:"-"`
	TotalQuestions  int          `db:"total_questions" json:"total_questions"`
	CorrectAnswers  int          `db:"correct_answers" json:"correct_answers"`
}

// QuizRecord is one completed quiz in the history.
type QuizRecord struct {
	ID             int64     `db:"id" json:"id"`
	StudentID      int64     `db:"student_id" json:"student_id"`
	TopicID        int64     `db:"topic_id" json:"topic_id"`
	Score          int       `db:"score" json:"score"`
	TotalQuestions int       `db:"total_questions" json:"total_questions"`
	QuizDate       time.Time `db:"quiz_date" json:"quiz_date"`
	TimeTaken      int       `db:"time_taken" json:"time_taken"`
}

// TopicInsight aggregates class performance on a topic for teacher review.
type TopicInsight struct {
	TopicName     string  `db:"topic_name" json:"topic_name"`
	ModuleName    string  `db:"module_name" json:"module_name"`
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	AvgConfidence float64 `db:"avg_confidence" json:"avg_confidence"`
	StudentCount  int     `db:"student_count" json:"student_count"`
}
