package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSubjectNotFound is returned when no subject matches the lookup.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrModuleNotFound is returned when no module matches the lookup.
	ErrModuleNotFound = errors.New("module not found")
	// ErrTopicNotFound is returned when no topic matches the lookup.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrBookNotFound is returned when no book matches the lookup.
	ErrBookNotFound = errors.New("book not found")
	// ErrNotSubjectOwner is returned when a teacher operates on a subject
	// they did not create.
	ErrNotSubjectOwner = errors.New("only the subject creator can modify it")
)

// CreateSubject inserts a new subject owned by the given teacher.
func (repo *Repository) CreateSubject(name, description string, teacherID int64) (int64, error) {
	query := `INSERT INTO subjects (name, description, teacher_id, created_at) VALUES (?, ?, ?, ?)`

	result, err := repo.dbConn.Exec(query, name, description, teacherID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("creating subject %s: %w", name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting subject id for %s: %w", name, err)
	}
	return id, nil
}

// GetSubject retrieves a subject by id.
func (repo *Repository) GetSubject(id int64) (*Subject, error) {
	var subject Subject
	query := `SELECT id, name, description, teacher_id, created_at FROM subjects WHERE id = ?`

	if err := repo.dbConn.Get(&subject, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("retrieving subject %d: %w", id, err)
	}
	return &subject, nil
}

// GetSubjectsByTeacher returns the subjects created by a teacher.
func (repo *Repository) GetSubjectsByTeacher(teacherID int64) ([]*Subject, error) {
	var subjects []*Subject
	query := `SELECT id, name, description, teacher_id, created_at
	          FROM subjects WHERE teacher_id = ? ORDER BY name`

	if err := repo.dbConn.Select(&subjects, query, teacherID); err != nil {
		return nil, fmt.Errorf("retrieving subjects for teacher %d: %w", teacherID, err)
	}
	return subjects, nil
}

// GetAllSubjects returns every subject with its teacher name, for the
// student-facing catalogue.
func (repo *Repository) GetAllSubjects() ([]*Subject, error) {
	var subjects []*Subject
	query := `SELECT s.id, s.name, s.description, s.teacher_id, s.created_at,
	                 u.full_name AS teacher_name
	          FROM subjects s
	          JOIN users u ON s.teacher_id = u.id
	          ORDER BY s.name`

	if err := repo.dbConn.Select(&subjects, query); err != nil {
		return nil, fmt.Errorf("retrieving subjects: %w", err)
	}
	return subjects, nil
}

// DeleteSubject removes a subject and all of its content. Only the owning
// teacher may delete it. Book records are removed but the uploaded files
// stay on disk for separate reclamation.
func (repo *Repository) DeleteSubject(subjectID, teacherID int64) error {
	subject, err := repo.GetSubject(subjectID)
	if err != nil {
		return err
	}
	if subject.TeacherID != teacherID {
		return ErrNotSubjectOwner
	}

	tx, err := repo.dbConn.Beginx()
	if err != nil {
		return fmt.Errorf("starting subject deletion: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM student_progress WHERE topic_id IN
		   (SELECT id FROM topics WHERE module_id IN (SELECT id FROM modules WHERE subject_id = ?))`,
		`DELETE FROM quiz_history WHERE topic_id IN
		   (SELECT id FROM topics WHERE module_id IN (SELECT id FROM modules WHERE subject_id = ?))`,
		`DELETE FROM topics WHERE module_id IN (SELECT id FROM modules WHERE subject_id = ?)`,
		`DELETE FROM modules WHERE subject_id = ?`,
		`DELETE FROM chunks WHERE subject_id = ?`,
		`DELETE FROM books WHERE subject_id = ?`,
		`DELETE FROM subjects WHERE id = ?`,
	}
	for _, statement := range statements {
		if _, err := tx.Exec(statement, subjectID); err != nil {
			return fmt.Errorf("deleting subject %d: %w", subjectID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing subject deletion: %w", err)
	}
	return nil
}

// AddModule inserts a module into a subject.
func (repo *Repository) AddModule(subjectID int64, name, description string, orderIndex int) (int64, error) {
	query := `INSERT INTO modules (subject_id, name, description, order_index, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	result, err := repo.dbConn.Exec(query, subjectID, name, description, orderIndex, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("adding module %s: %w", name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting module id for %s: %w", name, err)
	}
	return id, nil
}

// GetModulesBySubject returns the modules of a subject in order.
func (repo *Repository) GetModulesBySubject(subjectID int64) ([]*Module, error) {
	var modules []*Module
	query := `SELECT id, subject_id, name, description, order_index, created_at
	          FROM modules WHERE subject_id = ? ORDER BY order_index`

	if err := repo.dbConn.Select(&modules, query, subjectID); err != nil {
		return nil, fmt.Errorf("retrieving modules for subject %d: %w", subjectID, err)
	}
	return modules, nil
}

// DeleteModule removes a module, its topics, and their progress and history.
func (repo *Repository) DeleteModule(moduleID int64) error {
	tx, err := repo.dbConn.Beginx()
	if err != nil {
		return fmt.Errorf("starting module deletion: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM student_progress WHERE topic_id IN (SELECT id FROM topics WHERE module_id = ?)`,
		`DELETE FROM quiz_history WHERE topic_id IN (SELECT id FROM topics WHERE module_id = ?)`,
		`DELETE FROM topics WHERE module_id = ?`,
	}
	for _, statement := range statements {
		if _, err := tx.Exec(statement, moduleID); err != nil {
			return fmt.Errorf("deleting module %d: %w", moduleID, err)
		}
	}

	result, err := tx.Exec(`DELETE FROM modules WHERE id = ?`, moduleID)
	if err != nil {
		return fmt.Errorf("deleting module %d: %w", moduleID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking module deletion: %w", err)
	}
	if affected == 0 {
		return ErrModuleNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing module deletion: %w", err)
	}
	return nil
}

// AddTopic inserts a topic into a module.
func (repo *Repository) AddTopic(moduleID int64, name, description string, orderIndex int) (int64, error) {
	query := `INSERT INTO topics (module_id, name, description, order_index, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	result, err := repo.dbConn.Exec(query, moduleID, name, description, orderIndex, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("adding topic %s: %w", name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting topic id for %s: %w", name, err)
	}
	return id, nil
}

// GetTopicsByModule returns the topics of a module in order.
func (repo *Repository) GetTopicsByModule(moduleID int64) ([]*Topic, error) {
	var topics []*Topic
	query := `SELECT id, module_id, name, description, order_index, created_at
	          FROM topics WHERE module_id = ? ORDER BY order_index`

	if err := repo.dbConn.Select(&topics, query, moduleID); err != nil {
		return nil, fmt.Errorf("retrieving topics for module %d: %w", moduleID, err)
	}
	return topics, nil
}

// GetTopic retrieves a topic by id.
func (repo *Repository) GetTopic(id int64) (*Topic, error) {
	var topic Topic
	query := `SELECT id, module_id, name, description, order_index, created_at FROM topics WHERE id = ?`

	if err := repo.dbConn.Get(&topic, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("retrieving topic %d: %w", id, err)
	}
	return &topic, nil
}

// TopicContext carries the names surrounding a topic, used to build quiz
// prompts and retrieval queries.
type TopicContext struct {
	TopicName        string `db:"topic_name"`
	TopicDescription string `db:"topic_description"`
	ModuleName       string `db:"module_name"`
	SubjectName      string `db:"subject_name"`
}

// GetTopicContext resolves a topic within a subject, returning its
// surrounding names. It fails if the topic does not belong to the subject.
func (repo *Repository) GetTopicContext(subjectID, topicID int64) (*TopicContext, error) {
	var topicCtx TopicContext
	query := `SELECT t.name AS topic_name, t.description AS topic_description,
	                 m.name AS module_name, s.name AS subject_name
	          FROM topics t
	          JOIN modules m ON t.module_id = m.id
	          JOIN subjects s ON m.subject_id = s.id
	          WHERE t.id = ? AND s.id = ?`

	if err := repo.dbConn.Get(&topicCtx, query, topicID, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("resolving topic %d in subject %d: %w", topicID, subjectID, err)
	}
	return &topicCtx, nil
}

// DeleteTopic removes a topic along with its progress and history records.
func (repo *Repository) DeleteTopic(topicID int64) error {
	tx, err := repo.dbConn.Beginx()
	if err != nil {
		return fmt.Errorf("starting topic deletion: %w", err)
	}
	defer tx.Rollback()

	for _, statement := range []string{
		`DELETE FROM student_progress WHERE topic_id = ?`,
		`DELETE FROM quiz_history WHERE topic_id = ?`,
	} {
		if _, err := tx.Exec(statement, topicID); err != nil {
			return fmt.Errorf("deleting topic %d: %w", topicID, err)
		}
	}

	result, err := tx.Exec(`DELETE FROM topics WHERE id = ?`, topicID)
	if err != nil {
		return fmt.Errorf("deleting topic %d: %w", topicID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking topic deletion: %w", err)
	}
	if affected == 0 {
		return ErrTopicNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing topic deletion: %w", err)
	}
	return nil
}

// AddBook registers a book file for a subject. If an active book with the
// same title already exists for the subject, its record is updated in place
// instead of creating a duplicate.
func (repo *Repository) AddBook(subjectID int64, title, author, filePath, contentDigest string) (int64, error) {
	var existing Book
	query := `SELECT id, subject_id, title, author, file_path, content_digest, is_active, uploaded_at
	          FROM books WHERE subject_id = ? AND title = ? AND is_active = 1`

	err := repo.dbConn.Get(&existing, query, subjectID, title)
	switch {
	case err == nil:
		update := `UPDATE books SET file_path = ?, author = ?, content_digest = ?, uploaded_at = ? WHERE id = ?`
		if _, err := repo.dbConn.Exec(update, filePath, author, contentDigest, time.Now().UTC(), existing.ID); err != nil {
			return 0, fmt.Errorf("updating book %s: %w", title, err)
		}
		return existing.ID, nil
	case errors.Is(err, sql.ErrNoRows):
		insert := `INSERT INTO books (subject_id, title, author, file_path, content_digest, is_active, uploaded_at)
		           VALUES (?, ?, ?, ?, ?, 1, ?)`
		result, err := repo.dbConn.Exec(insert, subjectID, title, author, filePath, contentDigest, time.Now().UTC())
		if err != nil {
			return 0, fmt.Errorf("adding book %s: %w", title, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("getting book id for %s: %w", title, err)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("checking for existing book %s: %w", title, err)
	}
}

// GetBooksBySubject returns the active books of a subject.
func (repo *Repository) GetBooksBySubject(subjectID int64) ([]*Book, error) {
	var books []*Book
	query := `SELECT id, subject_id, title, author, file_path, content_digest, is_active, uploaded_at
	          FROM books WHERE subject_id = ? AND is_active = 1 ORDER BY title`

	if err := repo.dbConn.Select(&books, query, subjectID); err != nil {
		return nil, fmt.Errorf("retrieving books for subject %d: %w", subjectID, err)
	}
	return books, nil
}

// GetBookByPath returns the active book registered at the given file path.
func (repo *Repository) GetBookByPath(filePath string) (*Book, error) {
	var book Book
	query := `SELECT id, subject_id, title, author, file_path, content_digest, is_active, uploaded_at
	          FROM books WHERE file_path = ? AND is_active = 1`

	if err := repo.dbConn.Get(&book, query, filePath); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("retrieving book at %s: %w", filePath, err)
	}
	return &book, nil
}

// DeactivateBook marks a book as inactive without deleting its record.
func (repo *Repository) DeactivateBook(bookID int64) error {
	result, err := repo.dbConn.Exec(`UPDATE books SET is_active = 0 WHERE id = ?`, bookID)
	if err != nil {
		return fmt.Errorf("deactivating book %d: %w", bookID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking book deactivation: %w", err)
	}
	if affected == 0 {
		return ErrBookNotFound
	}
	return nil
}
