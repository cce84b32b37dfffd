package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"
)

// seedOutcome writes one quiz outcome, inventing a plausible history record
// for the given progress values.
func seedOutcome(t *testing.T, repo *Repository, progress *StudentProgress) {
	t.Helper()

	err := repo.RecordQuizOutcome(&QuizRecord{
		StudentID: progress.StudentID, TopicID: progress.TopicID,
		Score: progress.CorrectAnswers, TotalQuestions: progress.TotalQuestions,
	}, progress)
	if err != nil {
		t.Fatalf("recording quiz outcome: %v", err)
	}
}

func TestProgressRepo_RecordQuizOutcome(t *testing.T) {
	t.Run("should return ErrProgressNotFound before the first quiz", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()
		teacherID, studentID := seedTeacherAndStudent(t, repo)
		_, _, topicA, _ := seedSubjectTree(t, repo, teacherID)

		_, err := repo.GetStudentProgress(studentID, topicA)
		if !errors.Is(err, ErrProgressNotFound) {
			t.Fatalf("\nwanted:\nErrProgressNotFound\ngot:\n%v", err)
		}
	})

	t.Run("should create and then update a progress record", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()
		teacherID, studentID := seedTeacherAndStudent(t, repo)
		_, _, topicA, _ := seedSubjectTree(t, repo, teacherID)

		now := sql.NullTime{Time: time.Now().UTC(), Valid: true}
		seedOutcome(t, repo, &StudentProgress{
			StudentID: studentID, TopicID: topicA,
			ConfidenceScore: 0.56, Attempts: 1,
			LastQuizDate:   now,
			TotalQuestions: 3, CorrectAnswers: 2,
		})
		seedOutcome(t, repo, &StudentProgress{
			StudentID: studentID, TopicID: topicA,
			ConfidenceScore: 0.62, Attempts: 2,
			LastQuizDate:   now,
			TotalQuestions: 6, CorrectAnswers: 5,
		})

		got, err := repo.GetStudentProgress(studentID, topicA)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.Attempts != 2 {
			t.Fatalf("\nwanted:\n2 attempts\ngot:\n%d", got.Attempts)
		}
		if got.ConfidenceScore != 0.62 || got.TotalQuestions != 6 || got.CorrectAnswers != 5 {
			t.Fatalf("unexpected progress after upsert: %+v", got)
		}

		records, err := repo.GetQuizHistory(studentID, topicA)
		if err != nil {
			t.Fatalf("retrieving quiz history: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("\nwanted:\n2 history records\ngot:\n%d", len(records))
		}
	})

	t.Run("should roll back the history entry when the progress write fails", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()
		teacherID, studentID := seedTeacherAndStudent(t, repo)
		_, _, topicA, _ := seedSubjectTree(t, repo, teacherID)

		err := repo.RecordQuizOutcome(&QuizRecord{
			StudentID: studentID, TopicID: topicA,
			Score: 2, TotalQuestions: 3,
		}, &StudentProgress{
			StudentID: studentID, TopicID: 9999,
			ConfidenceScore: 0.5, Attempts: 1,
			TotalQuestions: 3, CorrectAnswers: 2,
		})
		if err == nil {
			t.Fatal("\nwanted:\nforeign key failure\ngot:\nnil")
		}

		records, err := repo.GetQuizHistory(studentID, topicA)
		if err != nil {
			t.Fatalf("retrieving quiz history: %v", err)
		}
		if len(records) != 0 {
			t.Fatalf("\nwanted:\nno history after rollback\ngot:\n%d records", len(records))
		}
	})
}

func TestProgressRepo_GetSubjectTopicConfidences(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()
	teacherID, studentID := seedTeacherAndStudent(t, repo)
	subjectID, _, topicA, topicB := seedSubjectTree(t, repo, teacherID)

	seedOutcome(t, repo, &StudentProgress{
		StudentID: studentID, TopicID: topicB,
		ConfidenceScore: 0.3, Attempts: 1, TotalQuestions: 3, CorrectAnswers: 1,
	})

	confidences, err := repo.GetSubjectTopicConfidences(studentID, subjectID)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if len(confidences) != 2 {
		t.Fatalf("\nwanted:\n2\ngot:\n%d", len(confidences))
	}

	// First topic was never attempted and defaults to the neutral score.
	if confidences[0].TopicID != topicA || confidences[0].Confidence != 0.5 || confidences[0].Attempts != 0 {
		t.Fatalf("unexpected default confidence: %+v", confidences[0])
	}
	if confidences[1].TopicID != topicB || confidences[1].Confidence != 0.3 {
		t.Fatalf("unexpected recorded confidence: %+v", confidences[1])
	}
}

func TestProgressRepo_GetWeakestTopicsForTeacher(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()
	teacherID, studentID := seedTeacherAndStudent(t, repo)
	_, _, topicA, topicB := seedSubjectTree(t, repo, teacherID)

	otherStudent, err := repo.CreateUser(&User{
		Username: "student2", Email: "student2@example.com",
		PasswordHash: "x", Role: RoleStudent, FullName: "Bob Williams",
	})
	if err != nil {
		t.Fatalf("creating second student: %v", err)
	}

	// Two students struggled with the second topic, only one touched the
	// first.
	for _, seed := range []struct {
		student, topic int64
		confidence     float64
	}{
		{studentID, topicB, 0.2},
		{otherStudent, topicB, 0.4},
		{studentID, topicA, 0.1},
	} {
		seedOutcome(t, repo, &StudentProgress{
			StudentID: seed.student, TopicID: seed.topic,
			ConfidenceScore: seed.confidence, Attempts: 1,
			TotalQuestions: 3, CorrectAnswers: 1,
		})
	}

	insights, err := repo.GetWeakestTopicsForTeacher(teacherID, 2, 5)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("\nwanted:\n1 topic above the student threshold\ngot:\n%d", len(insights))
	}
	if insights[0].TopicName != "Inductive Bias" || insights[0].StudentCount != 2 {
		t.Fatalf("unexpected insight: %+v", insights[0])
	}
	if insights[0].AvgConfidence < 0.29 || insights[0].AvgConfidence > 0.31 {
		t.Fatalf("\nwanted:\navg confidence near 0.3\ngot:\n%f", insights[0].AvgConfidence)
	}
}

func TestProgressRepo_QuizHistory(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()
	teacherID, studentID := seedTeacherAndStudent(t, repo)
	_, _, topicA, _ := seedSubjectTree(t, repo, teacherID)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := repo.RecordQuizOutcome(&QuizRecord{
			StudentID: studentID, TopicID: topicA,
			Score: i + 1, TotalQuestions: 3,
			QuizDate: base.Add(time.Duration(i) * time.Hour),
		}, &StudentProgress{
			StudentID: studentID, TopicID: topicA,
			ConfidenceScore: 0.5, Attempts: i + 1,
			TotalQuestions: (i + 1) * 3, CorrectAnswers: i + 1,
		})
		if err != nil {
			t.Fatalf("recording quiz outcome: %v", err)
		}
	}

	records, err := repo.GetQuizHistory(studentID, topicA)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if len(records) != 3 {
		t.Fatalf("\nwanted:\n3\ngot:\n%d", len(records))
	}
	if records[0].Score != 3 {
		t.Fatalf("\nwanted:\nmost recent quiz first\ngot:\nscore %d", records[0].Score)
	}
}
