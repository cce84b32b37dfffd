package quiz

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"tutorkit/pkg/logging"
	"tutorkit/pkg/store"
	"tutorkit/pkg/vectorstore"
)

const validQuizJSON = `[
  {
    "question": "What does the version space contain?",
    "options": ["A) All hypotheses", "B) Consistent hypotheses", "C) Rejected hypotheses", "D) Training examples"],
    "answer": "B",
    "explanation": "The version space holds every hypothesis consistent with the training data."
  },
  {
    "question": "What is inductive bias?",
    "options": ["A) A data error", "B) A kind of noise", "C) Assumptions enabling generalization", "D) Overfitting"],
    "answer": "C",
    "explanation": "Without assumptions a learner cannot generalize beyond observed data."
  },
  {
    "question": "Which search does FIND-S perform?",
    "options": ["A) Specific to general", "B) General to specific", "C) Random", "D) Exhaustive"],
    "answer": "A",
    "explanation": "FIND-S starts from the most specific hypothesis and generalizes."
  }
]`

// fakeModel plays both the embedder and the generator role.
type fakeModel struct {
	response    string
	generateErr error
	prompts     []string
}

func (f *fakeModel) Generate(_ context.Context, _ string, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.response, nil
}

func (f *fakeModel) Embed(_ context.Context, _ string, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

func setupGenerator(t *testing.T, model *fakeModel) (*Generator, *store.Repository, *vectorstore.Store, func()) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	repo := store.NewRepository(db)
	vectors := vectorstore.New(db)
	log := logging.NewLoggerWithOutput("quiz-test", io.Discard)

	gen := NewGenerator(log, repo, vectors, model, "mistral:7b", "nomic-embed-text")
	return gen, repo, vectors, func() {
		if err := repo.Close(); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	}
}

// seedCourse creates a subject with one topic and one embedded book.
func seedCourse(t *testing.T, repo *store.Repository, vectors *vectorstore.Store) (subjectID, topicID int64) {
	t.Helper()

	teacherID, err := repo.CreateUser(&store.User{
		Username: "teacher1", Email: "teacher@example.com",
		PasswordHash: "x", Role: store.RoleTeacher, FullName: "Dr. John Smith",
	})
	if err != nil {
		t.Fatalf("creating teacher: %v", err)
	}
	subjectID, err = repo.CreateSubject("Machine Learning", "", teacherID)
	if err != nil {
		t.Fatalf("creating subject: %v", err)
	}
	moduleID, err := repo.AddModule(subjectID, "MODULE-1", "", 1)
	if err != nil {
		t.Fatalf("adding module: %v", err)
	}
	topicID, err = repo.AddTopic(moduleID, "Concept Learning Task", "version spaces", 1)
	if err != nil {
		t.Fatalf("adding topic: %v", err)
	}
	bookID, err := repo.AddBook(subjectID, "Machine Learning", "Tom Mitchell", "/library/ml.pdf", "digest")
	if err != nil {
		t.Fatalf("adding book: %v", err)
	}

	contents := []string{"version spaces and hypotheses", "inductive bias", "the FIND-S algorithm"}
	embeddings := [][]float32{{30, 1, 0}, {14, 1, 0}, {20, 1, 0}}
	if err := vectors.ReplaceBook(subjectID, bookID, contents, embeddings); err != nil {
		t.Fatalf("storing chunks: %v", err)
	}
	return subjectID, topicID
}

func TestGenerate(t *testing.T) {
	t.Run("should build a quiz from retrieved context", func(t *testing.T) {
		model := &fakeModel{response: "Here is your quiz:\n" + validQuizJSON + "\nGood luck!"}
		gen, repo, vectors, teardown := setupGenerator(t, model)
		defer teardown()
		subjectID, topicID := seedCourse(t, repo, vectors)

		generated, err := gen.Generate(context.Background(), subjectID, topicID, 0.5)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if generated.ID == "" || generated.TopicName != "Concept Learning Task" {
			t.Fatalf("unexpected quiz metadata: %+v", generated)
		}
		if len(generated.Questions) != 3 {
			t.Fatalf("\nwanted:\n3 questions\ngot:\n%d", len(generated.Questions))
		}

		if len(model.prompts) != 1 {
			t.Fatalf("\nwanted:\n1 generate call\ngot:\n%d", len(model.prompts))
		}
		prompt := model.prompts[0]
		for _, fragment := range []string{"Concept Learning Task", "MODULE-1", "Machine Learning", "inductive bias"} {
			if !strings.Contains(prompt, fragment) {
				t.Fatalf("prompt is missing %q:\n%s", fragment, prompt)
			}
		}
	})

	t.Run("should fail when the subject has no content", func(t *testing.T) {
		model := &fakeModel{response: validQuizJSON}
		gen, repo, vectors, teardown := setupGenerator(t, model)
		defer teardown()
		subjectID, topicID := seedCourse(t, repo, vectors)

		if err := vectors.DeleteSubject(subjectID); err != nil {
			t.Fatalf("clearing chunks: %v", err)
		}
		if _, err := gen.Generate(context.Background(), subjectID, topicID, 0.5); !errors.Is(err, ErrNoContent) {
			t.Fatalf("\nwanted:\nErrNoContent\ngot:\n%v", err)
		}
	})

	t.Run("should fail for topics outside the subject", func(t *testing.T) {
		model := &fakeModel{response: validQuizJSON}
		gen, repo, vectors, teardown := setupGenerator(t, model)
		defer teardown()
		subjectID, _ := seedCourse(t, repo, vectors)

		if _, err := gen.Generate(context.Background(), subjectID, 9999, 0.5); !errors.Is(err, store.ErrTopicNotFound) {
			t.Fatalf("\nwanted:\nErrTopicNotFound\ngot:\n%v", err)
		}
	})

	t.Run("should surface malformed model output", func(t *testing.T) {
		model := &fakeModel{response: "I am sorry, I cannot help with that."}
		gen, repo, vectors, teardown := setupGenerator(t, model)
		defer teardown()
		subjectID, topicID := seedCourse(t, repo, vectors)

		if _, err := gen.Generate(context.Background(), subjectID, topicID, 0.5); !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("\nwanted:\nErrMalformedResponse\ngot:\n%v", err)
		}
	})
}

func TestParseQuestions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no JSON at all", "plain refusal text"},
		{"empty array", "[]"},
		{"truncated JSON", `[{"question": "q?", "options": ["A) x"`},
		{"wrong option count", `[{"question": "q?", "options": ["A) x", "B) y"], "answer": "A", "explanation": "e"}]`},
		{"answer out of range", `[{"question": "q?", "options": ["A) 1", "B) 2", "C) 3", "D) 4"], "answer": "E", "explanation": "e"}]`},
		{"empty question text", `[{"question": " ", "options": ["A) 1", "B) 2", "C) 3", "D) 4"], "answer": "A", "explanation": "e"}]`},
	}
	for _, tc := range tests {
		t.Run("should reject "+tc.name, func(t *testing.T) {
			if _, err := parseQuestions(tc.raw); !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("\nwanted:\nErrMalformedResponse\ngot:\n%v", err)
			}
		})
	}

	t.Run("should accept a quiz wrapped in prose", func(t *testing.T) {
		questions, err := parseQuestions("Sure! Here you go:\n" + validQuizJSON + "\nEnjoy.")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(questions) != 3 || questions[1].Answer != "C" {
			t.Fatalf("unexpected questions: %+v", questions)
		}
	})
}

func TestGrade(t *testing.T) {
	questions := []Question{
		{Answer: "A"}, {Answer: "B"}, {Answer: "C"},
	}

	tests := []struct {
		name    string
		answers []string
		want    int
	}{
		{"all correct by letter", []string{"A", "B", "C"}, 3},
		{"full option strings", []string{"A) first", "B) second", "D) wrong"}, 2},
		{"lowercase letters", []string{"a", "b", "c"}, 3},
		{"missing answers count as wrong", []string{"A"}, 1},
		{"no answers", nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Grade(questions, tc.answers); got != tc.want {
				t.Fatalf("\nwanted:\n%d\ngot:\n%d", tc.want, got)
			}
		})
	}
}
