package syllabus

import (
	"path/filepath"
	"strings"
	"testing"

	"tutorkit/pkg/store"
)

const sampleSyllabus = `
subject: Machine Learning
description: Based on Tom Mitchell's textbook
modules:
  - name: MODULE-1
    description: Foundations
    topics:
      - name: Concept Learning Task
        description: hypothesis spaces
      - name: Inductive Bias
  - name: MODULE-2
    topics:
      - name: Decision Tree Learning
`

func TestParse(t *testing.T) {
	t.Run("should parse a full outline", func(t *testing.T) {
		syl, err := Parse([]byte(sampleSyllabus))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if syl.Subject != "Machine Learning" || len(syl.Modules) != 2 {
			t.Fatalf("unexpected syllabus: %+v", syl)
		}
		if len(syl.Modules[0].Topics) != 2 || syl.Modules[0].Topics[1].Name != "Inductive Bias" {
			t.Fatalf("unexpected first module: %+v", syl.Modules[0])
		}
	})

	tests := []struct {
		name string
		yaml string
	}{
		{"missing subject", "modules:\n  - name: M1"},
		{"no modules", "subject: ML"},
		{"unnamed module", "subject: ML\nmodules:\n  - description: x"},
		{"unnamed topic", "subject: ML\nmodules:\n  - name: M1\n    topics:\n      - description: x"},
		{"broken yaml", "subject: [unclosed"},
	}
	for _, tc := range tests {
		t.Run("should reject "+tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Fatal("wanted an error")
			}
		})
	}
}

func TestImport(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	repo := store.NewRepository(db)
	defer repo.Close()

	teacherID, err := repo.CreateUser(&store.User{
		Username: "teacher1", Email: "teacher@example.com",
		PasswordHash: "x", Role: store.RoleTeacher, FullName: "Dr. John Smith",
	})
	if err != nil {
		t.Fatalf("creating teacher: %v", err)
	}

	syl, err := Parse([]byte(sampleSyllabus))
	if err != nil {
		t.Fatalf("parsing syllabus: %v", err)
	}
	subjectID, err := Import(repo, syl, teacherID)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}

	modules, err := repo.GetModulesBySubject(subjectID)
	if err != nil {
		t.Fatalf("listing modules: %v", err)
	}
	if len(modules) != 2 || modules[0].Name != "MODULE-1" || modules[0].OrderIndex != 1 {
		t.Fatalf("unexpected modules: %+v", modules)
	}

	topics, err := repo.GetTopicsByModule(modules[0].ID)
	if err != nil {
		t.Fatalf("listing topics: %v", err)
	}
	var names []string
	for _, topic := range topics {
		names = append(names, topic.Name)
	}
	if strings.Join(names, ",") != "Concept Learning Task,Inductive Bias" {
		t.Fatalf("unexpected topics: %v", names)
	}
}
