package vectorstore

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"tutorkit/pkg/store"
)

func setupVectorStore(t *testing.T) (*Store, *store.Repository, func()) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	repo := store.NewRepository(db)
	return New(db), repo, func() {
		if err := repo.Close(); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	}
}

// seedBook creates the users/subject/book rows the chunks table references.
func seedBook(t *testing.T, repo *store.Repository) (subjectID, bookID int64) {
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
	bookID, err = repo.AddBook(subjectID, "Machine Learning", "Tom Mitchell", "/library/ml.pdf", "digest")
	if err != nil {
		t.Fatalf("adding book: %v", err)
	}
	return subjectID, bookID
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CosineSimilarity(tc.a, tc.b)
			if err != nil {
				t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
			}
			if math.Abs(got-tc.want) > 1e-6 {
				t.Fatalf("\nwanted:\n%f\ngot:\n%f", tc.want, got)
			}
		})
	}

	t.Run("should reject mismatched dimensions", func(t *testing.T) {
		if _, err := CosineSimilarity([]float32{1}, []float32{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
			t.Fatalf("\nwanted:\nErrDimensionMismatch\ngot:\n%v", err)
		}
	})
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.125, 0}
	decoded, err := decodeVector(encodeVector(vec))
	if err != nil {
		t.Fatalf("decoding vector: %v", err)
	}
	if len(decoded) != len(vec) {
		t.Fatalf("\nwanted:\n%d values\ngot:\n%d", len(vec), len(decoded))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Fatalf("value %d changed: %f != %f", i, decoded[i], vec[i])
		}
	}
}

func TestSearch(t *testing.T) {
	t.Run("should return the most similar chunks first", func(t *testing.T) {
		vs, repo, teardown := setupVectorStore(t)
		defer teardown()
		subjectID, bookID := seedBook(t, repo)

		contents := []string{"about cats", "about dogs", "about birds"}
		embeddings := [][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		}
		if err := vs.ReplaceBook(subjectID, bookID, contents, embeddings); err != nil {
			t.Fatalf("storing chunks: %v", err)
		}

		results, err := vs.Search(subjectID, []float32{1, 0, 0}, 2)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(results) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(results))
		}
		if results[0].Content != "about cats" || results[1].Content != "about birds" {
			t.Fatalf("unexpected ranking: %q, %q", results[0].Content, results[1].Content)
		}
	})

	t.Run("should replace chunks on re-ingest", func(t *testing.T) {
		vs, repo, teardown := setupVectorStore(t)
		defer teardown()
		subjectID, bookID := seedBook(t, repo)

		if err := vs.ReplaceBook(subjectID, bookID, []string{"old"}, [][]float32{{1, 0}}); err != nil {
			t.Fatalf("storing chunks: %v", err)
		}
		if err := vs.ReplaceBook(subjectID, bookID, []string{"new a", "new b"}, [][]float32{{1, 0}, {0, 1}}); err != nil {
			t.Fatalf("replacing chunks: %v", err)
		}

		count, err := vs.Count(subjectID)
		if err != nil {
			t.Fatalf("counting chunks: %v", err)
		}
		if count != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", count)
		}
	})

	t.Run("should drop all chunks of a subject", func(t *testing.T) {
		vs, repo, teardown := setupVectorStore(t)
		defer teardown()
		subjectID, bookID := seedBook(t, repo)

		if err := vs.ReplaceBook(subjectID, bookID, []string{"a"}, [][]float32{{1}}); err != nil {
			t.Fatalf("storing chunks: %v", err)
		}
		if err := vs.DeleteSubject(subjectID); err != nil {
			t.Fatalf("deleting subject chunks: %v", err)
		}

		count, err := vs.Count(subjectID)
		if err != nil {
			t.Fatalf("counting chunks: %v", err)
		}
		if count != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", count)
		}
	})
}
