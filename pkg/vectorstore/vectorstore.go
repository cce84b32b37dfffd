// Package vectorstore persists text chunks with their embeddings and
// serves nearest-neighbour queries over them.
package vectorstore

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ErrDimensionMismatch is returned when a query vector and a stored vector
// have different lengths.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Chunk is one embedded slice of a book.
type Chunk struct {
	ID        int64  `db:"id"`
	SubjectID int64  `db:"subject_id"`
	BookID    int64  `db:"book_id"`
	Seq       int    `db:"seq"`
	Content   string `db:"content"`
	Embedding []byte `db:"embedding"`
}

// SearchResult is a chunk scored against a query vector.
type SearchResult struct {
	BookID     int64
	Content    string
	Similarity float64
}

// Store holds embedded chunks in the shared database.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// ReplaceBook swaps out all chunks of a book in one transaction. Passing an
// empty slice just clears the book's chunks.
func (s *Store) ReplaceBook(subjectID, bookID int64, contents []string, embeddings [][]float32) error {
	if len(contents) != len(embeddings) {
		return errors.Errorf("chunk count %d does not match embedding count %d", len(contents), len(embeddings))
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "beginning chunk transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chunks WHERE book_id = ?`, bookID); err != nil {
		return errors.Wrapf(err, "clearing chunks for book %d", bookID)
	}
	for i, content := range contents {
		_, err := tx.Exec(
			`INSERT INTO chunks (subject_id, book_id, seq, content, embedding) VALUES (?, ?, ?, ?, ?)`,
			subjectID, bookID, i, content, encodeVector(embeddings[i]))
		if err != nil {
			return errors.Wrapf(err, "inserting chunk %d for book %d", i, bookID)
		}
	}
	return errors.Wrap(tx.Commit(), "committing chunk transaction")
}

// DeleteSubject removes every chunk belonging to a subject.
func (s *Store) DeleteSubject(subjectID int64) error {
	_, err := s.db.Exec(`DELETE FROM chunks WHERE subject_id = ?`, subjectID)
	return errors.Wrapf(err, "deleting chunks for subject %d", subjectID)
}

// Count returns the number of chunks stored for a subject.
func (s *Store) Count(subjectID int64) (int, error) {
	var count int
	err := s.db.Get(&count, `SELECT COUNT(*) FROM chunks WHERE subject_id = ?`, subjectID)
	return count, errors.Wrapf(err, "counting chunks for subject %d", subjectID)
}

// Search returns the k chunks of a subject most similar to the query
// vector, best match first.
func (s *Store) Search(subjectID int64, query []float32, k int) ([]SearchResult, error) {
	var chunks []Chunk
	err := s.db.Select(&chunks,
		`SELECT id, subject_id, book_id, seq, content, embedding FROM chunks WHERE subject_id = ?`,
		subjectID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading chunks for subject %d", subjectID)
	}

	results := make([]SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := decodeVector(chunk.Embedding)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding embedding for chunk %d", chunk.ID)
		}
		similarity, err := CosineSimilarity(query, vec)
		if err != nil {
			return nil, errors.Wrapf(err, "scoring chunk %d", chunk.ID)
		}
		results = append(results, SearchResult{
			BookID:     chunk.BookID,
			Content:    chunk.Content,
			Similarity: similarity,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// CosineSimilarity computes the cosine similarity of two vectors. Zero
// magnitude vectors score 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Wrapf(ErrDimensionMismatch, "%d != %d", len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

func encodeVector(vec []float32) []byte {
	buf := new(bytes.Buffer)
	// binary.Write on a []float32 into a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, vec)
	return buf.Bytes()
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, errors.Errorf("embedding blob length %d is not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}
