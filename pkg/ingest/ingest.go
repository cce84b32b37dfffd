// Package ingest turns uploaded books into embedded chunks ready for
// retrieval.
package ingest

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"tutorkit/pkg/logging"
	"tutorkit/pkg/store"
	"tutorkit/pkg/vectorstore"
)

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
)

// Embedder produces embedding vectors for text. Implemented by the model
// runtime client.
type Embedder interface {
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// Ingestor extracts, chunks and embeds documents into the vector store.
type Ingestor struct {
	log      logging.Logger
	repo     *store.Repository
	vectors  *vectorstore.Store
	embedder Embedder
	model    string
	splitter *Splitter
}

func NewIngestor(log logging.Logger, repo *store.Repository, vectors *vectorstore.Store, embedder Embedder, embeddingModel string) *Ingestor {
	return &Ingestor{
		log:      log,
		repo:     repo,
		vectors:  vectors,
		embedder: embedder,
		model:    embeddingModel,
		splitter: NewSplitter(defaultChunkSize, defaultChunkOverlap),
	}
}

// Result summarizes one ingested document.
type Result struct {
	BookID  int64
	Chunks  int
	Skipped bool
}

// IngestFile processes a single document into the given subject. Files
// whose content digest matches the stored book are skipped.
func (ing *Ingestor) IngestFile(ctx context.Context, subjectID int64, path, title, author string) (*Result, error) {
	if !SupportedExtension(path) {
		return nil, errors.Wrap(ErrUnsupportedFormat, filepath.Ext(path))
	}
	if title == "" {
		title = titleFromPath(path)
	}

	digest, err := FileDigest(path)
	if err != nil {
		return nil, err
	}
	if book, err := ing.repo.GetBookByPath(path); err == nil && book.ContentDigest == digest {
		ing.log.Debugf("skipping %s, content unchanged", path)
		return &Result{BookID: book.ID, Skipped: true}, nil
	} else if err != nil && !errors.Is(err, store.ErrBookNotFound) {
		return nil, err
	}

	text, err := ExtractText(path)
	if err != nil {
		return nil, err
	}
	chunks := ing.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, errors.Errorf("no text extracted from %s", path)
	}

	embeddings := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := ing.embedder.Embed(ctx, ing.model, chunk)
		if err != nil {
			return nil, errors.Wrapf(err, "embedding chunk of %s", path)
		}
		embeddings = append(embeddings, vec)
	}

	bookID, err := ing.repo.AddBook(subjectID, title, author, path, digest)
	if err != nil {
		return nil, err
	}
	if err := ing.vectors.ReplaceBook(subjectID, bookID, chunks, embeddings); err != nil {
		return nil, err
	}

	ing.log.Infof("ingested %s: %d chunks", filepath.Base(path), len(chunks))
	return &Result{BookID: bookID, Chunks: len(chunks)}, nil
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
