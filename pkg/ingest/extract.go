package ingest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// ErrUnsupportedFormat is returned for files that are neither PDF nor
// plain text.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// SupportedExtension reports whether a file can be ingested based on its
// extension.
func SupportedExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// ExtractText pulls the plain text out of a document on disk.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrapf(err, "reading %s", path)
		}
		return string(content), nil
	default:
		return "", errors.Wrap(ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", errors.Wrapf(err, "extracting text from %s", path)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", errors.Wrapf(err, "reading text from %s", path)
	}
	return buf.String(), nil
}

// FileDigest returns the hex sha256 of a file's content, used to skip
// re-ingesting unchanged books.
func FileDigest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", errors.Wrapf(err, "hashing %s", path)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
