package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdobak/go-xerrors"

	"tutorkit/pkg/auth"
	"tutorkit/pkg/ingest"
	"tutorkit/pkg/store"
)

func (s *Server) listSubjectsHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r)

	var (
		subjects []*store.Subject
		err      error
	)
	if claims.Role == store.RoleTeacher {
		subjects, err = s.repo.GetSubjectsByTeacher(claims.UserID)
	} else {
		subjects, err = s.repo.GetAllSubjects()
	}
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"subjects": subjects})
}

func (s *Server) createSubjectHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r)

	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := s.readJSON(w, r, &payload); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		s.badRequestResponse(w, r, xerrors.New("name must be provided"))
		return
	}

	id, err := s.repo.CreateSubject(payload.Name, payload.Description, claims.UserID)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	subject, err := s.repo.GetSubject(id)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, envelope{"subject": subject})
}

func (s *Server) deleteSubjectHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r)

	subjectID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	err = s.repo.DeleteSubject(subjectID, claims.UserID)
	switch {
	case errors.Is(err, store.ErrSubjectNotFound):
		s.notFoundResponse(w, r)
	case errors.Is(err, store.ErrNotSubjectOwner):
		s.forbiddenResponse(w, r)
	case err != nil:
		s.internalErrorResponse(w, r, err)
	default:
		s.writeJSON(w, http.StatusOK, envelope{"deleted": subjectID})
	}
}

// requireSubjectOwner resolves the subject and checks the caller owns it.
func (s *Server) requireSubjectOwner(w http.ResponseWriter, r *http.Request, subjectID int64) (*store.Subject, bool) {
	claims, _ := auth.ClaimsFrom(r)

	subject, err := s.repo.GetSubject(subjectID)
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			s.notFoundResponse(w, r)
		} else {
			s.internalErrorResponse(w, r, err)
		}
		return nil, false
	}
	if subject.TeacherID != claims.UserID {
		s.forbiddenResponse(w, r)
		return nil, false
	}
	return subject, true
}

func (s *Server) listModulesHandler(w http.ResponseWriter, r *http.Request) {
	subjectID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	modules, err := s.repo.GetModulesBySubject(subjectID)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"modules": modules})
}

func (s *Server) createModuleHandler(w http.ResponseWriter, r *http.Request) {
	subjectID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	if _, ok := s.requireSubjectOwner(w, r, subjectID); !ok {
		return
	}

	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		OrderIndex  int    `json:"order_index"`
	}
	if err := s.readJSON(w, r, &payload); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		s.badRequestResponse(w, r, xerrors.New("name must be provided"))
		return
	}

	id, err := s.repo.AddModule(subjectID, payload.Name, payload.Description, payload.OrderIndex)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, envelope{"module_id": id})
}

func (s *Server) deleteModuleHandler(w http.ResponseWriter, r *http.Request) {
	moduleID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	if err := s.repo.DeleteModule(moduleID); err != nil {
		if errors.Is(err, store.ErrModuleNotFound) {
			s.notFoundResponse(w, r)
			return
		}
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"deleted": moduleID})
}

func (s *Server) listTopicsHandler(w http.ResponseWriter, r *http.Request) {
	moduleID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	topics, err := s.repo.GetTopicsByModule(moduleID)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"topics": topics})
}

func (s *Server) createTopicHandler(w http.ResponseWriter, r *http.Request) {
	moduleID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		OrderIndex  int    `json:"order_index"`
	}
	if err := s.readJSON(w, r, &payload); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		s.badRequestResponse(w, r, xerrors.New("name must be provided"))
		return
	}

	id, err := s.repo.AddTopic(moduleID, payload.Name, payload.Description, payload.OrderIndex)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, envelope{"topic_id": id})
}

func (s *Server) deleteTopicHandler(w http.ResponseWriter, r *http.Request) {
	topicID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	if err := s.repo.DeleteTopic(topicID); err != nil {
		if errors.Is(err, store.ErrTopicNotFound) {
			s.notFoundResponse(w, r)
			return
		}
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"deleted": topicID})
}

func (s *Server) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	subjectID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	books, err := s.repo.GetBooksBySubject(subjectID)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"books": books})
}

// uploadBookHandler accepts a multipart upload, stores the file in the
// subject's library directory and ingests it.
func (s *Server) uploadBookHandler(w http.ResponseWriter, r *http.Request) {
	subjectID, err := pathID(r)
	if err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	if _, ok := s.requireSubjectOwner(w, r, subjectID); !ok {
		return
	}

	const maxUpload = 64 << 20 // 64 MB
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		s.badRequestResponse(w, r, xerrors.Newf("parsing upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequestResponse(w, r, xerrors.New("a 'file' form field must be provided"))
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !ingest.SupportedExtension(filename) {
		s.badRequestResponse(w, r, xerrors.Newf("unsupported document format %q", filepath.Ext(filename)))
		return
	}

	subjectDir := filepath.Join(s.cfg.LibraryDir(), fmt.Sprintf("%d", subjectID))
	if err := os.MkdirAll(subjectDir, 0o755); err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	path := filepath.Join(subjectDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		s.internalErrorResponse(w, r, err)
		return
	}
	if err := dst.Close(); err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}

	result, err := s.ingestor.IngestFile(r.Context(), subjectID, path,
		r.FormValue("title"), r.FormValue("author"))
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, envelope{
		"book_id": result.BookID,
		"chunks":  result.Chunks,
		"skipped": result.Skipped,
	})
}
