package server

import (
	"net/http"

	"github.com/mdobak/go-xerrors"
)

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	log := s.log.WithField("request_url", r.URL.String()).WithField("request_method", r.Method)
	if err != nil {
		log = log.WithField("stack", xerrors.Sprint(err))
	}
	log.Error(message)

	s.writeJSON(w, status, envelope{"error": message})
}

func (s *Server) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.errorResponse(w, r, http.StatusBadRequest, err.Error(), err)
}

func (s *Server) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	s.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found", nil)
}

func (s *Server) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	s.errorResponse(w, r, http.StatusForbidden, "you do not have permission for this resource", nil)
}

func (s *Server) unauthorizedResponse(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	s.errorResponse(w, r, http.StatusUnauthorized, "invalid or missing authentication token", err)
}

func (s *Server) conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	s.errorResponse(w, r, http.StatusConflict, message, nil)
}

func (s *Server) internalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.errorResponse(w, r, http.StatusInternalServerError, "an internal server error occurred", err)
}
