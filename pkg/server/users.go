package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mdobak/go-xerrors"

	"tutorkit/pkg/auth"
	"tutorkit/pkg/store"
)

func (s *Server) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		FullName string `json:"full_name"`
	}
	if err := s.readJSON(w, r, &payload); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	payload.Username = strings.TrimSpace(payload.Username)
	payload.Email = strings.TrimSpace(payload.Email)
	switch {
	case payload.Username == "" || payload.Email == "" || payload.FullName == "":
		s.badRequestResponse(w, r, xerrors.New("username, email and full_name must be provided"))
		return
	case len(payload.Password) < 8:
		s.badRequestResponse(w, r, xerrors.New("password must be at least 8 characters long"))
		return
	case payload.Role != store.RoleTeacher && payload.Role != store.RoleStudent:
		s.badRequestResponse(w, r, xerrors.New("role must be teacher or student"))
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}

	user := &store.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: hash,
		Role:         payload.Role,
		FullName:     payload.FullName,
	}
	id, err := s.repo.CreateUser(user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			s.conflictResponse(w, r, "username or email is already in use")
			return
		}
		s.internalErrorResponse(w, r, err)
		return
	}
	user.ID = id

	token, err := s.authn.GenerateToken(user)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, envelope{"user": user, "token": token})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := s.readJSON(w, r, &payload); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	user, err := s.repo.GetUserByUsername(strings.TrimSpace(payload.Username))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.unauthorizedResponse(w, r, auth.ErrInvalidCredentials)
			return
		}
		s.internalErrorResponse(w, r, err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.unauthorizedResponse(w, r, err)
			return
		}
		s.internalErrorResponse(w, r, err)
		return
	}

	token, err := s.authn.GenerateToken(user)
	if err != nil {
		s.internalErrorResponse(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"user": user, "token": token})
}
