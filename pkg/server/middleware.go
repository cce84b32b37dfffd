package server

import (
	"net/http"
	"strings"

	"github.com/mdobak/go-xerrors"

	"tutorkit/pkg/auth"
)

// authenticate attaches verified claims to the request when a bearer
// token is present. Routes decide themselves whether claims are
// required.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorization := r.Header.Get("Authorization")
		if authorization != "" {
			parts := strings.Split(authorization, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				s.unauthorizedResponse(w, r, xerrors.New("authorization header must be in the format 'Bearer <token>'"))
				return
			}

			claims, err := s.authn.Authenticate(parts[1])
			if err != nil {
				s.unauthorizedResponse(w, r, err)
				return
			}
			r = auth.WithClaims(r, claims)
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ClaimsFrom(r); !ok {
			s.unauthorizedResponse(w, r, xerrors.New("authentication required"))
			return
		}
		next(w, r)
	}
}

func (s *Server) requireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return s.requireUser(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := auth.ClaimsFrom(r)
		if claims.Role != role {
			s.forbiddenResponse(w, r)
			return
		}
		next(w, r)
	})
}

func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				s.internalErrorResponse(w, r, xerrors.Newf("panic: %v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
