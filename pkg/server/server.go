// Package server exposes the HTTP API for teachers and students.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"tutorkit/pkg/auth"
	"tutorkit/pkg/config"
	"tutorkit/pkg/ingest"
	"tutorkit/pkg/logging"
	"tutorkit/pkg/progress"
	"tutorkit/pkg/quiz"
	"tutorkit/pkg/runtime"
	"tutorkit/pkg/store"
)

const (
	shutdownGrace = 10 * time.Second

	// activeQuizTTL bounds how long a generated quiz waits for its
	// submission before it is dropped.
	activeQuizTTL = time.Hour
)

// Runtime is the slice of the model runtime the status endpoint reports
// on.
type Runtime interface {
	Version(ctx context.Context) (string, error)
	ListModels(ctx context.Context) ([]runtime.ModelInfo, error)
}

// Server wires the HTTP handlers to the application services.
type Server struct {
	log      logging.Logger
	cfg      *config.Config
	repo     *store.Repository
	authn    *auth.Auth
	ingestor *ingest.Ingestor
	quizzes  *quiz.Generator
	progress *progress.Service
	runtime  Runtime

	mu            sync.Mutex
	activeQuizzes map[string]*activeQuiz
}

// activeQuiz is a generated quiz awaiting the student's submission. The
// answers stay server-side until then.
type activeQuiz struct {
	quiz      *quiz.Quiz
	studentID int64
	created   time.Time
}

func New(log logging.Logger, cfg *config.Config, repo *store.Repository, authn *auth.Auth,
	ingestor *ingest.Ingestor, quizzes *quiz.Generator, progressSvc *progress.Service, rt Runtime) *Server {
	return &Server{
		log:           log,
		cfg:           cfg,
		repo:          repo,
		authn:         authn,
		ingestor:      ingestor,
		quizzes:       quizzes,
		progress:      progressSvc,
		runtime:       rt,
		activeQuizzes: make(map[string]*activeQuiz),
	}
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.routes(),
	}

	errs := make(chan error, 1)
	go func() {
		s.log.Infof("API listening on %s", s.cfg.Server.Addr)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(s.notFoundResponse)

	// Not require authentication for these routes
	router.HandlerFunc(http.MethodPost, "/api/users", s.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/api/users/login", s.loginHandler)
	router.HandlerFunc(http.MethodGet, "/api/status", s.statusHandler)

	// Require authentication for these routes
	router.HandlerFunc(http.MethodGet, "/api/subjects", s.requireUser(s.listSubjectsHandler))
	router.HandlerFunc(http.MethodPost, "/api/subjects", s.requireRole(store.RoleTeacher, s.createSubjectHandler))
	router.HandlerFunc(http.MethodDelete, "/api/subjects/:id", s.requireRole(store.RoleTeacher, s.deleteSubjectHandler))

	router.HandlerFunc(http.MethodGet, "/api/subjects/:id/modules", s.requireUser(s.listModulesHandler))
	router.HandlerFunc(http.MethodPost, "/api/subjects/:id/modules", s.requireRole(store.RoleTeacher, s.createModuleHandler))
	router.HandlerFunc(http.MethodDelete, "/api/modules/:id", s.requireRole(store.RoleTeacher, s.deleteModuleHandler))

	router.HandlerFunc(http.MethodGet, "/api/modules/:id/topics", s.requireUser(s.listTopicsHandler))
	router.HandlerFunc(http.MethodPost, "/api/modules/:id/topics", s.requireRole(store.RoleTeacher, s.createTopicHandler))
	router.HandlerFunc(http.MethodDelete, "/api/topics/:id", s.requireRole(store.RoleTeacher, s.deleteTopicHandler))

	router.HandlerFunc(http.MethodGet, "/api/subjects/:id/books", s.requireUser(s.listBooksHandler))
	router.HandlerFunc(http.MethodPost, "/api/subjects/:id/books", s.requireRole(store.RoleTeacher, s.uploadBookHandler))

	router.HandlerFunc(http.MethodPost, "/api/subjects/:id/quizzes", s.requireRole(store.RoleStudent, s.createQuizHandler))
	router.HandlerFunc(http.MethodPost, "/api/quizzes/:id/submissions", s.requireRole(store.RoleStudent, s.submitQuizHandler))

	router.HandlerFunc(http.MethodGet, "/api/subjects/:id/progress", s.requireRole(store.RoleStudent, s.progressHandler))
	router.HandlerFunc(http.MethodGet, "/api/subjects/:id/next-topic", s.requireRole(store.RoleStudent, s.nextTopicHandler))
	router.HandlerFunc(http.MethodGet, "/api/topics/:id/history", s.requireRole(store.RoleStudent, s.quizHistoryHandler))
	router.HandlerFunc(http.MethodGet, "/api/teacher/insights", s.requireRole(store.RoleTeacher, s.insightsHandler))

	return s.recoverPanic(s.authenticate(router))
}
