package commands

import (
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tutorkit/pkg/auth"
	"tutorkit/pkg/ingest"
	"tutorkit/pkg/logging"
	"tutorkit/pkg/progress"
	"tutorkit/pkg/quiz"
	"tutorkit/pkg/runtime"
	"tutorkit/pkg/server"
	"tutorkit/pkg/store"
	"tutorkit/pkg/vectorstore"
)

func newServeCmd() *cobra.Command {
	var noWatch bool

	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the daemon, ensure models are present and serve the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, noWatch)
		},
	}

	c.Flags().BoolVar(&noWatch, "no-watch", false, "disable the library directory watcher")
	return c
}

func runServe(cmd *cobra.Command, noWatch bool) error {
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := runtime.NewClient(logging.NewLogger("runtime"), cfg.Runtime.Endpoint)
	group, ctx := errgroup.WithContext(ctx)

	// Only launch our own daemon when none is reachable already.
	if _, err := client.Version(ctx); err != nil {
		supervisor := runtime.NewSupervisor(runtime.SupervisorConfig{
			Binary:  cfg.Runtime.Binary,
			LogPath: cfg.RuntimeLogPath(),
			Logger:  logging.NewLogger("supervisor"),
		})
		group.Go(func() error {
			return supervisor.Run(ctx)
		})
	} else {
		log.Info("reusing already-running serving daemon")
	}

	if err := runtime.WaitReady(ctx, client, cfg.Runtime.StartupTimeout); err != nil {
		stop()
		_ = group.Wait()
		return err
	}
	// Models must be local before the API starts answering quiz traffic.
	if err := client.EnsureModels(ctx, cfg.RequiredModels(), asPrinter(cmd)); err != nil {
		stop()
		_ = group.Wait()
		return err
	}

	db, err := store.Open(cfg.DatabasePath())
	if err != nil {
		stop()
		_ = group.Wait()
		return err
	}
	repo := store.NewRepository(db)
	defer repo.Close()

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("auth.jwt_secret is not set, using an ephemeral secret; tokens will not survive restarts")
	}

	vectors := vectorstore.New(db)
	authn := auth.New(secret, cfg.Auth.TokenTTL)
	ingestor := ingest.NewIngestor(logging.NewLogger("ingest"), repo, vectors, client, cfg.Runtime.EmbeddingModel)
	quizzes := quiz.NewGenerator(logging.NewLogger("quiz"), repo, vectors, client, cfg.Runtime.LLMModel, cfg.Runtime.EmbeddingModel)
	progressSvc := progress.NewService(logging.NewLogger("progress"), repo)

	api := server.New(logging.NewLogger("server"), cfg, repo, authn, ingestor, quizzes, progressSvc, client)
	group.Go(func() error {
		return api.Run(ctx)
	})

	if !noWatch {
		watcher := ingest.NewWatcher(ingestor, cfg.LibraryDir())
		group.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	return group.Wait()
}
