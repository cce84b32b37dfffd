package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"

	"tutorkit/pkg/logging"
)

// SupervisorConfig holds configuration for the daemon supervisor.
type SupervisorConfig struct {
	// Binary is the serving daemon binary (e.g. "ollama").
	Binary string
	// Args are the command line arguments (e.g. "serve").
	Args []string
	// LogPath is the file that receives the daemon's output.
	LogPath string
	// Logger provides logging functionality.
	Logger logging.Logger
}

// Supervisor runs the model-serving daemon as a child process and manages
// its lifecycle.
type Supervisor struct {
	config SupervisorConfig
}

// NewSupervisor creates a supervisor for the given daemon configuration.
func NewSupervisor(config SupervisorConfig) *Supervisor {
	if len(config.Args) == 0 {
		config.Args = []string{"serve"}
	}
	return &Supervisor{config: config}
}

// Run starts the daemon and blocks until the context is cancelled or the
// daemon exits. Cancellation terminates the daemon gracefully and returns
// nil; an unexpected exit is returned as an error carrying the tail of the
// daemon's output.
func (s *Supervisor) Run(ctx context.Context) error {
	logFile, err := os.OpenFile(s.config.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("unable to open daemon log file: %w", err)
	}
	defer logFile.Close()

	tailBuf := newTailBuffer(2048)
	out := io.MultiWriter(logFile, tailBuf)

	command := exec.CommandContext(ctx, s.config.Binary, s.config.Args...)
	command.Stdout = logFile
	command.Stderr = out
	command.Cancel = func() error {
		if goruntime.GOOS == "windows" {
			return command.Process.Kill()
		}
		return command.Process.Signal(os.Interrupt)
	}

	s.config.Logger.Infof("Starting %s %s (logs: %s)", s.config.Binary, strings.Join(s.config.Args, " "), s.config.LogPath)
	if err := command.Start(); err != nil {
		return fmt.Errorf("unable to start %s: %w", s.config.Binary, err)
	}

	daemonErrors := make(chan error, 1)
	go func() {
		daemonErr := command.Wait()

		errOutput := new(strings.Builder)
		if _, err := io.Copy(errOutput, tailBuf); err != nil {
			s.config.Logger.Warnf("failed to read daemon output tail: %v", err)
		}

		if len(errOutput.String()) != 0 {
			daemonErr = fmt.Errorf("%s exit status: %w\nwith output: %s", s.config.Binary, daemonErr, errOutput.String())
		} else {
			daemonErr = fmt.Errorf("%s exit status: %w", s.config.Binary, daemonErr)
		}

		daemonErrors <- daemonErr
		close(daemonErrors)
	}()
	defer func() {
		<-daemonErrors
	}()

	select {
	case <-ctx.Done():
		return nil
	case daemonErr := <-daemonErrors:
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		return fmt.Errorf("%s terminated unexpectedly: %w", s.config.Binary, daemonErr)
	}
}
