package runtime

import (
	"github.com/pkg/errors"
)

var (
	// ErrDaemonUnavailable indicates that the model-serving daemon could not
	// be reached at its configured endpoint.
	ErrDaemonUnavailable = errors.New("model-serving daemon unavailable")
	// ErrModelNotFound indicates that a model is not known to the daemon.
	ErrModelNotFound = errors.New("model not found")
	// ErrPullFailed indicates that a model pull was reported as failed by
	// the daemon.
	ErrPullFailed = errors.New("model pull failed")
)
