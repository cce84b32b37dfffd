package commands

import (
	"github.com/spf13/cobra"

	"tutorkit/pkg/logging"
	"tutorkit/pkg/runtime"
)

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull [MODEL...]",
		Short: "Pull models into the local daemon (defaults to the required models)",
		RunE: func(cmd *cobra.Command, args []string) error {
			models := args
			if len(models) == 0 {
				models = cfg.RequiredModels()
			}

			client := runtime.NewClient(logging.NewLogger("runtime"), cfg.Runtime.Endpoint)
			return client.EnsureModels(cmd.Context(), models, asPrinter(cmd))
		},
	}
}
