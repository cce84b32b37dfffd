// Package commands implements the tutorkit command line interface.
package commands

import (
	"github.com/spf13/cobra"

	"tutorkit/pkg/config"
	"tutorkit/pkg/logging"
)

var (
	configFile string
	debug      bool

	cfg *config.Config
	log logging.Logger
)

func newRootCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "tutorkit",
		Short: "Self-hosted adaptive quiz platform backed by local language models",
		Long: `tutorkit runs an adaptive quiz platform entirely on local models.
It supervises the model-serving daemon, keeps the required models pulled,
ingests course books into a vector index and serves the teacher/student API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetDebug(debug)
			log = logging.NewLogger("cli")

			var err error
			cfg, err = config.Load(configFile)
			return err
		},
	}

	c.PersistentFlags().StringVar(&configFile, "config", "", "path to a tutorkit.yaml config file")
	c.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	c.AddCommand(
		newServeCmd(),
		newPullCmd(),
		newModelsCmd(),
		newStatusCmd(),
		newSetupCmd(),
		newLogsCmd(),
	)
	return c
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}
