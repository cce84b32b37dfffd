package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tutorkit/pkg/logging"
	"tutorkit/pkg/runtime"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daemon status and whether the required models are present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := runtime.NewClient(logging.NewLogger("runtime"), cfg.Runtime.Endpoint)

			version, err := client.Version(cmd.Context())
			if err != nil {
				cmd.Println(color.RedString("Daemon: not running") + " (" + cfg.Runtime.Endpoint + ")")
				cmd.Println("Start it with 'tutorkit serve' or launch it manually.")
				return nil
			}
			cmd.Println(color.GreenString("Daemon: running") + " (version " + version + ")")

			for _, model := range cfg.RequiredModels() {
				present, err := client.HasModel(cmd.Context(), model)
				if err != nil {
					return err
				}
				if present {
					cmd.Printf("Model %s: %s\n", model, color.GreenString("present"))
				} else {
					cmd.Printf("Model %s: %s\n", model, color.YellowString("missing"))
				}
			}
			return nil
		},
	}
}
