package commands

import (
	"time"

	"github.com/docker/go-units"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"tutorkit/pkg/logging"
	"tutorkit/pkg/runtime"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models available in the local daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := runtime.NewClient(logging.NewLogger("runtime"), cfg.Runtime.Endpoint)
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			if len(models) == 0 {
				cmd.Println("No models found. Run 'tutorkit pull' to fetch the required models.")
				return nil
			}

			table := tablewriter.NewTable(cmd.OutOrStdout())
			table.Header("MODEL", "SIZE", "MODIFIED", "DIGEST")
			for _, model := range models {
				modified := ""
				if !model.ModifiedAt.IsZero() {
					modified = units.HumanDuration(time.Since(model.ModifiedAt)) + " ago"
				}
				digest := model.Digest
				if len(digest) > 12 {
					digest = digest[:12]
				}
				if err := table.Append([]string{model.Name, units.HumanSize(float64(model.Size)), modified, digest}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
