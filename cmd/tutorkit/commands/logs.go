package commands

import (
	"os"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	var follow bool

	c := &cobra.Command{
		Use:   "logs",
		Short: "Show the serving daemon's log output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.RuntimeLogPath()
			if _, err := os.Stat(path); err != nil {
				cmd.Printf("No daemon log at %s yet.\n", path)
				return nil
			}

			if !follow {
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}

			t, err := tail.TailFile(path, tail.Config{Follow: true, ReOpen: true})
			if err != nil {
				return err
			}
			defer t.Cleanup()

			for {
				select {
				case <-cmd.Context().Done():
					return t.Stop()
				case line, ok := <-t.Lines:
					if !ok {
						return nil
					}
					if line.Err != nil {
						return line.Err
					}
					cmd.Println(line.Text)
				}
			}
		},
	}

	c.Flags().BoolVarP(&follow, "follow", "f", false, "keep streaming new log lines")
	return c
}
