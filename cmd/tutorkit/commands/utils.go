package commands

import (
	"os"

	"github.com/moby/term"
	"github.com/spf13/cobra"
)

// commandPrinter adapts a cobra.Command to the runtime.Printer used for
// pull progress rendering.
type commandPrinter struct {
	cmd *cobra.Command
}

func asPrinter(cmd *cobra.Command) *commandPrinter {
	return &commandPrinter{cmd: cmd}
}

func (cp *commandPrinter) Printf(format string, args ...any) {
	cp.cmd.Printf(format, args...)
}

func (cp *commandPrinter) Println(args ...any) {
	cp.cmd.Println(args...)
}

func (cp *commandPrinter) Write(p []byte) (n int, err error) {
	return cp.cmd.OutOrStdout().Write(p)
}

// GetFdInfo reports whether the command output is a terminal, which
// decides between in-place progress bars and line-by-line output.
func (cp *commandPrinter) GetFdInfo() (fd uintptr, isTerminal bool) {
	if file, ok := cp.cmd.OutOrStdout().(*os.File); ok {
		return term.GetFdInfo(file)
	}
	return term.GetFdInfo(os.Stdout)
}
