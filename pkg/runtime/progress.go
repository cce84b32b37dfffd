package runtime

import (
	"strings"

	"github.com/docker/go-units"
	"github.com/fatih/color"
)

// Printer is the interface used to print status updates.
type Printer interface {
	// Printf should perform formatted printing.
	Printf(format string, args ...any)
	// Println should perform line-based printing.
	Println(args ...any)
	// Write implements io.Writer for stream-based output.
	Write(p []byte) (n int, err error)
	// GetFdInfo returns the file descriptor and terminal status for the output.
	GetFdInfo() (fd uintptr, isTerminal bool)
}

// noopPrinter is used to silence progress output if desired.
type noopPrinter struct{}

// Printf implements Printer.Printf.
func (*noopPrinter) Printf(format string, args ...any) {}

// Println implements Printer.Println.
func (*noopPrinter) Println(args ...any) {}

// Write implements Printer.Write.
func (*noopPrinter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// GetFdInfo implements Printer.GetFdInfo.
func (*noopPrinter) GetFdInfo() (fd uintptr, isTerminal bool) {
	return 0, false
}

// NoopPrinter returns a Printer that does nothing.
func NoopPrinter() Printer {
	return &noopPrinter{}
}

var sizeUnits = []string{"B", "kB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// pullProgressRenderer returns a progress callback that renders pull updates
// on the given printer. On a terminal the current layer's progress is
// rewritten in place; otherwise status transitions are printed line by line.
func pullProgressRenderer(model string, printer Printer) func(PullProgress) {
	_, isTerminal := printer.GetFdInfo()
	lastStatus := ""
	lineOpen := false

	endLine := func() {
		if lineOpen {
			printer.Printf("\n")
			lineOpen = false
		}
	}

	return func(update PullProgress) {
		switch {
		case update.Total > 0:
			completed := units.CustomSize("%.2f%s", float64(update.Completed), 1000.0, sizeUnits)
			total := units.CustomSize("%.2f%s", float64(update.Total), 1000.0, sizeUnits)
			percent := float64(update.Completed) / float64(update.Total) * 100
			if isTerminal {
				printer.Printf("\r%s: %s %s / %s (%.1f%%)    ", model, shortDigest(update.Digest), completed, total, percent)
				lineOpen = true
			} else if update.Completed == update.Total {
				// Avoid log spam off-terminal, report completed layers only.
				printer.Printf("%s: %s %s\n", model, shortDigest(update.Digest), total)
			}
		case update.Status != "" && update.Status != lastStatus:
			endLine()
			if update.Status == "success" {
				printer.Println(color.GreenString("%s: %s", model, update.Status))
			} else {
				printer.Printf("%s: %s\n", model, update.Status)
			}
		}
		lastStatus = update.Status
	}
}

func shortDigest(digest string) string {
	digest = strings.TrimPrefix(digest, "sha256:")
	if len(digest) > 12 {
		digest = digest[:12]
	}
	if digest == "" {
		return "manifest"
	}
	return digest
}
