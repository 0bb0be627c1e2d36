// Package tthsdctl is a Go-native reference consumer of internal/engineapi
// (SPEC_FULL.md section 1): a cobra CLI that drives the same seven
// operations the cgo shim in cmd/libtthsd exports, without crossing the C
// boundary. It plays the role the teacher's own cmd/root.go TUI plays for
// its download engine, generalized from "one process, one download queue"
// to "inspect/drive any session the engine's registry knows about."
package tthsdctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped via -ldflags at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "tthsdctl",
	Short:   "Reference CLI for the tthsd download engine",
	Long:    `tthsdctl drives the engine's session lifecycle (get/start/pause/resume/stop) directly through internal/engineapi, the same surface cmd/libtthsd exports over cgo.`,
	Version: Version,
}

// Execute runs the command tree, exiting 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("tthsdctl version {{.Version}}\n")
}
