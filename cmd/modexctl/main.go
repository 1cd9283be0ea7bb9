// Command modexctl is an operator entry point for the upgrademutex
// module: it drives synthetic load against an in-process mutex or
// registry, and serves a debug HTTP endpoint for inspecting registry
// state, without being part of the primitive itself.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "modexctl",
		Short:         "Operator surface for the upgrademutex module",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("dev", false, "use a development (console, debug-level) logger instead of production JSON")

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "modexctl:", err)
		os.Exit(1)
	}
}
