// Package main provides the coreverif command line tool, which runs the
// verification tests against the simulated core.
package main

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var rootCmd = &cobra.Command{
	Use:   "coreverif",
	Short: "Verify the pipelined core against its golden model.",
	Long: `coreverif drives random or directed instruction streams into the ` +
		`simulated core over its bus interface, samples the architectural ` +
		`state after every retirement and compares it with the golden model.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newRunCmd(), listCmd, benchCmd, configCmd)

	atexit.Exit(exitCode(rootCmd.Execute()))
}

// exitCode maps the result of a command to the process exit status.
func exitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
