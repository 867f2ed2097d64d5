package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/coreverif/tb"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered tests.",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range tb.Tests() {
			fmt.Printf("%-20s %s\n", t.Name, t.Description)
		}
	},
}
