package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of strand",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("strand version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
