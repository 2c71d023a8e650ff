package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "strand",
	Short: "Strand is a capability-keyed dispatch runtime for tensor operators",
	Long: `Strand dispatches tensor operator calls through capability keys and lets
representation-changing transforms intercept them transparently.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a runtime config YAML")
}
