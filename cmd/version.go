package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of glide",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("glide version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
