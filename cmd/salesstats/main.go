package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "salesstats",
		Short: "Sales statistics over the carts listing",
		Long: `salesstats fetches the carts listing once, gives every order a stable
synthetic date and serves filtered, sorted chart series plus a dataset summary.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	rootCmd.AddCommand(newServeCmd(), newComputeCmd(), newSnapshotCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
