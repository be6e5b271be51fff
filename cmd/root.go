package cmd

import (
	"fmt"
	"os"

	"github.com/kavirajk/kvs/cmd/kv"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvs",
		Short: "embedded log-structured key-value store",
		Long: fmt.Sprintf(`kvs (v%s)

An embedded key-value store backed by an append-only command log
with an in-memory offset index and automatic log compaction.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvs",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvs v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
