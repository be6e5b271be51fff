package kv

import (
	"github.com/kavirajk/kvs/cmd/util"
	"github.com/kavirajk/kvs/lib/store"
	"github.com/kavirajk/kvs/lib/store/logstore"
	"github.com/spf13/cobra"
)

var (
	kvStore store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value store operations",
		PersistentPreRunE: setupStore,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if kvStore != nil {
				return kvStore.Close()
			}
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// The store location can come from the flag or the KVS_PATH env variable
	KeyValueCommands.PersistentFlags().String("path", ".", util.WrapString("Path to the log file, or to the directory that contains it"))

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(rmCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupStore opens the store configured via flags and environment
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	kvStore, err = logstore.Open(util.GetStorePath())
	return err
}
