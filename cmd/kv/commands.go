package kv

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kavirajk/kvs/cmd/util"
	"github.com/kavirajk/kvs/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := kvStore.Set(key, []byte(value)); err != nil {
				return err
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, ok, err := kvStore.Get(key)
			if err != nil {
				return err
			}
			if !ok {
				// a missing key is a normal result, not a failure
				fmt.Println("Key not found")
				return nil
			}
			fmt.Println(string(value))
			return nil
		},
	}
	rmCmd = &cobra.Command{
		Use:   "rm [key]",
		Short: "Removes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := kvStore.Remove(key); err != nil {
				if store.HasCode(err, store.RetCKeyNotFound) {
					fmt.Println("Key not found")
					os.Exit(1)
				}
				return err
			}
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints metadata about the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := kvStore.GetStoreInfo()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			if viper.GetBool("metrics") {
				if mw, ok := kvStore.(interface{ WritePrometheus(io.Writer) }); ok {
					fmt.Println()
					mw.WritePrometheus(os.Stdout)
				}
			}
			return nil
		},
	}
)

func init() {
	infoCmd.Flags().Bool("metrics", false, util.WrapString("Also print store operation metrics in Prometheus text format"))
}
