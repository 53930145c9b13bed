package cmd

import (
	"fmt"
	"sort"

	"github.com/relloyd/starpipe/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Save default settings in the config file",
	Long: fmt.Sprintf(`Save default settings in config file ~/%v/%v (or $SP_HOME/%v).
Keys match the long flag names. Environment variables and flags take precedence.`,
		config.MainDir, config.MainFileFullName, config.MainFileFullName),
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a default value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isConfigKey(args[0]) {
			return fmt.Errorf("unknown key %q; use one of: %v", args[0], configKeys())
		}
		f, err := config.DefaultFile()
		if err != nil {
			return err
		}
		return f.Set(args[0], args[1])
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a default value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var val string
		if err := configGet(args[0], &val); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), val)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := config.DefaultFile()
		if err != nil {
			return err
		}
		keys, err := f.GetAllKeys()
		if err != nil {
			return err
		}
		var val string
		for _, k := range keys { // for each key...
			if err := f.Get(k, &val); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v=%v\n", k, val)
		}
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Remove a default value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := config.DefaultFile()
		if err != nil {
			return err
		}
		return f.Delete(args[0])
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd, configRemoveCmd)
	for _, c := range []*cobra.Command{configSetCmd, configGetCmd, configListCmd, configRemoveCmd} {
		c.SilenceUsage = true
	}
}

// configKeys returns the keys that may be saved in the config file, sorted.
func configKeys() []string {
	keys := append(config.Keys(), commandKeys...)
	sort.Strings(keys)
	return keys
}

func isConfigKey(k string) bool {
	for _, v := range configKeys() {
		if v == k {
			return true
		}
	}
	return false
}
