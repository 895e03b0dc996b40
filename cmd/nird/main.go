package main

import (
	"fmt"
	"os"

	"villagenird/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "nird",
		Short:         "Village NIRD policy simulation tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "nird_config.yml", "path to the YAML config file")

	root.AddCommand(
		newSimulateCmd(flags),
		newRulesCmd(flags),
		newBackupCmd(),
		newRestoreCmd(),
		newDrillCmd(),
	)
	return root
}

func (f *rootFlags) load() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(f.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRulesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the active rule table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			table, err := cfg.Rules()
			if err != nil {
				return err
			}
			return printRules(cmd.OutOrStdout(), table)
		},
	}
}
