package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-opc/pkg/opc"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "opc",
		Short:         "Inspect and edit Open Packaging Conventions files",
		Long:          "opc reads, edits and validates OPC packages such as .docx, .xlsx and .pptx files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "config file (yaml, toml or json)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error, off")

	root.AddCommand(
		newInspectCmd(),
		newLsCmd(),
		newCatCmd(),
		newAddCmd(),
		newRmCmd(),
		newThumbnailCmd(),
		newValidateCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

// initConfig merges defaults, the config file, OPC_* variables and flags
// into the global package configuration.
func initConfig(cmd *cobra.Command) error {
	v := opc.NewViper()
	if err := v.BindPFlag("log_level", cmd.Flags().Lookup("log-level")); err != nil {
		return err
	}
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}

	cfg, err := opc.ConfigFromViper(v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	opc.SetGlobalConfig(cfg)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "opc version %s\n", version)
		},
	}
}
