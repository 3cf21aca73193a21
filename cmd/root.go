// Package cmd - Command line interface of the Cityscapes exporter.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCommand creates and returns the root command.
func RootCommand() *cobra.Command {
	var configFile string
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:          "cityscapes",
		Short:        "Export annotation projects to the Cityscapes layout",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file (default ./cityscapes.yaml)")

	rootCmd.AddCommand(
		exportCommand(v, &configFile),
		versionCommand(),
	)
	return rootCmd
}
