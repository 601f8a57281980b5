package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/topicreader/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize topicreader configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the AI provider, quality tier and server settings, and writes them to .topicreader.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
