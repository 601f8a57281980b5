package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/topicreader/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "topicreader",
	Short: "Read, annotate and summarize exported forum topics",
	Long: `Topic Reader opens an exported forum topic (a JSON file) in the browser,
shows it fifty posts per page, and lets you highlight, tag and summarize
posts. Summaries and per-post chats can be produced by an AI model, either
one post at a time in the reader or in bulk over files on disk.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// API keys may live in a local .env file.
		_ = godotenv.Load()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFileName, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
