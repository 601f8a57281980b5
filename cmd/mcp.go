package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/topicreader/internal/mcp"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <topic.json>",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio that lets AI agents browse one topic file: an overview, filtered pages of posts, and single posts by number.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening topic: %w", err)
		}
		doc, err := topic.Open(f, filepath.Base(args[0]))
		f.Close()
		if err != nil {
			return err
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "topicreader MCP server started on stdio (topic=%q, posts=%d)\n", doc.Title(), doc.Len())

		return mcpserver.NewServer(doc).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
