package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "resolution-mcp",
	Short: "Application Resolution MCP gateway",
	Long: `resolution-mcp exposes the downstream application resolution service as MCP
tools over SSE: start a resolution job, poll its status, and fetch the
analysis produced for it.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
