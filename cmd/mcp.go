package cmd

import (
	"github.com/jaajung-kjs/kepco-survey/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the survey MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents read department and organization scores.`,
	// Nothing may print to stdout here; it carries the protocol.
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		return mcp.StartMCPServer(rootCtx, surveyStore(), catalog)
	},
}
