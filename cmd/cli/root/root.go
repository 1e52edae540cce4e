package root

import (
	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "lending",
	Short:         "Equipment lending CLI",
	Long:          "Command line interface for lending, returning and maintaining equipment through the lending API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
