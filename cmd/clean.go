package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mixtli/fetchr/internal/output"
	"github.com/mixtli/fetchr/internal/utils"
)

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [PATH]",
		Short: "Remove debug capture directories left behind by --debug runs",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			if err := utils.CleanDebugDir(target); err != nil {
				output.PrintError(fmt.Sprintf("Cleanup failed: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess("Debug captures removed")
		},
	}
	return cmd
}
