package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mixtli/fetchr/internal/output"
	"github.com/mixtli/fetchr/internal/transfer"
	"github.com/mixtli/fetchr/internal/utils"
)

func newUnzipCmd() *cobra.Command {
	var extractDir string

	cmd := &cobra.Command{
		Use:   "unzip [URL] [--dir EXTRACT_DIR]",
		Short: "Download a zip archive and extract it in one step",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			executor := transfer.NewExecutor(utils.NewFetchrHTTPClient(globalHTTPConfig))
			output.PrintInfo(fmt.Sprintf("Fetching archive from %s", args[0]))
			data, err := executor.DownloadBytes(context.Background(), args[0], transfer.Options{Debug: debug}, nil)
			if err != nil {
				output.PrintError(fmt.Sprintf("Download failed: %v", err))
				os.Exit(1)
			}
			if err := transfer.Unzip(data.Bytes(), extractDir); err != nil {
				output.PrintError(fmt.Sprintf("Extraction failed: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Extracted to %s", extractDir))
		},
	}

	cmd.Flags().StringVarP(&extractDir, "dir", "d", ".", "Directory to extract the archive into")
	return cmd
}
