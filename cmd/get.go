package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mixtli/fetchr/internal/scheduler"
	"github.com/mixtli/fetchr/internal/utils"
)

func newGetCmd() *cobra.Command {
	var outputPath string
	var resume bool
	var blockSize int64
	var chunkSize int64

	cmd := &cobra.Command{
		Use:   "get [URL] [--output OUTPUT_PATH]",
		Short: "Download a file via HTTP/HTTPS, resuming ranged transfers when possible",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			job := utils.TransferJob{
				JobType:          "http",
				URL:              args[0],
				OutputPath:       outputPath,
				Resume:           resume,
				Debug:            debug,
				BlockSize:        blockSize,
				ChunkSize:        chunkSize,
				HTTPClientConfig: globalHTTPConfig,
				Metadata:         make(map[string]any),
			}
			policy := scheduler.DefaultRetryPolicy()
			policy.MaxAttempts = retries
			policy.UseBreaker = useBreaker
			if err := scheduler.Run(context.Background(), []utils.TransferJob{job}, 1, policy); err != nil {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (inferred from headers or URL if not provided)")
	cmd.Flags().BoolVar(&resume, "resume", false, "Resume from the bytes already present in the output file")
	cmd.Flags().Int64Var(&blockSize, "block-size", utils.DefaultBlockSize, "Bytes requested per range iteration")
	cmd.Flags().Int64Var(&chunkSize, "chunk-size", utils.DefaultChunkSize, "Read/write buffer size in bytes")
	return cmd
}
