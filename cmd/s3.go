package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mixtli/fetchr/internal/scheduler"
	"github.com/mixtli/fetchr/internal/utils"
)

func newS3Cmd() *cobra.Command {
	var outputPath string
	var resume bool
	var profile string
	var blockSize int64

	cmd := &cobra.Command{
		Use:   "s3 [s3://BUCKET/KEY] [--output OUTPUT_PATH]",
		Short: "Download an S3 object with resumable ranged reads",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			job := utils.TransferJob{
				JobType:          "s3",
				URL:              args[0],
				OutputPath:       outputPath,
				Resume:           resume,
				Debug:            debug,
				BlockSize:        blockSize,
				HTTPClientConfig: globalHTTPConfig,
				Metadata:         map[string]any{"profile": profile},
			}
			policy := scheduler.DefaultRetryPolicy()
			policy.MaxAttempts = retries
			if err := scheduler.Run(context.Background(), []utils.TransferJob{job}, 1, policy); err != nil {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (inferred from the object key if not provided)")
	cmd.Flags().BoolVar(&resume, "resume", false, "Resume from the bytes already present in the output file")
	cmd.Flags().StringVar(&profile, "profile", "default", "AWS profile to use")
	cmd.Flags().Int64Var(&blockSize, "block-size", utils.DefaultBlockSize, "Bytes requested per range iteration")
	return cmd
}
