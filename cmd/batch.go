package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mixtli/fetchr/internal/scheduler"
	"github.com/mixtli/fetchr/internal/utils"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [BATCH_FILE]",
		Short: "Run every download listed in a YAML batch file",
		Long: `Run every download listed in a YAML batch file. The file maps a job type
to its entries:

  http:
    - link: https://example.com/big.iso
      op: downloads/big.iso
      resume: true
  s3:
    - link: s3://bucket/path/to/object`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			jobs, err := readBatchFile(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(os.Stderr, "batch file has no entries")
				os.Exit(1)
			}
			policy := scheduler.DefaultRetryPolicy()
			policy.MaxAttempts = retries
			policy.UseBreaker = useBreaker
			if err := scheduler.Run(context.Background(), jobs, workers, policy); err != nil {
				os.Exit(1)
			}
		},
	}
	return cmd
}

func readBatchFile(path string) ([]utils.TransferJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading batch file: %v", err)
	}
	var batch utils.BatchFile
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("error parsing batch file: %v", err)
	}
	var jobs []utils.TransferJob
	for jobType, entries := range batch {
		for _, entry := range entries {
			if entry.Link == "" {
				return nil, fmt.Errorf("batch entry under %q is missing a link", jobType)
			}
			jobs = append(jobs, utils.TransferJob{
				JobType:          jobType,
				URL:              entry.Link,
				OutputPath:       entry.OutputPath,
				Resume:           entry.Resume,
				Debug:            debug,
				HTTPClientConfig: globalHTTPConfig,
				Metadata:         make(map[string]any),
			})
		}
	}
	return jobs, nil
}
