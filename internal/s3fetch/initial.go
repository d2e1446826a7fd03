// Package s3fetch downloads S3 objects with the same resumable ranged
// strategy as the HTTP path: the destination file's size is the checkpoint
// and each iteration fetches one byte window via a ranged GetObject.
package s3fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mixtli/fetchr/internal/transfer"
	"github.com/mixtli/fetchr/internal/utils"
)

type S3Downloader struct{}

func (d *S3Downloader) ValidateJob(ctx context.Context, job *utils.TransferJob) error {
	bucket, key, err := parseS3URL(job.URL)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("S3 URL must name an object key")
	}
	job.Metadata["bucket"] = bucket
	job.Metadata["key"] = key
	log.Debug().Str("op", "s3fetch/initial").Msgf("Job validated for s3://%s/%s", bucket, key)
	return nil
}

func (d *S3Downloader) BuildJob(ctx context.Context, job *utils.TransferJob) error {
	bucket := job.Metadata["bucket"].(string)
	key := job.Metadata["key"].(string)
	profile, _ := job.Metadata["profile"].(string)
	client, err := getS3Client(ctx, profile)
	if err != nil {
		return fmt.Errorf("error creating S3 client: %v", err)
	}
	size, err := probeObject(ctx, client, bucket, key)
	if err != nil {
		return fmt.Errorf("error probing S3 object: %w", err)
	}
	if size <= 0 {
		return transfer.ErrSizeUnknown
	}
	job.Metadata["fileSize"] = size

	if job.OutputPath == "" {
		parts := strings.Split(key, "/")
		job.OutputPath = parts[len(parts)-1]
	}
	log.Debug().Str("op", "s3fetch/initial").Msgf("Job built: size=%d output=%s", size, job.OutputPath)
	return nil
}

func parseS3URL(url string) (string, string, error) {
	if !strings.HasPrefix(url, "s3://") {
		return "", "", fmt.Errorf("invalid S3 URL format")
	}
	url = strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(url, "/", 2)
	if len(parts) < 1 || parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 URL format")
	}
	bucket := parts[0]
	key := ""
	if len(parts) > 1 {
		key = parts[1]
	}
	return bucket, key, nil
}
