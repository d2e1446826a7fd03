package s3fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/mixtli/fetchr/internal/transfer"
	"github.com/mixtli/fetchr/internal/utils"
)

func (d *S3Downloader) Download(ctx context.Context, job *utils.TransferJob) error {
	bucket := job.Metadata["bucket"].(string)
	key := job.Metadata["key"].(string)
	profile, _ := job.Metadata["profile"].(string)
	size, _ := job.Metadata["fileSize"].(int64)
	if size <= 0 {
		return transfer.ErrSizeUnknown
	}
	client, err := getS3Client(ctx, profile)
	if err != nil {
		return fmt.Errorf("error creating S3 client: %v", err)
	}

	blockSize := job.BlockSize
	if blockSize <= 0 {
		blockSize = utils.DefaultBlockSize
	}
	chunkSize := job.ChunkSize
	if chunkSize <= 0 {
		chunkSize = utils.DefaultChunkSize
	}

	progressCh := make(chan int64, 100)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		var totalDownloaded int64
		for bytes := range progressCh {
			totalDownloaded += bytes
			if job.ProgressFunc != nil {
				job.ProgressFunc(totalDownloaded, size)
			}
		}
		if job.ProgressFunc != nil {
			job.ProgressFunc(totalDownloaded, size)
		}
	}()
	err = downloadRanges(ctx, client, bucket, key, job.OutputPath, size, blockSize, chunkSize, job.Resume, progressCh)
	close(progressCh)
	<-progressDone
	return err
}

// downloadRanges is the S3 flavor of the ranged transfer loop: re-read the
// destination size every iteration, fetch [written, windowEnd) with a Range
// header, append, flush, verify at least the expected size at the end.
func downloadRanges(ctx context.Context, client *s3.Client, bucket, key, outputPath string, expectedSize, blockSize, chunkSize int64, resume bool, progressCh chan<- int64) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %v", err)
	}
	if !resume {
		if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("error removing stale output file: %v", err)
		}
	}
	outFile, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening output file: %v", err)
	}
	defer outFile.Close()

	for iteration := 1; ; iteration++ {
		written := fileSize(outputPath)
		if written >= expectedSize {
			break
		}
		windowEnd := min(written+blockSize, expectedSize)
		log.Debug().Str("op", "s3fetch/download").Msgf("Iteration %d: range %d-%d of %d", iteration, written, windowEnd-1, expectedSize)

		result, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-%d", written, windowEnd-1)),
		})
		if err != nil {
			return fmt.Errorf("error getting object range: %w", err)
		}
		n, err := copyChunks(outFile, result.Body, chunkSize, progressCh)
		result.Body.Close()
		if err != nil {
			return err
		}
		if err := outFile.Sync(); err != nil {
			return fmt.Errorf("error flushing output file: %v", err)
		}
		if n == 0 {
			return transfer.ErrZeroProgress
		}
	}

	written := fileSize(outputPath)
	if written < expectedSize {
		return &transfer.IncompleteError{Got: written, Want: expectedSize}
	}
	log.Info().Str("op", "s3fetch/download").Msgf("Object download complete: %d bytes in %s", written, outputPath)
	return nil
}

func copyChunks(dst io.Writer, src io.Reader, chunkSize int64, progressCh chan<- int64) (int64, error) {
	var total int64
	buffer := make([]byte, chunkSize)
	for {
		bytesRead, readErr := src.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := dst.Write(buffer[:bytesRead]); writeErr != nil {
				return total, fmt.Errorf("error writing to output file: %v", writeErr)
			}
			total += int64(bytesRead)
			if progressCh != nil {
				progressCh <- int64(bytesRead)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return total, nil
			}
			return total, fmt.Errorf("error reading object body: %v", readErr)
		}
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
