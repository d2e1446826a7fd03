package transfer

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mixtli/fetchr/internal/dump"
	"github.com/mixtli/fetchr/internal/utils"
)

// HTTPDownloader adapts the executor to the scheduler's job interface.
type HTTPDownloader struct{}

func (d *HTTPDownloader) ValidateJob(ctx context.Context, job *utils.TransferJob) error {
	parsedURL, err := url.Parse(job.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", parsedURL.Scheme)
	}
	if job.BlockSize < 0 || job.ChunkSize < 0 {
		return fmt.Errorf("block and chunk sizes must be positive")
	}
	return nil
}

func (d *HTTPDownloader) BuildJob(ctx context.Context, job *utils.TransferJob) error {
	probe, err := Probe(ctx, job.URL, jobClient(job))
	if err != nil {
		return fmt.Errorf("error probing URL: %w", err)
	}
	if probe.Size <= 0 {
		return ErrSizeUnknown
	}

	if job.OutputPath == "" && probe.Filename != "" {
		job.OutputPath = probe.Filename
	} else if job.OutputPath == "" {
		parsedURL, _ := url.Parse(job.URL)
		pathParts := strings.Split(parsedURL.Path, "/")
		job.OutputPath = pathParts[len(pathParts)-1]
		if job.OutputPath == "" {
			job.OutputPath = "download"
		}
	}

	// A file already at the expected size needs no transfer; any other
	// pre-existing file is only kept when resuming into it.
	if existingFile, err := os.Stat(job.OutputPath); err == nil {
		if existingFile.Size() == probe.Size {
			return fmt.Errorf("file already exists with same size")
		}
		if !job.Resume {
			job.OutputPath = utils.RenewOutputPath(job.OutputPath)
		}
	}

	job.Metadata["fileSize"] = probe.Size
	job.Metadata["rangeSupported"] = probe.RangeCapable
	log.Debug().Str("op", "transfer/initial").Msgf("Job built: size=%d ranges=%v output=%s", probe.Size, probe.RangeCapable, job.OutputPath)
	return nil
}

func (d *HTTPDownloader) Download(ctx context.Context, job *utils.TransferJob) error {
	executor := NewExecutor(jobClient(job))

	if job.Debug {
		debugDir := filepath.Join(filepath.Dir(job.OutputPath), utils.DebugDirName)
		sink, err := dump.NewSink(filepath.Base(job.OutputPath), debugDir)
		if err != nil {
			log.Warn().Str("op", "transfer/initial").Err(err).Msg("Debug sink unavailable, continuing without capture")
		} else {
			executor.SetSink(sink)
		}
	}

	totalSize, _ := job.Metadata["fileSize"].(int64)
	rangeSupported, _ := job.Metadata["rangeSupported"].(bool)
	if totalSize <= 0 {
		return ErrSizeUnknown
	}

	progressCh := make(chan int64, 100)
	progressDone := make(chan struct{})
	startTime := time.Now()
	go func() {
		defer close(progressDone)
		var totalDownloaded int64
		var lastBytes int64
		lastUpdate := startTime

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case bytes, ok := <-progressCh:
				if !ok {
					if job.ProgressFunc != nil {
						job.ProgressFunc(totalDownloaded, totalSize)
					}
					return
				}
				totalDownloaded += bytes
			case <-ticker.C:
				if totalDownloaded > lastBytes {
					if job.ProgressFunc != nil {
						job.ProgressFunc(totalDownloaded, totalSize)
					}
					elapsed := time.Since(lastUpdate).Seconds()
					if elapsed > 0 {
						job.Metadata["downloadSpeed"] = float64(totalDownloaded-lastBytes) / elapsed
						job.Metadata["elapsedTime"] = time.Since(startTime).Seconds()
					}
					lastUpdate = time.Now()
					lastBytes = totalDownloaded
				}
			}
		}
	}()

	// Bytes already on disk count toward progress when resuming.
	if rangeSupported && job.Resume {
		if resumeOffset := fileSize(job.OutputPath); resumeOffset > 0 {
			progressCh <- resumeOffset
		}
	}

	opts := Options{
		Resume:    job.Resume,
		Debug:     job.Debug,
		BlockSize: job.BlockSize,
		ChunkSize: job.ChunkSize,
	}
	var err error
	if rangeSupported {
		err = executor.DownloadRanges(ctx, job.URL, job.OutputPath, totalSize, opts, progressCh)
	} else {
		err = executor.DownloadDirect(ctx, job.URL, job.OutputPath, totalSize, opts, progressCh)
	}

	close(progressCh)
	<-progressDone

	job.Metadata["totalTime"] = time.Since(startTime).Seconds()
	return err
}

func jobClient(job *utils.TransferJob) utils.HTTPDoer {
	if job.Client != nil {
		return job.Client
	}
	return utils.NewFetchrHTTPClient(job.HTTPClientConfig)
}
