// Package scheduler runs transfer jobs on a worker pool and owns the retry
// policy around each download: failures land in a shared error window, and
// rate-limited jobs wait out an exponential backoff before the next attempt.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mixtli/fetchr/internal/breaker"
	"github.com/mixtli/fetchr/internal/output"
	"github.com/mixtli/fetchr/internal/pace"
	"github.com/mixtli/fetchr/internal/s3fetch"
	"github.com/mixtli/fetchr/internal/transfer"
	"github.com/mixtli/fetchr/internal/utils"
)

var downloaderRegistry = map[string]utils.Downloader{
	"http": &transfer.HTTPDownloader{},
	"s3":   &s3fetch.S3Downloader{},
}

// RetryPolicy controls how often a failed download is re-attempted and how
// backoff grows with the rolling error count.
type RetryPolicy struct {
	MaxAttempts   int
	BackoffBase   float64 // seconds
	BackoffFactor int
	BackoffJitter float64
	RateLimited   transfer.RateLimitCheck
	UseBreaker    bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		BackoffBase:   1.0,
		BackoffFactor: 2,
		BackoffJitter: 0.1,
		RateLimited:   transfer.DefaultRateLimitCheck,
	}
}

// Run executes the jobs with numWorkers parallel workers and returns an
// error when any job ultimately failed.
func Run(ctx context.Context, jobs []utils.TransferJob, numWorkers int, policy RetryPolicy) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.RateLimited == nil {
		policy.RateLimited = transfer.DefaultRateLimitCheck
	}
	outputMgr := output.NewManager()
	outputMgr.StartDisplay()
	defer outputMgr.StopDisplay()

	// One window shared by all workers so backoff reflects overall pressure.
	window := pace.NewWindow(pace.DefaultRetention)
	delayer := pace.NewDelayer()

	jobCh := make(chan utils.TransferJob, len(jobs))
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			processJobs(ctx, jobCh, outputMgr, window, delayer, policy)
		}()
	}
	wg.Wait()

	if outputMgr.HasErrors() {
		return fmt.Errorf("one or more transfers failed")
	}
	return nil
}

func processJobs(ctx context.Context, jobCh <-chan utils.TransferJob, outputMgr *output.Manager, window *pace.Window, delayer *pace.Delayer, policy RetryPolicy) {
	for job := range jobCh {
		job.ID = uuid.NewString()
		name := job.OutputPath
		if name == "" {
			name = job.URL
		}
		funcID := outputMgr.Register(name)

		downloader, exists := downloaderRegistry[job.JobType]
		if !exists {
			outputMgr.ReportError(funcID, fmt.Errorf("unknown job type: %s", job.JobType))
			continue
		}
		if policy.UseBreaker && job.JobType == "http" {
			job.Client = breaker.New(utils.NewFetchrHTTPClient(job.HTTPClientConfig), breaker.DefaultConfig(job.ID))
		}
		job.ProgressFunc = func(written, total int64) {
			outputMgr.SetProgress(funcID, written, total)
		}

		outputMgr.SetMessage(funcID, fmt.Sprintf("Validating %s job", job.JobType))
		if err := downloader.ValidateJob(ctx, &job); err != nil {
			outputMgr.ReportError(funcID, fmt.Errorf("validation failed: %w", err))
			continue
		}
		outputMgr.SetMessage(funcID, fmt.Sprintf("Building %s job", job.JobType))
		if err := downloader.BuildJob(ctx, &job); err != nil {
			outputMgr.ReportError(funcID, fmt.Errorf("build failed: %w", err))
			continue
		}

		if err := downloadWithRetry(ctx, downloader, &job, window, delayer, policy); err != nil {
			outputMgr.ReportError(funcID, err)
			continue
		}
		outputMgr.Complete(funcID, fmt.Sprintf("Saved to %s", job.OutputPath))
	}
}

// downloadWithRetry runs Download up to MaxAttempts times. The executor
// itself never retries; this is the only retry loop, and backoff pacing
// applies only to failures the rate-limit predicate recognizes.
func downloadWithRetry(ctx context.Context, downloader utils.Downloader, job *utils.TransferJob, window *pace.Window, delayer *pace.Delayer, policy RetryPolicy) error {
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = downloader.Download(ctx, job)
		if lastErr == nil {
			return nil
		}
		window.Add(job.ID)
		if !retryable(lastErr, policy) {
			return lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}
		seconds := delayer.AtLeast(policy.BackoffBase, policy.BackoffJitter)
		if policy.RateLimited(lastErr) {
			seconds = delayer.Backoff(policy.BackoffBase, policy.BackoffFactor, window.Size(), policy.BackoffJitter)
			log.Warn().Str("op", "scheduler").Msgf("Rate limited (%d recent errors), backing off %.1fs", window.Size(), seconds)
		}
		if err := delayer.Sleep(ctx, seconds); err != nil {
			return err
		}
		log.Info().Str("op", "scheduler").Msgf("Retrying %s (attempt %d/%d)", job.URL, attempt+1, policy.MaxAttempts)
	}
	return fmt.Errorf("download failed after %d attempts: %w", policy.MaxAttempts, lastErr)
}

// retryable reports whether another attempt could help: rate limits and
// server-side or network failures qualify; size, progress, and completeness
// errors do not.
func retryable(err error, policy RetryPolicy) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if policy.RateLimited(err) {
		return true
	}
	var statusErr *transfer.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 500
	}
	if errors.Is(err, transfer.ErrSizeUnknown) || errors.Is(err, transfer.ErrZeroProgress) {
		return false
	}
	var incompleteErr *transfer.IncompleteError
	if errors.As(err, &incompleteErr) {
		return false
	}
	// Remaining failures are connection-class; give them another shot.
	return true
}
