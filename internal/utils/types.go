package utils

import "context"

type Downloader interface {
	Download(ctx context.Context, job *TransferJob) error
	BuildJob(ctx context.Context, job *TransferJob) error
	ValidateJob(ctx context.Context, job *TransferJob) error
}

// TransferJob describes one download from source to destination. BuildJob
// fills Metadata (expected size, range capability); Download consumes it.
// Client, when set, overrides the client built from HTTPClientConfig so the
// caller can layer wrappers (circuit breaker) that keep state across retries.
type TransferJob struct {
	ID               string
	JobType          string
	URL              string
	OutputPath       string
	Resume           bool
	Debug            bool
	BlockSize        int64
	ChunkSize        int64
	ProgressFunc     func(written, total int64)
	Metadata         map[string]any
	Client           HTTPDoer
	HTTPClientConfig HTTPClientConfig
}

type BatchEntry struct {
	OutputPath string `yaml:"op,omitempty"`
	Link       string `yaml:"link"`
	Resume     bool   `yaml:"resume,omitempty"`
}

type BatchFile map[string][]BatchEntry
