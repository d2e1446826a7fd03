package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mixtli/fetchr/internal/dump"
	"github.com/mixtli/fetchr/internal/utils"
)

// Options controls a single download.
type Options struct {
	Resume    bool
	Debug     bool
	BlockSize int64
	ChunkSize int64
}

func (o *Options) applyDefaults() {
	if o.BlockSize <= 0 {
		o.BlockSize = utils.DefaultBlockSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = utils.DefaultChunkSize
	}
}

// Executor drives one download at a time: probe, pick direct or ranged
// strategy, stream bytes to the destination, verify the final size. It keeps
// no state between calls; the destination file itself is the checkpoint that
// makes ranged transfers resumable.
type Executor struct {
	client utils.HTTPDoer
	sink   *dump.Sink
}

func NewExecutor(client utils.HTTPDoer) *Executor {
	return &Executor{client: client}
}

// SetSink attaches a debug sink that records one request/response snapshot
// per attempt when Options.Debug is set. Recording is best-effort and never
// fails a transfer.
func (e *Executor) SetSink(sink *dump.Sink) {
	e.sink = sink
}

// Download probes the URL and picks the transfer strategy: ranged when the
// server advertises byte-range support, direct otherwise.
func (e *Executor) Download(ctx context.Context, link, outputPath string, opts Options, progressCh chan<- int64) error {
	opts.applyDefaults()
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %v", err)
	}
	probe, err := Probe(ctx, link, e.client)
	if err != nil {
		return err
	}
	if probe.Size <= 0 {
		return ErrSizeUnknown
	}
	if probe.RangeCapable {
		return e.DownloadRanges(ctx, link, outputPath, probe.Size, opts, progressCh)
	}
	return e.DownloadDirect(ctx, link, outputPath, probe.Size, opts, progressCh)
}

// DownloadDirect fetches the whole resource in one streaming request.
func (e *Executor) DownloadDirect(ctx context.Context, link, outputPath string, expectedSize int64, opts Options, progressCh chan<- int64) error {
	opts.applyDefaults()
	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return fmt.Errorf("error creating GET request: %v", err)
	}
	resp, err := e.do(req, opts.Debug)
	if err != nil {
		return fmt.Errorf("error executing GET request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Status: resp.StatusCode, RetryAfter: resp.Header.Get("Retry-After")}
	}

	outFile, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error creating output file: %v", err)
	}
	defer outFile.Close()

	if _, err := e.copyChunks(outFile, resp.Body, opts.ChunkSize, progressCh); err != nil {
		return err
	}
	if err := outFile.Sync(); err != nil {
		return fmt.Errorf("error flushing output file: %v", err)
	}

	written := fileSize(outputPath)
	log.Debug().Str("op", "transfer/executor").Msgf("Direct transfer wrote %d of %d bytes", written, expectedSize)
	if written < expectedSize {
		return &IncompleteError{Got: written, Want: expectedSize}
	}
	return nil
}

// DownloadRanges fetches the resource in successive byte windows, appending
// to the destination file. The file's on-disk size is re-read at the top of
// every iteration, so an interrupted transfer resumes from the exact byte
// already written and external truncation is detected rather than skipped.
func (e *Executor) DownloadRanges(ctx context.Context, link, outputPath string, expectedSize int64, opts Options, progressCh chan<- int64) error {
	opts.applyDefaults()
	if !opts.Resume {
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
		windowEnd := min(written+opts.BlockSize, expectedSize)
		log.Debug().Str("op", "transfer/executor").Msgf("Iteration %d: range %d-%d of %d", iteration, written, windowEnd-1, expectedSize)

		n, err := e.fetchRange(ctx, link, outFile, written, windowEnd, opts, progressCh)
		if err != nil {
			return err
		}
		// Flush before re-reading the size, or the next stat may be stale.
		if err := outFile.Sync(); err != nil {
			return fmt.Errorf("error flushing output file: %v", err)
		}
		if n == 0 {
			return ErrZeroProgress
		}
	}

	written := fileSize(outputPath)
	if written < expectedSize {
		return &IncompleteError{Got: written, Want: expectedSize}
	}
	log.Info().Str("op", "transfer/executor").Msgf("Ranged transfer complete: %d bytes in %s", written, outputPath)
	return nil
}

// fetchRange requests bytes [start, end) and appends the body to outFile.
// The upper bound is advisory; servers may return more or less.
func (e *Executor) fetchRange(ctx context.Context, link string, outFile *os.File, start, end int64, opts Options, progressCh chan<- int64) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return 0, fmt.Errorf("error creating range request: %v", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end-1))
	resp, err := e.do(req, opts.Debug)
	if err != nil {
		return 0, fmt.Errorf("error executing range request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0, &StatusError{Status: resp.StatusCode, RetryAfter: resp.Header.Get("Retry-After")}
	}
	return e.copyChunks(outFile, resp.Body, opts.ChunkSize, progressCh)
}

func (e *Executor) copyChunks(dst io.Writer, src io.Reader, chunkSize int64, progressCh chan<- int64) (int64, error) {
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
			return total, fmt.Errorf("error reading response body: %v", readErr)
		}
	}
}

// do executes the request, recording a snapshot pair when debugging.
func (e *Executor) do(req *http.Request, debug bool) (*http.Response, error) {
	record := debug && e.sink != nil
	var reqSnap dump.RequestSnapshot
	if record {
		reqSnap = dump.RequestSnapshot{
			Timestamp: time.Now().Unix(),
			Method:    req.Method,
			URL:       req.URL.String(),
			Headers:   flattenHeaders(req.Header),
		}
	}
	resp, err := e.client.Do(req)
	if record {
		respSnap := dump.ResponseSnapshot{Timestamp: time.Now().Unix()}
		if resp != nil {
			respSnap.URL = resp.Request.URL.String()
			respSnap.Status = resp.StatusCode
			respSnap.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
			respSnap.Headers = flattenHeaders(resp.Header)
			respSnap.BodyLength = resp.ContentLength
		}
		if _, recordErr := e.sink.Record(reqSnap, respSnap); recordErr != nil {
			log.Warn().Str("op", "transfer/executor").Err(recordErr).Msg("Failed to record debug snapshot")
		}
	}
	return resp, err
}

func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for key := range header {
		flat[key] = header.Get(key)
	}
	return flat
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
