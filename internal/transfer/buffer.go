package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// DownloadBytes fetches the resource into memory instead of a file. Meant
// for small payloads like archives that get extracted right away.
func (e *Executor) DownloadBytes(ctx context.Context, link string, opts Options, progressCh chan<- int64) (*bytes.Buffer, error) {
	opts.applyDefaults()
	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GET request: %v", err)
	}
	resp, err := e.do(req, opts.Debug)
	if err != nil {
		return nil, fmt.Errorf("error executing GET request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode, RetryAfter: resp.Header.Get("Retry-After")}
	}
	var data bytes.Buffer
	if _, err := e.copyChunks(&data, resp.Body, opts.ChunkSize, progressCh); err != nil {
		return nil, err
	}
	return &data, nil
}

// Unzip extracts a zip archive held in memory into the given directory.
func Unzip(data []byte, dir string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("error reading zip archive: %v", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating extraction directory: %v", err)
	}
	for _, file := range reader.File {
		if err := extractZipEntry(file, dir); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(file *zip.File, dir string) error {
	target := filepath.Join(dir, filepath.Clean(file.Name))
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return fmt.Errorf("archive entry escapes extraction directory: %s", file.Name)
	}
	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("error creating directory for %s: %v", file.Name, err)
	}
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("error opening archive entry %s: %v", file.Name, err)
	}
	defer src.Close()
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, file.Mode())
	if err != nil {
		return fmt.Errorf("error creating %s: %v", target, err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("error extracting %s: %v", file.Name, err)
	}
	return nil
}
