// Package dump captures request/response snapshots as numbered JSON files
// for offline inspection of transfer attempts.
package dump

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const suffixWidth = 6

type RequestSnapshot struct {
	Timestamp int64             `json:"timestamp"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
}

type ResponseSnapshot struct {
	Timestamp  int64             `json:"timestamp"`
	URL        string            `json:"url"`
	Success    bool              `json:"success"`
	Status     int               `json:"status"`
	Headers    map[string]string `json:"headers"`
	BodyLength int64             `json:"bodyLength"`
}

type Record struct {
	Request  RequestSnapshot  `json:"request"`
	Response ResponseSnapshot `json:"response"`
}

// Sink writes one file per recorded attempt, named <name>-<index>.json with
// a zero-padded monotonic index.
type Sink struct {
	mu    sync.Mutex
	name  string
	dir   string
	index int
}

func NewSink(name, dir string) (*Sink, error) {
	if name == "" {
		return nil, fmt.Errorf("sink name cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating debug directory: %v", err)
	}
	return &Sink{name: name, dir: dir}, nil
}

// Record persists one request/response pair and returns the file written.
func (s *Sink) Record(req RequestSnapshot, resp ResponseSnapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index++
	path := s.filepath(s.index)
	data, err := json.MarshalIndent(Record{Request: req, Response: resp}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding debug record: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("error writing debug record: %v", err)
	}
	return path, nil
}

// Cleanup removes every file this sink's name prefix matches in its directory.
func (s *Sink) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	prefix := s.name + "-"
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sink) filepath(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%0*d.json", s.name, suffixWidth, index))
}
