package transfer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProbeReadsSizeAndRangeSupport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("probe sent %s, want HEAD", r.Method)
		}
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", "12345")
	}))
	defer server.Close()

	probe, err := Probe(context.Background(), server.URL, server.Client())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if probe.Size != 12345 {
		t.Fatalf("Size = %d, want 12345", probe.Size)
	}
	if !probe.RangeCapable {
		t.Fatal("RangeCapable = false, want true")
	}
}

func TestProbeWithoutRangeSupport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
	}))
	defer server.Close()

	probe, err := Probe(context.Background(), server.URL, server.Client())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if probe.RangeCapable {
		t.Fatal("RangeCapable = true without Accept-Ranges header")
	}
}

func TestProbeFilenameFromContentDisposition(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"plain", `attachment; filename="report.pdf"`, "report.pdf"},
		{"sanitized", `attachment; filename="we?ird/name.bin"`, "we_ird_name.bin"},
		{"encoded", `attachment; filename*=UTF-8''na%C3%AFve.txt`, "na_ve.txt"},
		{"missing", `attachment`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Disposition", tc.header)
				w.Header().Set("Content-Length", "10")
			}))
			defer server.Close()

			probe, err := Probe(context.Background(), server.URL, server.Client())
			if err != nil {
				t.Fatalf("Probe: %v", err)
			}
			if probe.Filename != tc.want {
				t.Fatalf("Filename = %q, want %q", probe.Filename, tc.want)
			}
		})
	}
}
