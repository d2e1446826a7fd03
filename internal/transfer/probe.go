package transfer

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mixtli/fetchr/internal/utils"
)

var filenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

// ProbeResult holds what a metadata request revealed about a resource.
// Size 0 means the server did not report a usable length.
type ProbeResult struct {
	Size         int64
	RangeCapable bool
	Filename     string
}

// Probe issues a HEAD request to determine total resource size and whether
// the server advertises byte-range support.
func Probe(ctx context.Context, link string, client utils.HTTPDoer) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, "HEAD", link, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HEAD request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error probing URL: %w", err)
	}
	defer resp.Body.Close()

	result := &ProbeResult{
		RangeCapable: resp.Header.Get("Accept-Ranges") == "bytes",
		Filename:     filenameFromHeaders(resp.Header),
	}
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil && size > 0 {
			result.Size = size
		}
	}
	return result, nil
}

func filenameFromHeaders(header http.Header) string {
	contentDisposition := header.Get("Content-Disposition")
	if contentDisposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return ""
	}
	if fn, ok := params["filename"]; ok && fn != "" {
		return filenameRegex.ReplaceAllString(fn, "_")
	}
	if fn, ok := params["filename*"]; ok && fn != "" {
		if strings.HasPrefix(fn, "UTF-8''") {
			unescaped, _ := url.PathUnescape(strings.TrimPrefix(fn, "UTF-8''"))
			return filenameRegex.ReplaceAllString(unescaped, "_")
		}
	}
	return ""
}
