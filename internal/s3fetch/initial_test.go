package s3fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixtli/fetchr/internal/utils"
)

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		url     string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://my-bucket/path/to/object.bin", "my-bucket", "path/to/object.bin", false},
		{"s3://my-bucket/object", "my-bucket", "object", false},
		{"s3://my-bucket", "my-bucket", "", false},
		{"s3://", "", "", true},
		{"https://example.com/file", "", "", true},
		{"my-bucket/object", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			bucket, key, err := parseS3URL(tc.url)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.bucket, bucket)
			assert.Equal(t, tc.key, key)
		})
	}
}

func TestValidateJobRequiresObjectKey(t *testing.T) {
	d := &S3Downloader{}
	job := utils.TransferJob{URL: "s3://my-bucket", Metadata: make(map[string]any)}
	require.Error(t, d.ValidateJob(context.Background(), &job))

	job = utils.TransferJob{URL: "s3://my-bucket/data/object.bin", Metadata: make(map[string]any)}
	require.NoError(t, d.ValidateJob(context.Background(), &job))
	assert.Equal(t, "my-bucket", job.Metadata["bucket"])
	assert.Equal(t, "data/object.bin", job.Metadata["key"])
}
