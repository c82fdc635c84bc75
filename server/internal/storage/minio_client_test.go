package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/reportkeeper/server/internal/storage"
)

func TestLayoutKey(t *testing.T) {
	assert.Equal(t, "reports/7/versions/101.repx", storage.LayoutKey(7, 101))
}

func TestNewMinioClient_InvalidEndpoint(t *testing.T) {
	_, err := storage.NewMinioClient(context.Background(), storage.MinioConfig{
		Endpoint:   "http://bad endpoint",
		BucketName: "layouts",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MinIO")
}
