package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	s := NewMemoryObjectStorage()
	ctx := context.Background()

	exists, err := s.Exists(ctx, "products/a.png")
	require.NoError(t, err)
	assert.False(t, exists)

	url, _, err := s.PresignUpload(ctx, "products/a.png", "image/png", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "/upload/products/a.png")

	exists, _ = s.Exists(ctx, "products/a.png")
	assert.True(t, exists, "presigned key counts as uploaded")
	assert.Equal(t, "http://localhost:8080/static/products/a.png", s.PublicURL("products/a.png"))

	require.NoError(t, s.Upload(ctx, "invoices/1.pdf", []byte("%PDF"), "application/pdf"))
	data, ok := s.Object("invoices/1.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF"), data)

	require.NoError(t, s.Delete(ctx, "products/a.png"))
	exists, _ = s.Exists(ctx, "products/a.png")
	assert.False(t, exists)

	assert.ErrorIs(t, s.Upload(ctx, "", nil, ""), ErrEmptyKey)
}
