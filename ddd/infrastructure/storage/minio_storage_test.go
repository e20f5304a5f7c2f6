package storage

import (
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinioStoragePublicURL(t *testing.T) {
	client, err := minio.New("minio.local:9000", &minio.Options{
		Creds: credentials.NewStaticV4("ak", "sk", ""),
	})
	require.NoError(t, err)

	s := NewMinioStorage(client, "course-media", "")
	assert.Equal(t, "course-media", s.Bucket())
	assert.Equal(t, "http://minio.local:9000/course-media/hls/v1/index.m3u8", s.PublicURL("hls/v1/index.m3u8"))
	assert.Equal(t, "http://minio.local:9000/course-media/a.vtt", s.PublicURL("/a.vtt"))
	assert.Equal(t, "https://cdn.example.com/x.m3u8", s.PublicURL("https://cdn.example.com/x.m3u8"))
	assert.Empty(t, s.PublicURL(""))
}

func TestStoragePublicBaseWins(t *testing.T) {
	s := NewStaticStorage("minio.local:9000", true, "course-media", "https://cdn.example.com/media/")
	assert.Equal(t, "https://cdn.example.com/media/hls/a/index.m3u8", s.PublicURL("hls/a/index.m3u8"))

	s = NewStaticStorage("minio.local:9000", true, "course-media", "")
	assert.Equal(t, "https://minio.local:9000/course-media/k", s.PublicURL("k"))

	s = NewStaticStorage("", false, "course-media", "")
	assert.Equal(t, "/k", s.PublicURL("k"))
}
