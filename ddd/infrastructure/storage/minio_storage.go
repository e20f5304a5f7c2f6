package storage

import (
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"

	"media-pipeline-service/ddd/domain/gateway"
)

// MinioStorage 基于MinIO的对象寻址, 只推导URL不读写对象
type MinioStorage struct {
	bucket string
	base   string
}

// NewMinioStorage publicBase非空时优先使用, 否则由minio客户端的endpoint推导
func NewMinioStorage(client *minio.Client, bucket, publicBase string) gateway.StorageGateway {
	base := strings.TrimRight(publicBase, "/")
	if base == "" && client != nil {
		base = endpointBase(client.EndpointURL(), bucket)
	}
	return &MinioStorage{bucket: bucket, base: base}
}

// NewStaticStorage 未启用minio时使用
func NewStaticStorage(endpoint string, useSSL bool, bucket, publicBase string) gateway.StorageGateway {
	base := strings.TrimRight(publicBase, "/")
	if base == "" && endpoint != "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		base = endpointBase(&url.URL{Scheme: scheme, Host: endpoint}, bucket)
	}
	return &MinioStorage{bucket: bucket, base: base}
}

func endpointBase(u *url.URL, bucket string) string {
	if u == nil {
		return ""
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host, "/") + "/" + bucket
}

func (s *MinioStorage) Bucket() string { return s.bucket }

// PublicURL 已经是完整URL的key原样返回
func (s *MinioStorage) PublicURL(objectKey string) string {
	if objectKey == "" {
		return ""
	}
	if strings.HasPrefix(objectKey, "http://") || strings.HasPrefix(objectKey, "https://") {
		return objectKey
	}
	key := strings.TrimLeft(objectKey, "/")
	if s.base == "" {
		return "/" + key
	}
	return s.base + "/" + key
}
