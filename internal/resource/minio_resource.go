package resource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"media-pipeline-service/pkg/assert"
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/manager"
)

var (
	minioResourceOnce      sync.Once
	singletonMinioResource *MinioResource
)

// MinioResource 媒体对象存储客户端
type MinioResource struct {
	client     *minio.Client
	endpoint   string
	useSSL     bool
	bucketName string
}

func DefaultMinioResource() *MinioResource {
	assert.NotCircular()
	minioResourceOnce.Do(func() {
		singletonMinioResource = &MinioResource{}
	})
	assert.NotNil(singletonMinioResource)
	return singletonMinioResource
}

// MustOpen minio.enabled为false时只记录桶名, 不建立客户端
func (r *MinioResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before MinioResource")
	}
	minioCfg := cfg.Minio
	r.bucketName = minioCfg.BucketName
	r.endpoint = minioCfg.Endpoint
	r.useSSL = minioCfg.UseSSL
	if !minioCfg.Enabled {
		logger.Info("MinIO disabled, public urls derive from public.storage_base")
		return
	}
	if minioCfg.Endpoint == "" {
		panic("minio endpoint is required")
	}

	client, err := minio.New(minioCfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioCfg.AccessKeyID, minioCfg.SecretAccessKey, ""),
		Secure: minioCfg.UseSSL,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create minio client: %v", err))
	}
	r.client = client

	if minioCfg.EnsureBucket {
		r.ensureBucket()
	}

	logger.Info("MinIO resource initialized", map[string]interface{}{
		"endpoint":    minioCfg.Endpoint,
		"bucket_name": r.bucketName,
	})
}

func (r *MinioResource) ensureBucket() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	exists, err := r.client.BucketExists(ctx, r.bucketName)
	if err != nil {
		panic(fmt.Sprintf("failed to check minio bucket: %v", err))
	}
	if exists {
		return
	}
	if err := r.client.MakeBucket(ctx, r.bucketName, minio.MakeBucketOptions{}); err != nil {
		panic(fmt.Sprintf("failed to create minio bucket: %v", err))
	}
}

// GetClient 未启用时返回nil
func (r *MinioResource) GetClient() *minio.Client { return r.client }

func (r *MinioResource) GetBucketName() string { return r.bucketName }

func (r *MinioResource) GetEndpoint() string { return r.endpoint }

func (r *MinioResource) UseSSL() bool { return r.useSSL }

// Close minio-go客户端无需关闭
func (r *MinioResource) Close() {}

type MinioResourcePlugin struct{}

func (p *MinioResourcePlugin) Name() string {
	return "minioResource"
}

func (p *MinioResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultMinioResource()
}
