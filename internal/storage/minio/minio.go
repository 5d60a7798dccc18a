// Package minio реализует storage.AvatarsStorage поверх MinIO/S3:
//   - minio.go — конструктор клиента, нормализация endpoint, проверка бакета;
//   - avatars.go — presigned PUT и подтверждение загрузки.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pribylovaa/bookshelf/internal/config"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

// AvatarsStorage — адаптер MinIO для аватаров пользователей.
type AvatarsStorage struct {
	s3     config.S3Config
	avatar config.AvatarConfig
	client *mclient.Client
}

// New создаёт клиент MinIO.
// Endpoint может быть задан со схемой: она определяет Secure.
// Отсутствие бакета — ошибка старта.
func New(ctx context.Context, s3 config.S3Config, avatar config.AvatarConfig) (*AvatarsStorage, error) {
	const op = "storage.minio.New"

	endpoint := s3.Endpoint
	secure := s3.UseSSL

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}
	endpoint = strings.TrimRight(endpoint, "/")

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(s3.AccessKey, s3.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, s3.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, s3.Bucket)
	}

	return &AvatarsStorage{s3: s3, avatar: avatar, client: client}, nil
}

var _ storage.AvatarsStorage = (*AvatarsStorage)(nil)
