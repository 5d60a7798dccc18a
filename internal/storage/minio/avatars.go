package minio

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"

	"github.com/pribylovaa/bookshelf/internal/storage"
)

// avatarExt возвращает расширение файла для разрешённого типа.
func avatarExt(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// avatarPrefix — каталог аватаров пользователя в бакете.
func avatarPrefix(userID string) string {
	return "avatars/" + userID + "/"
}

// AvatarUploadURL генерирует presigned PUT URL вида avatars/<userID>/<uuid>.<ext>.
func (s *AvatarsStorage) AvatarUploadURL(ctx context.Context, userID, contentType string, contentLength int64) (*storage.UploadInfo, error) {
	const op = "storage.minio.AvatarUploadURL"

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	if contentLength <= 0 || contentLength > s.avatar.MaxSizeBytes {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	if !slices.Contains(s.avatar.AllowedContentTypes, contentType) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	key := path.Join("avatars", userID, uuid.NewString()+avatarExt(contentType))

	u, err := s.client.PresignedPutObject(ctx, s.s3.Bucket, key, s.s3.PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &storage.UploadInfo{
		UploadURL: u.String(),
		AvatarKey: key,
		Expires:   s.s3.PresignTTL,
		RequiredHeader: map[string]string{
			"Content-Type":   contentType,
			"Content-Length": strconv.FormatInt(contentLength, 10),
		},
	}, nil
}

// CheckAvatarUpload подтверждает загрузку: ключ принадлежит пользователю,
// объект существует и укладывается в ограничения размера/типа.
func (s *AvatarsStorage) CheckAvatarUpload(ctx context.Context, userID, key string) (string, error) {
	const op = "storage.minio.CheckAvatarUpload"

	if !strings.HasPrefix(key, avatarPrefix(userID)) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	info, err := s.client.StatObject(ctx, s.s3.Bucket, key, mclient.StatObjectOptions{})
	if err != nil {
		resp := mclient.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFoundAvatar)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if info.Size <= 0 || info.Size > s.avatar.MaxSizeBytes {
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	if ct := info.ContentType; ct != "" && !slices.Contains(s.avatar.AllowedContentTypes, ct) {
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	if s.s3.PublicBaseURL == "" {
		return "", nil
	}

	return strings.TrimRight(s.s3.PublicBaseURL, "/") + "/" + key, nil
}
