package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

// AvatarUploadURL выдаёт presigned PUT для загрузки аватара.
func (s *Service) AvatarUploadURL(ctx context.Context, p models.Principal, contentType string, contentLength int64) (*storage.UploadInfo, error) {
	const op = "service.avatars.AvatarUploadURL"

	if s.avatars == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	info, err := s.avatars.AvatarUploadURL(ctx, p.UserID, strings.TrimSpace(contentType), contentLength)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return info, nil
}

// ConfirmAvatarUpload проверяет загруженный объект и сохраняет его как userImage.
func (s *Service) ConfirmAvatarUpload(ctx context.Context, p models.Principal, key string) (*models.User, error) {
	const op = "service.avatars.ConfirmAvatarUpload"

	if s.avatars == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%s: %w", op, invalidField("avatarKey", "is required"))
	}

	public, err := s.avatars.CheckAvatarUpload(ctx, p.UserID, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	image := public
	if image == "" {
		image = key
	}

	user, err := s.storage.SetUserImage(ctx, p.UserID, image)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return user, nil
}
