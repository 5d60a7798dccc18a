package dto

import (
	"time"

	"github.com/pribylovaa/bookshelf/internal/storage"
)

// Пресайн на загрузку аватара.
type AvatarPresignRequest struct {
	ContentType   string `json:"contentType"`
	ContentLength int64  `json:"contentLength"`
}

type AvatarPresignResponse struct {
	UploadURL      string            `json:"uploadUrl"`
	AvatarKey      string            `json:"avatarKey"`
	ExpiresSeconds int64             `json:"expiresSeconds"`
	RequiredHeader map[string]string `json:"requiredHeaders"`
}

func AvatarPresignFromInfo(info *storage.UploadInfo) AvatarPresignResponse {
	return AvatarPresignResponse{
		UploadURL:      info.UploadURL,
		AvatarKey:      info.AvatarKey,
		ExpiresSeconds: int64(info.Expires / time.Second),
		RequiredHeader: info.RequiredHeader,
	}
}

type AvatarConfirmRequest struct {
	AvatarKey string `json:"avatarKey"`
}
