package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFoundAvatar — объект (ключ) отсутствует в бакете.
	ErrNotFoundAvatar = errors.New("avatar not found")
	// ErrInvalidArgument — нарушены ограничения запроса (тип/размер/ключ).
	ErrInvalidArgument = errors.New("invalid argument")
)

// UploadInfo — информация для клиента о presigned PUT загрузке.
//   - UploadURL: конечная URL для PUT-запроса;
//   - AvatarKey: ключ будущего объекта в бакете;
//   - Expires: время жизни подписи;
//   - RequiredHeader: заголовки, которые клиент обязан передать при PUT.
type UploadInfo struct {
	UploadURL      string
	AvatarKey      string
	Expires        time.Duration
	RequiredHeader map[string]string
}

// AvatarsStorage — генерация presigned URL и подтверждение факта загрузки.
type AvatarsStorage interface {
	// AvatarUploadURL генерирует presigned PUT. Внутри — валидация contentType и contentLength.
	AvatarUploadURL(ctx context.Context, userID, contentType string, contentLength int64) (*UploadInfo, error)
	// CheckAvatarUpload проверяет факт загрузки по key (наличие, тип, размер)
	// и возвращает публичный URL (пусто, если PublicBaseURL не задан).
	CheckAvatarUpload(ctx context.Context, userID, key string) (publicURL string, err error)
}
