// service содержит бизнес-логику bookshelf:
// регистрацию и вход, проверку сессий с прозрачным продлением,
// вход через Google, а также книги и группы чтения.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования при потокобезопасных зависимостях.
//   - Ошибки возвращаются как sentinel-значения ниже и маппятся
//     транспортом на HTTP-статусы (см. internal/http/errors).
package service

import (
	"errors"
	"time"

	"github.com/pribylovaa/bookshelf/internal/cache"
	"github.com/pribylovaa/bookshelf/internal/config"
	"github.com/pribylovaa/bookshelf/internal/oauth"
	"github.com/pribylovaa/bookshelf/internal/storage"
	"github.com/pribylovaa/bookshelf/internal/tokens"
)

var (
	// ErrInvalidCredentials — неверная пара email/пароль. Сообщение одинаково
	// для неизвестного email и неверного пароля. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoToken — запрос к защищённому ресурсу без access-токена. HTTP 401.
	ErrNoToken = errors.New("no token")

	// ErrSessionExpired — access-токен недействителен, а refresh-токена нет. HTTP 401.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidSession — refresh-токен недействителен, истёк или отозван. HTTP 401.
	ErrInvalidSession = errors.New("invalid session")

	// ErrOAuthFailed — провайдер отклонил вход. HTTP 401.
	ErrOAuthFailed = errors.New("oauth authentication failed")

	// ErrInvalidArgument — некорректные входные данные. HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists — пользователь с таким email или username уже есть. HTTP 409.
	ErrAlreadyExists = errors.New("user already exists")

	// ErrNotFound — сущность не найдена. HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrForbidden — субъект аутентифицирован, но не владеет ресурсом. HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable — функция не сконфигурирована (Google, аватары). HTTP 503.
	ErrUnavailable = errors.New("feature not configured")
)

// ValidationError — ошибка валидации с подробностями по полям.
// errors.Is(err, ErrInvalidArgument) для неё истинно.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

// Service описывает бизнес-логику bookshelf.
type Service struct {
	storage storage.Storage
	issuer  *tokens.Issuer
	hasher  *hasher
	cfg     *config.Config
	now     func() time.Time

	// Опциональные зависимости: nil, если не сконфигурированы.
	avatars storage.AvatarsStorage
	google  oauth.Provider
	states  cache.StateStore
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, issuer *tokens.Issuer, cfg *config.Config) *Service {
	return &Service{
		storage: st,
		issuer:  issuer,
		hasher:  newHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency),
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetAvatars подключает хранилище аватаров (опционально).
func (s *Service) SetAvatars(a storage.AvatarsStorage) {
	s.avatars = a
}

// SetGoogle подключает вход через Google (опционально).
func (s *Service) SetGoogle(p oauth.Provider, states cache.StateStore) {
	s.google = p
	s.states = states
}

// GoogleEnabled сообщает, доступен ли вход через Google.
func (s *Service) GoogleEnabled() bool {
	return s.google != nil && s.states != nil
}
