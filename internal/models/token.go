package models

import "time"

// TokenPair — пара токенов, выдаваемая при входе/регистрации/обновлении.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, подписанный отдельным секретом;
//     отзывается увеличением User.TokenVersion;
//   - *ExpiresAt — моменты истечения токенов (UTC).
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Credentials — то, что клиент предъявил в запросе.
type Credentials struct {
	// AccessToken — из заголовка Authorization: Bearer.
	AccessToken string
	// RefreshToken — из cookie или поля refreshToken тела запроса.
	RefreshToken string
}

// Session — результат аутентификации запроса.
// Refreshed заполнен, если access-токен истёк и сессию продлили
// по refresh-токену: новую пару нужно вернуть клиенту.
type Session struct {
	Principal Principal
	Refreshed *TokenPair
}

// AuthResult — итог регистрации/входа.
type AuthResult struct {
	User   *User
	Tokens *TokenPair
}
