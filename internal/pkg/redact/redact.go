// Package redact маскирует персональные данные и секреты перед записью в лог.
package redact

import (
	"strings"
	"unicode/utf8"
)

// Email оставляет первые два символа локальной части и домен.
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***"
	}

	if utf8.RuneCountInString(local) > 2 {
		r := []rune(local)
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token скрывает токен целиком; пустое значение остаётся пустым.
func Token(s string) string {
	if s == "" {
		return ""
	}

	return "[REDACTED_TOKEN]"
}

// Password возвращает маркер вместо пароля.
func Password() string { return "[REDACTED_PASSWORD]" }
