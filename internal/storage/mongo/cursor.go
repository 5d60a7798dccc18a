package mongo

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/bookshelf/internal/config"
)

// encodeCursor кодирует пару (createdAt, _id) в непрозрачный токен для клиента.
func encodeCursor(t time.Time, id string) string {
	raw := strconv.FormatInt(t.UTC().UnixNano(), 10) + "|" + id

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor декодирует токен обратно в пару ключей.
func decodeCursor(token string) (time.Time, string, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, "", err
	}

	parts := strings.SplitN(string(res), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("bad parts")
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", err
	}

	return time.Unix(0, nanos).UTC(), parts[1], nil
}

// limitOrDefault приводит запрошенный размер страницы к [1, Max].
func limitOrDefault(cfg *config.Config, pageSize int32) int64 {
	lim := pageSize
	if lim <= 0 {
		lim = cfg.Limits.Default
	}

	if lim > cfg.Limits.Max {
		lim = cfg.Limits.Max
	}

	return int64(lim)
}

// toMS — MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
