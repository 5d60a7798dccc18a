package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/bookshelf/internal/cache"
	apierrors "github.com/pribylovaa/bookshelf/internal/http/errors"
	"github.com/pribylovaa/bookshelf/internal/pkg/log"
)

// RateLimit ограничивает число запросов по ключу keyFn в окне window.
// Ошибка лимитера не блокирует запрос: лучше пропустить, чем отказать всем.
func RateLimit(l cache.Limiter, scope string, keyFn func(*http.Request) string, limit int, window time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil || limit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, err := l.Allow(r.Context(), scope+":"+key, limit, window)
			if err != nil {
				log.From(r.Context()).Warn("rate_limit_unavailable", slog.String("err", err.Error()))
			}

			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				apierrors.WriteError(w, r, apierrors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP возвращает адрес непосредственного собеседника (RemoteAddr).
// Заголовкам прокси не доверяет: см. ClientIPResolver.
func ClientIP(r *http.Request) string {
	return remoteHost(r)
}

// ClientIPResolver определяет адрес клиента за доверенным прокси.
type ClientIPResolver struct {
	trustProxy bool
	trusted    []netip.Prefix
}

// NewClientIPResolver разбирает список доверенных подсетей (CIDR или
// одиночный адрес). При trustProxy=false заголовок X-Forwarded-For игнорируется.
func NewClientIPResolver(trustProxy bool, trustedProxies []string) (*ClientIPResolver, error) {
	const op = "middleware.NewClientIPResolver"

	res := &ClientIPResolver{trustProxy: trustProxy}
	for _, s := range trustedProxies {
		p, err := parsePrefix(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res.trusted = append(res.trusted, p)
	}

	return res, nil
}

// ClientIP идёт по X-Forwarded-For справа налево и возвращает первый адрес
// вне доверенных подсетей. Левые записи клиент подставляет сам, поэтому
// первая запись заголовка не используется.
func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	if c == nil || !c.trustProxy {
		return remoteHost(r)
	}

	hops := r.Header.Values("X-Forwarded-For")
	for i := len(hops) - 1; i >= 0; i-- {
		parts := strings.Split(hops[i], ",")
		for j := len(parts) - 1; j >= 0; j-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(parts[j]))
			if err != nil {
				// Прокси дописывает корректный адрес; мусор — повод не верить цепочке.
				return remoteHost(r)
			}

			addr = addr.Unmap()
			if c.isTrusted(addr) {
				continue
			}

			return addr.String()
		}
	}

	return remoteHost(r)
}

func (c *ClientIPResolver) isTrusted(addr netip.Addr) bool {
	for _, p := range c.trusted {
		if p.Contains(addr) {
			return true
		}
	}

	return false
}

func parsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		return netip.ParsePrefix(s)
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}

	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
