// Package keepalive периодически опрашивает публичный URL сервиса,
// чтобы хостинг с засыпанием по простою не останавливал инстанс.
package keepalive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/bookshelf/internal/config"
)

const requestTimeout = 10 * time.Second

// Pinger выполняет GET по URL с заданным интервалом.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
	log      *slog.Logger
}

// New возвращает Pinger. Пустой URL — nil (keepalive выключен).
func New(cfg config.KeepAliveConfig, log *slog.Logger) *Pinger {
	if cfg.URL == "" || cfg.Interval <= 0 {
		return nil
	}

	return &Pinger{
		url:      cfg.URL,
		interval: cfg.Interval,
		client:   &http.Client{Timeout: requestTimeout},
		log:      log,
	}
}

// Start запускает фоновый цикл до отмены ctx. Для nil ничего не делает.
func (p *Pinger) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.log.Info("keepalive_started",
		slog.String("url", p.url),
		slog.Duration("interval", p.interval),
	)

	go func() {
		t := time.NewTicker(p.interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := p.Ping(ctx); err != nil {
					p.log.Warn("keepalive_failed", slog.String("err", err.Error()))
					continue
				}

				p.log.Debug("keepalive_ok")
			}
		}
	}()
}

// Ping выполняет один запрос. Ответ не 2xx — ошибка.
func (p *Pinger) Ping(ctx context.Context) error {
	const op = "keepalive.Ping"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	return nil
}
