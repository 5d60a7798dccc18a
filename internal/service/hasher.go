package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// hasher выполняет bcrypt в ограниченном пуле: дорогие вычисления
// не должны занимать все ядра при всплеске логинов.
type hasher struct {
	cost int
	sem  *semaphore.Weighted

	dummyOnce sync.Once
	dummy     []byte
}

func newHasher(cost, concurrency int) *hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	return &hasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash возвращает bcrypt-хэш пароля.
func (h *hasher) Hash(ctx context.Context, password string) (string, error) {
	const op = "service.hasher.Hash"

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer h.sem.Release(1)

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}

// Compare сверяет пароль с хэшем. Несовпадение — (false, nil).
func (h *hasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	const op = "service.hasher.Compare"

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w", op, err)
	}
}

// CompareDummy тратит столько же времени, сколько настоящая проверка,
// когда пользователя нет: время ответа не выдаёт существование email.
func (h *hasher) CompareDummy(ctx context.Context, password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("bookshelf-dummy-password"), h.cost)
	})

	_, _ = h.Compare(ctx, string(h.dummy), password)
}
