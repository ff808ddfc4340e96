package repository

import (
	"context"
	"errors"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/google/uuid"
)

// ErrDuplicateKey is returned by Create when the (key, user) pair is
// already reserved, meaning another delivery of the same request got
// there first.
var ErrDuplicateKey = errors.New("idempotency key already reserved")

// IdempotencyRepository defines the interface for idempotency key storage
type IdempotencyRepository interface {
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	Update(ctx context.Context, ikey *entity.IdempotencyKey) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context) error
}
