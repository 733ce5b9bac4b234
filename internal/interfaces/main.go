package interfaces

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"

	"walletproof/internal/models"
	"walletproof/internal/pkg/events"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

type WalletEventPublisher interface {
	PublishWalletConnected(ctx context.Context, event events.WalletConnectedEvent) error
}

// Locker takes a non-blocking lock on key. The returned func releases it.
type Locker interface {
	TryLock(ctx context.Context, key string) (func(), error)
}

// WalletStore returns sql.ErrNoRows from lookups that find nothing.
type WalletStore interface {
	FindUserWalletByAddress(ctx context.Context, chain models.Chain, address string) (*models.UserWallet, error)
	FindUserWalletByUserID(ctx context.Context, userID int64) (*models.UserWallet, error)
	CreateUserWallet(ctx context.Context, userWallet *models.UserWallet) (*models.UserWallet, error)
	UpdateUserWallet(ctx context.Context, userWallet *models.UserWallet) (*models.UserWallet, error)
}

// ProofStore keeps short lived proof state: consumed nonces and issued TON
// payloads. Missing payloads are reported as redis.Nil.
type ProofStore interface {
	ConsumeProofNonce(ctx context.Context, record *models.ProofNonce, ttl time.Duration) error
	ReleaseProofNonce(ctx context.Context, record *models.ProofNonce) error
	SetTonPayload(ctx context.Context, payload string, userID int64, ttl time.Duration) error
	GetTonPayloadOwner(ctx context.Context, payload string) (int64, error)
}
