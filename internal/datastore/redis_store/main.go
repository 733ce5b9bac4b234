package redis_store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"walletproof/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrNonceUsed = errors.New("used nonce")

func dbKeyProofNonce(chain models.Chain, address, nonce string) string {
	return fmt.Sprintf("nonce:%s:%s:%s", chain, strings.ToLower(address), nonce)
}

func dbKeyTonPayload(payload string) string {
	return fmt.Sprintf("ton_payload:%s", payload)
}

// ConsumeProofNonce records a successfully verified proof. The nonce stays
// burnt until ttl, which must cover the proof's validity window.
func ConsumeProofNonce(ctx context.Context, cmd redis.Cmdable, record *models.ProofNonce, ttl time.Duration) error {
	b, err := msgpack.Marshal(record)
	if err != nil {
		return err
	}

	ok, err := cmd.SetNX(ctx, dbKeyProofNonce(record.Chain, record.Address, record.Nonce), b, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNonceUsed
	}

	return nil
}

func GetProofNonce(ctx context.Context, cmd redis.Cmdable, chain models.Chain, address, nonce string) (*models.ProofNonce, error) {
	var v *models.ProofNonce
	b, err := cmd.Get(ctx, dbKeyProofNonce(chain, address, nonce)).Bytes()
	if err != nil {
		return nil, err
	}

	err = msgpack.Unmarshal(b, &v)
	return v, err
}

func SetTonPayload(ctx context.Context, cmd redis.Cmdable, payload string, userID int64, expiration time.Duration) error {
	return cmd.Set(ctx, dbKeyTonPayload(payload), userID, expiration).Err()
}

func GetTonPayloadOwner(ctx context.Context, cmd redis.Cmdable, payload string) (int64, error) {
	return cmd.Get(ctx, dbKeyTonPayload(payload)).Int64()
}

// ReleaseProofNonce forgets a consumed nonce so the same proof can be
// submitted again.
func ReleaseProofNonce(ctx context.Context, cmd redis.Cmdable, chain models.Chain, address, nonce string) error {
	return cmd.Del(ctx, dbKeyProofNonce(chain, address, nonce)).Err()
}

type ProofStore struct {
	cmd redis.Cmdable
}

func NewProofStore(cmd redis.Cmdable) *ProofStore {
	return &ProofStore{cmd}
}

func (s *ProofStore) ConsumeProofNonce(ctx context.Context, record *models.ProofNonce, ttl time.Duration) error {
	return ConsumeProofNonce(ctx, s.cmd, record, ttl)
}

func (s *ProofStore) ReleaseProofNonce(ctx context.Context, record *models.ProofNonce) error {
	return ReleaseProofNonce(ctx, s.cmd, record.Chain, record.Address, record.Nonce)
}

func (s *ProofStore) SetTonPayload(ctx context.Context, payload string, userID int64, ttl time.Duration) error {
	return SetTonPayload(ctx, s.cmd, payload, userID, ttl)
}

func (s *ProofStore) GetTonPayloadOwner(ctx context.Context, payload string) (int64, error) {
	return GetTonPayloadOwner(ctx, s.cmd, payload)
}
