package redis_store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletproof/internal/models"
)

func newStore(t *testing.T) (*miniredis.Miniredis, *ProofStore) {
	mr := miniredis.RunT(t)
	return mr, NewProofStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestProofStore_Nonce(t *testing.T) {
	mr, store := newStore(t)
	ctx := context.Background()

	record := &models.ProofNonce{
		Chain:      models.ChainSolana,
		Address:    "So11111111111111111111111111111111111111112",
		Nonce:      "nonce-1",
		UserID:     42,
		VerifiedAt: time.Unix(1700000000, 0).UTC(),
	}

	require.NoError(t, store.ConsumeProofNonce(ctx, record, 2*time.Minute))
	assert.ErrorIs(t, store.ConsumeProofNonce(ctx, record, 2*time.Minute), ErrNonceUsed)

	// address case does not open a second slot
	upper := *record
	upper.Address = "SO11111111111111111111111111111111111111112"
	assert.ErrorIs(t, store.ConsumeProofNonce(ctx, &upper, 2*time.Minute), ErrNonceUsed)

	other := *record
	other.Nonce = "nonce-2"
	assert.NoError(t, store.ConsumeProofNonce(ctx, &other, 2*time.Minute))

	saved, err := GetProofNonce(ctx, redis.NewClient(&redis.Options{Addr: mr.Addr()}), record.Chain, record.Address, record.Nonce)
	require.NoError(t, err)
	assert.Equal(t, record.UserID, saved.UserID)
	assert.True(t, record.VerifiedAt.Equal(saved.VerifiedAt))

	t.Run("release", func(t *testing.T) {
		require.NoError(t, store.ReleaseProofNonce(ctx, record))
		assert.NoError(t, store.ConsumeProofNonce(ctx, record, 2*time.Minute))
	})

	t.Run("expires with the window", func(t *testing.T) {
		mr.FastForward(2*time.Minute + time.Second)
		assert.NoError(t, store.ConsumeProofNonce(ctx, record, 2*time.Minute))
	})
}

func TestProofStore_TonPayload(t *testing.T) {
	mr, store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetTonPayload(ctx, "abc", 42, time.Minute))

	owner, err := store.GetTonPayloadOwner(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), owner)

	_, err = store.GetTonPayloadOwner(ctx, "unknown")
	assert.ErrorIs(t, err, redis.Nil)

	mr.FastForward(time.Minute + time.Second)
	_, err = store.GetTonPayloadOwner(ctx, "abc")
	assert.ErrorIs(t, err, redis.Nil)
}
