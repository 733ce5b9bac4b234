package services

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/go-redis/redis_rate/v10"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/limiter"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo"
	"go.uber.org/zap"

	"walletproof/internal/datastore/redis_store"
	"walletproof/internal/interfaces"
	"walletproof/internal/models"
	"walletproof/internal/pkg/caching"
	"walletproof/internal/pkg/events"
	"walletproof/internal/pkg/locker"
	"walletproof/internal/pkg/proof"
	"walletproof/internal/pkg/ton_utils"
	"walletproof/internal/pkg/ton_utils/tontest"
	"walletproof/internal/pkg/walletproof"
)

var connectedAt = time.Unix(1700000000, 0)

type walletRows struct {
	rows      map[int64]models.UserWallet
	createErr error
	updateErr error
	writes    int
}

func (s *walletRows) FindUserWalletByAddress(_ context.Context, chain models.Chain, address string) (*models.UserWallet, error) {
	for _, row := range s.rows {
		if current := row.Address(chain); current != nil && *current == address {
			return &row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *walletRows) FindUserWalletByUserID(_ context.Context, userID int64) (*models.UserWallet, error) {
	row, ok := s.rows[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (s *walletRows) CreateUserWallet(_ context.Context, userWallet *models.UserWallet) (*models.UserWallet, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.rows[userWallet.ID] = *userWallet
	s.writes++
	return userWallet, nil
}

func (s *walletRows) UpdateUserWallet(_ context.Context, userWallet *models.UserWallet) (*models.UserWallet, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.rows[userWallet.ID] = *userWallet
	s.writes++
	return userWallet, nil
}

type publishedEvents []events.WalletConnectedEvent

func (p *publishedEvents) PublishWalletConnected(_ context.Context, event events.WalletConnectedEvent) error {
	*p = append(*p, event)
	return nil
}

type walletFixture struct {
	mr        *miniredis.Miniredis
	redis     *redis.Client
	wallets   *walletRows
	published *publishedEvents
	locker    *locker.Locker
	issuer    *proof.Issuer
	limited   bool
	service   *ServiceWallet
}

func (fx *walletFixture) Allow(context.Context, string, redis_rate.Limit) error {
	if fx.limited {
		return limiter.ErrRateLimited
	}
	return nil
}

func newWalletFixture(t *testing.T, fetcher ton_utils.PublicKeyFetcher) *walletFixture {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cfg := proof.Config{ValidityWindow: 120 * time.Second, AllowedDomains: []string{tontest.Domain}}
	verifiedAt := func() time.Time { return connectedAt.Add(10 * time.Second) }

	fx := &walletFixture{
		mr:        mr,
		redis:     client,
		wallets:   &walletRows{rows: map[int64]models.UserWallet{}},
		published: &publishedEvents{},
		locker:    locker.NewLocker(redsync.New(goredis.NewPool(client))),
		issuer:    proof.NewIssuer(cfg).WithClock(func() time.Time { return connectedAt }),
	}

	cache, err := caching.NewCacheRedis(client, false)
	require.NoError(t, err)

	container := do.New()
	do.ProvideValue[interfaces.WalletStore](container, fx.wallets)
	do.ProvideValue[interfaces.ProofStore](container, redis_store.NewProofStore(client))
	do.ProvideValue[interfaces.Locker](container, fx.locker)
	do.ProvideValue[caching.Cache](container, cache)
	do.ProvideValue[interfaces.Limiter](container, fx)
	do.ProvideValue[interfaces.WalletEventPublisher](container, fx.published)
	do.ProvideValue(container, fx.issuer)
	do.ProvideValue(container, walletproof.NewVerifier(cfg, fetcher, zap.NewNop()).WithClock(verifiedAt))
	do.ProvideValue(container, zap.NewNop())

	fx.service, err = NewServiceWallet(container)
	require.NoError(t, err)
	fx.service.now = verifiedAt
	return fx
}

type solanaSigner struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

func newSolanaSigner(t *testing.T) solanaSigner {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return solanaSigner{pub, priv}
}

func (s solanaSigner) Address() string {
	return solana.PublicKeyFromBytes(s.public).String()
}

// signSolana signs the challenge the issuer would hand user for address.
func (fx *walletFixture) signSolana(s solanaSigner, user *models.User, address, nonce string) *models.SolanaProof {
	challenge := fx.issuer.Issue(UserIdentity(user), address, nonce)
	return &models.SolanaProof{
		Signature: ed25519.Sign(s.private, []byte(challenge.Message)),
		PublicKey: models.Bytes(s.public),
		Deadline:  challenge.Deadline,
		Address:   address,
		Nonce:     nonce,
	}
}

func (fx *walletFixture) signTon(t *testing.T, w tontest.Wallet, user *models.User) *models.TonProof {
	payload, err := fx.service.NewTonPayload(context.Background(), user)
	require.NoError(t, err)
	return w.Sign(t, ton_utils.CreateMessage, connectedAt, payload)
}

func (fx *walletFixture) nonceUsed(t *testing.T, chain models.Chain, address, nonce string) bool {
	_, err := redis_store.GetProofNonce(context.Background(), fx.redis, chain, address, nonce)
	if errors.Is(err, redis.Nil) {
		return false
	}
	require.NoError(t, err)
	return true
}

func requireErrorKind(t *testing.T, err, target error, kind errorx.Kind) {
	t.Helper()
	require.ErrorIs(t, err, target)
	var e *errorx.Error
	require.ErrorAs(t, err, &e)
	assert.True(t, e.Of(kind), "got %s", e.Code())
}

func TestIssueChallenge(t *testing.T) {
	fx := newWalletFixture(t, nil)
	user := &models.User{ID: 42}
	ctx := context.Background()

	challenge, err := fx.service.IssueChallenge(ctx, user, "  Wallet1  ", "")
	require.NoError(t, err)
	assert.Contains(t, challenge.Message, "wallet1")
	assert.Equal(t, connectedAt.Add(120*time.Second).Unix(), challenge.Deadline)

	_, err = fx.service.IssueChallenge(ctx, user, "   ", "nonce-1")
	requireErrorKind(t, err, ErrMissingWalletAddress, errorx.Validation)

	fx.limited = true
	_, err = fx.service.IssueChallenge(ctx, user, "wallet1", "nonce-1")
	requireErrorKind(t, err, limiter.ErrRateLimited, errorx.RateLimiting)
}

func TestNewTonPayload(t *testing.T) {
	fx := newWalletFixture(t, nil)
	ctx := context.Background()

	payload, err := fx.service.NewTonPayload(ctx, &models.User{ID: 42})
	require.NoError(t, err)
	assert.Len(t, payload, 32)

	owner, err := redis_store.NewProofStore(fx.redis).GetTonPayloadOwner(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, int64(42), owner)

	fx.mr.FastForward(121 * time.Second)
	_, err = redis_store.NewProofStore(fx.redis).GetTonPayloadOwner(ctx, payload)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestConnectSolanaWallet(t *testing.T) {
	fx := newWalletFixture(t, nil)
	user := &models.User{ID: 42}
	signer := newSolanaSigner(t)
	submission := fx.signSolana(signer, user, signer.Address(), "nonce-1")

	wallet, err := fx.service.ConnectSolanaWallet(context.Background(), user, submission)
	require.NoError(t, err)
	require.NotNil(t, wallet.SolanaWallet)
	assert.Equal(t, signer.Address(), *wallet.SolanaWallet)
	assert.Nil(t, wallet.TONWallet)
	assert.Equal(t, 1, fx.wallets.writes)
	assert.True(t, fx.nonceUsed(t, models.ChainSolana, signer.Address(), "nonce-1"))

	require.Len(t, *fx.published, 1)
	assert.Equal(t, events.WalletConnectedEvent{
		UserID:      42,
		Chain:       models.ChainSolana,
		Address:     signer.Address(),
		ConnectedAt: connectedAt.Add(10 * time.Second),
	}, (*fx.published)[0])

	t.Run("replay", func(t *testing.T) {
		_, err := fx.service.ConnectSolanaWallet(context.Background(), user, submission)
		requireErrorKind(t, err, ErrInvalidProof, errorx.Invalid)
		assert.Equal(t, 1, fx.wallets.writes)
		assert.Len(t, *fx.published, 1)
	})
}

func TestConnectSolanaWallet_Rejected(t *testing.T) {
	user := &models.User{ID: 42}

	cases := []struct {
		name    string
		build   func(fx *walletFixture, s solanaSigner) *models.SolanaProof
		wantErr error
		kind    errorx.Kind
	}{
		{
			name: "bad signature",
			build: func(fx *walletFixture, s solanaSigner) *models.SolanaProof {
				sp := fx.signSolana(s, user, s.Address(), "nonce-1")
				sp.Signature[0] ^= 0xff
				return sp
			},
			wantErr: ErrInvalidProof,
			kind:    errorx.Invalid,
		},
		{
			name: "signed for another user",
			build: func(fx *walletFixture, s solanaSigner) *models.SolanaProof {
				return fx.signSolana(s, &models.User{ID: 7}, s.Address(), "nonce-1")
			},
			wantErr: ErrInvalidProof,
			kind:    errorx.Invalid,
		},
		{
			name: "address encodes another key",
			build: func(fx *walletFixture, s solanaSigner) *models.SolanaProof {
				return fx.signSolana(s, user, newSolanaSigner(t).Address(), "nonce-1")
			},
			wantErr: ErrInvalidProof,
			kind:    errorx.Invalid,
		},
		{
			name: "address is not base58",
			build: func(fx *walletFixture, s solanaSigner) *models.SolanaProof {
				return fx.signSolana(s, user, "0OIl", "nonce-1")
			},
			wantErr: ErrInvalidProof,
			kind:    errorx.Invalid,
		},
		{
			name: "past deadline",
			build: func(fx *walletFixture, s solanaSigner) *models.SolanaProof {
				fx.issuer.WithClock(func() time.Time { return connectedAt.Add(-200 * time.Second) })
				return fx.signSolana(s, user, s.Address(), "nonce-1")
			},
			wantErr: ErrInvalidProof,
			kind:    errorx.Invalid,
		},
		{
			name: "rate limited",
			build: func(fx *walletFixture, s solanaSigner) *models.SolanaProof {
				fx.limited = true
				return fx.signSolana(s, user, s.Address(), "nonce-1")
			},
			wantErr: limiter.ErrRateLimited,
			kind:    errorx.RateLimiting,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newWalletFixture(t, nil)
			signer := newSolanaSigner(t)
			submission := tc.build(fx, signer)

			_, err := fx.service.ConnectSolanaWallet(context.Background(), user, submission)
			requireErrorKind(t, err, tc.wantErr, tc.kind)

			assert.Empty(t, fx.wallets.rows)
			assert.Empty(t, *fx.published)
			assert.False(t, fx.nonceUsed(t, models.ChainSolana, submission.Address, submission.Nonce))
		})
	}
}

func TestConnectTonWallet(t *testing.T) {
	fx := newWalletFixture(t, nil)
	user := &models.User{ID: 42}
	w := tontest.NewV4Wallet(t)
	submission := fx.signTon(t, w, user)

	wallet, err := fx.service.ConnectTonWallet(context.Background(), user, submission)
	require.NoError(t, err)
	require.NotNil(t, wallet.TONWallet)
	assert.Equal(t, w.Account.ToRaw(), *wallet.TONWallet)
	assert.True(t, fx.nonceUsed(t, models.ChainTON, w.Account.ToRaw(), submission.Proof.Payload))
	require.Len(t, *fx.published, 1)
	assert.Equal(t, models.ChainTON, (*fx.published)[0].Chain)

	t.Run("replay", func(t *testing.T) {
		_, err := fx.service.ConnectTonWallet(context.Background(), user, submission)
		requireErrorKind(t, err, ErrInvalidProof, errorx.Invalid)
		assert.Equal(t, 1, fx.wallets.writes)
	})
}

func TestConnectTonWallet_Rejected(t *testing.T) {
	user := &models.User{ID: 42}

	down := ton_utils.PublicKeyFetcherFunc(func(context.Context, models.TonNetwork, tongo.AccountID) ([]byte, error) {
		return nil, proof.ErrUpstreamUnavailable
	})

	cases := []struct {
		name    string
		fetcher ton_utils.PublicKeyFetcher
		build   func(t *testing.T, fx *walletFixture) *models.TonProof
		wantErr error
		kind    errorx.Kind
	}{
		{
			name: "payload issued to another user",
			build: func(t *testing.T, fx *walletFixture) *models.TonProof {
				return fx.signTon(t, tontest.NewV4Wallet(t), &models.User{ID: 7})
			},
			wantErr: ErrInvalidProof,
			kind:    errorx.Invalid,
		},
		{
			name: "payload never issued",
			build: func(t *testing.T, fx *walletFixture) *models.TonProof {
				return tontest.NewV4Wallet(t).Sign(t, ton_utils.CreateMessage, connectedAt, "f00d")
			},
			wantErr: ErrInvalidProof,
			kind:    errorx.Invalid,
		},
		{
			name: "payload expired",
			build: func(t *testing.T, fx *walletFixture) *models.TonProof {
				submission := fx.signTon(t, tontest.NewV4Wallet(t), user)
				fx.mr.FastForward(121 * time.Second)
				return submission
			},
			wantErr: ErrInvalidProof,
			kind:    errorx.Invalid,
		},
		{
			name: "bad signature",
			build: func(t *testing.T, fx *walletFixture) *models.TonProof {
				submission := fx.signTon(t, tontest.NewV4Wallet(t), user)
				submission.Proof.Timestamp++
				return submission
			},
			wantErr: ErrInvalidProof,
			kind:    errorx.Invalid,
		},
		{
			name:    "key lookup unavailable",
			fetcher: down,
			build: func(t *testing.T, fx *walletFixture) *models.TonProof {
				pub, priv, err := ed25519.GenerateKey(nil)
				require.NoError(t, err)
				stateInit, account := tontest.StateInit(t, tontest.CustomCode(t), tontest.V4Data(t, pub))
				w := tontest.Wallet{Public: pub, Private: priv, StateInit: stateInit, Account: account}
				return fx.signTon(t, w, user)
			},
			wantErr: ErrVerifierUnavailable,
			kind:    errorx.Service,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newWalletFixture(t, tc.fetcher)
			submission := tc.build(t, fx)

			_, err := fx.service.ConnectTonWallet(context.Background(), user, submission)
			requireErrorKind(t, err, tc.wantErr, tc.kind)

			assert.Empty(t, fx.wallets.rows)
			assert.Empty(t, *fx.published)
			assert.False(t, fx.nonceUsed(t, models.ChainTON, submission.Address, submission.Proof.Payload))
		})
	}
}

func TestConnectWallet_Uniqueness(t *testing.T) {
	user := &models.User{ID: 42}
	ctx := context.Background()

	t.Run("address owned by another user", func(t *testing.T) {
		fx := newWalletFixture(t, nil)
		signer := newSolanaSigner(t)
		address := signer.Address()
		fx.wallets.rows[7] = models.UserWallet{ID: 7, SolanaWallet: &address}

		_, err := fx.service.ConnectSolanaWallet(ctx, user, fx.signSolana(signer, user, address, "nonce-1"))
		requireErrorKind(t, err, ErrWalletAlreadyLinked, errorx.Invalid)
		assert.Equal(t, 0, fx.wallets.writes)
		assert.False(t, fx.nonceUsed(t, models.ChainSolana, address, "nonce-1"))
	})

	t.Run("second address on the same chain", func(t *testing.T) {
		fx := newWalletFixture(t, nil)
		first, second := newSolanaSigner(t), newSolanaSigner(t)

		_, err := fx.service.ConnectSolanaWallet(ctx, user, fx.signSolana(first, user, first.Address(), "nonce-1"))
		require.NoError(t, err)

		_, err = fx.service.ConnectSolanaWallet(ctx, user, fx.signSolana(second, user, second.Address(), "nonce-2"))
		requireErrorKind(t, err, ErrChainAlreadyLinked, errorx.Invalid)
		assert.Equal(t, first.Address(), *fx.wallets.rows[42].SolanaWallet)
	})

	t.Run("same address again", func(t *testing.T) {
		fx := newWalletFixture(t, nil)
		signer := newSolanaSigner(t)

		first, err := fx.service.ConnectSolanaWallet(ctx, user, fx.signSolana(signer, user, signer.Address(), "nonce-1"))
		require.NoError(t, err)

		again, err := fx.service.ConnectSolanaWallet(ctx, user, fx.signSolana(signer, user, signer.Address(), "nonce-2"))
		require.NoError(t, err)
		assert.Equal(t, *first.SolanaWallet, *again.SolanaWallet)
		assert.Equal(t, 1, fx.wallets.writes)
		assert.Len(t, *fx.published, 1)
		assert.True(t, fx.nonceUsed(t, models.ChainSolana, signer.Address(), "nonce-2"))
	})

	t.Run("other chain is kept", func(t *testing.T) {
		fx := newWalletFixture(t, nil)
		tonAddress := "0:" + "ab"
		fx.wallets.rows[42] = models.UserWallet{ID: 42, TONWallet: &tonAddress, CreatedAt: connectedAt}
		signer := newSolanaSigner(t)

		wallet, err := fx.service.ConnectSolanaWallet(ctx, user, fx.signSolana(signer, user, signer.Address(), "nonce-1"))
		require.NoError(t, err)
		assert.Equal(t, tonAddress, *wallet.TONWallet)
		assert.Equal(t, signer.Address(), *wallet.SolanaWallet)
		assert.Equal(t, connectedAt, wallet.CreatedAt)
	})
}

func TestConnectWallet_WriteFailureKeepsNonce(t *testing.T) {
	fx := newWalletFixture(t, nil)
	user := &models.User{ID: 42}
	signer := newSolanaSigner(t)
	submission := fx.signSolana(signer, user, signer.Address(), "nonce-1")

	fx.wallets.createErr = errors.New("duplicate key value violates unique constraint")
	_, err := fx.service.ConnectSolanaWallet(context.Background(), user, submission)
	requireErrorKind(t, err, fx.wallets.createErr, errorx.Service)
	assert.False(t, fx.nonceUsed(t, models.ChainSolana, signer.Address(), "nonce-1"))
	assert.Empty(t, *fx.published)

	fx.wallets.createErr = nil
	_, err = fx.service.ConnectSolanaWallet(context.Background(), user, submission)
	require.NoError(t, err)
	assert.True(t, fx.nonceUsed(t, models.ChainSolana, signer.Address(), "nonce-1"))
}

func TestConnectWallet_LockHeld(t *testing.T) {
	fx := newWalletFixture(t, nil)
	user := &models.User{ID: 42}
	signer := newSolanaSigner(t)
	submission := fx.signSolana(signer, user, signer.Address(), "nonce-1")

	unlock, err := fx.locker.TryLock(context.Background(), LockKeyUserWallet(user.ID))
	require.NoError(t, err)

	_, err = fx.service.ConnectSolanaWallet(context.Background(), user, submission)
	requireErrorKind(t, err, ErrUserWalletLock, errorx.Invalid)
	assert.False(t, fx.nonceUsed(t, models.ChainSolana, signer.Address(), "nonce-1"))

	unlock()
	_, err = fx.service.ConnectSolanaWallet(context.Background(), user, submission)
	assert.NoError(t, err)
}
