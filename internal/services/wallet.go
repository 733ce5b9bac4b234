package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/limiter"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"

	"walletproof/internal/datastore/redis_store"
	"walletproof/internal/interfaces"
	"walletproof/internal/models"
	"walletproof/internal/pkg/caching"
	"walletproof/internal/pkg/events"
	"walletproof/internal/pkg/proof"
	"walletproof/internal/pkg/sol_utils"
	"walletproof/internal/pkg/walletproof"
)

var (
	ErrInvalidProof         = errors.New("invalid proof")
	ErrVerifierUnavailable  = errors.New("wallet verification unavailable, try again")
	ErrWalletAlreadyLinked  = errors.New("wallet already connected to another account")
	ErrChainAlreadyLinked   = errors.New("another wallet is already connected on this chain")
	ErrMissingWalletAddress = errors.New("missing wallet address")
)

type ServiceWallet struct {
	container *do.Injector
	wallets   interfaces.WalletStore
	proofs    interfaces.ProofStore
	locker    interfaces.Locker
	cache     caching.Cache
	limiter   interfaces.Limiter
	publisher interfaces.WalletEventPublisher
	issuer    *proof.Issuer
	verifier  *walletproof.Verifier
	log       *zap.Logger
	now       func() time.Time
}

func NewServiceWallet(container *do.Injector) (*ServiceWallet, error) {
	wallets, err := do.Invoke[interfaces.WalletStore](container)
	if err != nil {
		return nil, err
	}

	proofs, err := do.Invoke[interfaces.ProofStore](container)
	if err != nil {
		return nil, err
	}

	locker, err := do.Invoke[interfaces.Locker](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	publisher, err := do.Invoke[interfaces.WalletEventPublisher](container)
	if err != nil {
		return nil, err
	}

	issuer, err := do.Invoke[*proof.Issuer](container)
	if err != nil {
		return nil, err
	}

	verifier, err := do.Invoke[*walletproof.Verifier](container)
	if err != nil {
		return nil, err
	}

	log, err := do.Invoke[*zap.Logger](container)
	if err != nil {
		return nil, err
	}

	return &ServiceWallet{container, wallets, proofs, locker, cache, limiter, publisher, issuer, verifier, log.Named("wallet"), time.Now}, nil
}

// IssueChallenge builds the Solana sign-in message for user. A fresh nonce is
// generated when the client does not bring one.
func (service *ServiceWallet) IssueChallenge(ctx context.Context, user *models.User, address, nonce string) (*models.SignChallenge, error) {
	if err := service.allow(ctx, LimitKeyWalletChallenge(user.ID), CHALLENGE_RATE_LIMIT_PER_MINUTE); err != nil {
		return nil, err
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errorx.Wrap(ErrMissingWalletAddress, errorx.Validation)
	}
	if nonce == "" {
		nonce = uuid.NewString()
	}

	challenge := service.issuer.Issue(UserIdentity(user), address, nonce)
	return &challenge, nil
}

// NewTonPayload hands out the payload a TON wallet has to sign. It is bound to
// user and lives as long as a proof over it could stay fresh.
func (service *ServiceWallet) NewTonPayload(ctx context.Context, user *models.User) (string, error) {
	if err := service.allow(ctx, LimitKeyWalletChallenge(user.ID), CHALLENGE_RATE_LIMIT_PER_MINUTE); err != nil {
		return "", err
	}

	payload := strings.ReplaceAll(uuid.NewString(), "-", "")
	ttl := service.verifier.Config().ValidityWindow
	if err := service.proofs.SetTonPayload(ctx, payload, user.ID, ttl); err != nil {
		return "", errorx.Wrap(err, errorx.Service)
	}

	return payload, nil
}

func (service *ServiceWallet) ConnectTonWallet(ctx context.Context, user *models.User, submission *models.TonProof) (*models.UserWallet, error) {
	if err := service.allow(ctx, LimitKeyWalletConnect(user.ID), CONNECT_RATE_LIMIT_PER_MINUTE); err != nil {
		return nil, err
	}

	owner, err := service.proofs.GetTonPayloadOwner(ctx, submission.Proof.Payload)
	if errors.Is(err, redis.Nil) || (err == nil && owner != user.ID) {
		return nil, errorx.Wrap(ErrInvalidProof, errorx.Invalid)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	result := service.verifier.VerifyTon(ctx, submission)
	return service.bind(ctx, user, models.ChainTON, result, submission.Proof.Payload)
}

func (service *ServiceWallet) ConnectSolanaWallet(ctx context.Context, user *models.User, submission *models.SolanaProof) (*models.UserWallet, error) {
	if err := service.allow(ctx, LimitKeyWalletConnect(user.ID), CONNECT_RATE_LIMIT_PER_MINUTE); err != nil {
		return nil, err
	}

	result := service.verifier.VerifySolana(ctx, submission, UserIdentity(user))
	if result.Verified && !sol_utils.AddressMatchesKey(submission.Address, submission.PublicKey) {
		service.log.Info("solana key does not own address", zap.Int64("user", user.ID), zap.String("address", submission.Address))
		return nil, errorx.Wrap(ErrInvalidProof, errorx.Invalid)
	}

	return service.bind(ctx, user, models.ChainSolana, result, submission.Nonce)
}

func (service *ServiceWallet) bind(ctx context.Context, user *models.User, chain models.Chain, result models.VerificationResult, nonce string) (*models.UserWallet, error) {
	if !result.Verified {
		if result.Retryable {
			return nil, errorx.Wrap(ErrVerifierUnavailable, errorx.Service)
		}
		return nil, errorx.Wrap(ErrInvalidProof, errorx.Invalid)
	}
	address := *result.ResolvedAddress

	unlock, err := service.locker.TryLock(ctx, LockKeyUserWallet(user.ID))
	if err != nil {
		return nil, errorx.Wrap(ErrUserWalletLock, errorx.Invalid)
	}
	defer unlock()

	linked, err := service.wallets.FindUserWalletByAddress(ctx, chain, address)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if linked != nil && linked.ID != user.ID {
		return nil, errorx.Wrap(ErrWalletAlreadyLinked, errorx.Invalid)
	}

	userWallet, err := service.wallets.FindUserWalletByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	relink := false
	if userWallet != nil {
		if current := userWallet.Address(chain); current != nil {
			if *current != address {
				return nil, errorx.Wrap(ErrChainAlreadyLinked, errorx.Invalid)
			}
			relink = true
		}
	}

	record := &models.ProofNonce{
		Chain:      chain,
		Address:    address,
		Nonce:      nonce,
		UserID:     user.ID,
		VerifiedAt: service.now(),
	}
	err = service.proofs.ConsumeProofNonce(ctx, record, service.verifier.Config().ValidityWindow)
	if errors.Is(err, redis_store.ErrNonceUsed) {
		service.log.Info("replayed proof", zap.String("chain", string(chain)), zap.Int64("user", user.ID), zap.String("address", address))
		return nil, errorx.Wrap(ErrInvalidProof, errorx.Invalid)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	// same wallet proven again, nothing to write
	if relink {
		return userWallet, nil
	}

	now := service.now()
	if userWallet == nil {
		userWallet = &models.UserWallet{ID: user.ID, CreatedAt: now, UpdatedAt: now}
		userWallet.SetAddress(chain, address)
		userWallet, err = service.wallets.CreateUserWallet(ctx, userWallet)
	} else {
		userWallet.SetAddress(chain, address)
		userWallet.UpdatedAt = now
		userWallet, err = service.wallets.UpdateUserWallet(ctx, userWallet)
	}
	if err != nil {
		// the proof took no effect, so it may be submitted again
		if releaseErr := service.proofs.ReleaseProofNonce(ctx, record); releaseErr != nil {
			service.log.Warn("release proof nonce", zap.Int64("user", user.ID), zap.Error(releaseErr))
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	_ = caching.Invalidate(ctx, service.cache, DBKeyUserWallet(user.ID))
	service.log.Info("wallet connected", zap.String("chain", string(chain)), zap.Int64("user", user.ID), zap.String("address", address))

	err = service.publisher.PublishWalletConnected(ctx, events.WalletConnectedEvent{
		UserID:      user.ID,
		Chain:       chain,
		Address:     address,
		ConnectedAt: now,
	})
	if err != nil {
		service.log.Warn("publish wallet connected", zap.Int64("user", user.ID), zap.Error(err))
	}

	return userWallet, nil
}

func (service *ServiceWallet) allow(ctx context.Context, key string, perMinute int) error {
	err := service.limiter.Allow(ctx, key, redis_rate.PerMinute(perMinute))
	if err == nil {
		return nil
	}
	if errors.Is(err, limiter.ErrRateLimited) {
		return errorx.Wrap(err, errorx.RateLimiting)
	}
	return errorx.Wrap(err, errorx.Service)
}
