package walletproof

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"walletproof/internal/models"
	"walletproof/internal/pkg/proof"
	"walletproof/internal/pkg/sol_utils"
	"walletproof/internal/pkg/ton_utils"
)

// Verifier reports a single verdict per submission. Failure reasons go to the
// log only.
type Verifier struct {
	cfg      proof.Config
	resolver *ton_utils.Resolver
	log      *zap.Logger
	now      func() time.Time
}

func NewVerifier(cfg proof.Config, fetcher ton_utils.PublicKeyFetcher, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{
		cfg:      cfg,
		resolver: ton_utils.NewResolver(fetcher),
		log:      log,
		now:      time.Now,
	}
}

func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

func (v *Verifier) Config() proof.Config {
	return v.cfg
}

func (v *Verifier) VerifyTon(ctx context.Context, submission *models.TonProof) (result models.VerificationResult) {
	if submission == nil {
		return v.reject(models.ChainTON, "", fmt.Errorf("%w: empty submission", proof.ErrMalformedProof))
	}
	defer v.recoverInto(models.ChainTON, submission.Address, &result)

	derived, err := ton_utils.CheckProof(ctx, v.cfg, v.resolver, v.now(), submission)
	if err != nil {
		return v.reject(models.ChainTON, submission.Address, err)
	}

	address := derived.ToRaw()
	return models.VerificationResult{Verified: true, ResolvedAddress: &address}
}

func (v *Verifier) VerifySolana(ctx context.Context, submission *models.SolanaProof, expectedUserIdentity string) (result models.VerificationResult) {
	if submission == nil {
		return v.reject(models.ChainSolana, "", fmt.Errorf("%w: empty submission", proof.ErrMalformedProof))
	}
	defer v.recoverInto(models.ChainSolana, submission.Address, &result)

	if err := sol_utils.CheckProof(v.cfg, v.now(), submission, expectedUserIdentity); err != nil {
		return v.reject(models.ChainSolana, submission.Address, err)
	}

	address := submission.Address
	return models.VerificationResult{Verified: true, ResolvedAddress: &address}
}

func (v *Verifier) reject(chain models.Chain, address string, err error) models.VerificationResult {
	v.log.Info("wallet proof rejected",
		zap.String("chain", string(chain)),
		zap.String("address", address),
		zap.String("kind", proof.Kind(err)),
		zap.Error(err),
	)
	return models.VerificationResult{Retryable: proof.IsRetryable(err)}
}

// chain data is untrusted input; a panic while decoding it is a rejection.
func (v *Verifier) recoverInto(chain models.Chain, address string, result *models.VerificationResult) {
	if r := recover(); r != nil {
		*result = v.reject(chain, address, fmt.Errorf("%w: panic: %v", proof.ErrMalformedProof, r))
	}
}
