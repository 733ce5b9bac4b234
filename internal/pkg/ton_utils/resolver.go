package ton_utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/tonkeeper/tongo"

	"walletproof/internal/models"
	"walletproof/internal/pkg/proof"
)

// PublicKeyFetcher asks the chain for the public key of a deployed wallet.
// Implementations return proof.ErrUpstreamUnavailable for transport failures.
type PublicKeyFetcher interface {
	GetPublicKey(ctx context.Context, network models.TonNetwork, account tongo.AccountID) ([]byte, error)
}

type PublicKeyFetcherFunc func(ctx context.Context, network models.TonNetwork, account tongo.AccountID) ([]byte, error)

func (f PublicKeyFetcherFunc) GetPublicKey(ctx context.Context, network models.TonNetwork, account tongo.AccountID) ([]byte, error) {
	return f(ctx, network, account)
}

type Resolver struct {
	fetcher PublicKeyFetcher
	layouts []WalletLayout
}

func NewResolver(fetcher PublicKeyFetcher) *Resolver {
	return &Resolver{fetcher: fetcher, layouts: KnownWalletLayouts()}
}

// Resolve establishes the signer key for claimed and checks it against
// declaredKey, then requires stateInit to derive exactly the claimed address.
// It returns the derived address.
func (r *Resolver) Resolve(ctx context.Context, network models.TonNetwork, claimed tongo.AccountID, stateInit string, declaredKey []byte) (tongo.AccountID, error) {
	var zero tongo.AccountID

	si, err := ParseStateInit(stateInit)
	if err != nil {
		return zero, err
	}

	key, _, ok := si.PublicKey(r.layouts)
	if !ok {
		key, err = r.fetch(ctx, network, claimed)
		if err != nil {
			return zero, err
		}
	}

	if !bytes.Equal(key, declaredKey) {
		return zero, fmt.Errorf("%w: resolved key differs from declared key", proof.ErrKeyResolutionFailed)
	}

	derived, err := si.AccountID(claimed.Workchain)
	if err != nil {
		return zero, err
	}
	if derived != claimed {
		return zero, fmt.Errorf("%w: state init derives %s, claimed %s", proof.ErrAddressMismatch, derived.ToRaw(), claimed.ToRaw())
	}

	return derived, nil
}

func (r *Resolver) fetch(ctx context.Context, network models.TonNetwork, account tongo.AccountID) ([]byte, error) {
	if r.fetcher == nil {
		return nil, fmt.Errorf("%w: unknown wallet layout and no fetcher", proof.ErrKeyResolutionFailed)
	}

	key, err := r.fetcher.GetPublicKey(ctx, network, account)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return nil, fmt.Errorf("%w: %v", proof.ErrUpstreamUnavailable, err)
	case errors.Is(err, proof.ErrUpstreamUnavailable), errors.Is(err, proof.ErrKeyResolutionFailed):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %v", proof.ErrKeyResolutionFailed, err)
	case len(key) == 0:
		return nil, fmt.Errorf("%w: empty key for %s", proof.ErrKeyResolutionFailed, account.ToRaw())
	}
	return key, nil
}
