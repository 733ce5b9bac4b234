package sol_utils

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"walletproof/internal/models"
	"walletproof/internal/pkg/proof"
)

// ParseAddress decodes a base58 Solana address into the 32-byte public key it encodes.
func ParseAddress(address string) ([]byte, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w: address: %v", proof.ErrMalformedProof, err)
	}
	return key.Bytes(), nil
}

// AddressMatchesKey reports whether address is the base58 form of publicKey.
func AddressMatchesKey(address string, publicKey []byte) bool {
	key, err := ParseAddress(address)
	if err != nil {
		return false
	}
	return bytes.Equal(key, publicKey)
}

func CreateMessage(sp *models.SolanaProof, userIdentity string) []byte {
	return []byte(proof.SignInMessage(userIdentity, sp.Address, sp.Nonce, sp.Deadline))
}

// CheckProof trusts the public key from the submission; binding it to the
// address is left to the caller.
func CheckProof(cfg proof.Config, now time.Time, sp *models.SolanaProof, userIdentity string) error {
	if len(sp.Signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes", proof.ErrMalformedProof, len(sp.Signature))
	}
	if len(sp.PublicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key is %d bytes", proof.ErrMalformedProof, len(sp.PublicKey))
	}

	if !cfg.NotExpired(now, sp.Deadline) {
		return fmt.Errorf("%w: deadline %d", proof.ErrExpiredChallenge, sp.Deadline)
	}

	return proof.VerifyDetachedEd25519(CreateMessage(sp, userIdentity), sp.Signature, sp.PublicKey)
}
