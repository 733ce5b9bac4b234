package proof

import (
	"crypto/ed25519"
	"fmt"
)

// VerifyDetachedEd25519 rejects non-conforming lengths before touching the
// primitive; only a well-formed but wrong signature yields ErrSignatureInvalid.
func VerifyDetachedEd25519(message, signature, publicKey []byte) error {
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes", ErrMalformedProof, len(signature))
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key is %d bytes", ErrMalformedProof, len(publicKey))
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), message, signature) {
		return ErrSignatureInvalid
	}
	return nil
}
