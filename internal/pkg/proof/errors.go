package proof

import "errors"

var (
	ErrExpiredChallenge    = errors.New("challenge expired")
	ErrMalformedProof      = errors.New("malformed proof")
	ErrKeyResolutionFailed = errors.New("public key resolution failed")
	ErrAddressMismatch     = errors.New("address mismatch")
	ErrSignatureInvalid    = errors.New("signature invalid")
	// ErrUpstreamUnavailable is the only failure a caller may retry.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrExpiredChallenge, "expired_challenge"},
	{ErrMalformedProof, "malformed_proof"},
	{ErrKeyResolutionFailed, "key_resolution_failed"},
	{ErrAddressMismatch, "address_mismatch"},
	{ErrSignatureInvalid, "signature_invalid"},
	{ErrUpstreamUnavailable, "upstream_unavailable"},
}

// Kind names the taxonomy entry of err for logs. Unknown errors are "internal".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
