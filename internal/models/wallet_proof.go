package models

import "time"

type Chain string

const (
	ChainTON    Chain = "ton"
	ChainSolana Chain = "solana"
)

type SignChallenge struct {
	Message  string `json:"message"`
	Deadline int64  `json:"deadline"`
}

// VerificationResult never says why a proof failed. Retryable is set only when
// an upstream dependency was unavailable.
type VerificationResult struct {
	Verified        bool    `json:"verified"`
	ResolvedAddress *string `json:"resolved_address"`
	Retryable       bool    `json:"retryable"`
}

// ProofNonce is what stays behind in Redis once a proof has been accepted.
type ProofNonce struct {
	Chain      Chain     `msgpack:"chain"`
	Address    string    `msgpack:"address"`
	Nonce      string    `msgpack:"nonce"`
	UserID     int64     `msgpack:"user_id"`
	VerifiedAt time.Time `msgpack:"verified_at"`
}
