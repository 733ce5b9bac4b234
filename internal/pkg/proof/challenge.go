package proof

import (
	"time"

	"walletproof/internal/models"
)

type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg, now: time.Now}
}

// WithClock swaps the time source, mostly for tests.
func (issuer *Issuer) WithClock(now func() time.Time) *Issuer {
	issuer.now = now
	return issuer
}

func (issuer *Issuer) Issue(userIdentity, walletAddress, nonce string) models.SignChallenge {
	deadline := issuer.now().Add(issuer.cfg.ValidityWindow).Unix()
	return models.SignChallenge{
		Message:  SignInMessage(userIdentity, walletAddress, nonce, deadline),
		Deadline: deadline,
	}
}
