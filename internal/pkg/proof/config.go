package proof

import "time"

const DefaultValidityWindow = 5 * time.Minute

type Config struct {
	// ValidityWindow bounds both challenge deadlines and TON proof timestamps.
	// A zero window fails closed.
	ValidityWindow time.Duration
	// AllowedDomains restricts TON proof domains. Empty allows any domain.
	AllowedDomains []string
}

func (cfg Config) DomainAllowed(domain string) bool {
	if len(cfg.AllowedDomains) == 0 {
		return true
	}
	for _, d := range cfg.AllowedDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// NotExpired is the single freshness predicate for both chains: now must not be
// past deadline, and a non-positive window never yields a fresh proof.
func (cfg Config) NotExpired(now time.Time, deadline int64) bool {
	if cfg.ValidityWindow <= 0 {
		return false
	}
	return now.Unix() <= deadline
}
