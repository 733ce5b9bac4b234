package walletproof

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"walletproof/internal/models"
	"walletproof/internal/pkg/proof"
	"walletproof/internal/pkg/ton_utils"
)

const (
	CONFIG_PROOF_VALIDITY_SECONDS = "PROOF_VALIDITY_SECONDS"
	CONFIG_TON_APP_DOMAIN         = "TON_APP_DOMAIN"
	CONFIG_TONCENTER_MAINNET_URL  = "TONCENTER_MAINNET_URL"
	CONFIG_TONCENTER_TESTNET_URL  = "TONCENTER_TESTNET_URL"
	CONFIG_TONCENTER_API_KEY      = "TONCENTER_API_KEY"
	CONFIG_TON_RPC_TIMEOUT_MS     = "TON_RPC_TIMEOUT_MS"

	DEFAULT_TON_RPC_TIMEOUT = 5 * time.Second
)

type RPCConfig struct {
	Endpoints map[models.TonNetwork]string
	APIKey    string
	Timeout   time.Duration
}

func ConfigFromEnv(vs map[string]string) (proof.Config, error) {
	cfg := proof.Config{ValidityWindow: proof.DefaultValidityWindow}

	if s := strings.TrimSpace(vs[CONFIG_PROOF_VALIDITY_SECONDS]); s != "" {
		seconds, err := strconv.Atoi(s)
		if err != nil || seconds < 0 {
			return cfg, fmt.Errorf("%s must be a non-negative integer, got %q", CONFIG_PROOF_VALIDITY_SECONDS, s)
		}
		cfg.ValidityWindow = time.Duration(seconds) * time.Second
	}

	for _, d := range strings.Split(vs[CONFIG_TON_APP_DOMAIN], ",") {
		if d = strings.TrimSpace(d); d != "" {
			cfg.AllowedDomains = append(cfg.AllowedDomains, d)
		}
	}

	return cfg, nil
}

func RPCConfigFromEnv(vs map[string]string) (RPCConfig, error) {
	cfg := RPCConfig{
		Endpoints: map[models.TonNetwork]string{
			models.TonMainnet: ton_utils.ToncenterMainnetURL,
			models.TonTestnet: ton_utils.ToncenterTestnetURL,
		},
		APIKey:  vs[CONFIG_TONCENTER_API_KEY],
		Timeout: DEFAULT_TON_RPC_TIMEOUT,
	}
	if u := vs[CONFIG_TONCENTER_MAINNET_URL]; u != "" {
		cfg.Endpoints[models.TonMainnet] = u
	}
	if u := vs[CONFIG_TONCENTER_TESTNET_URL]; u != "" {
		cfg.Endpoints[models.TonTestnet] = u
	}
	if s := strings.TrimSpace(vs[CONFIG_TON_RPC_TIMEOUT_MS]); s != "" {
		ms, err := strconv.Atoi(s)
		if err != nil || ms <= 0 {
			return cfg, fmt.Errorf("%s must be a positive integer, got %q", CONFIG_TON_RPC_TIMEOUT_MS, s)
		}
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg, nil
}

func NewToncenterFetcher(cfg RPCConfig) *ton_utils.ToncenterFetcher {
	return ton_utils.NewToncenterFetcher(cfg.Endpoints, cfg.APIKey, cfg.Timeout)
}
