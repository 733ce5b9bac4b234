package proof

import (
	"fmt"
	"strings"
)

const signInTemplate = `Welcome! Sign this message to prove you own this wallet and link it to your account. This request will not trigger a blockchain transaction or cost any gas fees. Account: %s. Wallet: %s. Nonce: %s. Deadline: %d.`

// SignInMessage builds the human-readable challenge shared by every chain. Its
// bytes must stay identical between issuance and verification.
func SignInMessage(userIdentity, walletAddress, nonce string, deadline int64) string {
	return fmt.Sprintf(signInTemplate, userIdentity, strings.ToLower(walletAddress), nonce, deadline)
}
