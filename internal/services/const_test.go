package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"walletproof/internal/models"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "42", UserIdentity(&models.User{ID: 42}))
	assert.Equal(t, "user_wallet:42", DBKeyUserWallet(42))
	assert.Equal(t, "lock:user-wallet:42", LockKeyUserWallet(42))
	assert.NotEqual(t, LimitKeyWalletChallenge(42), LimitKeyWalletConnect(42))
}
