package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"walletproof/internal/models"
)

var ErrUserWalletLock = errors.New("user wallet locked")

const (
	CACHE_TTL_5_MINS = 5 * time.Minute

	JWT_EXPIRATION = 24 * time.Hour

	CHALLENGE_RATE_LIMIT_PER_MINUTE = 30
	CONNECT_RATE_LIMIT_PER_MINUTE   = 10
)

// UserIdentity is the stable identity a wallet challenge is issued for.
func UserIdentity(user *models.User) string {
	return strconv.FormatInt(user.ID, 10)
}

func LockKeyUserWallet(userID int64) string {
	return fmt.Sprintf("lock:user-wallet:%d", userID)
}

func DBKeyUser(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func DBKeyUserWallet(userID int64) string {
	return fmt.Sprintf("user_wallet:%d", userID)
}

func LimitKeyWalletChallenge(userID int64) string {
	return fmt.Sprintf("limit:wallet-challenge:%d", userID)
}

func LimitKeyWalletConnect(userID int64) string {
	return fmt.Sprintf("limit:wallet-connect:%d", userID)
}
