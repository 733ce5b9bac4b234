package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"walletproof/internal/datastore"
	"walletproof/internal/models"
	"walletproof/internal/pkg/caching"
)

type ServiceUser struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
	log                *zap.Logger
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	log, err := do.Invoke[*zap.Logger](container)
	if err != nil {
		return nil, err
	}

	return &ServiceUser{container, postgresDB, readonlyPostgresDB, cache, readonlyCache, log.Named("user")}, nil
}

func (service *ServiceUser) FindOrCreateUser(ctx context.Context, userAuth *models.UserFromAuth) (*models.User, error) {
	if userAuth == nil {
		return nil, errors.New("userAuth is nil")
	}

	user, err := service.FindUserByID(ctx, userAuth.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	username := strings.ToLower(userAuth.Username)
	if user != nil {
		if user.Username != username ||
			user.FirstName != userAuth.FirstName ||
			user.LastName != userAuth.LastName ||
			user.PhotoURL != userAuth.PhotoURL {
			user.Username = username
			user.FirstName = userAuth.FirstName
			user.LastName = userAuth.LastName
			user.PhotoURL = userAuth.PhotoURL
			user.UpdatedAt = time.Now()
			if _, err := datastore.UpdateUserProfile(ctx, service.postgresDB, user); err != nil {
				return nil, err
			}
			_ = caching.Invalidate(ctx, service.cache, DBKeyUser(user.ID))
		}
		return user, nil
	}

	now := time.Now()
	newUser := &models.User{
		ID:           userAuth.ID,
		FirstName:    userAuth.FirstName,
		LastName:     userAuth.LastName,
		Username:     username,
		LanguageCode: userAuth.LanguageCode,
		PhotoURL:     userAuth.PhotoURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	service.log.Info("create new user", zap.Int64("user", newUser.ID), zap.String("username", newUser.Username))
	return datastore.CreateUser(ctx, service.postgresDB, newUser)
}

func (service *ServiceUser) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	callback := func() (*models.User, error) {
		return datastore.FindUserByID(ctx, service.readonlyPostgresDB, userID)
	}
	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUser(userID), CACHE_TTL_5_MINS, callback)
}

func (service *ServiceUser) FindUserWalletByUserID(ctx context.Context, userID int64) (*models.UserWallet, error) {
	callback := func() (*models.UserWallet, error) {
		return datastore.FindUserWalletByUserID(ctx, service.readonlyPostgresDB, userID)
	}
	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUserWallet(userID), CACHE_TTL_5_MINS, callback)
}

// Me returns the user with the wallets it has proven ownership of.
func (service *ServiceUser) Me(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errorx.Wrap(errors.New("user not found"), errorx.Invalid)
	}

	me, err := service.FindUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	wallet, err := service.FindUserWalletByUserID(ctx, me.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if wallet != nil {
		me.TONWallet = wallet.TONWallet
		me.SolanaWallet = wallet.SolanaWallet
	}

	return me, nil
}
