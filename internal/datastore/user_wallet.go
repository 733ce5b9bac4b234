package datastore

import (
	"context"
	"fmt"

	"walletproof/internal/models"

	"github.com/uptrace/bun"
)

var walletColumns = map[models.Chain]string{
	models.ChainTON:    "ton_wallet",
	models.ChainSolana: "sol_wallet",
}

func CreateTableUserWallet(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.UserWallet)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table user_wallet
			add if not exists ton_wallet text;
		alter table user_wallet
			add if not exists sol_wallet text;`).Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserWallet)(nil)).Index("index_user_wallet_ton").Unique().IfNotExists().Column("ton_wallet").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserWallet)(nil)).Index("index_user_wallet_sol").Unique().IfNotExists().Column("sol_wallet").Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}

func FindUserWalletByAddress(ctx context.Context, db bun.IDB, chain models.Chain, address string) (*models.UserWallet, error) {
	column, ok := walletColumns[chain]
	if !ok {
		return nil, fmt.Errorf("unknown chain %q", chain)
	}

	var userWallet models.UserWallet
	err := db.NewSelect().Model(&userWallet).Where("? = ?", bun.Ident(column), address).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &userWallet, nil
}

func FindUserWalletByUserID(ctx context.Context, db bun.IDB, userID int64) (*models.UserWallet, error) {
	var userWallet models.UserWallet
	err := db.NewSelect().Model(&userWallet).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &userWallet, nil
}

func CreateUserWallet(ctx context.Context, db bun.IDB, userWallet *models.UserWallet) (*models.UserWallet, error) {
	_, err := db.NewInsert().Model(userWallet).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return userWallet, nil
}

func UpdateUserWallet(ctx context.Context, db bun.IDB, userWallet *models.UserWallet) (*models.UserWallet, error) {
	_, err := db.NewUpdate().Model(userWallet).WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}

	return userWallet, nil
}

// UserWalletStore binds the user_wallet queries to one database handle.
type UserWalletStore struct {
	db bun.IDB
}

func NewUserWalletStore(db bun.IDB) *UserWalletStore {
	return &UserWalletStore{db}
}

func (s *UserWalletStore) FindUserWalletByAddress(ctx context.Context, chain models.Chain, address string) (*models.UserWallet, error) {
	return FindUserWalletByAddress(ctx, s.db, chain, address)
}

func (s *UserWalletStore) FindUserWalletByUserID(ctx context.Context, userID int64) (*models.UserWallet, error) {
	return FindUserWalletByUserID(ctx, s.db, userID)
}

func (s *UserWalletStore) CreateUserWallet(ctx context.Context, userWallet *models.UserWallet) (*models.UserWallet, error) {
	return CreateUserWallet(ctx, s.db, userWallet)
}

func (s *UserWalletStore) UpdateUserWallet(ctx context.Context, userWallet *models.UserWallet) (*models.UserWallet, error) {
	return UpdateUserWallet(ctx, s.db, userWallet)
}
