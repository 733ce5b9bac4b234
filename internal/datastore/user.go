package datastore

import (
	"context"

	"walletproof/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUser(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table "user"
			alter column created_at set default current_timestamp;`).Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_user_username").IfNotExists().Column("username").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindUserByID(ctx context.Context, db bun.IDB, userID int64) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func CreateUser(ctx context.Context, db bun.IDB, user *models.User) (*models.User, error) {
	_, err := db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func UpdateUserProfile(ctx context.Context, db bun.IDB, user *models.User) (*models.User, error) {
	_, err := db.NewUpdate().Model(user).
		Column("username", "first_name", "last_name", "photo_url", "language_code", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return user, nil
}
