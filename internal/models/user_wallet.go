package models

import (
	"time"

	"github.com/uptrace/bun"
)

type UserWallet struct {
	bun.BaseModel `bun:"table:user_wallet"`
	ID            int64     `bun:"id,pk" json:"id"`
	TONWallet     *string   `bun:"ton_wallet" json:"ton_wallet"`
	SolanaWallet  *string   `bun:"sol_wallet" json:"sol_wallet"`
	CreatedAt     time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}

func (w *UserWallet) Address(chain Chain) *string {
	switch chain {
	case ChainTON:
		return w.TONWallet
	case ChainSolana:
		return w.SolanaWallet
	}
	return nil
}

func (w *UserWallet) SetAddress(chain Chain, address string) {
	switch chain {
	case ChainTON:
		w.TONWallet = &address
	case ChainSolana:
		w.SolanaWallet = &address
	}
}

func (w *UserWallet) ClearAddress(chain Chain) {
	switch chain {
	case ChainTON:
		w.TONWallet = nil
	case ChainSolana:
		w.SolanaWallet = nil
	}
}
