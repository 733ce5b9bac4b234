package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"walletproof/internal/datastore"
	"walletproof/internal/datastore/redis_store"
	"walletproof/internal/models"
	"walletproof/internal/pkg/caching"
	"walletproof/internal/pkg/walletproof"
	"walletproof/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "debugger",
		Commands: []*cli.Command{
			commandVerifyTon(),
			commandVerifySolana(),
			commandShowNonce(),
			commandUnlinkWallet(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func proofEnvs() map[string]string {
	vs := map[string]string{}
	for _, k := range []string{
		walletproof.CONFIG_PROOF_VALIDITY_SECONDS,
		walletproof.CONFIG_TON_APP_DOMAIN,
		walletproof.CONFIG_TONCENTER_MAINNET_URL,
		walletproof.CONFIG_TONCENTER_TESTNET_URL,
		walletproof.CONFIG_TONCENTER_API_KEY,
		walletproof.CONFIG_TON_RPC_TIMEOUT_MS,
	} {
		vs[k] = os.Getenv(k)
	}
	return vs
}

func newVerifier() (*walletproof.Verifier, error) {
	vs := proofEnvs()
	cfg, err := walletproof.ConfigFromEnv(vs)
	if err != nil {
		return nil, err
	}

	rpc, err := walletproof.RPCConfigFromEnv(vs)
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	return walletproof.NewVerifier(cfg, walletproof.NewToncenterFetcher(rpc), logger), nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func commandVerifyTon() *cli.Command {
	return &cli.Command{
		Name:  "verify-ton",
		Usage: "verify a ton_proof submission stored as json",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			verifier, err := newVerifier()
			if err != nil {
				return err
			}

			var submission models.TonProof
			if err := readJSON(c.String("file"), &submission); err != nil {
				return err
			}

			return printJSON(verifier.VerifyTon(c.Context, &submission))
		},
	}
}

func commandVerifySolana() *cli.Command {
	return &cli.Command{
		Name:  "verify-solana",
		Usage: "verify a solana sign-in submission stored as json",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Required: true,
			},
			&cli.Int64Flag{
				Name:     "userid",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			verifier, err := newVerifier()
			if err != nil {
				return err
			}

			var submission models.SolanaProof
			if err := readJSON(c.String("file"), &submission); err != nil {
				return err
			}

			identity := services.UserIdentity(&models.User{ID: c.Int64("userid")})
			return printJSON(verifier.VerifySolana(c.Context, &submission, identity))
		},
	}
}

func commandShowNonce() *cli.Command {
	return &cli.Command{
		Name:  "show-nonce",
		Usage: "show who consumed a proof nonce",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "chain",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "nonce",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			vs, err := env.EnvsRequired("REDIS_DB")
			if err != nil {
				return err
			}

			redisDB, err := db.InitRedis(&db.RedisConfig{
				URL: vs["REDIS_DB"],
			})
			if err != nil {
				return err
			}

			record, err := redis_store.GetProofNonce(c.Context, redisDB, models.Chain(c.String("chain")), c.String("address"), c.String("nonce"))
			if err != nil {
				return err
			}

			return printJSON(record)
		},
	}
}

func commandUnlinkWallet() *cli.Command {
	return &cli.Command{
		Name:  "unlink-wallet",
		Usage: "remove a connected wallet from a user",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "userid",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "chain",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			vs, err := env.EnvsRequired("DB_DSN", "REDIS_CACHE")
			if err != nil {
				return err
			}

			postgresDB := getDb(vs["DB_DSN"])

			redisCache, err := db.InitRedis(&db.RedisConfig{
				URL: vs["REDIS_CACHE"],
			})
			if err != nil {
				return err
			}

			cache, err := caching.NewCacheRedis(redisCache, false)
			if err != nil {
				return err
			}

			userID := c.Int64("userid")
			chain := models.Chain(c.String("chain"))
			if chain != models.ChainTON && chain != models.ChainSolana {
				return fmt.Errorf("unknown chain %q", chain)
			}

			userWallet, err := datastore.FindUserWalletByUserID(ctx, postgresDB, userID)
			if errors.Is(err, sql.ErrNoRows) {
				log.Println("user has no wallet", userID)
				return nil
			}
			if err != nil {
				return err
			}

			userWallet.ClearAddress(chain)
			if _, err := datastore.UpdateUserWallet(ctx, postgresDB, userWallet); err != nil {
				return err
			}

			if err := caching.Invalidate(ctx, cache, services.DBKeyUserWallet(userID)); err != nil {
				log.Println(err)
			}

			log.Println("unlinked", chain, "wallet of user", userID)
			return nil
		},
	}
}

func getDb(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	return bun.NewDB(sqldb, pgdialect.New())
}
