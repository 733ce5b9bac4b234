package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"walletproof/internal/api/handler"
	"walletproof/internal/datastore"
	"walletproof/internal/datastore/redis_store"
	"walletproof/internal/interfaces"
	"walletproof/internal/pkg/caching"
	"walletproof/internal/pkg/events"
	"walletproof/internal/pkg/limiter"
	"walletproof/internal/pkg/locker"
	"walletproof/internal/pkg/proof"
	"walletproof/internal/pkg/walletproof"
	"walletproof/internal/services"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
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
	vs, err := env.EnvsRequired(
		"BOT_TOKEN",
		"JWT_SECRET",
		"DB_DSN",
		walletproof.CONFIG_TON_APP_DOMAIN,
	)
	if err != nil {
		log.Fatal(err)
	}

	container := NewContainer(vs)

	app := &cli.App{
		Name: "api",
		Commands: []*cli.Command{
			commandServer(container),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandServer(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "0.0.0.0:8080",
				Usage: "serve address",
			},
		},
		Action: func(c *cli.Context) error {
			vs := do.MustInvokeNamed[map[string]string](container, "envs")
			logger := do.MustInvoke[*zap.Logger](container)
			// nolint:errcheck
			defer logger.Sync()

			router, err := handler.New(&handler.Config{
				Container: container,
				Mode:      vs["API_MODE"],
				Origins:   strings.Split(vs["API_ORIGINS"], ","),
			})
			if err != nil {
				logger.Error("build router", zap.Error(err))
				return err
			}

			srv := &http.Server{
				Addr:    c.String("addr"),
				Handler: router,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				logger.Info("listen and serve", zap.String("addr", c.String("addr")), zap.String("mode", vs["API_MODE"]))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("listen and serve", zap.Error(err))
					return err
				}
				return nil
			})

			errWg.Go(func() error {
				<-errCtx.Done()
				return srv.Shutdown(context.TODO())
			})

			return errWg.Wait()
		},
	}
}

func newRedis(clusterKey, urlKey string, readOnly bool) (redis.UniversalClient, error) {
	if clusterURL := os.Getenv(clusterKey); clusterURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterURL)
		if err != nil {
			return nil, err
		}
		clusterOpts.ReadOnly = readOnly
		return redis.NewClusterClient(clusterOpts), nil
	}
	return db.InitRedis(&db.RedisConfig{
		URL: os.Getenv(urlKey),
	})
}

func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()
	for _, k := range []string{
		"API_MODE",
		"API_ORIGINS",
		walletproof.CONFIG_PROOF_VALIDITY_SECONDS,
		walletproof.CONFIG_TONCENTER_MAINNET_URL,
		walletproof.CONFIG_TONCENTER_TESTNET_URL,
		walletproof.CONFIG_TONCENTER_API_KEY,
		walletproof.CONFIG_TON_RPC_TIMEOUT_MS,
	} {
		vs[k] = os.Getenv(k)
	}

	if vs["API_MODE"] == "" {
		vs["API_MODE"] = "production"
	}
	if vs["API_ORIGINS"] == "" {
		vs["API_ORIGINS"] = "*"
	}

	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		if vs["API_MODE"] == "debug" {
			return zap.NewDevelopment()
		}
		return zap.NewProduction()
	})

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(os.Getenv("DB_DSN")),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		db := bun.NewDB(sqldb, pgdialect.New())
		return db, nil
	})

	do.ProvideNamed(injector, "db-readonly", func(i *do.Injector) (*bun.DB, error) {
		dsn := os.Getenv("DB_DSN_READONLY")
		password := os.Getenv("DB_PASSWORD_READONLY")
		if dsn == "" {
			dsn, password = os.Getenv("DB_DSN"), os.Getenv("DB_PASSWORD")
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
			pgdriver.WithPassword(password),
		))

		db := bun.NewDB(sqldb, pgdialect.New())
		return db, nil
	})

	do.ProvideNamed(injector, "redis-db", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_DB", "REDIS_DB", false)
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_CACHE", "REDIS_CACHE", false)
	})

	do.ProvideNamed(injector, "redis-cache-readonly", func(i *do.Injector) (redis.UniversalClient, error) {
		if os.Getenv("CLUSTER_REDIS_CACHE_READONLY") == "" && os.Getenv("CLUSTER_REDIS_CACHE") != "" {
			return newRedis("CLUSTER_REDIS_CACHE", "REDIS_CACHE_READONLY", true)
		}
		return newRedis("CLUSTER_REDIS_CACHE_READONLY", "REDIS_CACHE_READONLY", true)
	})

	do.ProvideNamed(injector, "redis-limiter", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_LIMITER", "REDIS_LIMITER", false)
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_MUTEX", "REDIS_MUTEX", false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache-readonly")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		return limiter.NewLimiter(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		rs := redsync.New(pool)
		return rs, nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Locker, error) {
		rs, err := do.Invoke[*redsync.Redsync](i)
		if err != nil {
			return nil, err
		}

		return locker.NewLocker(rs), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.WalletStore, error) {
		db, err := do.Invoke[*bun.DB](i)
		if err != nil {
			return nil, err
		}

		return datastore.NewUserWalletStore(db), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.ProofStore, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-db")
		if err != nil {
			return nil, err
		}

		return redis_store.NewProofStore(dbRedis), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.WalletEventPublisher, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-db")
		if err != nil {
			return nil, err
		}

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: dbRedis,
			},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return nil, err
		}

		return events.NewWatermillPublisher(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (proof.Config, error) {
		return walletproof.ConfigFromEnv(vs)
	})

	do.Provide(injector, func(i *do.Injector) (*proof.Issuer, error) {
		cfg, err := do.Invoke[proof.Config](i)
		if err != nil {
			return nil, err
		}
		return proof.NewIssuer(cfg), nil
	})

	do.Provide(injector, func(i *do.Injector) (*walletproof.Verifier, error) {
		cfg, err := do.Invoke[proof.Config](i)
		if err != nil {
			return nil, err
		}

		rpc, err := walletproof.RPCConfigFromEnv(vs)
		if err != nil {
			return nil, err
		}

		logger, err := do.Invoke[*zap.Logger](i)
		if err != nil {
			return nil, err
		}

		return walletproof.NewVerifier(cfg, walletproof.NewToncenterFetcher(rpc), logger.Named("proof")), nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.Bot, error) {
		return services.NewBot(vs["BOT_TOKEN"])
	})

	do.Provide(injector, func(i *do.Injector) (*services.Authentication, error) {
		return services.NewAuthentication(vs["JWT_SECRET"])
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceUser, error) {
		return services.NewServiceUser(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceWallet, error) {
		return services.NewServiceWallet(injector)
	})

	return injector
}
