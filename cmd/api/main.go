package main

import (
	"context"
	"os"
	"time"

	"vending/internal/config"
	"vending/internal/infra/db"
	"vending/internal/logger"
	"vending/internal/server"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	//.envはなくてもよい
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.Init(cfg.LogMode, cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("db migrate failed", zap.Error(err))
	}

	//Redisは任意。つながらなければキャッシュなしで起動
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unavailable, product cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		}
		cancel()
	}

	srv, err := server.New(cfg, gormDB, rdb)
	if err != nil {
		log.Fatal("server init failed", zap.Error(err))
	}
	if err := srv.Seed(context.Background()); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	ops := map[string]gfshutdown.Operation{
		//処理中のリクエストが終わってからDBを閉じる
		"http-server": func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
	if rdb != nil {
		ops["redis"] = func(ctx context.Context) error {
			return rdb.Close()
		}
	}

	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, ops)
	exitCode := <-wait
	log.Info("server exited", zap.Int("code", exitCode))
	os.Exit(exitCode)
}
