package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rohannevrikar/panta-flows-v2/internal/config"
	"github.com/rohannevrikar/panta-flows-v2/internal/db"
	"github.com/rohannevrikar/panta-flows-v2/internal/docstore"
	"github.com/rohannevrikar/panta-flows-v2/internal/objstore"
	"github.com/rohannevrikar/panta-flows-v2/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	database, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database, cfg.DBDriver); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	log.Println("database migrations applied")

	deps := router.Deps{}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		deps.DocStore = docstore.New(rdb)
		log.Printf("document store enabled (redis %s)", cfg.RedisAddr)
	}

	if cfg.ObjectStoreEndpoint != "" {
		store, err := objstore.New(cfg.ObjectStoreEndpoint, cfg.ObjectStoreAccessKey,
			cfg.ObjectStoreSecretKey, cfg.ObjectStoreBucket, cfg.ObjectStoreUseSSL)
		if err != nil {
			log.Fatalf("object store: %v", err)
		}
		bucketCtx, bucketCancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := store.EnsureBucket(bucketCtx); err != nil {
			bucketCancel()
			log.Fatalf("object store bucket: %v", err)
		}
		bucketCancel()
		deps.ObjStore = store
		log.Printf("upload archive enabled (bucket %s)", cfg.ObjectStoreBucket)
	}

	handler := router.New(cfg, database, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.CompletionTimeoutSeconds+30) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("panta flows listening on :%s (driver=%s)", cfg.Port, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-done
	log.Println("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	log.Println("stopped")
}
