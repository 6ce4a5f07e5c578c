package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/carsonvertex/tauri-pos-app/internal/config"
	"github.com/carsonvertex/tauri-pos-app/internal/httpx"
	kafkax "github.com/carsonvertex/tauri-pos-app/internal/kafka"
	"github.com/carsonvertex/tauri-pos-app/internal/offline"
	"github.com/carsonvertex/tauri-pos-app/internal/pos"
	"github.com/carsonvertex/tauri-pos-app/internal/redisx"
	"github.com/carsonvertex/tauri-pos-app/internal/remote"
	"github.com/carsonvertex/tauri-pos-app/internal/store"
	syncx "github.com/carsonvertex/tauri-pos-app/internal/sync"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// local DB
	db, err := store.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	st := store.NewPostgres(db)
	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pOrders := kafkax.NewProducer(cfg.KafkaBrokers, pos.TopicOrderCreated, 1024)
	pOrders.Start(ctx)
	pSync := kafkax.NewProducer(cfg.KafkaBrokers, pos.TopicSyncCompleted, 256)
	pSync.Start(ctx)
	pFailed := kafkax.NewProducer(cfg.KafkaBrokers, pos.TopicSyncRecordFailed, 256)
	pFailed.Start(ctx)

	// services
	svc := offline.NewService(st, pos.NewOrderNumberGenerator(), cfg.ServiceName)
	svc.Events = pOrders
	svc.Redis = rdb

	rc := remote.NewClient(cfg.RemoteBaseURL, cfg.SyncTimeout)
	rec := syncx.NewReconciler(st, rc, cfg.SyncInterval, cfg.SyncTimeout, cfg.ServiceName)
	rec.Redis = rdb
	rec.Events = pSync
	rec.Failed = pFailed
	rec.Start(ctx)

	// HTTP server
	router := httpx.NewRouter()
	httpx.NewHandler(svc, rec, rdb).Register(router)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s (remote=%s interval=%s)", cfg.HTTPAddr, cfg.RemoteBaseURL, cfg.SyncInterval)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// stop scheduling new sync cycles and drain any in-flight run before the
	// producer inboxes close
	cancel()
	rec.Wait()
	pOrders.Close()
	pSync.Close()
	pFailed.Close()
	pOrders.WaitClosed()
	pSync.WaitClosed()
	pFailed.WaitClosed()
}
