package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"banditflow/internal/agents"
	"banditflow/internal/config"
	"banditflow/pkg/bandit"
	"banditflow/pkg/cache"
	"banditflow/pkg/leader"
	"banditflow/pkg/lock"
	"banditflow/pkg/store"
	"banditflow/pkg/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[banditflow] config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	actionStore, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[banditflow] store: %v", err)
	}
	defer actionStore.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("[banditflow] redis: %v", err)
	}
	defer rdb.Close()

	counterCache := cache.NewRedisCache(rdb)
	locker := lock.NewRedisLocker(rdb, cfg.LockWait)

	// Broker connectivity is checked up front; the process does not start
	// serving without it.
	publisher, err := stream.NewKafkaPublisher(cfg.Brokers())
	if err != nil {
		log.Fatalf("[banditflow] kafka: %v", err)
	}
	defer publisher.Close()

	elector := leader.NewRedisElector(rdb, cfg.LeaderKey, uuid.NewString(), cfg.LeaderTTL)
	go elector.Run(ctx)

	updater := agents.NewCounterUpdater(counterCache)
	ingestor := agents.NewIngestor(actionStore, updater)
	initializer := agents.NewInitializer(counterCache, locker, cfg.LockTTL)
	calculator := agents.NewCalculator(actionStore, counterCache, locker, publisher,
		bandit.NewSampler(0), cfg.RecommendationTopic, cfg.LockTTL)
	scheduler := agents.NewScheduler(actionStore, elector, publisher, cfg.RecomputeTopic, cfg.ScheduleInterval)

	consumers := []struct {
		topic   string
		handler stream.Handler
	}{
		{cfg.ActionsTopic, ingestor.Handle},
		{cfg.InitTopic, initializer.Handle},
		{cfg.RecomputeTopic, calculator.Handle},
	}
	for _, c := range consumers {
		// One group per topic so the agents rebalance independently.
		consumer, err := stream.NewKafkaConsumer(cfg.Brokers(), cfg.ConsumerGroup+"."+c.topic)
		if err != nil {
			log.Fatalf("[banditflow] kafka consumer for %s: %v", c.topic, err)
		}
		defer consumer.Close()
		go func(topic string, consumer *stream.KafkaConsumer, handler stream.Handler) {
			if err := consumer.Consume(ctx, []string{topic}, handler); err != nil && ctx.Err() == nil {
				log.Printf("[banditflow] consumer %s stopped: %v", topic, err)
			}
		}(c.topic, consumer, c.handler)
	}

	go scheduler.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"banditflow"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("[banditflow] http listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[banditflow] http: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[banditflow] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[banditflow] http shutdown: %v", err)
	}
	os.Exit(0)
}
