package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"UEvents/internal/config"
	"UEvents/internal/handler"
	"UEvents/internal/pkg"
	"UEvents/internal/repository/mysql"
	"UEvents/internal/repository/redis"
	"UEvents/internal/router"
	"UEvents/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := pkg.NewLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mysql.Open(mysql.Options{
		DSN:             cfg.MySQL.DSN,
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = mysql.Close(db) }()

	if cfg.MySQL.AutoMigrate {
		if err := mysql.Migrate(db); err != nil {
			return err
		}
	}

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	sender := service.LogSender(log)
	if cfg.Kafka.Enabled {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		if err != nil {
			return err
		}
		defer func() { _ = producer.Close() }()
		sender = service.KafkaSender(producer.Send)
	}

	// repositories
	users := mysql.NewUserRepository(db)
	clubs := mysql.NewClubRepository(db)
	events := mysql.NewEventRepository(db)
	relations := mysql.NewRelationRepository(db)
	outbox := mysql.NewOutboxRepository(db)
	tokens := redis.NewTokenRepository(rdb)
	counts := redis.NewCountRepository(rdb, cfg.Redis.CountTTL)
	lock := redis.NewDistLock(rdb)

	// services
	feedCfg := service.FeedConfig{
		DefaultSize: cfg.Pagination.DefaultSize,
		DaySize:     cfg.Pagination.DaySize,
		MaxSize:     cfg.Pagination.MaxSize,
		OwnerMax:    cfg.Pagination.OwnerMax,
		SearchScan:  cfg.Pagination.SearchScan,
	}
	guard := service.NewGuard(events, clubs)
	userSvc := service.NewUserService(users, clubs, tokens, pkg.NewTokenManager(cfg.JWT), log)
	clubSvc := service.NewClubService(clubs, lock, guard, log)
	eventSvc := service.NewEventService(events, clubs, counts, guard, log)
	feedSvc := service.NewFeedService(events, clubs, guard, feedCfg, log)
	relSvc := service.NewRelationService(relations, events, clubs, counts, guard, feedCfg, log)

	relayer := service.NewOutboxRelayer(outbox, sender, service.RelayerConfig{
		BatchSize: cfg.Outbox.BatchSize,
		Interval:  cfg.Outbox.Interval,
	}, log.Named("outbox"))
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relayer.Run(ctx)
	}()

	gin.SetMode(cfg.HTTP.Mode)
	engine := router.InitRouter(router.Handlers{
		User:     handler.NewUserHandler(userSvc, relSvc, log),
		Club:     handler.NewClubHandler(clubSvc, log),
		Event:    handler.NewEventHandler(eventSvc, feedSvc, log),
		Relation: handler.NewRelationHandler(relSvc, log),
		Feed:     handler.NewFeedHandler(feedSvc, log),
	}, userSvc, log, cfg.HTTP.CORSOrigins)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			stop()
			<-relayDone
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	stop()
	<-relayDone
	return nil
}
