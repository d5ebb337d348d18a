package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/lintv8/Mybot/configs"
	"github.com/lintv8/Mybot/internal/adapter/cache"
	httpadapter "github.com/lintv8/Mybot/internal/adapter/http"
	"github.com/lintv8/Mybot/internal/adapter/http/middleware"
	"github.com/lintv8/Mybot/internal/adapter/kafka"
	"github.com/lintv8/Mybot/internal/adapter/queue"
	"github.com/lintv8/Mybot/internal/adapter/repo"
	"github.com/lintv8/Mybot/internal/logging"
	"github.com/lintv8/Mybot/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

// InitWithConfig wires the core. Redis, RabbitMQ and Kafka are optional:
// an empty address degrades to in-memory sessions, a log-only notifier and
// no event stream.
func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	log := logging.Init(cfg.App.Name, cfg.App.LogFile)
	log.Info("mybot: starting up", "admin_id", cfg.Admin.ID)

	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// store
	if err := os.MkdirAll(cfg.Store.Dir, 0o755); err != nil {
		return nil, nil, err
	}
	products := repo.NewFileProductRepo(filepath.Join(cfg.Store.Dir, "products.json"))
	orders := repo.NewFileOrderRepo(filepath.Join(cfg.Store.Dir, "orders.json"))

	// sessions
	var sessions usecase.SessionStore = cache.NewMemorySessionStore()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = rdb.Close() })
		sessions = cache.NewRedisSessionStore(rdb, cfg.Sessions.TTL, log)
	}

	// notification gateway
	var notifier usecase.Notifier = usecase.LogNotifier{Log: log}
	if cfg.Rabbit.URL != "" {
		conn, err := amqp.Dial(cfg.Rabbit.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = conn.Close() })
		ch, err := conn.Channel()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		notifier, err = queue.NewRabbitNotifier(ch, cfg.Rabbit.Exchange, cfg.Rabbit.RoutingKey)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	// order event stream
	var events usecase.EventPublisher = usecase.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		prod, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = prod.Close() })
		events = kafka.NewOrderEventPublisher(prod, cfg.Kafka.TopicEvents)
	}

	// core
	catalog := usecase.NewCatalog(products, sessions, cfg.Admin.ID, cfg.Shop.Currencies, log)
	checkout := usecase.NewCheckout(products, orders, sessions, notifier, events,
		cfg.Admin.ID, cfg.Shop.PaymentInstructions, log)
	admin := usecase.NewOrderAdmin(orders, notifier, events, cfg.Admin.ID, log)
	dispatcher := usecase.NewDispatcher(sessions, catalog, checkout, admin, log)

	// fulfillment feed (optional)
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.TopicFulfillment != "" {
		if err := startStatusFeed(cfg, admin, &cleanups); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	// http
	h := httpadapter.NewUpdateHandler(dispatcher)
	th := httpadapter.NewTokenHandler(cfg)
	authz := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(h, th, authz)

	return &App{Router: router}, cleanup, nil
}

func startStatusFeed(cfg configs.Config, admin *usecase.OrderAdmin, cleanups *[]func()) error {
	log := logging.New("kafka")
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return err
	}
	*cleanups = append(*cleanups, func() { _ = grp.Close() })

	feed := kafka.NewStatusFeed(grp, []string{cfg.Kafka.TopicFulfillment},
		kafka.NewFulfillmentHandler(admin, log), log)

	ctx, cancel := context.WithCancel(context.Background())
	*cleanups = append(*cleanups, cancel)
	go func() {
		if err := feed.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("status feed stopped", "err", err)
		}
	}()
	return nil
}
