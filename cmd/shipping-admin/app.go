package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/api/handler"
	"github.com/giftkart/shipping-admin/internal/core/ports"
	"github.com/giftkart/shipping-admin/internal/core/service"
	"github.com/giftkart/shipping-admin/internal/infrastructure/config"
	mongostore "github.com/giftkart/shipping-admin/internal/infrastructure/db/mongo"
	pgstore "github.com/giftkart/shipping-admin/internal/infrastructure/db/postgres"
	redisstore "github.com/giftkart/shipping-admin/internal/infrastructure/db/redis"
	"github.com/giftkart/shipping-admin/internal/infrastructure/delhivery"
)

// store is the selected persistence backend.
type store struct {
	shipments ports.ShipmentRepository
	orders    ports.OrderRepository
	pickups   ports.PickupRepository
	users     ports.UserRepository
	name      string
	ping      handler.HealthCheck
	close     func(context.Context) error
}

// app holds the wired services shared by every command.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *store
	redis *goredis.Client

	shipments *service.ShipmentService
	tracking  *service.TrackingService
	pickups   *service.PickupService
	documents *service.DocumentService
	quotes    *service.QuoteService
	auth      *service.AuthService
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = st.close(ctx)
		return nil, err
	}

	courier := delhivery.New(delhivery.Config{
		Token:          cfg.Delhivery.Token,
		BaseURL:        cfg.Delhivery.BaseURL,
		Timeout:        cfg.Delhivery.Timeout,
		OriginPincode:  cfg.Delhivery.OriginPincode,
		OriginState:    cfg.Delhivery.OriginState,
		PickupLocation: cfg.Delhivery.PickupLocation,
		UseMock:        cfg.Delhivery.UseMock,
	}, log)

	shipmentCfg := service.ShipmentConfig{
		OriginPincode: cfg.Delhivery.OriginPincode,
		OriginState:   cfg.Delhivery.OriginState,
	}
	pickups := service.NewPickupService(st.pickups, courier, service.PickupConfig{
		Location: cfg.Delhivery.PickupLocation,
		Time:     cfg.Delhivery.PickupTime,
	}, log)

	a := &app{
		cfg:       cfg,
		log:       log,
		store:     st,
		redis:     rdb,
		pickups:   pickups,
		shipments: service.NewShipmentService(st.shipments, st.orders, courier, pickups, shipmentCfg, log),
		tracking: service.NewTrackingService(
			st.shipments,
			st.orders,
			courier,
			redisstore.NewLock(rdb, redisstore.SweepLockKey),
			redisstore.NewDedupChecker(rdb),
			service.TrackingConfig{Delay: cfg.Sync.Delay},
			log,
		),
		documents: service.NewDocumentService(st.shipments, courier, log),
		quotes:    service.NewQuoteService(courier, shipmentCfg, log),
		auth:      service.NewAuthService(st.users, cfg.JWTSecret, cfg.TokenTTL),
	}

	log.Info().
		Str("store", st.name).
		Bool("courier_mock", cfg.Delhivery.UseMock).
		Msg("application wired")
	return a, nil
}

func (a *app) healthChecks() map[string]handler.HealthCheck {
	return map[string]handler.HealthCheck{
		a.store.name: a.store.ping,
		"redis": func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		},
	}
}

func (a *app) close(ctx context.Context) {
	if err := a.redis.Close(); err != nil {
		a.log.Warn().Err(err).Msg("redis close")
	}
	if err := a.store.close(ctx); err != nil {
		a.log.Warn().Err(err).Str("store", a.store.name).Msg("store close")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := pgstore.Connect(ctx, pgstore.Config{DSN: cfg.Postgres.DSN, Production: cfg.IsProduction()})
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, db); err != nil {
			_ = pgstore.Close(db)
			return nil, err
		}
		return &store{
			shipments: pgstore.NewShipmentRepository(db),
			orders:    pgstore.NewOrderRepository(db),
			pickups:   pgstore.NewPickupRepository(db),
			users:     pgstore.NewUserRepository(db),
			name:      "postgres",
			ping: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			close: func(context.Context) error { return pgstore.Close(db) },
		}, nil

	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		shipments := mongostore.NewShipmentRepository(db)
		pickups := mongostore.NewPickupRepository(db)
		users := mongostore.NewUserRepository(db)
		for name, ensure := range map[string]func(context.Context) error{
			"shipments": shipments.EnsureIndexes,
			"pickups":   pickups.EnsureIndexes,
			"users":     users.EnsureIndexes,
		} {
			if err := ensure(ctx); err != nil {
				_ = client.Disconnect(ctx)
				return nil, fmt.Errorf("ensure %s indexes: %w", name, err)
			}
		}
		return &store{
			shipments: shipments,
			orders:    mongostore.NewOrderRepository(db),
			pickups:   pickups,
			users:     users,
			name:      "mongodb",
			ping:      func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:     client.Disconnect,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
