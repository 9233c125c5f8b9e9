// README: Entry point; loads config, wires services by backend and serves HTTP until signalled.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"adile/internal/config"
	httptransport "adile/internal/http"
	"adile/internal/events"
	"adile/internal/infra"
	"adile/internal/logging"
	"adile/internal/maps"
	"adile/internal/modules/account"
	"adile/internal/modules/appstatus"
	"adile/internal/modules/dispatch"
	"adile/internal/modules/ledger"
	"adile/internal/modules/location"
	"adile/internal/modules/matching"
	"adile/internal/modules/pricing"
	"adile/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("adile-api stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	var redisClient *redis.Client
	if cfg.Ledger.Backend != config.BackendMemory {
		client, err := infra.NewRedis(ctx, infra.RedisOptions{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer client.Close()
		redisClient = client
	}

	rides, closeLedger, err := newLedger(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeLedger()

	publisher, err := newPublisher(cfg.Events, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	var (
		accountStore  account.Store   = account.NewMemoryStore()
		locationStore location.Store  = location.NewMemoryStore()
		statusStore   appstatus.Store = appstatus.NewMemoryStore()
	)
	var leases *dispatch.RedisLeases
	if redisClient != nil {
		accountStore = account.NewRedisStore(redisClient)
		locationStore = location.NewRedisStore(redisClient)
		statusStore = appstatus.NewRedisStore(redisClient)
		leases = dispatch.NewRedisLeases(redisClient, dispatch.DefaultLeaseTTL)
	}

	pricingSvc := pricing.NewService()
	accountSvc := account.NewService(accountStore, logging.Component(log, "account"))
	locationSvc := location.NewService(locationStore, cfg.Location.MaxAge, logging.Component(log, "location"))
	dispatchSvc := dispatch.NewService(dispatch.Deps{
		Ledger:  rides,
		Pricing: pricingSvc,
		Events:  publisher,
		Log:     logging.Component(log, "dispatch"),
		Leases:  leases,
	})
	matchingSvc := matching.NewService(dispatchSvc, locationSvc, cfg.Matching.RadiusKm)
	statusSvc := appstatus.NewService(statusStore, logging.Component(log, "appstatus"))

	var provider maps.Provider
	if cfg.Places.APIKey != "" {
		google, err := maps.NewGoogleProvider(cfg.Places.APIKey,
			maps.WithRegion(cfg.Places.Region),
			maps.WithBias(types.Point{Lat: cfg.Places.BiasLat, Lng: cfg.Places.BiasLng}),
		)
		if err != nil {
			return err
		}
		provider = google
	} else {
		log.Warn("no places api key, place search uses the gazetteer only")
	}
	places := maps.NewSearcher(provider, maps.SearcherConfig{Limit: cfg.Places.Limit, Timeout: cfg.Places.Timeout}, logging.Component(log, "places"))

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Accounts:  accountSvc,
		Dispatch:  dispatchSvc,
		Matching:  matchingSvc,
		Location:  locationSvc,
		Pricing:   pricingSvc,
		Places:    places,
		AppStatus: statusSvc,
		AdminKey:  cfg.Admin.Key,
		Log:       logging.Component(log, "http"),
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": cfg.HTTP.Addr, "ledger": cfg.Ledger.Backend, "events": cfg.Events.Backend}).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newLedger(ctx context.Context, cfg config.Config, redisClient *redis.Client) (ledger.Ledger, func(), error) {
	switch cfg.Ledger.Backend {
	case config.BackendRedis:
		return ledger.NewRedisLedger(redisClient), func() {}, nil
	case config.BackendPostgres:
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := infra.ApplyMigrations(ctx, pool, cfg.DB.MigrationsDir); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return ledger.NewPostgresLedger(pool), pool.Close, nil
	default:
		return ledger.NewMemoryLedger(), func() {}, nil
	}
}

func newPublisher(cfg config.EventsConfig, log *logrus.Logger) (events.Publisher, error) {
	switch cfg.Backend {
	case config.EventsKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsAMQP:
		return events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	default:
		return events.NewLogPublisher(logging.Component(log, "events")), nil
	}
}
