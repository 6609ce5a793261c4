// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecoride/internal/config"
	httptransport "ecoride/internal/http"
	"ecoride/internal/http/handlers"
	"ecoride/internal/infra"
	"ecoride/internal/maps"
	"ecoride/internal/modules/matching"
	"ecoride/internal/modules/pricing"
	"ecoride/internal/modules/ride"
	"ecoride/internal/modules/tracking"
	"ecoride/internal/notify"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores degrade to in-memory implementations when no backing service is
	// configured, which is how local development and the test suite run.
	var (
		rideStore      ride.Store
		driverPool     matching.Pool
		rateOverrides  map[pricing.VehicleClass]pricing.Rate
		snapshotStore  *tracking.Store
		trackSnapshots tracking.SnapshotStore
	)
	rideStore = ride.NewMemoryStore()
	driverPool = matching.NewMemoryPool()

	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		rideStore = ride.NewPostgresStore(dbPool)

		rateOverrides, err = pricing.NewStore(dbPool).LoadRates(ctx)
		if err != nil {
			logger.Warn("load pricing rates, using defaults", "error", err)
		}

		if cfg.Redis.Addr != "" {
			client, err := infra.NewRedis(ctx, cfg.Redis.Addr)
			if err != nil {
				logger.Error("connect redis", "error", err)
				os.Exit(1)
			}
			defer client.Close()
			driverPool = matching.NewRedisPool(client, cfg.Matching.RadiusKm)
			snapshotStore = tracking.NewStore(dbPool, client)
		} else {
			snapshotStore = tracking.NewStore(dbPool, nil)
		}
		trackSnapshots = snapshotStore
	}

	pricingSvc := pricing.NewService(rateOverrides)

	tracker := tracking.NewService(rideStore, tracking.Options{
		Interval:  time.Duration(cfg.Tracking.TickSeconds) * time.Second,
		Step:      cfg.Tracking.ProgressStep,
		Snapshots: trackSnapshots,
		Logger:    logger,
	})

	notifiers := notify.Fanout{
		notify.LogNotifier{Log: logger},
		notify.MetricsNotifier{},
		notify.TrackingNotifier{Tracker: tracker},
	}
	if cfg.Email.Region != "" && cfg.Email.Sender != "" {
		sender, err := notify.NewSESV2Sender(ctx, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			logger.Error("init ses sender", "error", err)
			os.Exit(1)
		}
		notifiers = append(notifiers, notify.EmailNotifier{
			Sender:  sender,
			Resolve: notify.StaticDomainResolver("riders.ecoride.example"),
			Log:     logger,
		})
	}

	rideSvc := ride.NewService(rideStore, pricingSvc, ride.Options{
		Drivers:    driverPool,
		Notifier:   notifiers,
		MatchDelay: time.Duration(cfg.Matching.DelaySeconds) * time.Second,
		Logger:     logger,
	})

	var geocoder handlers.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocoder(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			logger.Error("init geocoder", "error", err)
			os.Exit(1)
		}
		geocoder = g
	}

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Rides:    rideSvc,
		Pricing:  pricingSvc,
		Drivers:  driverPool,
		Tracker:  tracker,
		History:  snapshotStore,
		Geocoder: geocoder,
		Logger:   logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("starting ecoride api", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("http server", "error", err)
		os.Exit(1)
	}
}
