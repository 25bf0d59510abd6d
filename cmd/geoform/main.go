// Command geoform serves the country and state selection form.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pthm/geoform"
	hxcmpecho "github.com/pthm/geoform/adapters/echo"
	"github.com/pthm/geoform/components"
	"github.com/pthm/geoform/lib/config"
	"github.com/pthm/geoform/lib/countryapi"
	"github.com/pthm/geoform/lib/hxcmp"
	"github.com/pthm/geoform/lib/metrics"
	"github.com/pthm/geoform/lib/query"
	"github.com/pthm/geoform/lib/session"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		if geoform.IsConfiguration(err) {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
	log := cfg.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	rec := metrics.New()

	api := countryapi.New(cfg.BaseURL, cfg.APIKey,
		countryapi.WithTimeout(cfg.RequestTimeout),
		countryapi.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		countryapi.WithLogger(log.WithField("component", "countryapi")),
		countryapi.WithObserver(rec),
	)

	store := session.NewStore(api,
		session.WithIdleTTL(cfg.SessionIdleTTL),
		session.WithLogger(log.WithField("component", "session")),
		session.WithObserver(rec),
		session.WithQueryOptions(
			query.WithLogger(log.WithField("component", "query")),
			query.WithObserver(rec),
			query.WithBaseContext(ctx),
		),
	)
	defer store.Close()
	store.StartJanitor(ctx)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(hxcmpecho.Logger(log.WithField("component", "http")))

	var key []byte
	if cfg.PropsKey != "" {
		key = []byte(cfg.PropsKey)
	} else {
		log.Warn("PROPS_KEY not set, component URLs will not survive a restart")
	}
	reg := hxcmpecho.Mount(e,
		hxcmpecho.WithKey(key),
		hxcmpecho.WithRegistryOptions(
			hxcmp.WithLogger(log.WithField("component", "hxcmp")),
			hxcmp.WithBoundaryObserver(rec),
		),
	)
	reg.OnError = components.OnError(hxcmp.DefaultOnError)
	form := components.Init(store, reg, log.WithField("component", "form"))

	e.GET("/", hxcmpecho.Page(form))
	e.GET("/metrics", echo.WrapHandler(rec.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.ListenAddr,
			"base_url": api.BaseURL(),
		}).Info("listening")
		errc <- e.Start(cfg.ListenAddr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
