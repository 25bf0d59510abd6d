// Package hxcmpecho mounts hxcmp components on an Echo server.
//
//	e := echo.New()
//	reg := hxcmpecho.Mount(e, hxcmpecho.WithKey(key))
//	form := components.Init(store, reg, log)
//	e.GET("/", hxcmpecho.Page(form))
package hxcmpecho

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pthm/geoform/lib/hxcmp"
	"github.com/sirupsen/logrus"
)

// Path is where component routes are mounted.
const Path = "/_c/"

// Option configures Mount and MountGroup.
type Option func(*options)

type options struct {
	key     []byte
	regOpts []hxcmp.RegistryOption
}

// WithKey sets the props key for the registry. Without it a random key is
// generated, so component URLs do not survive a restart.
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithRegistryOptions passes options through to hxcmp.NewRegistry.
func WithRegistryOptions(opts ...hxcmp.RegistryOption) Option {
	return func(o *options) {
		o.regOpts = append(o.regOpts, opts...)
	}
}

// Mount creates a registry and serves its component routes from e.
func Mount(e *echo.Echo, opts ...Option) *hxcmp.Registry {
	reg := newRegistry(opts)
	e.Any(Path+"*", echo.WrapHandler(reg.Handler()))
	return reg
}

// MountGroup creates a registry and serves its component routes from g, so
// they share the group's middleware.
func MountGroup(g *echo.Group, opts ...Option) *hxcmp.Registry {
	reg := newRegistry(opts)
	g.Any(Path+"*", echo.WrapHandler(reg.Handler()))
	return reg
}

func newRegistry(opts []Option) *hxcmp.Registry {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	key := o.key
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("hxcmpecho: failed to generate random key: %v", err))
		}
	}
	return hxcmp.NewRegistry(key, o.regOpts...)
}

// Render writes a templ component to the Echo response.
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}

// Page adapts a plain page handler to an Echo route.
func Page(h http.Handler) echo.HandlerFunc {
	return echo.WrapHandler(h)
}

// Logger logs one entry per request with logrus. Server errors log at error
// level, client errors at warn, the rest at info.
func Logger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		LogRemoteIP: true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"path":       v.URIPath,
				"status":     v.Status,
				"latency_ms": v.Latency.Round(time.Microsecond).Seconds() * 1000,
				"remote_ip":  v.RemoteIP,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				entry.Error("request")
			case v.Status >= http.StatusBadRequest:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}
