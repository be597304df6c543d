package inspect

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/deep-rent/inbound/app"
)

// Serve opens the listeners and returns a Runnable that serves both
// transports until its context is canceled. The fasthttp server is skipped
// if its address is empty.
func Serve(cfg Config, logger *slog.Logger) (app.Runnable, error) {
	m := NewMetrics()

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	std := &http.Server{
		Handler:           NewHTTP(cfg, logger, m),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	logger.Info("HTTP server listening", slog.String("addr", ln.Addr().String()))
	runnables := []app.Runnable{app.Serve(std, ln)}

	if cfg.FastAddr != "" {
		fln, err := net.Listen("tcp", cfg.FastAddr)
		if err != nil {
			ln.Close()
			return nil, fmt.Errorf("listen on %s: %w", cfg.FastAddr, err)
		}
		fast := &fasthttp.Server{
			Handler:               NewFast(cfg, logger, m),
			Name:                  "inspect",
			NoDefaultServerHeader: true,
			ReadTimeout:           10 * time.Second,
		}
		logger.Info("FastHTTP server listening", slog.String("addr", fln.Addr().String()))
		runnables = append(runnables, app.ServeFast(fast, fln))
	}

	return app.Group(runnables...), nil
}
