package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/valyala/fasthttp"
)

// Serve returns a Runnable that serves HTTP requests on ln until its
// context is canceled, then shuts srv down gracefully. Connections still
// open when the shutdown deadline of Run passes are abandoned.
func Serve(srv *http.Server, ln net.Listener) Runnable {
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Serve(ln) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ServeFast is the fasthttp counterpart of Serve.
func ServeFast(srv *fasthttp.Server, ln net.Listener) Runnable {
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Serve(ln) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		if err := srv.Shutdown(); err != nil {
			return err
		}
		return <-errCh
	}
}
