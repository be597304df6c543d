// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package app manages the lifecycle of long-running processes such as the
// HTTP servers of a command. Run blocks until the work finishes or a
// termination signal arrives, then cancels the work and waits a bounded
// time for it to wind down.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds the graceful shutdown.
const DefaultTimeout = 10 * time.Second

// Runnable is a unit of work. It must return once ctx is canceled.
// Returning ctx.Err() after cancellation counts as a clean exit.
type Runnable func(ctx context.Context) error

type config struct {
	logger  *slog.Logger
	timeout time.Duration
	signals []os.Signal
	ctx     context.Context
}

// Option configures Run.
type Option func(*config)

// WithLogger sets the logger for lifecycle messages, slog.Default() by
// default. A nil value will be ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets how long Run waits for the work to return after
// cancellation. Non-positive durations will be ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSignals replaces the shutdown signals, SIGTERM and SIGINT by default.
func WithSignals(signals ...os.Signal) Option {
	return func(c *config) {
		if len(signals) > 0 {
			c.signals = signals
		}
	}
}

// WithContext sets the parent context. Canceling it triggers a shutdown
// just like a signal does. A nil value will be ignored.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// Run executes fn and blocks until it returns on its own, a shutdown signal
// is caught, or the parent context ends. In the latter two cases, the
// context passed to fn is canceled and Run waits for fn to return, failing
// if that takes longer than the shutdown timeout. A panic in fn is
// converted into an error.
func Run(fn Runnable, opts ...Option) error {
	cfg := config{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		signals: []os.Signal{syscall.SIGTERM, syscall.SIGINT},
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, cancel := signal.NotifyContext(cfg.ctx, cfg.signals...)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- safe(ctx, fn) }()

	cfg.logger.Info("Application started")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("application error: %w", err)
		}
		cfg.logger.Info("Application stopped")
		return nil

	case <-ctx.Done():
		cfg.logger.Info("Shutdown signal received")

		timer := time.NewTimer(cfg.timeout)
		defer timer.Stop()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("error during shutdown: %w", err)
			}
			cfg.logger.Info("Shutdown completed")
			return nil
		case <-timer.C:
			return fmt.Errorf("shutdown timed out after %v", cfg.timeout)
		}
	}
}

// RunAll is shorthand for running a Group of runnables.
func RunAll(fns []Runnable, opts ...Option) error {
	return Run(Group(fns...), opts...)
}

// Group combines runnables that share one lifetime. They start together;
// the first one to fail cancels the others, and the group returns after
// all of them have returned, reporting the first error.
func Group(fns ...Runnable) Runnable {
	return func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			g.Go(func() error { return safe(ctx, fn) })
		}
		return g.Wait()
	}
}

// safe runs fn, turning panics into errors and context cancellation into a
// clean exit.
func safe(ctx context.Context, fn Runnable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application panic: %v\n%s", r, debug.Stack())
		}
	}()
	err = fn(ctx)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}
