// Command inspect serves a negotiated view of every request it receives,
// over net/http and fasthttp.
//
// Configuration is read from INSPECT_* environment variables, with a .env
// file in the working directory as fallback.
package main

import (
	"fmt"
	"os"

	"github.com/deep-rent/inbound/app"
	"github.com/deep-rent/inbound/internal/inspect"
	"github.com/deep-rent/inbound/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := inspect.Load(os.LookupEnv, ".env")
	if err != nil {
		return err
	}
	logger := log.New(cfg.Log.Options()...)

	serve, err := inspect.Serve(cfg, logger)
	if err != nil {
		return err
	}
	return app.Run(serve,
		app.WithLogger(logger),
		app.WithTimeout(cfg.ShutdownTimeout),
	)
}
