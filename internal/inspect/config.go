// Package inspect implements the inspect command: two servers, one on
// net/http and one on fasthttp, that answer every request with the view
// the request adapter has of it.
package inspect

import (
	"time"

	"github.com/deep-rent/inbound/app"
	"github.com/deep-rent/inbound/env"
	"github.com/deep-rent/inbound/log"
	"github.com/deep-rent/inbound/middleware/cors"
	"github.com/deep-rent/inbound/request"
)

// Prefix is prepended to every environment variable the command reads.
const Prefix = "INSPECT_"

// Config is the command configuration, read from INSPECT_* variables.
type Config struct {
	// HTTPAddr is the listen address of the net/http server.
	HTTPAddr string `env:",default::8080"`
	// FastAddr is the listen address of the fasthttp server. An empty
	// address disables it.
	FastAddr string `env:",default::8081"`
	// Gzip compresses net/http responses for clients that accept it.
	Gzip bool `env:",default:true"`
	// ShutdownTimeout bounds the graceful shutdown.
	ShutdownTimeout time.Duration `env:",default:10s"`

	Log     log.Config     `env:",prefix:LOG_"`
	Request request.Config `env:",prefix:REQUEST_"`
	CORS    cors.Config    `env:",prefix:CORS_"`
}

// Load reads the configuration from the environment, falling back to the
// given dotenv files for unset variables.
func Load(lookup env.Lookup, files ...string) (Config, error) {
	cfg := Config{ShutdownTimeout: app.DefaultTimeout}
	err := env.Unmarshal(&cfg,
		env.WithPrefix(Prefix),
		env.WithLookup(lookup),
		env.WithFiles(files...),
	)
	return cfg, err
}
