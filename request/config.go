package request

import "github.com/deep-rent/inbound/param"

// Default configuration values for a new Adapter.
const (
	DefaultTrustForwarded  = true
	DefaultForwardedHeader = "X-Forwarded-For"
)

// Config holds the adapter settings that are typically loaded from the
// environment with env.Unmarshal.
type Config struct {
	// TrustForwarded enables reporting the forwarded header as the remote
	// address. Whether the peer may be trusted is up to the deployment.
	TrustForwarded bool `env:",default:true"`
	// ForwardedHeader names the header carrying the original client address.
	ForwardedHeader string `env:",default:X-Forwarded-For"`
}

// Options converts the configuration into adapter options.
func (c Config) Options() []Option {
	return []Option{
		WithTrustForwarded(c.TrustForwarded),
		WithForwardedHeader(c.ForwardedHeader),
	}
}

type config struct {
	params    param.Source
	trust     bool
	forwarded string
}

// Option configures an Adapter.
type Option func(*config)

// WithParams sets the source of query and form parameters. A nil value will
// be ignored.
func WithParams(s param.Source) Option {
	return func(c *config) {
		if s != nil {
			c.params = s
		}
	}
}

// WithTrustForwarded controls whether RemoteAddress reports the forwarded
// header when it is present. Trust is enabled by default.
func WithTrustForwarded(trust bool) Option {
	return func(c *config) {
		c.trust = trust
	}
}

// WithForwardedHeader changes the name of the forwarded header, which
// defaults to DefaultForwardedHeader. An empty name will be ignored.
func WithForwardedHeader(name string) Option {
	return func(c *config) {
		if name != "" {
			c.forwarded = name
		}
	}
}
