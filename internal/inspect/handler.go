package inspect

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/valyala/fasthttp"
	"golang.org/x/text/language"

	"github.com/deep-rent/inbound/header"
	"github.com/deep-rent/inbound/middleware"
	"github.com/deep-rent/inbound/middleware/cors"
	"github.com/deep-rent/inbound/middleware/gzip"
	"github.com/deep-rent/inbound/negotiate"
	"github.com/deep-rent/inbound/request"
	"github.com/deep-rent/inbound/router"
)

// Offers lists the response formats in order of preference.
var Offers = []string{router.MediaJSON, router.MediaYAML, router.MediaText}

var greetings = map[language.Tag]string{
	language.English: "Hello",
	language.German:  "Hallo",
	language.French:  "Bonjour",
	language.Danish:  "Hej",
}

// Languages lists the greeting languages, the first being the fallback.
var Languages = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Danish,
}

// Greeting is the body of the /hello endpoint.
type Greeting struct {
	Language string `json:"language" yaml:"language"`
	Text     string `json:"text" yaml:"text"`
	Matched  bool   `json:"matched" yaml:"matched"`
}

// String renders the greeting for text/plain responses.
func (g Greeting) String() string { return g.Text }

// Greet answers in the best supported language of the request.
func Greet(r request.Request) Greeting {
	tag, ok := negotiate.MatchLanguage(r.Headers(), Languages...)
	return Greeting{Language: tag.String(), Text: greetings[tag], Matched: ok}
}

// NewHTTP creates the net/http handler. It serves the request summary on
// "GET /", a localized greeting on "GET /hello" and the metrics on
// "/metrics". The middleware wraps the whole mux so that CORS preflights
// are answered before routing.
func NewHTTP(cfg Config, logger *slog.Logger, m *Metrics) http.Handler {
	pipes := []middleware.Pipe{
		middleware.Recover(logger),
		request.Middleware(cfg.Request.Options()...),
		middleware.Log(logger),
	}
	pipes = append(pipes, cors.New(cfg.CORS))
	if cfg.Gzip {
		pipes = append(pipes, gzip.New())
	}
	r := router.New(
		router.WithLogger(logger),
		router.WithRequestOptions(cfg.Request.Options()...),
	)
	r.HandleFunc("GET /{$}", func(e *router.Exchange) error {
		mime, err := e.Negotiate(Offers...)
		m.Observe(TransportHTTP, mime)
		if err != nil {
			return err
		}
		return e.Write(http.StatusOK, mime, request.Describe(e.Request()))
	})
	r.HandleFunc("GET /hello", func(e *router.Exchange) error {
		return e.Render(http.StatusOK, Greet(e.Request()))
	})
	r.Mount("/metrics", m.Handler())
	return middleware.Chain(r, pipes...)
}

// NewFast creates the fasthttp handler, which serves the request summary
// for every request.
func NewFast(cfg Config, logger *slog.Logger, m *Metrics) fasthttp.RequestHandler {
	opts := cfg.Request.Options()
	return func(ctx *fasthttp.RequestCtx) {
		a := request.NewFastHTTP(ctx, opts...)
		ctx.Response.Header.Add(header.Vary, header.Accept)

		mime, ok := pick(a.Headers())
		m.Observe(TransportFast, mime)
		if !ok {
			ctx.Error("none of the available formats is acceptable", fasthttp.StatusNotAcceptable)
			return
		}

		var buf bytes.Buffer
		if err := router.Encode(&buf, mime, request.Describe(a)); err != nil {
			logger.Error("Failed to encode summary", slog.Any("error", err))
			ctx.Error(fasthttp.StatusMessage(fasthttp.StatusInternalServerError), fasthttp.StatusInternalServerError)
			return
		}
		ctx.SetContentType(mime + "; charset=utf-8")
		ctx.SetBody(buf.Bytes())
		logger.Debug("Fast request handled",
			slog.String("method", a.Method()),
			slog.String("url", a.URI()),
			slog.String("remote", a.RemoteAddress()),
			slog.String("mediaType", mime),
		)
	}
}

// pick mirrors router.Exchange.Negotiate for transports without an
// http.ResponseWriter.
func pick(h header.Map) (string, bool) {
	if !h.Has(header.Accept) {
		return Offers[0], true
	}
	return negotiate.Negotiate(h, Offers...)
}
