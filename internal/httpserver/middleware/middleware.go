package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/davidbz/scribe/internal/config"
)

// Middleware decorates an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares; the first one listed sees the request first.
func Chain(middlewares ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		return h
	}
}

// Recover turns handler panics into 500 responses.
func Recover() Middleware {
	return chimw.Recoverer
}

// BuildMiddlewareChain is the chain mounted on the chat router. CORS runs first
// so preflight requests skip tracing; Recover sits innermost so a panic is
// still logged by Trace with its 500 status.
func BuildMiddlewareChain(corsConfig *config.CORSConfig) Middleware {
	return Chain(
		CORS(corsConfig),
		Trace(),
		Recover(),
	)
}
