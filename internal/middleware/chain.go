package middleware

import "net/http"

// Chain wraps the handler with the full middleware stack.
// Order: CORS → RequestID → Logging → RateLimit → Metrics → mux
func Chain(handler http.Handler, rl *RateLimiter) http.Handler {
	h := handler
	h = Metrics(h)
	h = RateLimit(rl)(h)
	h = Logging(h)
	h = RequestID(h)
	h = CORS(h)
	return h
}
