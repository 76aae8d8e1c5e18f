// Package middleware holds the request pipeline of the web server: the
// session gate, CSRF protection, rate limiting, security headers and timing.
package middleware

import "net/http"

// Chain wraps h with middlewares. The last middleware is the outermost, so
// Chain(h, a, b) serves b(a(h)).
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
