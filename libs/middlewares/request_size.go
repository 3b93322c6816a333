package middlewares

import (
	"net/http"
)

// RequestSizeLimitMiddleware caps request bodies at maxRequestSize bytes.
// A declared Content-Length over the cap is refused before the handler runs;
// chunked bodies are cut off by http.MaxBytesReader when read.
// Requests without a body pass through untouched.
func RequestSizeLimitMiddleware(maxRequestSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxRequestSize {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
			next.ServeHTTP(w, r)
		})
	}
}
