package challenge

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/certkeeper/core/logger"
)

// WellKnownPath is the HTTP-01 challenge prefix defined by RFC 8555.
const WellKnownPath = "/.well-known/acme-challenge/"

// Handler serves HTTP-01 challenge responses from a ResponseStore at the
// well-known ACME path. Requests for unknown tokens get a 404 so the host can
// fall through to its normal handler chain when mounted as middleware.
func Handler(store ResponseStore, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.URL.Path, WellKnownPath)
		if token == "" || strings.Contains(token, "/") {
			http.NotFound(w, r)
			return
		}

		response, ok, err := store.TryGetResponse(r.Context(), token)
		if err != nil {
			log.ErrorContext(r.Context(), "challenge response lookup failed",
				"token", token,
				logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}

		log.InfoContext(r.Context(), "serving acme challenge response", "token", token)
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(response))
	})
}

// Middleware intercepts HTTP-01 challenge requests and passes everything else
// to next.
func Middleware(store ResponseStore, log *slog.Logger) func(next http.Handler) http.Handler {
	h := Handler(store, log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, WellKnownPath) {
				h.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
