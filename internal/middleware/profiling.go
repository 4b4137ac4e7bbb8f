package middleware

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
)

const pprofPrefix = "/debug/pprof/"

// Profiling mounts net/http/pprof under /debug/pprof/ for admin callers when
// enabled. It never mounts in production. It must run inside Authenticate.
func Profiling(enabled bool, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		if env == "production" {
			slog.Error("profiling requested in production, ignoring")
			return next
		}
		slog.Warn("profiling endpoints enabled", "env", env, "prefix", pprofPrefix)

		mux := http.NewServeMux()
		mux.HandleFunc(pprofPrefix, pprof.Index) // named profiles too
		mux.HandleFunc(pprofPrefix+"cmdline", pprof.Cmdline)
		mux.HandleFunc(pprofPrefix+"profile", pprof.Profile)
		mux.HandleFunc(pprofPrefix+"symbol", pprof.Symbol)
		mux.HandleFunc(pprofPrefix+"trace", pprof.Trace)
		profiles := RequireAdmin(mux)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, pprofPrefix) {
				profiles.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
