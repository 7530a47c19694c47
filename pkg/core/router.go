// core/router.go
package core

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/tokenfactory/pkg/config"
	"github.com/joeydtaylor/tokenfactory/pkg/middleware/logger"
	hmetrics "github.com/joeydtaylor/tokenfactory/pkg/middleware/metrics"
	httpx "github.com/joeydtaylor/tokenfactory/pkg/transport/httpx"
)

// TokenStatus is what the access log and metrics read from the shared slot.
type TokenStatus interface {
	Available() bool
}

type BuildDeps struct {
	LogMW   *logger.Middleware
	Metrics http.Handler
	Router  httpx.Router
	Status  TokenStatus

	// Refresh runs ahead of every route that needs a fresh token.
	Refresh func(http.Handler) http.Handler
	// Token serves GET /token behind Refresh. Optional.
	Token http.Handler
	// DevIssuer is mounted at DevIssuerPath outside Refresh. Optional.
	DevIssuer     http.Handler
	DevIssuerPath string
}

const DefaultDevIssuerPath = "/dev/token"

func BuildRouter(s config.Settings, d BuildDeps) http.Handler {
	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware(d.Status))
	}
	r.Use(hmetrics.Collect(d.Status))

	if d.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.DevIssuer != nil {
		p := strings.TrimSpace(d.DevIssuerPath)
		if p == "" {
			p = DefaultDevIssuerPath
		}
		r.Post(p, d.DevIssuer)
	}

	var open, guarded []config.Route
	for _, rt := range s.Routes {
		if rt.LogBody {
			logger.AddBodyLogPaths(rt.Path)
		}
		if rt.SkipToken {
			open = append(open, rt)
		} else {
			guarded = append(guarded, rt)
		}
	}
	for _, rt := range open {
		r.Handle(rt.Method, rt.Path, routeHandler(rt))
	}

	r.Group(func(g httpx.Router) {
		if d.Refresh != nil {
			g.Use(d.Refresh)
		}
		if d.Token != nil {
			g.Get("/token", d.Token)
		}
		for _, rt := range guarded {
			g.Handle(rt.Method, rt.Path, routeHandler(rt))
		}
	})
	return r.Mux()
}

func routeHandler(rt config.Route) http.Handler {
	h := wrapRoute(rt)
	if rt.TimeoutMS > 0 {
		h = withTimeout(h, time.Duration(rt.TimeoutMS)*time.Millisecond)
	}
	return h
}

// wrapRoute resolves the handler at request time so handlers may register after
// the router is built.
func wrapRoute(rt config.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := Lookup(rt.Handler)
		if !ok {
			http.Error(w, "handler not found", http.StatusInternalServerError)
			return
		}
		body, _ := io.ReadAll(r.Body)
		out, status, err := h(r.Context(), body)
		if err != nil {
			http.Error(w, err.Error(), statusIf(status, http.StatusInternalServerError))
			return
		}
		writeJSON(w, out, statusIf(status, http.StatusOK))
	}
}

func withTimeout(next http.HandlerFunc, d time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

func writeJSON(w http.ResponseWriter, payload []byte, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	_, _ = w.Write(payload)
}

// statusIf returns s when a handler set one, def otherwise.
func statusIf(s, def int) int {
	if s > 0 {
		return s
	}
	return def
}
