package hook

import (
	"context"
	"errors"
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/tokenfactory/pkg/holder"
	"github.com/joeydtaylor/tokenfactory/pkg/provider"
	"github.com/joeydtaylor/tokenfactory/pkg/schema"
	"go.uber.org/zap"
)

// Authenticator is satisfied by *provider.Provider.
type Authenticator[T any] interface {
	Authenticate(ctx context.Context, g *schema.Generation[T]) (T, error)
}

// Hook refreshes the shared token before each inbound request. It is stateless
// apart from its injected collaborators and runs the full sequence every time.
type Hook[T any] struct {
	auth   Authenticator[T]
	schema *schema.Generation[T]
	slot   *holder.Slot[T]
	log    *zap.Logger

	rawToken func(T) string
}

type Option[T any] func(*Hook[T])

// WithRawToken lets the hook log the expiry of JWT tokens it stores.
func WithRawToken[T any](fn func(T) string) Option[T] {
	return func(h *Hook[T]) { h.rawToken = fn }
}

func New[T any](auth Authenticator[T], g *schema.Generation[T], slot *holder.Slot[T], log *zap.Logger, opts ...Option[T]) *Hook[T] {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hook[T]{auth: auth, schema: g, slot: slot, log: log}
	for _, o := range opts {
		o(h)
	}
	return h
}

// BeforeRequest generates a token and stores it. A nil return means continue; any
// error is returned untouched for the caller to map to a response.
func (h *Hook[T]) BeforeRequest(ctx context.Context) error {
	v, err := h.auth.Authenticate(ctx, h.schema)
	if err != nil {
		return err
	}
	h.slot.Set(v)
	if h.rawToken != nil {
		if exp, ok := schema.TokenExpiry(h.rawToken(v)); ok {
			h.log.Debug("token stored", zap.Time("expiresAt", exp))
		}
	}
	return nil
}

// Middleware runs BeforeRequest ahead of next. On failure next is not called and
// the response status comes from StatusFor. Routes that must not refresh are kept
// outside the middleware by the router.
func (h *Hook[T]) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := h.BeforeRequest(r.Context()); err != nil {
				status := StatusFor(err)
				h.log.Error("token refresh failed",
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("uri", r.URL.Path),
					zap.Int("status", status),
					zap.Error(err),
				)
				http.Error(w, publicMessage(err), status)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StatusFor maps a hook failure to an HTTP status. Configuration and header
// problems are local (500); anything about the token endpoint is 502.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, provider.ErrURLNotProvided), errors.Is(err, provider.ErrHeaderManipulation):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, provider.ErrURLNotProvided),
		errors.Is(err, provider.ErrHeaderManipulation),
		errors.Is(err, provider.ErrResponseMapping):
		return err.Error()
	default:
		return "token endpoint unavailable"
	}
}
