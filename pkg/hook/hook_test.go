package hook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joeydtaylor/tokenfactory/pkg/config"
	"github.com/joeydtaylor/tokenfactory/pkg/holder"
	"github.com/joeydtaylor/tokenfactory/pkg/provider"
	"github.com/joeydtaylor/tokenfactory/pkg/schema"
	"github.com/joeydtaylor/tokenfactory/pkg/transport/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

type tokenResponse struct {
	Token string `json:"token"`
	Twin  string `json:"twin"`
}

type fakeAuth struct {
	calls atomic.Int32
	fn    func(n int32) (tokenResponse, error)
}

func (f *fakeAuth) Authenticate(context.Context, *schema.Generation[tokenResponse]) (tokenResponse, error) {
	n := f.calls.Add(1)
	return f.fn(n)
}

func TestBeforeRequestStoresResult(t *testing.T) {
	slot := holder.New[tokenResponse]()
	fa := &fakeAuth{fn: func(int32) (tokenResponse, error) { return tokenResponse{Token: "mock_token_retorno"}, nil }}
	h := New[tokenResponse](fa, schema.Empty[tokenResponse](), slot, nil)

	_, ok := slot.Get()
	require.False(t, ok)

	require.NoError(t, h.BeforeRequest(context.Background()))
	v, ok := slot.Get()
	require.True(t, ok)
	assert.Equal(t, "mock_token_retorno", v.Token)
}

func TestBeforeRequestFailureLeavesSlotAlone(t *testing.T) {
	slot := holder.New[tokenResponse]()
	slot.Set(tokenResponse{Token: "previous"})
	fa := &fakeAuth{fn: func(int32) (tokenResponse, error) { return tokenResponse{}, provider.ErrResponseMapping }}
	h := New[tokenResponse](fa, nil, slot, nil)

	err := h.BeforeRequest(context.Background())
	assert.ErrorIs(t, err, provider.ErrResponseMapping)
	v, _ := slot.Get()
	assert.Equal(t, "previous", v.Token)
}

func TestBeforeRequestRunsEveryTime(t *testing.T) {
	slot := holder.New[tokenResponse]()
	fa := &fakeAuth{fn: func(n int32) (tokenResponse, error) { return tokenResponse{Token: fmt.Sprint(n)}, nil }}
	h := New[tokenResponse](fa, nil, slot, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, h.BeforeRequest(context.Background()))
	}
	assert.EqualValues(t, 3, fa.calls.Load())
	v, _ := slot.Get()
	assert.Equal(t, "3", v.Token)
}

func TestMiddlewareStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, http.StatusOK},
		{"url", provider.ErrURLNotProvided, http.StatusInternalServerError},
		{"headers", provider.ErrHeaderManipulation, http.StatusInternalServerError},
		{"mapping", provider.ErrResponseMapping, http.StatusBadGateway},
		{"transport", errors.New("connection refused"), http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			fa := &fakeAuth{fn: func(int32) (tokenResponse, error) { return tokenResponse{Token: "t"}, tt.err }}
			h := New[tokenResponse](fa, nil, holder.New[tokenResponse](), zap.New(core))

			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled = true })

			rec := httptest.NewRecorder()
			h.Middleware()(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.err == nil, nextCalled)
			if tt.err != nil {
				assert.Equal(t, 1, logs.FilterMessage("token refresh failed").Len())
			}
		})
	}
}

func TestMiddlewareHidesTransportDetails(t *testing.T) {
	fa := &fakeAuth{fn: func(int32) (tokenResponse, error) { return tokenResponse{}, errors.New("dial tcp 10.0.0.7:443") }}
	h := New[tokenResponse](fa, nil, holder.New[tokenResponse](), nil)

	rec := httptest.NewRecorder()
	h.Middleware()(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
}

func TestRawTokenExpiryLogged(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	fa := &fakeAuth{fn: func(int32) (tokenResponse, error) { return tokenResponse{Token: signed}, nil }}
	h := New[tokenResponse](fa, nil, holder.New[tokenResponse](), zap.New(core),
		WithRawToken(func(v tokenResponse) string { return v.Token }))

	require.NoError(t, h.BeforeRequest(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("token stored").Len())
}

// End to end through the real provider and HTTP transport.
func TestHookWithProviderEndToEnd(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "x-header-mock", r.Header.Get("headerA"))
		v := fmt.Sprintf("tok-%d", n.Add(1))
		_, _ = fmt.Fprintf(w, `{"token":%q,"twin":%q}`, v, v)
	}))
	defer srv.Close()

	slot := holder.New[tokenResponse]()
	p := provider.New[tokenResponse](config.URLFunc(func() string { return srv.URL }), httpx.NewClient(srv.Client()), nil)
	g := schema.New[tokenResponse](schema.HeaderMap{{Name: "headerA", Value: "x-header-mock"}}, nil, schema.JSONShape[tokenResponse]{})
	h := New[tokenResponse](p, g, slot, nil)

	handler := h.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := slot.Get()
		if !ok {
			http.Error(w, "no token", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(v.Token))
	}))

	var eg errgroup.Group
	for i := 0; i < 16; i++ {
		eg.Go(func() error {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
			if rec.Code != http.StatusOK {
				return fmt.Errorf("status %d", rec.Code)
			}
			if v, _ := slot.Get(); v.Token != v.Twin {
				return fmt.Errorf("torn read %+v", v)
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	assert.EqualValues(t, 16, n.Load())
	assert.EqualValues(t, 16, slot.Snapshot().Seq)
}
