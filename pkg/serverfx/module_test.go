package serverfx

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/joeydtaylor/tokenfactory/pkg/config"
	"github.com/joeydtaylor/tokenfactory/pkg/holder"
	"github.com/joeydtaylor/tokenfactory/pkg/middleware/logger"
	"github.com/joeydtaylor/tokenfactory/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

type tokenResponse struct {
	Token string `json:"token"`
}

func setup(t *testing.T, settings string) string {
	t.Helper()
	logger.Dir = t.TempDir()
	logger.SetAccessLogger(zap.NewNop())

	p := filepath.Join(t.TempDir(), "tokenfactory.toml")
	require.NoError(t, os.WriteFile(p, []byte(settings), 0o600))
	t.Setenv(config.EnvConfigPath, p)
	t.Setenv(config.EnvTokenURL, "")
	t.Setenv("SERVER_LISTEN_ADDRESS", "127.0.0.1:0")
	return p
}

func TestModuleWiresHookIntoRouter(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "x-header-mock", r.Header.Get("headerA"))
		_, _ = fmt.Fprintf(w, `{"token":"tok-%d"}`, calls.Add(1))
	}))
	defer upstream.Close()

	setup(t, fmt.Sprintf("[token]\nurl = %q\n", upstream.URL))

	g := schema.New[tokenResponse](
		schema.HeaderMap{{Name: "headerA", Value: "x-header-mock"}},
		nil,
		schema.JSONShape[tokenResponse]{},
	)

	var app http.Handler
	var slot *holder.Slot[tokenResponse]
	fxApp := fxtest.New(t,
		Module(App[tokenResponse]{Schema: g}),
		fx.Populate(&slot),
		fx.Invoke(fx.Annotate(func(h http.Handler) { app = h }, fx.ParamTags(`name:"app"`))),
	)
	fxApp.RequireStart()
	defer fxApp.RequireStop()

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/token", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"tok-1"`)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, calls.Load())

	v, ok := slot.Get()
	require.True(t, ok)
	assert.Equal(t, "tok-1", v.Token)
}

func TestModuleWithoutURLFailsRequests(t *testing.T) {
	setup(t, "[server]\nlisten = \"127.0.0.1:0\"\n")

	var app http.Handler
	fxApp := fxtest.New(t,
		Module(App[tokenResponse]{Schema: schema.Empty[tokenResponse]()}),
		fx.Invoke(fx.Annotate(func(h http.Handler) { app = h }, fx.ParamTags(`name:"app"`))),
	)
	fxApp.RequireStart()
	defer fxApp.RequireStop()

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/token", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestModuleMountsDevIssuer(t *testing.T) {
	setup(t, "[dev_issuer]\nenabled = true\nsecret = \"s\"\nttl_seconds = 30\n")

	var app http.Handler
	fxApp := fxtest.New(t,
		Module(App[tokenResponse]{Schema: schema.Empty[tokenResponse]()}),
		fx.Invoke(fx.Annotate(func(h http.Handler) { app = h }, fx.ParamTags(`name:"app"`))),
	)
	fxApp.RequireStart()
	defer fxApp.RequireStop()

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dev/token", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token_type":"Bearer"`)
}
