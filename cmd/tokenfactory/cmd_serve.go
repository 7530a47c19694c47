package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/joeydtaylor/tokenfactory/pkg/config"
	"github.com/joeydtaylor/tokenfactory/pkg/core"
	"github.com/joeydtaylor/tokenfactory/pkg/holder"
	"github.com/joeydtaylor/tokenfactory/pkg/serverfx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"golang.org/x/oauth2"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve configured routes, refreshing the token before each one",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := config.LoadOptional(cfgPath)
	if err != nil {
		return err
	}
	if s.Token.ResponseKind() == config.ResponseOAuth2 {
		return serve(serverfx.App[*oauth2.Token]{Schema: buildOAuth2Schema(s.Token, ""), RawToken: oauth2Raw}, oauth2Bearer)
	}
	return serve(serverfx.App[TokenResponse]{Schema: buildSchema(s.Token, ""), RawToken: TokenResponse.Raw}, TokenResponse.bearer)
}

func serve[T any](app serverfx.App[T], bearer func(T) (string, string)) error {
	fxApp := fx.New(
		serverfx.Module(app,
			serverfx.WithConfigEnv(""),
			serverfx.WithDefaultConfig(cfgPath),
		),
		fx.Invoke(func(slot *holder.Slot[T]) { registerHandlers(slot, bearer) }),
	)
	fxApp.Run()
	return fxApp.Err()
}

// registerHandlers installs the in-process handlers [[route]] entries can name.
func registerHandlers[T any](slot *holder.Slot[T], bearer func(T) (string, string)) {
	core.Register("token.bearer", bearerHandler(slot, bearer))
}

// bearerHandler returns the Authorization header a downstream call would carry.
func bearerHandler[T any](slot *holder.Slot[T], bearer func(T) (string, string)) core.InprocHandler {
	return func(_ context.Context, _ []byte) ([]byte, int, error) {
		v, ok := slot.Get()
		if !ok {
			return nil, http.StatusServiceUnavailable, errNoToken
		}
		typ, tok := bearer(v)
		if typ == "" {
			typ = "Bearer"
		}
		out, err := json.Marshal(map[string]string{"authorization": typ + " " + tok})
		return out, http.StatusOK, err
	}
}
