package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joeydtaylor/tokenfactory/pkg/config"
	"github.com/joeydtaylor/tokenfactory/pkg/middleware/logger"
	"github.com/joeydtaylor/tokenfactory/pkg/provider"
	"github.com/joeydtaylor/tokenfactory/pkg/schema"
	"github.com/joeydtaylor/tokenfactory/pkg/transport/httpx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	generateURL  string
	generateBody string
)

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&generateURL, "url", "", "token endpoint (overrides env and settings)")
	generateCmd.Flags().StringVar(&generateBody, "body", "", "raw JSON request body (overrides [token.body])")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Call the token endpoint once and print the parsed response",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadOptional(cfgPath)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		if generateBody != "" && !json.Valid([]byte(generateBody)) {
			return errors.New("--body is not valid JSON")
		}

		flagURL := strings.TrimSpace(generateURL)
		urls := config.FirstOf(
			config.URLFunc(func() string { return flagURL }),
			config.EnvURL{},
			config.FileURL{Path: cfgPath},
		)
		ex := httpx.NewClient(
			httpx.NewHTTPClient(s.Token.Timeout()),
			httpx.WithRateLimit(s.Token.RateLimitRPS, s.Token.RateBurst),
		)
		zl := logger.NewLog("system.log")

		if s.Token.ResponseKind() == config.ResponseOAuth2 {
			return generate(cmd.Context(), cmd.OutOrStdout(), urls, ex, zl, buildOAuth2Schema(s.Token, generateBody))
		}
		return generate(cmd.Context(), cmd.OutOrStdout(), urls, ex, zl, buildSchema(s.Token, generateBody))
	},
}

func generate[T any](ctx context.Context, out io.Writer, urls config.URLSource, ex httpx.Exchanger, zl *zap.Logger, g *schema.Generation[T]) error {
	v, err := provider.New[T](urls, ex, zl).Authenticate(ctx, g)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
