package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Settings is the top-level settings file.
type Settings struct {
	Token     Token     `toml:"token" yaml:"token"`
	Server    Server    `toml:"server" yaml:"server"`
	DevIssuer DevIssuer `toml:"dev_issuer" yaml:"dev_issuer"`
	Routes    []Route   `toml:"route" yaml:"route"`
}

// Token configures the outbound token-generation call.
type Token struct {
	URL          string            `toml:"url" yaml:"url"`
	TimeoutMS    int               `toml:"timeout_ms" yaml:"timeout_ms"`
	RateLimitRPS float64           `toml:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateBurst    int               `toml:"rate_burst" yaml:"rate_burst"`
	Headers      map[string]string `toml:"headers" yaml:"headers"`
	Body         map[string]any    `toml:"body" yaml:"body"`
	LenientJSON  bool              `toml:"lenient_json" yaml:"lenient_json"`
	// Response selects how the reply is mapped: ResponseJSON (default) or ResponseOAuth2.
	Response string `toml:"response" yaml:"response"`
}

const (
	ResponseJSON   = "json"
	ResponseOAuth2 = "oauth2"
)

// ResponseKind is Response normalized, defaulting to ResponseJSON.
func (t Token) ResponseKind() string {
	if k := strings.ToLower(strings.TrimSpace(t.Response)); k != "" {
		return k
	}
	return ResponseJSON
}

type Server struct {
	Listen  string `toml:"listen" yaml:"listen"`
	TLSCert string `toml:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `toml:"tls_key" yaml:"tls_key"`
}

// DevIssuer mounts a local token endpoint that mints signed JWTs. Never for production.
type DevIssuer struct {
	Enabled    bool   `toml:"enabled" yaml:"enabled"`
	Path       string `toml:"path" yaml:"path"`
	Secret     string `toml:"secret" yaml:"secret"`
	TTLSeconds int    `toml:"ttl_seconds" yaml:"ttl_seconds"`
}

// Timeout is the transport timeout; zero means the transport's default.
func (t Token) Timeout() time.Duration {
	return time.Duration(t.TimeoutMS) * time.Millisecond
}

// HeaderNames returns header names sorted, so flattening order is stable.
func (t Token) HeaderNames() []string {
	names := make([]string, 0, len(t.Headers))
	for k := range t.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (s *Settings) Validate() error {
	if err := s.Token.validate(); err != nil {
		return fmt.Errorf("token: %w", err)
	}
	if s.DevIssuer.Enabled && strings.TrimSpace(s.DevIssuer.Secret) == "" {
		return errors.New("dev_issuer: secret required when enabled")
	}
	if s.DevIssuer.TTLSeconds < 0 {
		return errors.New("dev_issuer: ttl_seconds must be >= 0")
	}
	seen := map[string]struct{}{}
	for i := range s.Routes {
		if err := s.Routes[i].normalize(); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
		if err := s.Routes[i].validate(); err != nil {
			return fmt.Errorf("route %d (%s %s): %w", i, s.Routes[i].Method, s.Routes[i].Path, err)
		}
		k := s.Routes[i].Method + " " + s.Routes[i].Path
		if _, dup := seen[k]; dup {
			return fmt.Errorf("route %d: duplicate %s", i, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

func (t Token) validate() error {
	if t.TimeoutMS < 0 {
		return errors.New("timeout_ms must be >= 0")
	}
	if t.RateLimitRPS < 0 || t.RateBurst < 0 {
		return errors.New("rate limit values must be >= 0")
	}
	if u := strings.TrimSpace(t.URL); u != "" {
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("url: %w", err)
		}
	}
	switch t.ResponseKind() {
	case ResponseJSON, ResponseOAuth2:
	default:
		return fmt.Errorf("response: unknown kind %q", t.Response)
	}
	for k := range t.Headers {
		if strings.TrimSpace(k) == "" {
			return errors.New("headers: empty header name")
		}
	}
	return nil
}
