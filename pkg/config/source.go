package config

import (
	"os"
	"strings"
)

// URLSource yields the token-generation URL. It is consulted on every call, so
// changes to the environment or the settings file apply without a restart.
type URLSource interface {
	TokenGenerationURL() string
}

// URLFunc adapts a function to URLSource.
type URLFunc func() string

func (f URLFunc) TokenGenerationURL() string { return f() }

// EnvURL reads an environment variable (TOKEN_GENERATION_URL when Key is empty).
type EnvURL struct{ Key string }

func (e EnvURL) TokenGenerationURL() string {
	k := e.Key
	if k == "" {
		k = EnvTokenURL
	}
	return strings.TrimSpace(os.Getenv(k))
}

// FileURL re-reads token.url from a settings file. Unreadable files yield "".
type FileURL struct{ Path string }

func (f FileURL) TokenGenerationURL() string {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return ""
	}
	var s Settings
	if err := decode(f.Path, b, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s.Token.URL)
}

type firstOf []URLSource

// FirstOf returns the first non-blank URL among sources.
func FirstOf(sources ...URLSource) URLSource { return firstOf(sources) }

func (fs firstOf) TokenGenerationURL() string {
	for _, s := range fs {
		if s == nil {
			continue
		}
		if u := strings.TrimSpace(s.TokenGenerationURL()); u != "" {
			return u
		}
	}
	return ""
}
