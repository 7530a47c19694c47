package config

import (
	"errors"
	"path"
	"strings"
)

// Route binds a path to a registered in-process handler.
type Route struct {
	Path    string `toml:"path" yaml:"path"`
	Method  string `toml:"method" yaml:"method"`
	Handler string `toml:"handler" yaml:"handler"`
	// SkipToken serves the route without running the token hook first.
	SkipToken bool `toml:"skip_token" yaml:"skip_token"`
	TimeoutMS int  `toml:"timeout_ms" yaml:"timeout_ms"`
	// LogBody records small JSON request bodies in the access log.
	LogBody bool `toml:"log_body" yaml:"log_body"`
}

// normalize path/method
func (r *Route) normalize() error {
	if r.Path == "" {
		return errors.New("path is required")
	}
	if !strings.HasPrefix(r.Path, "/") {
		r.Path = "/" + r.Path
	}
	if r.Path != "/" {
		r.Path = path.Clean(r.Path)
	}
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = "GET"
	}
	r.Handler = strings.TrimSpace(r.Handler)
	return nil
}

func (r *Route) validate() error {
	if r.Handler == "" {
		return errors.New("handler is required")
	}
	if r.TimeoutMS < 0 {
		return errors.New("timeout_ms must be >= 0")
	}
	return nil
}
