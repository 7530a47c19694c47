package schema

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joeydtaylor/tokenfactory/pkg/codec"
	"golang.org/x/oauth2"
)

// JSONShape decodes the response body into T with a codec (JSONStrict when nil).
type JSONShape[T any] struct {
	Codec codec.Codec
}

func (s JSONShape[T]) Parse(raw []byte) (T, error) {
	c := s.Codec
	if c == nil {
		c = codec.JSONStrict
	}
	var v T
	if err := c.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// OAuth2Shape parses an RFC 6749 token response into an *oauth2.Token. Unknown
// members are kept as token extras, so the codec defaults to lenient JSON.
type OAuth2Shape struct {
	Codec codec.Codec
	// Now is used to turn expires_in into an absolute expiry. Defaults to time.Now.
	Now func() time.Time
}

func (s OAuth2Shape) Parse(raw []byte) (*oauth2.Token, error) {
	c := s.Codec
	if c == nil {
		c = codec.JSON
	}
	var tr struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := c.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("oauth2 token decode: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, errors.New("oauth2: server response missing access_token")
	}
	var extra map[string]any
	if err := codec.JSON.Unmarshal(raw, &extra); err != nil {
		return nil, fmt.Errorf("oauth2 token extras: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken:  tr.AccessToken,
		TokenType:    tr.TokenType,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
	}
	if tr.ExpiresIn > 0 {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		tok.Expiry = now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return tok.WithExtra(extra), nil
}

// TokenExpiry reads the exp claim of a JWT without verifying it. Used only for
// diagnostics; ok is false for opaque tokens or tokens without exp.
func TokenExpiry(raw string) (exp time.Time, ok bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
