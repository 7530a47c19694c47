package main

import (
	"encoding/json"
	"errors"

	"github.com/joeydtaylor/tokenfactory/pkg/codec"
	"github.com/joeydtaylor/tokenfactory/pkg/config"
	"github.com/joeydtaylor/tokenfactory/pkg/schema"
	"golang.org/x/oauth2"
)

var errNoToken = errors.New("no token generated yet")

// TokenResponse covers the plain {"token": ...} reply and the OAuth2-style one.
type TokenResponse struct {
	Token       string `json:"token,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// Raw returns whichever token field the endpoint filled in.
func (r TokenResponse) Raw() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

func (r TokenResponse) bearer() (string, string) { return r.TokenType, r.Raw() }

func oauth2Raw(t *oauth2.Token) string { return t.AccessToken }

func oauth2Bearer(t *oauth2.Token) (string, string) { return t.TokenType, t.AccessToken }

// requestParts reads [token.headers] and [token.body]. A non-empty bodyJSON
// replaces the configured body.
func requestParts(t config.Token, bodyJSON string) (schema.HeaderMap, any) {
	headers := make(schema.HeaderMap, 0, len(t.Headers))
	for _, name := range t.HeaderNames() {
		headers = append(headers, schema.Field{Name: name, Value: t.Headers[name]})
	}

	var body any
	switch {
	case bodyJSON != "":
		body = json.RawMessage(bodyJSON)
	case len(t.Body) > 0:
		body = t.Body
	}
	return headers, body
}

func responseCodec(t config.Token) codec.Codec {
	if t.LenientJSON {
		return codec.JSON
	}
	return codec.JSONStrict
}

// buildSchema maps replies into TokenResponse.
func buildSchema(t config.Token, bodyJSON string) *schema.Generation[TokenResponse] {
	headers, body := requestParts(t, bodyJSON)
	return schema.New[TokenResponse](headers, body, schema.JSONShape[TokenResponse]{Codec: responseCodec(t)})
}

// buildOAuth2Schema maps RFC 6749 replies into *oauth2.Token, keeping unknown
// members as token extras.
func buildOAuth2Schema(t config.Token, bodyJSON string) *schema.Generation[*oauth2.Token] {
	headers, body := requestParts(t, bodyJSON)
	return schema.New[*oauth2.Token](headers, body, schema.OAuth2Shape{})
}
