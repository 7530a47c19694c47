// Package devissuer is a local token endpoint for development and tests. It mints
// HS256 JWTs for any POST and is never meant to face real traffic.
package devissuer

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const Issuer = "tokenfactory-dev"

type Claims struct {
	jwt.RegisteredClaims
	Client string `json:"client,omitempty"`
}

type Reply struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type Handler struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	// RequireHeader, when set, rejects calls that do not carry this header.
	RequireHeader string
}

func New(secret string, ttl time.Duration) *Handler {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Handler{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.RequireHeader != "" && r.Header.Get(h.RequireHeader) == "" {
		http.Error(w, "missing "+h.RequireHeader, http.StatusUnauthorized)
		return
	}

	var in struct {
		Subject string `json:"subject"`
	}
	if b, _ := io.ReadAll(io.LimitReader(r.Body, 1<<16)); len(b) > 0 {
		if err := json.Unmarshal(b, &in); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
	}

	signed, err := h.Mint(firstNonEmpty(in.Subject, "anonymous"), r.Header.Get("X-Client-Id"))
	if err != nil {
		http.Error(w, "sign failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Reply{
		Token:       signed,
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.ttl / time.Second),
	})
}

// Mint signs a token for subject.
func (h *Handler) Mint(subject, client string) (string, error) {
	now := h.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
		},
		Client: strings.TrimSpace(client),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// Verify checks a token minted by this handler.
func (h *Handler) Verify(raw string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(Issuer),
		jwt.WithLeeway(5*time.Second),
		jwt.WithTimeFunc(h.now),
	)
	var claims Claims
	tok, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
