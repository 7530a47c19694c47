package devissuer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(h http.Handler, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/dev/token", strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIssueAndVerify(t *testing.T) {
	h := New("secret", time.Minute)
	rec := post(h, `{"subject":"mock-login"}`, map[string]string{"X-Client-Id": "svc-a"})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, reply.Token, reply.AccessToken)
	assert.Equal(t, "Bearer", reply.TokenType)
	assert.EqualValues(t, 60, reply.ExpiresIn)

	claims, err := h.Verify(reply.Token)
	require.NoError(t, err)
	assert.Equal(t, "mock-login", claims.Subject)
	assert.Equal(t, "svc-a", claims.Client)
	assert.NotEmpty(t, claims.ID)
}

func TestEmptyBodyIsAnonymous(t *testing.T) {
	h := New("secret", 0)
	rec := post(h, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reply Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	claims, err := h.Verify(reply.Token)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", claims.Subject)
	assert.EqualValues(t, 300, reply.ExpiresIn)
}

func TestRejections(t *testing.T) {
	h := New("secret", time.Minute)
	h.RequireHeader = "headerA"

	assert.Equal(t, http.StatusUnauthorized, post(h, "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, "{", map[string]string{"headerA": "x"}).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dev/token", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestVerifyRejectsForeignAndExpired(t *testing.T) {
	h := New("secret", time.Minute)
	other := New("other", time.Minute)

	tok, err := other.Mint("x", "")
	require.NoError(t, err)
	_, err = h.Verify(tok)
	assert.Error(t, err)

	tok, err = h.Mint("x", "")
	require.NoError(t, err)
	h.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = h.Verify(tok)
	assert.Error(t, err)
}
