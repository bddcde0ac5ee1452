package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("jane@acme.com", "Hola Acme", "<p>Hola</p>")
	assert.Contains(t, msg, "To: jane@acme.com\r\n")
	assert.Contains(t, msg, "Subject: Hola Acme\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=utf-8\r\n")
	assert.Contains(t, msg, "\r\n\r\n<p>Hola</p>")
}

func TestSend(t *testing.T) {
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/users/me/messages/send")

		var body struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRaw = body.Raw

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "test-token", option.WithEndpoint(srv.URL))
	require.NoError(t, err)

	err = c.Send(context.Background(), "jane@acme.com", "Hola", "<p>Hola Jane</p>")
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(gotRaw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "To: jane@acme.com")
	assert.Contains(t, string(decoded), "<p>Hola Jane</p>")
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":400,"message":"invalid to"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "test-token", option.WithEndpoint(srv.URL))
	require.NoError(t, err)

	err = c.Send(context.Background(), "not-an-address", "x", "y")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not-an-address")
}
