package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/disgoorg/entry-bot/backend/config"
	"github.com/disgoorg/entry-bot/entrybot"
)

func TestOAuthExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "client", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"80351110224678912","username":"nelly","global_name":"Nelly"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.NewWebAppConfig(&entrybot.Config{Web: entrybot.WebConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://entry.test/oauth/callback",
	}}, true)
	o := NewOAuthServiceWithEndpoint(cfg, oauth2.Endpoint{
		AuthURL:   srv.URL + "/oauth2/authorize",
		TokenURL:  srv.URL + "/oauth2/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}, srv.URL)

	user, err := o.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.EqualValues(t, 80351110224678912, user.ID)
	assert.Equal(t, "nelly", user.Username)
	require.NotNil(t, user.GlobalName)
	assert.Equal(t, "Nelly", *user.GlobalName)

	authURL, err := url.Parse(o.AuthURL("state-1"))
	require.NoError(t, err)
	assert.Equal(t, "state-1", authURL.Query().Get("state"))
	assert.Equal(t, "identify", authURL.Query().Get("scope"))
	assert.Equal(t, "client", authURL.Query().Get("client_id"))
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
