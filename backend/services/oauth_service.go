package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/oauth2"

	"github.com/disgoorg/entry-bot/backend/config"
)

const DiscordAPIBase = "https://discord.com/api"

// DiscordEndpoint is Discord's OAuth2 authorization code endpoint.
var DiscordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  DiscordAPIBase + "/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// DiscordUser represents a Discord user from the API
type DiscordUser struct {
	ID         snowflake.ID `json:"id"`
	Username   string       `json:"username"`
	GlobalName *string      `json:"global_name"`
	Avatar     *string      `json:"avatar"`
}

// OAuthService runs the Discord "identify" authorization code flow.
type OAuthService struct {
	config  *oauth2.Config
	apiBase string
}

func NewOAuthService(cfg *config.WebAppConfig) *OAuthService {
	return NewOAuthServiceWithEndpoint(cfg, DiscordEndpoint, DiscordAPIBase)
}

// NewOAuthServiceWithEndpoint points the flow at another authorization server.
func NewOAuthServiceWithEndpoint(cfg *config.WebAppConfig, endpoint oauth2.Endpoint, apiBase string) *OAuthService {
	web := cfg.GetWebConfig()
	return &OAuthService{
		config: &oauth2.Config{
			ClientID:     web.ClientID,
			ClientSecret: web.ClientSecret,
			RedirectURL:  web.RedirectURL,
			Scopes:       []string{"identify"},
			Endpoint:     endpoint,
		},
		apiBase: apiBase,
	}
}

func (o *OAuthService) AuthURL(state string) string {
	return o.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "none"))
}

// Exchange trades the authorization code for the user's profile.
func (o *OAuthService) Exchange(ctx context.Context, code string) (*DiscordUser, error) {
	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	resp, err := o.config.Client(ctx, token).Get(o.apiBase + "/users/@me")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}

	var user DiscordUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("discord returned a user without an id")
	}
	return &user, nil
}

// GenerateState generates a random state parameter for OAuth2
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
