package config

import (
	"time"

	"github.com/disgoorg/entry-bot/entrybot"
	botconfig "github.com/disgoorg/entry-bot/entrybot/config"
)

// WebAppConfig contains web-specific configuration
type WebAppConfig struct {
	Config      *entrybot.Config
	Debug       bool
	Environment string
}

// NewWebAppConfig creates a new web app configuration
func NewWebAppConfig(cfg *entrybot.Config, debug bool) *WebAppConfig {
	environment := "production"
	if debug {
		environment = "development"
	}

	return &WebAppConfig{
		Config:      cfg,
		Debug:       debug,
		Environment: environment,
	}
}

// GetWebConfig returns the web configuration
func (w *WebAppConfig) GetWebConfig() entrybot.WebConfig {
	return w.Config.Web
}

// SessionTTL is how long a login stays valid after the OAuth callback.
func (w *WebAppConfig) SessionTTL() time.Duration {
	if ttl := w.Config.Web.SessionTTL.Duration; ttl > 0 {
		return ttl
	}
	return botconfig.DefaultSessionTTL
}

// SecureCookies marks cookies Secure when the site is served over HTTPS.
func (w *WebAppConfig) SecureCookies() bool {
	return w.Config.Web.HTTPSOnly
}

func (w *WebAppConfig) SessionKey() string {
	return w.Config.Web.SessionKey
}
