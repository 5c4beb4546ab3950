package entrybot

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disgoorg/entry-bot/entrybot/database"
)

const sampleConfig = `
[log]
level = "debug"

[bot]
token = "bot-token"
guild_id = 1234
dev_guilds = [1234]

[web]
enabled = true
port = 9000
base_url = "https://entry.example.com"
session_key = "0123456789abcdef0123"
session_ttl = "5m"
client_id = "cid"
client_secret = "secret"
redirect_url = "https://entry.example.com/oauth/callback"

[access]
allowed_role_ids = [11, 12]
admin_role_ids = [13]
developer_user_id = 99

[store]
driver = "postgres"

[db]
host = "localhost"
port = 5432
database = "entry"

[dashboard]
token_ttl = "30m"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, snowflake.ID(1234), cfg.Bot.GuildID)
	assert.Equal(t, []snowflake.ID{11, 12}, cfg.Access.AllowedRoleIDs)
	assert.Equal(t, snowflake.ID(99), cfg.Access.DeveloperUserID)
	assert.Equal(t, 5*time.Minute, cfg.Web.SessionTTL.Duration)
	assert.Equal(t, 30*time.Minute, cfg.Dashboard.TokenTTL.Duration)
	assert.Equal(t, time.Hour, cfg.Dashboard.SweepInterval.Duration, "default kept")
	assert.Equal(t, "0.0.0.0:9000", cfg.Web.Addr())

	store := cfg.StoreConfig()
	assert.Equal(t, database.DriverPostgres, store.Driver)
	assert.Equal(t, "localhost", store.Postgres.Host)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfigBadDuration(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[web]\nsession_ttl = \"soon\"\n"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DISCORD_TOKEN":           "env-token",
		"DISCORD_GUILD_ID":        "555",
		"SESSION_SECRET":          "env-secret",
		"HTTPS_ONLY":              "TRUE",
		"WEB_SESSION_TTL_SECONDS": "60",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.Equal(t, snowflake.ID(555), cfg.Bot.GuildID)
	assert.Equal(t, "env-secret", cfg.Web.SessionKey)
	assert.True(t, cfg.Web.HTTPSOnly)
	assert.Equal(t, time.Minute, cfg.Web.SessionTTL.Duration)

	env["WEB_SESSION_TTL_SECONDS"] = "x"
	assert.Error(t, DefaultConfig().ApplyEnv(lookup))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "bot.token")
	assert.ErrorContains(t, err, "bot.guild_id")

	cfg.Bot.Token = "t"
	cfg.Bot.GuildID = 1
	assert.NoError(t, cfg.Validate())

	cfg.Web.Enabled = true
	cfg.Web.SessionKey = "short"
	err = cfg.Validate()
	assert.ErrorContains(t, err, "session_key")
	assert.ErrorContains(t, err, "client_id")

	cfg.Web.Enabled = false
	cfg.Store.Driver = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "unknown store.driver")
}
