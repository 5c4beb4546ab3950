package entrybot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/database"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err = cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig is the configuration before the file and environment are applied.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: slog.LevelInfo},
		Web: WebConfig{
			Host:       "0.0.0.0",
			Port:       8000,
			BaseURL:    "http://localhost:8000",
			SessionTTL: Duration{config.DefaultSessionTTL},
		},
		Store: database.Config{Driver: database.DriverFile, DataDir: "data"},
		Dashboard: DashboardConfig{
			TokenTTL:      Duration{config.DefaultTokenTTL},
			SweepInterval: Duration{config.DefaultSweepInterval},
		},
	}
}

type Config struct {
	Log       LogConfig             `toml:"log"`
	Bot       BotConfig             `toml:"bot"`
	Web       WebConfig             `toml:"web"`
	Access    AccessConfig          `toml:"access"`
	Store     database.Config       `toml:"store"`
	DB        database.DBConfig     `toml:"db"`
	Mongo     database.MongoConfig  `toml:"mongo"`
	Spaces    database.SpacesConfig `toml:"spaces"`
	Dashboard DashboardConfig       `toml:"dashboard"`
}

type BotConfig struct {
	Token        string         `toml:"token"`
	GuildID      snowflake.ID   `toml:"guild_id"`
	DevGuilds    []snowflake.ID `toml:"dev_guilds"`
	SyncCommands bool           `toml:"sync_commands"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	AddSource bool       `toml:"add_source"`
	NoColor   bool       `toml:"no_color"`
}

type WebConfig struct {
	Enabled      bool     `toml:"enabled"`
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	BaseURL      string   `toml:"base_url"`
	SessionKey   string   `toml:"session_key"`
	SessionTTL   Duration `toml:"session_ttl"`
	HTTPSOnly    bool     `toml:"https_only"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURL  string   `toml:"redirect_url"`
}

func (w WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

type AccessConfig struct {
	AllowedRoleIDs  []snowflake.ID `toml:"allowed_role_ids"`
	AdminRoleIDs    []snowflake.ID `toml:"admin_role_ids"`
	DeveloperUserID snowflake.ID   `toml:"developer_user_id"`
}

type DashboardConfig struct {
	TokenTTL      Duration `toml:"token_ttl"`
	SweepInterval Duration `toml:"sweep_interval"`
}

// Duration decodes TOML strings such as "90s" or "1h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// StoreConfig returns the store section with the driver sub-configs filled in.
func (c *Config) StoreConfig() database.Config {
	store := c.Store
	store.Postgres = c.DB
	store.Mongo = c.Mongo
	store.Spaces = c.Spaces
	return store
}

// ApplyEnv overrides secrets and deployment values from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("DISCORD_TOKEN", &c.Bot.Token)
	str("DISCORD_CLIENT_ID", &c.Web.ClientID)
	str("DISCORD_CLIENT_SECRET", &c.Web.ClientSecret)
	str("OAUTH_REDIRECT_URI", &c.Web.RedirectURL)
	str("BASE_URL", &c.Web.BaseURL)
	str("SESSION_SECRET", &c.Web.SessionKey)

	if v, ok := lookup("DISCORD_GUILD_ID"); ok && v != "" {
		id, err := snowflake.Parse(v)
		if err != nil {
			return fmt.Errorf("invalid DISCORD_GUILD_ID: %w", err)
		}
		c.Bot.GuildID = id
	}
	if v, ok := lookup("HTTPS_ONLY"); ok && v != "" {
		c.Web.HTTPSOnly = strings.EqualFold(v, "true")
	}
	if v, ok := lookup("WEB_SESSION_TTL_SECONDS"); ok && v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WEB_SESSION_TTL_SECONDS: %w", err)
		}
		c.Web.SessionTTL = Duration{time.Duration(secs) * time.Second}
	}
	return nil
}

// Validate reports every missing required value at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Bot.Token == "" {
		errs = append(errs, errors.New("bot.token is required"))
	}
	if c.Bot.GuildID == 0 {
		errs = append(errs, errors.New("bot.guild_id is required"))
	}
	if c.Web.Enabled {
		if c.Web.ClientID == "" || c.Web.ClientSecret == "" {
			errs = append(errs, errors.New("web.client_id and web.client_secret are required for the web app"))
		}
		if c.Web.RedirectURL == "" {
			errs = append(errs, errors.New("web.redirect_url is required for the web app"))
		}
		if len(c.Web.SessionKey) < 16 {
			errs = append(errs, errors.New("web.session_key must be at least 16 characters"))
		}
		if c.Web.Port <= 0 {
			errs = append(errs, errors.New("web.port must be positive"))
		}
	}
	switch c.Store.Driver {
	case "", database.DriverFile, database.DriverMemory:
	case database.DriverPostgres:
		if c.DB.Host == "" || c.DB.Database == "" {
			errs = append(errs, errors.New("db.host and db.database are required for the postgres store"))
		}
	case database.DriverMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongo.uri is required for the mongo store"))
		}
	case database.DriverSpaces:
		if c.Spaces.Bucket == "" || c.Spaces.Region == "" {
			errs = append(errs, errors.New("spaces.bucket and spaces.region are required for the spaces store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	return errors.Join(errs...)
}
