package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/spf13/viper"
)

// Key modes.
const (
	KeyModeStatic     = "static"
	KeyModeFile       = "file"
	KeyModePersistent = "persistent"
	KeyModeEphemeral  = "ephemeral"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Issuer           string   // issuer claim for tokens (default: gatekeeper)
	Audience         []string // audience claim, comma separated in env (default: gatekeeper)
	ValidateIssuer   bool     // check iss on validation (default: true)
	ValidateAudience bool     // check aud on validation (default: true)

	AccessTokenTTL time.Duration // access token lifetime (default: 30m)
	RefreshMargin  time.Duration // how long before the jwt the refresh token expires (default: 5m)
	Leeway         time.Duration // clock skew allowed on exp/nbf/iat (default: 0)

	KeyMode        string        // static, file, persistent, ephemeral (default: ephemeral)
	SigningKey     string        // static mode secret
	SigningKeyID   string        // static mode kid (default: k1)
	KeysFile       string        // file mode: YAML/JSON key file, watched for changes
	KeyGracePeriod time.Duration // persistent mode: how long retired keys verify (default: 24h)
	MasterKeyPath  string        // persistent mode: master encryption key file

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // sqlite file (default: auth.db)
	DatabaseURL    string // postgres DSN
	PepperFile     string // pepper for password hashing (default: pepper)

	SeedAdminEmail    string // default: admin@example.com
	SeedAdminPassword string // default: password in dev/test, generated otherwise

	Env                  string        // dev, test, staging, prod (default: dev)
	LogLevel             string        // debug, info, warn, error (default: info)
	LogFormat            string        // json, text (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // housekeeping interval (default: 1h)
}

// LoadConfig reads the configuration from the environment and, when
// AUTH_CONFIG_FILE is set, from that file. Environment wins over the file.
func LoadConfig() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("auth_config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Issuer:           v.GetString("auth_issuer"),
		Audience:         splitList(v.GetString("auth_audience")),
		ValidateIssuer:   v.GetBool("auth_validate_issuer"),
		ValidateAudience: v.GetBool("auth_validate_audience"),

		AccessTokenTTL: getDuration(v, "auth_access_token_ttl", jwtx.DefaultAccessTokenTTL),
		RefreshMargin:  getDuration(v, "auth_refresh_margin", jwtx.DefaultRefreshMargin),
		Leeway:         getDuration(v, "auth_leeway", 0),

		KeyMode:        strings.ToLower(v.GetString("auth_key_mode")),
		SigningKey:     v.GetString("auth_signing_key"),
		SigningKeyID:   v.GetString("auth_signing_key_id"),
		KeysFile:       v.GetString("auth_keys_file"),
		KeyGracePeriod: getDuration(v, "auth_key_grace_period", 24*time.Hour),
		MasterKeyPath:  v.GetString("auth_master_key_path"),

		DatabaseDriver: strings.ToLower(v.GetString("auth_database_driver")),
		DatabaseFile:   v.GetString("auth_database_file"),
		DatabaseURL:    v.GetString("auth_database_url"),
		PepperFile:     v.GetString("auth_pepper_file"),

		SeedAdminEmail:    v.GetString("auth_seed_admin_email"),
		SeedAdminPassword: v.GetString("auth_seed_admin_password"),

		Env:                  v.GetString("env"),
		LogLevel:             v.GetString("log_level"),
		LogFormat:            v.GetString("log_format"),
		Port:                 v.GetInt("port"),
		ShutdownGracePeriod:  getDuration(v, "shutdown_grace_period", 10*time.Second),
		HousekeepingInterval: getDuration(v, "housekeeping_interval", time.Hour),
	}

	// Seeding a known password is only acceptable where nobody cares.
	if cfg.SeedAdminPassword == "" && cfg.isDevelopment() {
		cfg.SeedAdminPassword = "password"
	}

	httpx.LoadRateLimitProfiles(func(key string) string {
		return v.GetString(strings.ToLower(key))
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("auth_issuer", "gatekeeper")
	v.SetDefault("auth_audience", "gatekeeper")
	v.SetDefault("auth_validate_issuer", true)
	v.SetDefault("auth_validate_audience", true)
	v.SetDefault("auth_key_mode", KeyModeEphemeral)
	v.SetDefault("auth_signing_key_id", "k1")
	v.SetDefault("auth_database_driver", DriverSQLite)
	v.SetDefault("auth_database_file", "auth.db")
	v.SetDefault("auth_pepper_file", "pepper")
	v.SetDefault("auth_seed_admin_email", "admin@example.com")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("port", 8080)
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshMargin < 0 || c.RefreshMargin >= c.AccessTokenTTL {
		errs = append(errs, fmt.Errorf("AUTH_REFRESH_MARGIN (%s) must be smaller than AUTH_ACCESS_TOKEN_TTL (%s)",
			c.RefreshMargin, c.AccessTokenTTL))
	}
	if c.Leeway < 0 {
		errs = append(errs, errors.New("AUTH_LEEWAY must not be negative"))
	}

	switch c.KeyMode {
	case KeyModeStatic:
		if len(c.SigningKey) < jwtx.MinSecretSize {
			errs = append(errs, fmt.Errorf("AUTH_SIGNING_KEY must be at least %d bytes", jwtx.MinSecretSize))
		}
		if c.SigningKeyID == "" {
			errs = append(errs, errors.New("AUTH_SIGNING_KEY_ID is required in static mode"))
		}
	case KeyModeFile:
		if c.KeysFile == "" {
			errs = append(errs, errors.New("AUTH_KEYS_FILE is required in file mode"))
		}
	case KeyModePersistent, KeyModeEphemeral:
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_KEY_MODE %q", c.KeyMode))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_FILE is required for sqlite"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	if c.ValidateIssuer && c.Issuer == "" {
		errs = append(errs, errors.New("AUTH_ISSUER is required when issuer validation is on"))
	}
	if c.ValidateAudience && len(c.Audience) == 0 {
		errs = append(errs, errors.New("AUTH_AUDIENCE is required when audience validation is on"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}

	return errors.Join(errs...)
}

func (c Config) isDevelopment() bool {
	return c.Env == "dev" || c.Env == "test"
}

// getDuration parses a Go duration ("1h", "30m", "90s"), falling back to
// integer minutes.
func getDuration(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
