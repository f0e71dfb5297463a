package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InitAuthKeys creates the KeyManager for the configured key mode.
//
// Key modes:
//   - "static": a single secret from AUTH_SIGNING_KEY, kid AUTH_SIGNING_KEY_ID.
//   - "file": versioned secrets from AUTH_KEYS_FILE, reloaded whenever the
//     file changes so keys can be rolled without a restart.
//   - "persistent": secrets generated by the service and stored encrypted in
//     the database. Tokens survive restarts and keys rotate through the API.
//   - "ephemeral": one random secret held in memory. Every token dies with
//     the process.
func InitAuthKeys(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*jwtx.KeyManager, error) {
	switch cfg.KeyMode {
	case KeyModeStatic:
		km, err := jwtx.NewKeyManager([]jwtx.Key{{ID: cfg.SigningKeyID, Secret: cfg.SigningKey}}, cfg.SigningKeyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load static signing key: %w", err)
		}
		logger.Info("static signing key loaded", "kid", cfg.SigningKeyID)
		return km, nil

	case KeyModeFile:
		v := viper.New()
		v.SetConfigFile(cfg.KeysFile)

		keys, active, err := readKeyFile(v)
		if err != nil {
			return nil, err
		}
		km, err := jwtx.NewKeyManager(keys, active)
		if err != nil {
			return nil, fmt.Errorf("failed to load keys from %s: %w", cfg.KeysFile, err)
		}
		logger.Info("signing keys loaded from file",
			"path", cfg.KeysFile,
			"num_keys", len(keys),
			"active_kid", km.GetSigner().KID(),
		)

		watchKeyFile(v, km, logger)
		return km, nil

	case KeyModePersistent:
		if cfg.MasterKeyPath != "" {
			cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
			logger.Info("master key path configured", "path", cfg.MasterKeyPath)
		} else {
			logger.Warn("no master key configured, stored signing keys will not decrypt after a restart")
		}

		km, err := jwtx.NewPersistentKeyManager(ctx, jwtx.PersistentKeyManagerOptions{
			Store:       store.NewKeyStoreAdapter(db),
			GracePeriod: cfg.KeyGracePeriod,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize persistent key manager: %w", err)
		}

		logger.Info("persistent signing keys loaded",
			"num_keys", km.NumSigners(),
			"active_kid", km.GetSigner().KID(),
			"grace_period", cfg.KeyGracePeriod,
		)
		return km, nil

	case KeyModeEphemeral:
		km, err := jwtx.NewEphemeralKeyManager()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
		}
		logger.Warn("ephemeral signing key generated, all tokens become invalid on restart",
			"kid", km.GetSigner().KID(),
		)
		return km, nil
	}

	return nil, fmt.Errorf("unknown key mode %q", cfg.KeyMode)
}

// keyFile is the layout of AUTH_KEYS_FILE:
//
//	active: k2
//	keys:
//	  - kid: k1
//	    secret: ...
//	  - kid: k2
//	    secret: ...
type keyFile struct {
	Active string     `mapstructure:"active"`
	Keys   []jwtx.Key `mapstructure:"keys"`
}

func readKeyFile(v *viper.Viper) ([]jwtx.Key, string, error) {
	if err := v.ReadInConfig(); err != nil {
		return nil, "", fmt.Errorf("failed to read key file: %w", err)
	}

	var kf keyFile
	if err := v.Unmarshal(&kf); err != nil {
		return nil, "", fmt.Errorf("failed to parse key file: %w", err)
	}
	if len(kf.Keys) == 0 {
		return nil, "", errors.New("key file holds no keys")
	}
	return kf.Keys, kf.Active, nil
}

// reloadKeys swaps the key material for the file's current content. A bad
// file leaves the previous keys in place.
func reloadKeys(v *viper.Viper, km *jwtx.KeyManager) error {
	keys, active, err := readKeyFile(v)
	if err != nil {
		return err
	}
	return km.Replace(keys, active)
}

func watchKeyFile(v *viper.Viper, km *jwtx.KeyManager, logger *slog.Logger) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := reloadKeys(v, km); err != nil {
			logger.Error("key file reload failed, keeping previous keys", "path", e.Name, "error", err)
			return
		}
		logger.Info("signing keys reloaded", "path", e.Name, "active_kid", km.GetSigner().KID())
	})
	v.WatchConfig()
}
