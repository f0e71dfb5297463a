package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const (
	secretA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	secretB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func writeKeyFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestInitAuthKeys_Static(t *testing.T) {
	cfg := Config{KeyMode: KeyModeStatic, SigningKey: secretA, SigningKeyID: "k1"}

	km, err := InitAuthKeys(t.Context(), cfg, nil, slogx.Discard())
	require.NoError(t, err)
	require.True(t, km.IsReady())
	require.Equal(t, "k1", km.GetSigner().KID())
}

func TestInitAuthKeys_Ephemeral(t *testing.T) {
	km, err := InitAuthKeys(t.Context(), Config{KeyMode: KeyModeEphemeral}, nil, slogx.Discard())
	require.NoError(t, err)
	require.True(t, km.IsReady())
	require.Equal(t, 1, km.NumSigners())
}

func TestInitAuthKeys_UnknownMode(t *testing.T) {
	_, err := InitAuthKeys(t.Context(), Config{KeyMode: "vault"}, nil, slogx.Discard())
	require.Error(t, err)
}

func TestInitAuthKeys_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yaml")
	writeKeyFile(t, path, "active: k2\nkeys:\n  - kid: k1\n    secret: "+secretA+"\n  - kid: k2\n    secret: "+secretB+"\n")

	km, err := InitAuthKeys(t.Context(), Config{KeyMode: KeyModeFile, KeysFile: path}, nil, slogx.Discard())
	require.NoError(t, err)
	require.Equal(t, "k2", km.GetSigner().KID())

	// The inactive key still verifies.
	_, err = km.KeySet.Get("k1")
	require.NoError(t, err)
}

func TestInitAuthKeys_FileRejectsShortSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	writeKeyFile(t, path, `{"keys":[{"kid":"k1","secret":"short"}]}`)

	_, err := InitAuthKeys(t.Context(), Config{KeyMode: KeyModeFile, KeysFile: path}, nil, slogx.Discard())
	require.Error(t, err)
}

func TestReloadKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yaml")
	writeKeyFile(t, path, "keys:\n  - kid: k1\n    secret: "+secretA+"\n")

	v := viper.New()
	v.SetConfigFile(path)
	keys, active, err := readKeyFile(v)
	require.NoError(t, err)
	km, err := jwtx.NewKeyManager(keys, active)
	require.NoError(t, err)
	require.Equal(t, "k1", km.GetSigner().KID())

	// Roll to k2, dropping k1.
	writeKeyFile(t, path, "active: k2\nkeys:\n  - kid: k2\n    secret: "+secretB+"\n")
	require.NoError(t, reloadKeys(v, km))
	require.Equal(t, "k2", km.GetSigner().KID())
	_, err = km.KeySet.Get("k1")
	require.ErrorIs(t, err, jwtx.ErrNoKey)

	// A broken file keeps the previous keys.
	writeKeyFile(t, path, "keys: []\n")
	require.Error(t, reloadKeys(v, km))
	require.Equal(t, "k2", km.GetSigner().KID())
}

func TestInitAuthKeys_PersistentSurvivesRestart(t *testing.T) {
	master := filepath.Join(t.TempDir(), "master.key")
	require.NoError(t, os.WriteFile(master, []byte("test-master-key-material"), 0o600))
	t.Cleanup(cryptox.ResetMasterKeyForTesting)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	cfg := Config{KeyMode: KeyModePersistent, MasterKeyPath: master}

	first, err := InitAuthKeys(t.Context(), cfg, st, slogx.Discard())
	require.NoError(t, err)

	cryptox.ResetMasterKeyForTesting()
	second, err := InitAuthKeys(t.Context(), cfg, st, slogx.Discard())
	require.NoError(t, err)

	require.Equal(t, first.GetSigner().KID(), second.GetSigner().KID())
	require.Equal(t, 1, second.NumSigners())
}
