package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accruald.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvWebhookSecret, "shh")
	t.Setenv(EnvDirectoryURL, "https://platform.example/admin")
	t.Setenv(EnvLedgerURL, "https://platform.example/admin")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ListenAddress)
	require.Equal(t, 30*time.Second, cfg.ReadTimeout)
	require.Equal(t, 250, cfg.Directory.PageSize)
	require.Equal(t, 1000, cfg.Directory.ScanLimit)
	require.Equal(t, "USD", cfg.Ledger.Currency)
	require.Equal(t, "shh", cfg.Webhook.Secret)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
databasePath: /var/lib/procredit.db
directory:
  baseURL: https://file.example/admin
  pageSize: 100
  scanLimit: 500
ledger:
  baseURL: https://file.example/admin
  currency: EUR
webhook:
  secret: from-file
`)
	t.Setenv(EnvWebhookSecret, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.ListenAddress)
	require.Equal(t, "EUR", cfg.Ledger.Currency)
	require.Equal(t, 100, cfg.Directory.PageSize)
	// Environment wins over the file for secrets.
	require.Equal(t, "from-env", cfg.Webhook.Secret)
}

func TestLoadRequiresSecret(t *testing.T) {
	path := writeConfig(t, `
directory:
  baseURL: https://x.example
ledger:
  baseURL: https://x.example
`)
	t.Setenv(EnvWebhookSecret, "")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "webhook.secret")
}

func TestLoadRejectsBadPageSize(t *testing.T) {
	path := writeConfig(t, `
directory:
  baseURL: https://x.example
  pageSize: 500
ledger:
  baseURL: https://x.example
webhook:
  secret: s
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "pageSize")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
