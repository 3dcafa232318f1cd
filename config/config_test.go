package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty is valid", Config{}, false},
		{"fee 3", Config{Settlement: SettlementConfig{PlatformFeeFallbackPercent: "3"}}, false},
		{"fee 100", Config{Settlement: SettlementConfig{PlatformFeeFallbackPercent: "100"}}, false},
		{"fee zero", Config{Settlement: SettlementConfig{PlatformFeeFallbackPercent: "0"}}, true},
		{"fee above 100", Config{Settlement: SettlementConfig{PlatformFeeFallbackPercent: "100.5"}}, true},
		{"fee not a number", Config{Settlement: SettlementConfig{PlatformFeeFallbackPercent: "three"}}, true},
		{"negative lock ttl", Config{Settlement: SettlementConfig{SessionLockTTLSeconds: -1}}, true},
		{"sqlite driver", Config{Database: DatabaseConfig{Driver: "sqlite"}}, false},
		{"unknown driver", Config{Database: DatabaseConfig{Driver: "mysql"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestFallbackPlatformFee(t *testing.T) {
	require.True(t, SettlementConfig{}.FallbackPlatformFee().Equal(decimal.NewFromInt(3)))
	require.True(t, SettlementConfig{PlatformFeeFallbackPercent: "2.5"}.FallbackPlatformFee().Equal(decimal.RequireFromString("2.5")))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := `
database:
  driver: sqlite
  path: staylink.db
settlement:
  platform_fee_fallback_percent: "4"
  success_url: https://staylink.test/ok
stripe:
  secret_key: sk_test_x
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "4", cfg.Settlement.PlatformFeeFallbackPercent)
	require.Equal(t, 30, cfg.Settlement.SessionLockTTLSeconds)
	require.Equal(t, "sk_test_x", cfg.Stripe.SecretKey)
}

func TestReadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("database:\n  driver: sqlite\n"), 0o600))
	t.Setenv("STAYLINK_SETTLEMENT_PLATFORM_FEE_FALLBACK_PERCENT", "5")

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "5", cfg.Settlement.PlatformFeeFallbackPercent)
}

func TestReadConfig_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("settlement:\n  platform_fee_fallback_percent: \"0\"\n"), 0o600))

	_, err := ReadConfig(dir)
	require.Error(t, err)
}
