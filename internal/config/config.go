package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Vault    VaultConfig
	UI       UIConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path       string
	Migrations string
}

// VaultConfig locates the on-disk state of each vault backend.
type VaultConfig struct {
	KeystoreDir string `mapstructure:"keystore_dir"`
	SeedFile    string `mapstructure:"seed_file"`
	KeychainDir string `mapstructure:"keychain_dir"`
	LedgerFile  string `mapstructure:"ledger_file"`
	ScryptN     int    `mapstructure:"scrypt_n"`
	ScryptP     int    `mapstructure:"scrypt_p"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Locale     string
	DateFormat string `mapstructure:"date_format"`
}

// LogConfig holds logger settings. The TUI owns stdout so logs go to a file.
type LogConfig struct {
	Level string
	Path  string
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "vaultwallet")
}

// Load reads configuration from file and env. Env var overrides use prefix VAULTWALLET_.
func Load() (Config, error) {
	v := viper.New()

	data := dataDir()
	v.SetDefault("database.path", filepath.Join(data, "wallet.db"))
	v.SetDefault("database.migrations", "internal/database/migrations")
	v.SetDefault("vault.keystore_dir", filepath.Join(data, "keystore"))
	v.SetDefault("vault.seed_file", filepath.Join(data, "seeds.json"))
	v.SetDefault("vault.keychain_dir", filepath.Join(data, "keychain"))
	v.SetDefault("vault.ledger_file", filepath.Join(data, "ledger.json"))
	v.SetDefault("vault.scrypt_n", 1<<18)
	v.SetDefault("vault.scrypt_p", 1)
	v.SetDefault("ui.locale", "en")
	v.SetDefault("ui.date_format", "02 Jan 2006 15:04")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", filepath.Join(data, "vaultwallet.log"))

	v.SetConfigType("toml")

	cfgPath := os.Getenv("VAULTWALLET_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "vaultwallet"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("VAULTWALLET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// Only locations and preferences are stored; passwords never pass through here.
func Save(cfg Config) error {
	path := os.Getenv("VAULTWALLET_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "vaultwallet", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.migrations", cfg.Database.Migrations)
	v.Set("vault.keystore_dir", cfg.Vault.KeystoreDir)
	v.Set("vault.seed_file", cfg.Vault.SeedFile)
	v.Set("vault.keychain_dir", cfg.Vault.KeychainDir)
	v.Set("vault.ledger_file", cfg.Vault.LedgerFile)
	v.Set("vault.scrypt_n", cfg.Vault.ScryptN)
	v.Set("vault.scrypt_p", cfg.Vault.ScryptP)
	v.Set("ui.locale", cfg.UI.Locale)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.path", cfg.Log.Path)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
