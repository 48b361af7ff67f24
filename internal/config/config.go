package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the server configuration
type Config struct {
	// DataDir is the root of all persisted state: uploads, deployed apps,
	// the registry document and the user store.
	DataDir string

	// Port is the HTTP listen port
	Port uint16

	// MaxUploadSize is the archive upload limit in bytes
	MaxUploadSize int64

	// TokenTTL is the lifetime of issued session tokens
	TokenTTL time.Duration

	// AdminEmail and AdminPassword bootstrap the initial administrator
	// account on first start.
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from the given YAML file and applies defaults.
// A missing file is not an error; defaults cover every field.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("autodrop")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			// A present but unreadable file is a real error
			if exists(path) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		DataDir:       v.GetString("data_dir"),
		Port:          uint16(v.GetUint32("port")),
		MaxUploadSize: v.GetInt64("upload.max_size"),
		TokenTTL:      v.GetDuration("auth.token_ttl"),
		AdminEmail:    v.GetString("auth.admin_email"),
		AdminPassword: v.GetString("auth.admin_password"),
	}

	// Defaults
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = 50 * 1024 * 1024 // 50MB
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@autodrop.local"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "admin123"
	}

	return cfg, nil
}

// UploadDir is where uploaded archives are extracted before deployment
func (c *Config) UploadDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// DeployDir holds one subdirectory per deployed application
func (c *Config) DeployDir() string {
	return filepath.Join(c.DataDir, "deploy")
}

// RegistryFile is the single mapping document of all registered apps
func (c *Config) RegistryFile() string {
	return filepath.Join(c.DataDir, "apps.json")
}

// UsersFile is the persisted user store
func (c *Config) UsersFile() string {
	return filepath.Join(c.DataDir, "users.json")
}

// AuditFile is the sqlite database holding the audit log
func (c *Config) AuditFile() string {
	return filepath.Join(c.DataDir, "audit.db")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
