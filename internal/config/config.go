package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 2342
	defaultEnv        = "development"
	defaultFormsPath  = "forms.yml"
	defaultContentDir = "content"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "etherbrian_site"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int
	Env            string // "development" | "production"
	FormsPath      string // per-form spam-protection registry
	ContentDir     string // markdown collections root
	LogsDir        string // empty = resolve via nativelog
	LogMaxAgeDays  int    // default horizon for age-based cleanup
	RedisURL       string // empty = rate limiting disabled
	JWTSecret      string
	AllowedOrigins []string
	Database       DatabaseConfig
	Archive        ArchiveConfig
}

// DatabaseConfig describes the MySQL connection.
type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Charset  string
	Loc      string
}

// ArchiveConfig configures the optional S3 log archive.
type ArchiveConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

type rawAppConfig struct {
	Port           int               `yaml:"port"`
	Env            string            `yaml:"env"`
	FormsPath      string            `yaml:"forms_path"`
	FormsFile      string            `yaml:"forms_file"`
	ContentDir     string            `yaml:"content_dir"`
	LogsDir        string            `yaml:"logs_dir"`
	LogDir         string            `yaml:"log_dir"`
	LogMaxAgeDays  *int              `yaml:"log_max_age_days"`
	RedisURL       string            `yaml:"redis_url"`
	JWTSecret      string            `yaml:"jwt_secret"`
	AllowedOrigins []string          `yaml:"allowed_origins"`
	Database       rawDatabaseConfig `yaml:"database"`
	DSN            string            `yaml:"dsn"`
	Archive        rawArchiveConfig  `yaml:"archive"`
}

type rawDatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	DBName   string `yaml:"db_name"`
	Charset  string `yaml:"charset"`
	Loc      string `yaml:"loc"`
}

type rawArchiveConfig struct {
	Enabled         *bool  `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
}

// Load reads and validates the YAML config at path.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	raw := rawAppConfig{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	applyRaw(&cfg, raw)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Database.DSN == "" && (cfg.Database.Port < 1 || cfg.Database.Port > 65535) {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.LogMaxAgeDays < 1 {
		return nil, fmt.Errorf("invalid log_max_age_days %d in %q, expected >= 1", cfg.LogMaxAgeDays, path)
	}
	if cfg.Archive.Enabled {
		if cfg.Archive.Bucket == "" || cfg.Archive.Region == "" ||
			cfg.Archive.AccessKeyID == "" || cfg.Archive.SecretAccessKey == "" {
			return nil, fmt.Errorf("incomplete archive config in %q: bucket/region/access_key_id/secret_access_key are required", path)
		}
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:          defaultPort,
		Env:           defaultEnv,
		FormsPath:     defaultFormsPath,
		ContentDir:    defaultContentDir,
		LogMaxAgeDays: 30,
		Database: DatabaseConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			Charset:  defaultDBCharset,
			Loc:      defaultDBLoc,
		},
	}
}

func applyRaw(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port > 0 {
		cfg.Port = raw.Port
	}
	if env := strings.TrimSpace(raw.Env); env != "" {
		cfg.Env = strings.ToLower(env)
	}
	cfg.FormsPath = firstNonEmpty(raw.FormsPath, raw.FormsFile, cfg.FormsPath)
	if dir := strings.TrimSpace(raw.ContentDir); dir != "" {
		cfg.ContentDir = dir
	}
	cfg.LogsDir = firstNonEmpty(raw.LogsDir, raw.LogDir, cfg.LogsDir)
	if raw.LogMaxAgeDays != nil {
		cfg.LogMaxAgeDays = *raw.LogMaxAgeDays
	}
	cfg.RedisURL = strings.TrimSpace(raw.RedisURL)
	cfg.JWTSecret = strings.TrimSpace(raw.JWTSecret)
	cfg.AllowedOrigins = raw.AllowedOrigins

	db := &cfg.Database
	db.DSN = firstNonEmpty(raw.Database.DSN, raw.DSN, db.DSN)
	if raw.Database.Host != "" {
		db.Host = raw.Database.Host
	}
	if raw.Database.Port > 0 {
		db.Port = raw.Database.Port
	}
	db.User = firstNonEmpty(raw.Database.User, raw.Database.Username, db.User)
	if raw.Database.Password != "" {
		db.Password = raw.Database.Password
	}
	db.Name = firstNonEmpty(raw.Database.Name, raw.Database.DBName, db.Name)
	if raw.Database.Charset != "" {
		db.Charset = raw.Database.Charset
	}
	if raw.Database.Loc != "" {
		db.Loc = raw.Database.Loc
	}

	ar := &cfg.Archive
	if raw.Archive.Enabled != nil {
		ar.Enabled = *raw.Archive.Enabled
	}
	ar.Bucket = strings.TrimSpace(raw.Archive.Bucket)
	ar.Region = strings.TrimSpace(raw.Archive.Region)
	ar.Endpoint = strings.TrimSpace(raw.Archive.Endpoint)
	ar.AccessKeyID = strings.TrimSpace(raw.Archive.AccessKeyID)
	ar.SecretAccessKey = strings.TrimSpace(raw.Archive.SecretAccessKey)
	ar.Prefix = strings.Trim(strings.TrimSpace(raw.Archive.Prefix), "/")
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// MySQLDSN assembles the DSN when one is not given verbatim.
func (c *DatabaseConfig) MySQLDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.Charset, c.Loc)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
