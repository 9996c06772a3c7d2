package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Store drivers.
const (
	StoreDriverNeo4j  = "neo4j"
	StoreDriverSQLite = "sqlite"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeJWT      = "jwt"
)

// Photo backends.
const (
	PhotoBackendFS = "fs"
	PhotoBackendS3 = "s3"
)

const minJWTSecretLen = 16

var endpointPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]+(:[0-9]{1,5})?$`)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Store  StoreConfig       `yaml:"store"`
	Neo4j  Neo4jConfig       `yaml:"neo4j"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Backup BackupConfig      `yaml:"backup"`
	Auth   AuthConfig        `yaml:"auth"`
	Photos PhotosConfig      `yaml:"photos"`
}

// Validate validates the configuration. Only the sections selected by
// store.driver and photos.backend are checked.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	switch c.Store.Driver {
	case StoreDriverNeo4j:
		if err := c.Neo4j.Validate(); err != nil {
			return fmt.Errorf("neo4j: %w", err)
		}
	case StoreDriverSQLite:
		if err := c.SQLite.Validate(); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Photos.Validate(); err != nil {
		return fmt.Errorf("photos: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects the graph engine.
type StoreConfig struct {
	Driver string `yaml:"driver"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(StoreDriverNeo4j, StoreDriverSQLite)),
	)
}

// Neo4jConfig holds the Neo4j connection settings.
type Neo4jConfig struct {
	URI         string        `yaml:"uri"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Database    string        `yaml:"database"`
	MaxPoolSize int           `yaml:"max_pool_size"`
	TxTimeout   time.Duration `yaml:"tx_timeout"`
}

// Validate validates the Neo4j configuration.
func (c *Neo4jConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URI, validation.Required),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.MaxPoolSize, validation.Min(0)),
		validation.Field(&c.TxTimeout, validation.Min(time.Duration(0))),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// BackupConfig controls startup seeding and timestamp parsing of restored documents.
type BackupConfig struct {
	SeedFile              string `yaml:"seed_file"`
	SpeculativeTimestamps bool   `yaml:"speculative_timestamps"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): every route is open, suitable for local dev.
//   - "jwt": login issues HS256 tokens; JWTSecret must be set.
type AuthConfig struct {
	Mode      string        `yaml:"mode"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Issuer    string        `yaml:"issuer"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeJWT)),
	); err != nil {
		return err
	}
	if c.Mode != AuthModeJWT {
		return nil
	}
	if len(c.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("mode is %q but jwt_secret is shorter than %d bytes", AuthModeJWT, minJWTSecretLen)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.TokenTTL, validation.Required, validation.Min(time.Minute)),
	)
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeJWT
}

// PhotosConfig selects where uploaded photos are kept.
type PhotosConfig struct {
	Backend string   `yaml:"backend"`
	Dir     string   `yaml:"dir"`
	S3      S3Config `yaml:"s3"`
}

// Validate validates the photos configuration.
func (c *PhotosConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(PhotoBackendFS, PhotoBackendS3)),
	); err != nil {
		return err
	}
	if c.Backend == PhotoBackendS3 {
		return c.S3.Validate()
	}
	return validation.ValidateStruct(c, validation.Field(&c.Dir, validation.Required))
}

// S3Config holds S3-compatible object storage settings.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	PathStyle bool   `yaml:"path_style"`
}

// Validate validates the S3 configuration.
func (c *S3Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, validation.Match(endpointPattern).Error("must be host or host:port without scheme")),
		validation.Field(&c.Bucket, validation.Required, validation.Length(3, 63)),
		validation.Field(&c.AccessKey, validation.Required),
		validation.Field(&c.SecretKey, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Driver: StoreDriverSQLite,
		},
		Neo4j: Neo4jConfig{
			URI:         "neo4j://localhost:7687",
			Username:    "neo4j",
			Database:    "neo4j",
			MaxPoolSize: 50,
			TxTimeout:   15 * time.Second,
		},
		SQLite: SQLiteConfig{
			Path: "./offcuts.db",
		},
		Auth: AuthConfig{
			Mode:     AuthModeDisabled,
			TokenTTL: 24 * time.Hour,
			Issuer:   "offcuts",
		},
		Photos: PhotosConfig{
			Backend: PhotoBackendFS,
			Dir:     "./photos",
		},
	}
}
