package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/offcuts/pkg/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_JWTModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "jwt", JWTSecret: "0123456789abcdef", TokenTTL: time.Hour}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("jwt mode with secret should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("jwt mode should be enabled")
	}
}

func TestAuthConfig_JWTModeShortSecret(t *testing.T) {
	cfg := AuthConfig{Mode: "jwt", JWTSecret: "short", TokenTTL: time.Hour}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("jwt mode with short secret should fail")
	}
	if !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_JWTModeTinyTTL(t *testing.T) {
	cfg := AuthConfig{Mode: "jwt", JWTSecret: "0123456789abcdef", TokenTTL: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("token ttl under a minute should fail")
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestStoreConfig_Driver(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown driver should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Store.Driver = StoreDriverNeo4j
	cfg.Neo4j.URI = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("neo4j driver without uri should fail")
	}

	// The inactive engine section is not checked.
	cfg = NewDefaultConfig()
	cfg.Neo4j.URI = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sqlite driver should ignore neo4j section: %v", err)
	}
}

func TestPhotosConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PhotosConfig
		wantErr bool
	}{
		{"fs", PhotosConfig{Backend: "fs", Dir: "./photos"}, false},
		{"fs without dir", PhotosConfig{Backend: "fs"}, true},
		{"unknown backend", PhotosConfig{Backend: "ftp", Dir: "x"}, true},
		{"s3", PhotosConfig{Backend: "s3", S3: S3Config{Endpoint: "minio:9000", Bucket: "photos", AccessKey: "a", SecretKey: "b"}}, false},
		{"s3 with scheme", PhotosConfig{Backend: "s3", S3: S3Config{Endpoint: "http://minio:9000", Bucket: "photos", AccessKey: "a", SecretKey: "b"}}, true},
		{"s3 without keys", PhotosConfig{Backend: "s3", S3: S3Config{Endpoint: "minio:9000", Bucket: "photos"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "jwt"
	cfg.Auth.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestLoad_YAMLWithEnv(t *testing.T) {
	t.Setenv("OFFCUTS_TEST_SECRET", "0123456789abcdef0123")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `app:
  log_level: DEBUG
  http:
    port: 9090
store:
  driver: neo4j
neo4j:
  uri: neo4j://graph:7687
  username: neo4j
  password: pw
  tx_timeout: 5s
auth:
  mode: jwt
  jwt_secret: ${OFFCUTS_TEST_SECRET}
  token_ttl: 2h
photos:
  backend: fs
  dir: /var/lib/offcuts/photos
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel.String() != "DEBUG" || cfg.App.HTTP.Address() != ":9090" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Neo4j.TxTimeout != 5*time.Second || cfg.Neo4j.Database != "neo4j" {
		t.Errorf("neo4j = %+v", cfg.Neo4j)
	}
	if cfg.Auth.JWTSecret != "0123456789abcdef0123" || cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.Auth.Issuer != "offcuts" {
		t.Errorf("issuer default lost: %q", cfg.Auth.Issuer)
	}
}
