// Package config provides configuration management for wbclient.
// It loads settings from environment variables with the WBCLIENT_ prefix,
// optionally layered over a YAML file, and provides sensible defaults.
//
// The lookup-backend selector is read once here at startup; nothing in
// the system re-reads it per call.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Backend names the two interchangeable id-mapping/label-search backends.
const (
	// BackendDirect queries the wiki database directly.
	BackendDirect = "direct"

	// BackendImporter goes through the remote importer lookup service.
	BackendImporter = "importer"
)

// Config holds all configuration settings for wbclient.
type Config struct {
	Wiki   WikiConfig   `yaml:"wiki"`
	Lookup LookupConfig `yaml:"lookup"`
	Import ImportConfig `yaml:"import"`
}

// WikiConfig describes the wiki and query endpoints plus bot credentials.
type WikiConfig struct {
	APIURL        string  `yaml:"api_url"`        // MediaWiki action API endpoint
	SPARQLURL     string  `yaml:"sparql_url"`     // SPARQL query endpoint
	SPARQLPrefix  string  `yaml:"sparql_prefix"`  // PREFIX declaration required by the endpoint, if any
	BaseURL       string  `yaml:"base_url"`       // Wikibase instance root
	Username      string  `yaml:"username"`       // bot account name
	Password      string  `yaml:"password"`       // bot account password
	EditsPerSec   float64 `yaml:"edits_per_sec"`  // write throttle (default: 2)
	EditBurst     int     `yaml:"edit_burst"`     // write throttle burst (default: 1)
}

// LookupConfig selects and parameterizes the id-mapping backend.
type LookupConfig struct {
	// Backend is "direct" or "importer". Read once at startup.
	Backend string `yaml:"backend"`

	// ImporterAPIURL is the root of the importer lookup service
	// (importer backend only).
	ImporterAPIURL string `yaml:"importer_api_url"`

	// DatabaseDriver/DatabaseDSN configure the direct database
	// connection (direct backend only).
	DatabaseDriver string `yaml:"database_driver"`
	DatabaseDSN    string `yaml:"database_dsn"`
}

// ImportConfig parameterizes the bulk CSV importer.
type ImportConfig struct {
	// SoftwareProperty is the local property attached to articles for
	// each CSV row's software column.
	SoftwareProperty string `yaml:"software_property"`
}

// Load builds the configuration from environment variables alone.
func Load() (*Config, error) {
	cfg := defaults()
	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML configuration file and layers environment
// variables on top (env wins).
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LookupBackend returns the configured backend selector.
func (c *Config) LookupBackend() string {
	return c.Lookup.Backend
}

func (c *Config) validate() error {
	switch c.Lookup.Backend {
	case BackendDirect, BackendImporter:
	default:
		return fmt.Errorf("config: unknown lookup backend %q (want %q or %q)",
			c.Lookup.Backend, BackendDirect, BackendImporter)
	}
	if c.Lookup.Backend == BackendDirect && c.Lookup.DatabaseDSN == "" {
		return fmt.Errorf("config: direct lookup backend requires WBCLIENT_DATABASE_DSN")
	}
	if c.Lookup.Backend == BackendImporter && c.Lookup.ImporterAPIURL == "" {
		return fmt.Errorf("config: importer lookup backend requires WBCLIENT_IMPORTER_API_URL")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Wiki: WikiConfig{
			EditsPerSec: 2,
			EditBurst:   1,
		},
		Lookup: LookupConfig{
			Backend:        BackendImporter,
			DatabaseDriver: "postgres",
		},
		Import: ImportConfig{
			SoftwareProperty: "P223",
		},
	}
}

// applyEnv overlays WBCLIENT_* environment variables on cfg.
func applyEnv(cfg *Config) {
	cfg.Wiki.APIURL = getEnv("WBCLIENT_API_URL", cfg.Wiki.APIURL)
	cfg.Wiki.SPARQLURL = getEnv("WBCLIENT_SPARQL_URL", cfg.Wiki.SPARQLURL)
	cfg.Wiki.SPARQLPrefix = getEnv("WBCLIENT_SPARQL_PREFIX", cfg.Wiki.SPARQLPrefix)
	cfg.Wiki.BaseURL = getEnv("WBCLIENT_BASE_URL", cfg.Wiki.BaseURL)
	cfg.Wiki.Username = getEnv("WBCLIENT_USER", cfg.Wiki.Username)
	cfg.Wiki.Password = getEnv("WBCLIENT_PASSWORD", cfg.Wiki.Password)
	cfg.Wiki.EditsPerSec = getEnvFloat("WBCLIENT_EDITS_PER_SEC", cfg.Wiki.EditsPerSec)
	cfg.Wiki.EditBurst = getEnvInt("WBCLIENT_EDIT_BURST", cfg.Wiki.EditBurst)

	cfg.Lookup.Backend = getEnv("WBCLIENT_LOOKUP_BACKEND", cfg.Lookup.Backend)
	cfg.Lookup.ImporterAPIURL = getEnv("WBCLIENT_IMPORTER_API_URL", cfg.Lookup.ImporterAPIURL)
	cfg.Lookup.DatabaseDriver = getEnv("WBCLIENT_DATABASE_DRIVER", cfg.Lookup.DatabaseDriver)
	cfg.Lookup.DatabaseDSN = getEnv("WBCLIENT_DATABASE_DSN", cfg.Lookup.DatabaseDSN)

	cfg.Import.SoftwareProperty = getEnv("WBCLIENT_SOFTWARE_PROPERTY", cfg.Import.SoftwareProperty)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a
// default value when unset or unparsable.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a
// default value when unset or unparsable.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
