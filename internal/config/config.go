package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "finboard.yaml"

// Environment variables that override file values.
const (
	EnvLocale   = "FINBOARD_LOCALE"
	EnvDataDir  = "FINBOARD_DATA_DIR"
	EnvAddr     = "FINBOARD_ADDR"
	EnvLogLevel = "LOG_LEVEL"
)

// Config represents the top-level finboard.yaml configuration.
type Config struct {
	Locale   string         `yaml:"locale" validate:"required,oneof=pt en"`
	DataDir  string         `yaml:"data_dir" validate:"required"`
	Profiles []string       `yaml:"profiles" validate:"min=1,dive,required,excludesall=/"`
	Storage  StorageConfig  `yaml:"storage"`
	Models   ModelsConfig   `yaml:"models"`
	Taxonomy TaxonomyConfig `yaml:"taxonomy"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// StorageConfig selects where saved tables live.
type StorageConfig struct {
	Driver     string `yaml:"driver" validate:"required,oneof=csv sqlite"`
	SQLitePath string `yaml:"sqlite_path,omitempty"` // defaults to <data_dir>/finboard.db
}

// ModelsConfig locates the pre-trained classifier artifacts. Relative
// paths are resolved against Dir.
type ModelsConfig struct {
	Dir         string    `yaml:"dir" validate:"required"`
	Subcategory ModelPair `yaml:"subcategory"`
	Income      ModelPair `yaml:"income"`
}

// ModelPair is a vectorizer and the classifier trained on its output.
type ModelPair struct {
	Vectorizer string `yaml:"vectorizer" validate:"required"`
	Classifier string `yaml:"classifier" validate:"required"`
}

// TaxonomyConfig optionally replaces the built-in categories and labels.
type TaxonomyConfig struct {
	Path       string `yaml:"path,omitempty"`
	LabelsPath string `yaml:"labels_path,omitempty"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads a finboard.yaml file from disk. Fields absent from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new install.
func Default() *Config {
	return &Config{
		Locale:   "pt",
		DataDir:  "database",
		Profiles: []string{"default"},
		Storage: StorageConfig{
			Driver: "csv",
		},
		Models: ModelsConfig{
			Dir: "models",
			Subcategory: ModelPair{
				Vectorizer: "subcategory_vectorizer.yaml",
				Classifier: "subcategory_classifier.gob",
			},
			Income: ModelPair{
				Vectorizer: "income_vectorizer.yaml",
				Classifier: "income_classifier.gob",
			},
		},
		Server: ServerConfig{
			Addr: ":8050",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Resolve builds the effective configuration: .env files are loaded into
// the environment, path is read when it exists, environment overrides are
// applied and the result is validated.
func Resolve(path string, envFiles ...string) (*Config, error) {
	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFiles loads each .env file that exists. Variables already set in
// the environment win.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with the FINBOARD_* and LOG_LEVEL
// variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLocale); ok && v != "" {
		c.Locale = v
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

var validate = validator.New()

// Validate checks the config's field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// HasProfile reports whether name is a configured profile.
func (c *Config) HasProfile(name string) bool {
	for _, p := range c.Profiles {
		if p == name {
			return true
		}
	}
	return false
}

// SQLitePath returns the database file of the sqlite driver.
func (c *Config) SQLitePath() string {
	if c.Storage.SQLitePath != "" {
		return c.Storage.SQLitePath
	}
	return filepath.Join(c.DataDir, "finboard.db")
}

// ModelPath resolves p against the models directory.
func (c *Config) ModelPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Models.Dir, p)
}
