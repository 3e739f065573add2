// Package config loads the settings of a run: the two root ancestors, the
// sheet layout and the service endpoints.
//
// Values are read in three layers: defaults, an optional YAML file, and the
// environment (a .env file in the working directory is loaded first when
// present). Environment variables win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"famgraph"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Ancestor is the identity of one root ancestor.
type Ancestor struct {
	Name     string `yaml:"name" validate:"required"`
	Life     string `yaml:"life" validate:"required"`
	LastName string `yaml:"last_name" validate:"required"`
}

// Person returns the ancestor as a generation -1 person.
func (a Ancestor) Person() famgraph.Person {
	return famgraph.RootAncestor(a.Name, a.Life, a.LastName)
}

// Sheet describes where the data rows are.
type Sheet struct {
	Name       string `yaml:"name" validate:"required"`
	HeaderRows int    `yaml:"header_rows" validate:"min=0"`
	FooterRows int    `yaml:"footer_rows" validate:"min=0"`
	MinRows    int    `yaml:"min_rows" validate:"min=0"`
}

// GroupOptions returns the grouping settings for famgraph.GroupRows.
func (s Sheet) GroupOptions() famgraph.GroupOptions {
	return famgraph.GroupOptions{HeaderRows: s.HeaderRows, FooterRows: s.FooterRows, MinRows: s.MinRows}
}

// Config holds all settings of a run.
type Config struct {
	First  Ancestor `yaml:"first_ancestor"`
	Second Ancestor `yaml:"second_ancestor"`
	Sheet  Sheet    `yaml:"sheet"`

	DatabaseURL   string   `yaml:"database_url"`
	ServerAddress string   `yaml:"server_address" validate:"required"`
	CORSOrigins   []string `yaml:"cors_origins"`

	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	Environment string `yaml:"environment" validate:"oneof=development production"`
}

// envKeys maps validated fields to the variables that set them, so that
// missing values can be reported by the name the user has to set.
var envKeys = map[string]string{
	"Config.First.Name":      "COMMON_ANCESTOR1",
	"Config.First.Life":      "COMMON_ANCESTOR1_LIFE",
	"Config.First.LastName":  "COMMON_ANCESTOR1_LASTNAME",
	"Config.Second.Name":     "COMMON_ANCESTOR2",
	"Config.Second.Life":     "COMMON_ANCESTOR2_LIFE",
	"Config.Second.LastName": "COMMON_ANCESTOR2_LASTNAME",
}

var validate = validator.New()

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	groups := famgraph.DefaultGroupOptions()
	return &Config{
		Sheet: Sheet{
			Name:       "Ark1",
			HeaderRows: groups.HeaderRows,
			FooterRows: groups.FooterRows,
			MinRows:    groups.MinRows,
		},
		ServerAddress: ":8080",
		CORSOrigins:   []string{"*"},
		LogLevel:      "info",
		Environment:   "development",
	}
}

// Load reads the configuration. file may be empty.
func Load(file string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.First.Name, "COMMON_ANCESTOR1")
	setString(&c.First.Life, "COMMON_ANCESTOR1_LIFE")
	setString(&c.First.LastName, "COMMON_ANCESTOR1_LASTNAME")
	setString(&c.Second.Name, "COMMON_ANCESTOR2")
	setString(&c.Second.Life, "COMMON_ANCESTOR2_LIFE")
	setString(&c.Second.LastName, "COMMON_ANCESTOR2_LASTNAME")

	setString(&c.Sheet.Name, "SHEET_NAME")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.ServerAddress, "SERVER_ADDRESS")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Environment, "ENVIRONMENT")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	for key, dst := range map[string]*int{
		"SHEET_HEADER_ROWS": &c.Sheet.HeaderRows,
		"SHEET_FOOTER_ROWS": &c.Sheet.FooterRows,
		"SHEET_MIN_ROWS":    &c.Sheet.MinRows,
	} {
		if err := setInt(dst, key); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the configuration. Missing ancestor fields are reported as
// a famgraph MissingConfiguration error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if key, ok := envKeys[fe.Namespace()]; ok && fe.Tag() == "required" {
			missing = append(missing, key)
			continue
		}
		invalid = append(invalid, formatFieldError(fe))
	}
	if len(missing) > 0 {
		return famgraph.NewMissingConfigurationError(missing...)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, "; "))
}

// RootAncestors returns the two configured root ancestors.
func (c *Config) RootAncestors() (famgraph.Person, famgraph.Person) {
	return c.First.Person(), c.Second.Person()
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
