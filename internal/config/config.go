package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultAllowedYears is the model-year set used when none is configured.
var DefaultAllowedYears = []int{2024, 2025, 2026}

// Config holds the full application configuration.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Fuel    FuelConfig    `yaml:"fuel" mapstructure:"fuel"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Publish PublishConfig `yaml:"publish" mapstructure:"publish"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// CatalogConfig locates the canonical catalog.
type CatalogConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`
	FallbackPath string `yaml:"fallback_path" mapstructure:"fallback_path"`
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
	AllowedYears []int  `yaml:"allowed_years" mapstructure:"-"`
}

// SourcesConfig lists the enrichment inputs. Only Primary is required.
type SourcesConfig struct {
	Primary     string `yaml:"primary" mapstructure:"primary"`
	OEMDir      string `yaml:"oem_dir" mapstructure:"oem_dir"`
	OEMYears    []int  `yaml:"oem_years" mapstructure:"oem_years"`
	Overlay     string `yaml:"overlay" mapstructure:"overlay"`
	Sales       string `yaml:"sales" mapstructure:"sales"`
	Maintenance string `yaml:"maintenance" mapstructure:"maintenance"`
	Aliases     string `yaml:"aliases" mapstructure:"aliases"`
}

// FuelConfig holds price overrides and the optional remote price feed.
// Zero prices are unset.
type FuelConfig struct {
	Magna         float64 `yaml:"magna" mapstructure:"magna"`
	Premium       float64 `yaml:"premium" mapstructure:"premium"`
	Diesel        float64 `yaml:"diesel" mapstructure:"diesel"`
	Electricity   float64 `yaml:"electricity" mapstructure:"electricity"`
	AnnualKm      int     `yaml:"annual_km" mapstructure:"annual_km"`
	RemoteURL     string  `yaml:"remote_url" mapstructure:"remote_url"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLHours int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ScoringConfig configures the pillar scorer.
type ScoringConfig struct {
	CoverageThreshold float64 `yaml:"coverage_threshold" mapstructure:"coverage_threshold"`
	WeightsFile       string  `yaml:"weights_file" mapstructure:"weights_file"`
}

// StoreConfig locates the run ledger.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PublishConfig configures the Postgres mirror.
type PublishConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port          int      `yaml:"port" mapstructure:"port"`
	CORSOrigins   []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	AuditCapacity int      `yaml:"audit_capacity" mapstructure:"audit_capacity"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envBindings maps config keys onto the operator-facing environment names.
var envBindings = map[string]string{
	"catalog.path":          "RUTA_DATOS_VEHICULOS",
	"sources.maintenance":   "RUTA_DATOS_MANTENIMIENTO",
	"catalog.allowed_years": "ANOS_PERMITIDOS",
	"fuel.magna":            "PRECIO_GASOLINA_MAGNA_LITRO",
	"fuel.premium":          "PRECIO_GASOLINA_PREMIUM_LITRO",
	"fuel.diesel":           "PRECIO_DIESEL_LITRO",
	"fuel.electricity":      "PRECIO_ELECTRICIDAD_KWH",
	"fuel.annual_km":        "KILOMETROS_ANUALES",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", env)
		}
	}

	// Defaults
	v.SetDefault("catalog.path", "data/enriched/current.csv")
	v.SetDefault("catalog.fallback_path", "data/enriched/catalog_fallback.csv")
	v.SetDefault("catalog.output_dir", "data/enriched")
	v.SetDefault("catalog.allowed_years", "")
	v.SetDefault("sources.primary", "data/normalized/vehiculos.json")
	v.SetDefault("sources.oem_dir", "data/oem")
	v.SetDefault("sources.oem_years", []int{2025, 2026})
	v.SetDefault("sources.overlay", "data/overlay/correcciones.json")
	v.SetDefault("sources.sales", "data/ventas/ventas.csv")
	v.SetDefault("sources.maintenance", "data/mantenimiento/mantenimiento.csv")
	v.SetDefault("sources.aliases", "data/aliases.yaml")
	v.SetDefault("fuel.magna", 0)
	v.SetDefault("fuel.premium", 0)
	v.SetDefault("fuel.diesel", 0)
	v.SetDefault("fuel.electricity", 0)
	v.SetDefault("fuel.annual_km", 15000)
	v.SetDefault("fuel.remote_url", "")
	v.SetDefault("fuel.timeout_secs", 6)
	v.SetDefault("fuel.cache_ttl_hours", 12)
	v.SetDefault("scoring.coverage_threshold", 0.6)
	v.SetDefault("scoring.weights_file", "")
	v.SetDefault("store.path", "data/runs.db")
	v.SetDefault("publish.database_url", "")
	v.SetDefault("publish.table", "vehicle_catalog")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.audit_capacity", 200)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	years, err := allowedYears(v.Get("catalog.allowed_years"))
	if err != nil {
		return nil, err
	}
	cfg.Catalog.AllowedYears = years

	return &cfg, nil
}

// allowedYears accepts the raw viper value: a YAML list or a string in
// either accepted notation.
func allowedYears(raw any) ([]int, error) {
	switch t := raw.(type) {
	case nil:
		return ParseAllowedYears("")
	case string:
		return ParseAllowedYears(t)
	case []int:
		return normalizeYears(t), nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, fmt.Sprint(e))
		}
		return ParseAllowedYears(strings.Join(parts, ","))
	default:
		return ParseAllowedYears(fmt.Sprint(t))
	}
}

// ParseAllowedYears parses a JSON list ("[2024,2025]") or a comma list
// ("2024, 2025"). Blank input yields DefaultAllowedYears. The result is
// sorted and free of duplicates.
func ParseAllowedYears(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return append([]int(nil), DefaultAllowedYears...), nil
	}

	if strings.HasPrefix(s, "[") {
		var years []int
		if err := json.Unmarshal([]byte(s), &years); err != nil {
			return nil, eris.Wrapf(err, "config: parse allowed years %q", s)
		}
		if len(years) == 0 {
			return append([]int(nil), DefaultAllowedYears...), nil
		}
		return normalizeYears(years), nil
	}

	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, eris.Wrapf(err, "config: parse allowed year %q", part)
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return append([]int(nil), DefaultAllowedYears...), nil
	}
	return normalizeYears(years), nil
}

func normalizeYears(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, y := range in {
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	sort.Ints(out)
	return out
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Scoring.CoverageThreshold < 0 || c.Scoring.CoverageThreshold > 1 {
		errs = append(errs, "scoring.coverage_threshold must be between 0 and 1")
	}
	if len(c.Catalog.AllowedYears) == 0 {
		errs = append(errs, "catalog.allowed_years must not be empty")
	}

	switch mode {
	case "enrich":
		if c.Sources.Primary == "" {
			errs = append(errs, "sources.primary is required")
		}
		if c.Catalog.OutputDir == "" {
			errs = append(errs, "catalog.output_dir is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.AuditCapacity <= 0 {
			errs = append(errs, "server.audit_capacity must be > 0")
		}
		if c.Catalog.Path == "" {
			errs = append(errs, "catalog.path is required")
		}
	case "publish":
		if c.Publish.DatabaseURL == "" {
			errs = append(errs, "publish.database_url is required")
		}
	case "query":
		if c.Catalog.Path == "" {
			errs = append(errs, "catalog.path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
